package models

import (
	"strings"

	"gorm.io/gorm"
)

// Category groups expenses for budgeting, e.g. "Groceries" or "Travel".
type Category struct {
	DefaultModel
	Name string `json:"name" gorm:"uniqueIndex" example:"Groceries" default:""`
	Note string `json:"note" example:"Everything bought at the supermarket" default:""`
}

func (c *Category) BeforeSave(_ *gorm.DB) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Note = strings.TrimSpace(c.Note)
	return nil
}
