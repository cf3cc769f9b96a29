package models

import (
	"strings"

	"gorm.io/gorm"
)

// User is the identity stub the ledger engine keys on. Authentication is
// not handled here; a user is nothing more than a stable ID with contact
// details for presentation.
type User struct {
	DefaultModel
	Name  string `json:"name" example:"Krishanu" default:""`
	Email string `json:"email" gorm:"uniqueIndex" example:"krishanu@example.com"`
}

func (u *User) BeforeSave(_ *gorm.DB) error {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}
