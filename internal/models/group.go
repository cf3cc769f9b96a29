package models

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberRole is the role a user has within a group.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

// Group is a set of users that share expenses.
//
// A group always has at least one member, the creator, who becomes its
// first admin. Membership is versioned: removing a member soft-deletes the
// GroupMember row, so split lines of past expenses stay resolvable.
type Group struct {
	DefaultModel
	Name string `json:"name" example:"Flat 42" default:""`
	Note string `json:"note" example:"Rent, groceries and utilities" default:""`
}

// GroupMember is the membership of one user in one group.
//
// The unique index only covers live rows so that a removed member can be
// added again with a fresh membership row.
type GroupMember struct {
	DefaultModel
	GroupID uuid.UUID  `json:"groupId" gorm:"uniqueIndex:member_group_user,where:deleted_at IS NULL"`
	Group   Group      `json:"-"`
	UserID  uuid.UUID  `json:"userId" gorm:"uniqueIndex:member_group_user,where:deleted_at IS NULL"`
	User    User       `json:"-"`
	Role    MemberRole `json:"role" example:"member" default:"member"`
}

func (g *Group) BeforeSave(_ *gorm.DB) error {
	g.Name = strings.TrimSpace(g.Name)
	g.Note = strings.TrimSpace(g.Note)

	if g.Name == "" {
		return ErrGroupNameNotSet
	}

	return nil
}

func (m *GroupMember) BeforeSave(_ *gorm.DB) error {
	if m.Role == "" {
		m.Role = RoleMember
	}
	return nil
}

// Members returns the current (not soft-deleted) members of the group in
// join order.
func (g Group) Members(db *gorm.DB) ([]GroupMember, error) {
	var members []GroupMember
	err := db.Where(&GroupMember{GroupID: g.ID}).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}

	return members, nil
}

// MemberIDs returns the user IDs of the current members of the group.
func (g Group) MemberIDs(db *gorm.DB) (map[uuid.UUID]bool, error) {
	members, err := g.Members(db)
	if err != nil {
		return nil, err
	}

	ids := make(map[uuid.UUID]bool, len(members))
	for _, member := range members {
		ids[member.UserID] = true
	}

	return ids, nil
}

// IsMember reports whether the user is a current member of the group.
func (g Group) IsMember(db *gorm.DB, userID uuid.UUID) (bool, error) {
	var count int64
	err := db.Model(&GroupMember{}).
		Where(&GroupMember{GroupID: g.ID, UserID: userID}).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
