package models

import (
	"slices"

	"github.com/lib/pq"
)

type User struct {
	BaseModel
	Name         string         `gorm:"not null"`
	Email        string         `gorm:"uniqueIndex;not null"` // lower-cased
	PasswordHash string         `gorm:"not null"`
	ImageURL     string         `gorm:"not null;default:''"`
	ImageKey     string         `gorm:"index"`
	PlaceIDs     pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
}

// AddPlace appends id unless already present.
func (u *User) AddPlace(id string) {
	if slices.Contains(u.PlaceIDs, id) {
		return
	}
	u.PlaceIDs = append(u.PlaceIDs, id)
}

// RemovePlace drops id, keeping the order of the rest.
func (u *User) RemovePlace(id string) {
	u.PlaceIDs = slices.DeleteFunc(u.PlaceIDs, func(p string) bool { return p == id })
}

// Clone returns a copy that shares no slices with u.
func (u *User) Clone() *User {
	c := *u
	c.PlaceIDs = append(pq.StringArray(nil), u.PlaceIDs...)
	if c.PlaceIDs == nil {
		c.PlaceIDs = pq.StringArray{}
	}
	return &c
}
