package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the persisted account record. PasswordHash is bcrypt; Role is one
// of guest/member/admin.
type User struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"not null;default:guest"`
	CreatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Room is the persisted room record. PasswordHash is set only for private
// rooms that have a password configured; Members is the durable membership
// list, distinct from the live occupant set tracked in memory.
type Room struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex;not null"`
	Description  string
	IsPrivate    bool
	PasswordHash string
	CreatedByID  string
	CreatedBy    *User  `gorm:"foreignKey:CreatedByID"`
	Members      []User `gorm:"many2many:room_members"`
	CreatedAt    time.Time
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
