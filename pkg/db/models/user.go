package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the buyer identity. Created lazily at checkout for guest buyers, so
// it intentionally carries no credential fields; authentication is handled by
// an external collaborator.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null;default:''"`
	Locale    string    `gorm:"column:locale;not null;default:'ko'"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
