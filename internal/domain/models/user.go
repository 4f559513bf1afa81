package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthUser holds login credentials. It is kept apart from the profile so the
// password hash never travels with a User.
type AuthUser struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the AuthUser model
func (AuthUser) TableName() string {
	return "auth_user"
}

// BeforeCreate assigns the id in Go so sqlite and postgres behave the same
func (a *AuthUser) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// User is the CRM account profile that owns tracked repositories
type User struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	FirstName  string    `json:"first_name" gorm:"not null;size:255"`
	LastName   string    `json:"last_name" gorm:"not null;size:255"`
	Email      string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Phone      string    `json:"phone" gorm:"uniqueIndex;not null;size:64"`
	AuthUserID uuid.UUID `json:"-" gorm:"type:uuid;uniqueIndex;not null"`
	AuthUser   *AuthUser `json:"-" gorm:"foreignKey:AuthUserID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}
