package model

import (
	"errors"
	"time"

	"github.com/lib/pq"
)

// UserProfile mirrors the external user directory into Postgres.
// ParentManagerID forms the management hierarchy used for assignment
// permission checks.
type UserProfile struct {
	ID              string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Email           string         `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	FirebaseUID     string         `gorm:"type:varchar(128);index" json:"firebase_uid"`
	GoogleID        string         `gorm:"type:varchar(128)" json:"google_id"`
	ParentManagerID *string        `gorm:"type:varchar(64);index" json:"parent_manager_id,omitempty"`
	Roles           pq.StringArray `gorm:"type:text[]" json:"roles"`
	DisplayName     string         `gorm:"type:varchar(255)" json:"display_name"`
	AvatarURL       string         `gorm:"type:text" json:"avatar_url"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

// TableName sets the table name.
func (UserProfile) TableName() string {
	return "users"
}

// Validate checks the user profile before persisting it.
func (u *UserProfile) Validate() error {
	if u.ID == "" {
		return errors.New("user ID is required")
	}
	if u.Email == "" && u.FirebaseUID == "" {
		return errors.New("user must have an email or a firebase UID")
	}
	return nil
}
