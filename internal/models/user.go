package models

import "time"

// User is an account holder. A user belongs to at most one family.
type User struct {
	Base
	Name             string     `gorm:"size:100;not null" json:"name"`
	Email            string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password         string     `gorm:"not null" json:"-"`
	AvatarURL        *string    `json:"avatar_url,omitempty"`
	FamilyID         *string    `gorm:"type:uuid;index" json:"family_id,omitempty"`
	RefreshTokenHash string     `gorm:"size:64" json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	Family *Family `gorm:"foreignKey:FamilyID;constraint:OnDelete:SET NULL" json:"family,omitempty"`
}
