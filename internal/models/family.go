package models

// Family groups users who share read access to each other's transactions.
// The creator is the admin; others join with the invite code.
type Family struct {
	Base
	Name       string  `gorm:"size:100;not null" json:"name"`
	AdminID    string  `gorm:"type:uuid;not null" json:"admin_id"`
	AvatarURL  *string `json:"avatar_url,omitempty"`
	InviteCode string  `gorm:"size:10;uniqueIndex;not null" json:"invite_code"`
}

// FamilyMember is a read model of a user within a family.
type FamilyMember struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	IsAdmin   bool    `json:"is_admin"`
}
