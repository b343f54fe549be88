package model

import "time"

// Session backs bearer-token authentication. The access token expires and can
// be exchanged once via the refresh token, which rotates both values.
type Session struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	Token        string    `gorm:"size:64;uniqueIndex;not null" json:"token"`
	RefreshToken string    `gorm:"size:64;uniqueIndex;not null" json:"refresh_token"`
	ExpiresAt    time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`

	User *User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}
