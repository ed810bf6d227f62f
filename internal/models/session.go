package models

import "time"

// Session maps a hashed session token to a user. The raw token only ever
// lives in the client cookie.
type Session struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (session Session) Expired(now time.Time) bool {
	return !now.Before(session.ExpiresAt)
}
