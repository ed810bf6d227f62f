package models

import "time"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"not null" json:"firstName"`
	LastName     string    `gorm:"not null" json:"lastName"`
	City         string    `gorm:"not null" json:"city"`
	State        string    `gorm:"not null" json:"state"`
	Country      string    `gorm:"not null" json:"country"`
	AvatarRef    string    `gorm:"column:avatar;not null" json:"avatar"`
	CreatedAt    time.Time `gorm:"not null" json:"-"`
}
