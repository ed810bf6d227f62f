package models

import "time"

// Fast is one fasting period. EndTime and Note stay nil while the fast is active.
type Fast struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"userId"`
	StartTime time.Time  `gorm:"not null" json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	IsActive  bool       `gorm:"not null;default:true" json:"isActive"`
	Note      *string    `json:"note"`
}

func (fast Fast) OwnedBy(userID uint) bool {
	return fast.UserID == userID
}
