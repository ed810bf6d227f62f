package models

import "time"

type Meal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FastID      uint      `gorm:"not null;index" json:"fastId"`
	Description string    `gorm:"not null" json:"description"`
	MealTime    time.Time `gorm:"not null" json:"mealTime"`
}
