package models

import (
	"gorm.io/gorm"
)

// Shift — выход оператора на смену в конкретный день.
type Shift struct {
	gorm.Model
	UserID   uint   `gorm:"index;not null"`
	User     User   `gorm:"foreignKey:UserID"`
	GroupID  uint   `gorm:"index;not null"`
	WorkDate string `gorm:"index;not null"` // Дата смены в формате YYYY-MM-DD
	Active   bool   `gorm:"default:true"`   // false — смена закрыта
}
