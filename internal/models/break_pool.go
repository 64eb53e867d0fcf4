package models

import (
	"gorm.io/gorm"
)

// BreakPool — пул слотов перерывов на (дату, группу).
// Квоты по длительностям опциональны: nil — квота не отслеживается.
type BreakPool struct {
	gorm.Model
	WorkDate       string `gorm:"index:idx_pool_day,unique;not null"` // YYYY-MM-DD
	GroupID        uint   `gorm:"index:idx_pool_day,unique;not null"`
	TotalSlots     int    `gorm:"not null"`
	AvailableSlots int    `gorm:"not null"`
	Total10        *int   `gorm:"column:total10"` // Квота 10-минутных перерывов (всего)
	Left10         *int   `gorm:"column:left10"`  // Остаток квоты 10-минутных
	Total20        *int   `gorm:"column:total20"` // Квота 20-минутных перерывов (всего)
	Left20         *int   `gorm:"column:left20"`  // Остаток квоты 20-минутных
	Version        uint   `gorm:"not null;default:0"` // Для оптимистичной блокировки
}
