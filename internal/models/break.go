package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы перерыва.
const (
	BreakTaken    = "taken"    // перерыв идёт
	BreakFinished = "finished" // перерыв завершён
	BreakSkipped  = "skipped"  // круг пропущен, перерыв не брался
)

// Break — фактический перерыв (или пропуск круга) оператора.
type Break struct {
	gorm.Model
	ShiftID         uint   `gorm:"index;not null"`
	UserID          uint   `gorm:"index;not null"`
	WorkDate        string `gorm:"index;not null"` // YYYY-MM-DD
	GroupID         uint   `gorm:"index;not null"`
	Round           int    `gorm:"not null"`
	DurationMinutes int    `gorm:"not null"` // 0 для пропуска круга
	Status          string `gorm:"index;not null"`
	StartedAt       time.Time
	EndedAt         *time.Time
}
