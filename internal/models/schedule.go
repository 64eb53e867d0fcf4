package models

import (
	"gorm.io/gorm"
)

// Schedule описывает правила перерывов для группы смены.
type Schedule struct {
	gorm.Model
	Name                string `gorm:"not null"`      // Название графика
	AllowDurationChoice bool   `gorm:"default:false"` // Может ли оператор сам выбирать длительность (10/20)
	BreakTemplate       string `gorm:"default:''"`    // Шаблон длительностей по порядку перерывов, например "20,10,20"
	MinIntervalMinutes  int    `gorm:"default:0"`     // Минимальный интервал после перерыва, 0 — отключено
}

// ShiftGroup — группа операторов, работающих по одному графику.
type ShiftGroup struct {
	gorm.Model
	Name       string `gorm:"uniqueIndex;not null"`
	ScheduleID uint   `gorm:"index;not null"`
	Schedule   Schedule
}
