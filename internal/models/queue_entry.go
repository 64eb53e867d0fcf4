package models

import (
	"time"

	"gorm.io/gorm"
)

// Статусы записи в очереди на перерыв.
const (
	EntryWaiting   = "waiting"   // ждёт своей очереди
	EntryNotified  = "notified"  // получил уведомление "ваша очередь"
	EntryConfirmed = "confirmed" // подтвердил и ушёл на перерыв
	EntryCancelled = "cancelled" // снят с очереди (пропуск круга)
)

// BreakQueueEntry — запись оператора в очереди на перерыв внутри круга.
// Позиция плотная и пересчитывается при переносе/просрочке/вставке вне очереди.
type BreakQueueEntry struct {
	gorm.Model
	WorkDate        string     `gorm:"index;not null"` // YYYY-MM-DD
	GroupID         uint       `gorm:"index;not null"`
	Round           int        `gorm:"index;not null"`
	Position        int        `gorm:"not null"`
	ShiftID         uint       `gorm:"index;not null"`
	UserID          uint       `gorm:"index;not null"`
	User            User       `gorm:"foreignKey:UserID"`
	DurationMinutes int        `gorm:"not null"`
	Status          string     `gorm:"index;not null;default:waiting"`
	EnqueuedAt      time.Time  `gorm:"not null"`
	NotifiedAt      *time.Time // nil, пока оператор не уведомлён
	Priority        bool       `gorm:"default:false"` // вставлен старшим вне очереди
}
