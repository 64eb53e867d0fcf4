package queue

import (
	"time"

	"pereryv/internal/models"
)

// Контракты хранилищ. Реализации лежат в internal/repository;
// движок очереди работает только через эти интерфейсы.

// EntryRepo — хранилище записей очереди.
// Методы, возвращающие одну запись, отдают (nil, nil), если записи нет.
type EntryRepo interface {
	Create(e *models.BreakQueueEntry) error
	Update(e *models.BreakQueueEntry) error
	ByID(id uint) (*models.BreakQueueEntry, error)
	// ForRound возвращает активные записи круга (waiting/notified) по позиции,
	// с загруженным пользователем.
	ForRound(date string, groupID uint, round int) ([]models.BreakQueueEntry, error)
	// ActiveEntryFor — активная запись смены в круге (waiting/notified).
	ActiveEntryFor(shiftID uint, round int) (*models.BreakQueueEntry, error)
	// MaxPosition — максимальная позиция среди неотменённых записей круга.
	MaxPosition(date string, groupID uint, round int) (int, error)
	HasNotified(date string, groupID uint, round int) (bool, error)
	NotifiedOlderThan(cutoff time.Time) ([]models.BreakQueueEntry, error)
	// ShiftPositionsAfter сдвигает на delta позиции активных записей круга,
	// стоящих строго после position.
	ShiftPositionsAfter(date string, groupID uint, round int, position, delta int) error
	// ShiftAllPositions сдвигает на delta позиции всех активных записей круга.
	ShiftAllPositions(date string, groupID uint, round int, delta int) error
	// ActiveRounds — номера кругов, в которых есть активные записи.
	ActiveRounds(date string, groupID uint) ([]int, error)
}

// PoolRepo — хранилище пулов слотов.
type PoolRepo interface {
	ForDay(date string, groupID uint) (*models.BreakPool, error)
	Create(p *models.BreakPool) error
	// UpdateCAS записывает пул с проверкой версии; false — версия устарела.
	UpdateCAS(p *models.BreakPool) (bool, error)
}

// BreakRepo — хранилище перерывов.
type BreakRepo interface {
	Create(b *models.Break) error
	Update(b *models.Break) error
	ByID(id uint) (*models.Break, error)
	// LastFinishedFor — последний завершённый перерыв пользователя.
	LastFinishedFor(userID uint) (*models.Break, error)
	// CountFinishedFor — число завершённых перерывов смены (без пропусков),
	// по нему выбирается длительность из шаблона.
	CountFinishedFor(shiftID uint) (int64, error)
	// CountDoneFor — завершённые и пропущенные перерывы смены, определяет номер круга.
	CountDoneFor(shiftID uint) (int64, error)
	// ParticipantsDoneInRound — сколько разных операторов группы закрыли круг.
	ParticipantsDoneInRound(date string, groupID uint, round int) (int64, error)
	ActiveFor(userID uint) (*models.Break, error)
	AllTaken() ([]models.Break, error)
	CountTaken(date string, groupID uint) (int64, error)
}

// ShiftRepo — хранилище смен.
type ShiftRepo interface {
	ByID(id uint) (*models.Shift, error)
	ActiveForUser(userID uint, date string) (*models.Shift, error)
	CountActive(date string, groupID uint) (int64, error)
}

// GroupRepo — справочник групп (с правилами графика).
type GroupRepo interface {
	ByID(id uint) (*models.ShiftGroup, error)
}

// UserRepo — справочник пользователей.
type UserRepo interface {
	ByID(id uint) (*models.User, error)
}

// Notifier — контракт push-транспорта. Движок только отправляет события;
// гарантии доставки — забота транспорта.
type Notifier interface {
	NotifyYourTurn(userID, entryID uint, durationMinutes, timeoutSeconds int)
	NotifyExpired(userID, entryID uint, newPosition int)
	BroadcastQueueUpdated(date string, groupID uint, snapshot Snapshot)
	BroadcastBreakEnded(date string, groupID uint, userID uint, name string, round int)
}

// SnapshotEntry — одна строка видимой очереди.
type SnapshotEntry struct {
	EntryID         uint   `json:"entry_id"`
	UserID          uint   `json:"user_id"`
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Position        int    `json:"position"`
	Status          string `json:"status"`
	DurationMinutes int    `json:"duration_minutes"`
	Priority        bool   `json:"priority"`
}

// Snapshot — состояние очереди, рассылаемое после каждой мутации.
type Snapshot struct {
	Round          int             `json:"round"`
	AvailableSlots int             `json:"available_slots"`
	Entries        []SnapshotEntry `json:"entries"`
}
