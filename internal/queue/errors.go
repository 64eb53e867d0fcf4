package queue

// Kind определяет класс бизнес-ошибки: по нему HTTP-слой выбирает статус ответа.
type Kind int

const (
	KindValidation Kind = iota // некорректные входные данные
	KindConflict               // конфликт состояния, мутаций не было
	KindForbidden              // действие запрещено для этого пользователя
	KindNotFound               // объект не найден
	KindTransient              // временная ошибка, можно повторить позже
)

// Error — бизнес-ошибка движка очереди.
type Error struct {
	Code    string
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

var (
	ErrNoActiveShift = &Error{Code: "NO_ACTIVE_SHIFT", Kind: KindConflict,
		Message: "Нет активной смены на сегодня"}
	ErrAlreadyQueued = &Error{Code: "ALREADY_IN_QUEUE", Kind: KindConflict,
		Message: "Вы уже стоите в очереди в этом круге"}
	ErrRoundNotFinished = &Error{Code: "ROUND_NOT_FINISHED", Kind: KindConflict,
		Message: "Предыдущий круг перерывов ещё не завершён"}
	ErrIntervalNotPassed = &Error{Code: "INTERVAL_NOT_PASSED", Kind: KindConflict,
		Message: "С прошлого перерыва прошло слишком мало времени"}
	ErrInvalidDuration = &Error{Code: "INVALID_DURATION", Kind: KindValidation,
		Message: "Длительность перерыва должна быть 10 или 20 минут"}
	ErrQuotaExhausted = &Error{Code: "QUOTA_EXHAUSTED", Kind: KindValidation,
		Message: "Квота перерывов такой длительности на сегодня исчерпана"}
	ErrEntryNotFound = &Error{Code: "ENTRY_NOT_FOUND", Kind: KindNotFound,
		Message: "Запись в очереди не найдена"}
	ErrForeignEntry = &Error{Code: "FOREIGN_ENTRY", Kind: KindForbidden,
		Message: "Запись в очереди принадлежит другому оператору"}
	ErrNotificationNotActive = &Error{Code: "NOTIFICATION_NOT_ACTIVE", Kind: KindConflict,
		Message: "Уведомление не активно"}
	ErrPriorityForbidden = &Error{Code: "PRIORITY_FORBIDDEN", Kind: KindForbidden,
		Message: "Ставить вне очереди может только старший смены или администратор"}
	ErrNoFreeSlots = &Error{Code: "NO_FREE_SLOTS", Kind: KindConflict,
		Message: "Свободных слотов на перерыв нет"}
	ErrSlotsBusy = &Error{Code: "SLOTS_BUSY", Kind: KindTransient,
		Message: "Высокая нагрузка, не удалось занять слот, попробуйте ещё раз"}
	ErrBreakNotFound = &Error{Code: "BREAK_NOT_FOUND", Kind: KindNotFound,
		Message: "Перерыв не найден"}
	ErrBreakNotActive = &Error{Code: "BREAK_NOT_ACTIVE", Kind: KindConflict,
		Message: "Перерыв уже завершён"}
)
