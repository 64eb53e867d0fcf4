package queue

import (
	"log"
	"time"

	"pereryv/internal/models"
)

const dateLayout = "2006-01-02"

// Config — параметры движка очереди. Интервал после перерыва задаётся
// в графике группы, здесь только общие константы.
type Config struct {
	NotifyTimeout   time.Duration // окно на подтверждение "ваша очередь"
	DefaultSlots    int           // ёмкость пула по умолчанию при ленивом создании
	ReserveRetries  int           // попыток занять слот при конфликте версий
	DefaultDuration int           // длительность вне шаблона графика
	PostponeShift   int           // скольких пропускает вперёд перенос
}

func DefaultConfig() Config {
	return Config{
		NotifyTimeout:   90 * time.Second,
		DefaultSlots:    2,
		ReserveRetries:  3,
		DefaultDuration: DurationLong,
		PostponeShift:   2,
	}
}

// Engine — ядро планировщика перерывов: постановка в очередь, уведомления,
// подтверждение, перенос, просрочка, вставка вне очереди, пропуск круга.
// Синхронизация состояния идёт только через хранилище; единственная операция
// с жёсткой гарантией — резервирование слота (оптимистичная блокировка).
type Engine struct {
	entries EntryRepo
	pools   PoolRepo
	breaks  BreakRepo
	shifts  ShiftRepo
	groups  GroupRepo
	users   UserRepo
	notify  Notifier
	cfg     Config

	// Now подменяется в тестах.
	Now func() time.Time
}

func NewEngine(entries EntryRepo, pools PoolRepo, breaks BreakRepo, shifts ShiftRepo,
	groups GroupRepo, users UserRepo, notify Notifier, cfg Config) *Engine {
	return &Engine{
		entries: entries,
		pools:   pools,
		breaks:  breaks,
		shifts:  shifts,
		groups:  groups,
		users:   users,
		notify:  notify,
		cfg:     cfg,
		Now:     time.Now,
	}
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) today() string { return e.Now().Format(dateLayout) }

// EnqueueResult — итог постановки в очередь.
type EnqueueResult struct {
	EntryID         uint `json:"entry_id"`
	Round           int  `json:"round"`
	Position        int  `json:"position"`
	DurationMinutes int  `json:"duration_minutes"`
	Ahead           int  `json:"ahead"` // сколько человек впереди
}

// State — проекция состояния очереди для оператора.
type State struct {
	Round          int             `json:"round"`
	RoundFinished  bool            `json:"round_finished"`
	AvailableSlots int             `json:"available_slots"`
	ActiveBreaks   int64           `json:"active_breaks"`
	Entries        []SnapshotEntry `json:"entries"`
	MyEntry        *SnapshotEntry  `json:"my_entry,omitempty"`
	Left10         *int            `json:"left10,omitempty"`
	Left20         *int            `json:"left20,omitempty"`
}

// Enqueue ставит оператора в очередь текущего круга.
func (e *Engine) Enqueue(userID uint, requested *int) (*EnqueueResult, error) {
	date := e.today()
	shift, err := e.shifts.ActiveForUser(userID, date)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	round, err := e.currentRound(shift.ID)
	if err != nil {
		return nil, err
	}
	ok, err := e.prevRoundComplete(date, shift.GroupID, round)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRoundNotFinished
	}

	existing, err := e.entries.ActiveEntryFor(shift.ID, round)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyQueued
	}

	group, err := e.groups.ByID(shift.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNoActiveShift
	}

	if err := e.checkInterval(&group.Schedule, userID); err != nil {
		return nil, err
	}

	duration, err := e.resolveDuration(&group.Schedule, shift.ID, requested)
	if err != nil {
		return nil, err
	}

	pool, err := e.getOrCreatePool(date, shift.GroupID)
	if err != nil {
		return nil, err
	}
	if left := quotaLeft(pool, duration); left != nil && *left <= 0 {
		return nil, ErrQuotaExhausted
	}

	maxPos, err := e.entries.MaxPosition(date, shift.GroupID, round)
	if err != nil {
		return nil, err
	}

	entry := &models.BreakQueueEntry{
		WorkDate:        date,
		GroupID:         shift.GroupID,
		Round:           round,
		Position:        maxPos + 1,
		ShiftID:         shift.ID,
		UserID:          userID,
		DurationMinutes: duration,
		Status:          models.EntryWaiting,
		EnqueuedAt:      e.Now(),
	}
	if err := e.entries.Create(entry); err != nil {
		return nil, err
	}

	ahead, err := e.countAhead(date, shift.GroupID, round, entry.Position)
	if err != nil {
		return nil, err
	}

	e.notifyNext(date, shift.GroupID, round)
	e.broadcast(date, shift.GroupID, round)

	return &EnqueueResult{
		EntryID:         entry.ID,
		Round:           round,
		Position:        entry.Position,
		DurationMinutes: duration,
		Ahead:           ahead,
	}, nil
}

// EnqueuePriority ставит оператора на первую позицию круга. Доступно только
// старшему смены и администратору; квота заранее не проверяется.
func (e *Engine) EnqueuePriority(requesterRole string, targetUserID uint, requested *int) (*EnqueueResult, error) {
	if requesterRole != models.RoleSenior && requesterRole != models.RoleAdmin {
		return nil, ErrPriorityForbidden
	}

	date := e.today()
	shift, err := e.shifts.ActiveForUser(targetUserID, date)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	round, err := e.currentRound(shift.ID)
	if err != nil {
		return nil, err
	}
	ok, err := e.prevRoundComplete(date, shift.GroupID, round)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRoundNotFinished
	}

	existing, err := e.entries.ActiveEntryFor(shift.ID, round)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyQueued
	}

	group, err := e.groups.ByID(shift.GroupID)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, ErrNoActiveShift
	}

	duration, err := e.resolveDuration(&group.Schedule, shift.ID, requested)
	if err != nil {
		return nil, err
	}

	if err := e.entries.ShiftAllPositions(date, shift.GroupID, round, 1); err != nil {
		return nil, err
	}

	entry := &models.BreakQueueEntry{
		WorkDate:        date,
		GroupID:         shift.GroupID,
		Round:           round,
		Position:        1,
		ShiftID:         shift.ID,
		UserID:          targetUserID,
		DurationMinutes: duration,
		Status:          models.EntryWaiting,
		EnqueuedAt:      e.Now(),
		Priority:        true,
	}
	if err := e.entries.Create(entry); err != nil {
		return nil, err
	}

	e.notifyNext(date, shift.GroupID, round)
	e.broadcast(date, shift.GroupID, round)

	return &EnqueueResult{
		EntryID:         entry.ID,
		Round:           round,
		Position:        1,
		DurationMinutes: duration,
	}, nil
}

// Confirm подтверждает уведомление и уводит оператора на перерыв.
// Слот резервируется с проверкой версии пула и ограниченным числом повторов.
func (e *Engine) Confirm(userID, entryID uint) (*models.Break, error) {
	entry, err := e.entries.ByID(entryID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrEntryNotFound
	}
	if entry.UserID != userID {
		return nil, ErrForeignEntry
	}
	if entry.Status != models.EntryNotified {
		return nil, ErrNotificationNotActive
	}

	if err := e.reserveSlot(entry.WorkDate, entry.GroupID, entry.DurationMinutes); err != nil {
		return nil, err
	}

	now := e.Now()
	br := &models.Break{
		ShiftID:         entry.ShiftID,
		UserID:          entry.UserID,
		WorkDate:        entry.WorkDate,
		GroupID:         entry.GroupID,
		Round:           entry.Round,
		DurationMinutes: entry.DurationMinutes,
		Status:          models.BreakTaken,
		StartedAt:       now,
	}
	if err := e.breaks.Create(br); err != nil {
		return nil, err
	}

	entry.Status = models.EntryConfirmed
	if err := e.entries.Update(entry); err != nil {
		return nil, err
	}

	e.notifyNext(entry.WorkDate, entry.GroupID, entry.Round)
	e.broadcast(entry.WorkDate, entry.GroupID, entry.Round)
	return br, nil
}

// Postpone переносит уведомлённого оператора за следующих (до двух) ожидающих.
func (e *Engine) Postpone(userID, entryID uint) error {
	entry, err := e.entries.ByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrEntryNotFound
	}
	if entry.UserID != userID {
		return ErrForeignEntry
	}
	if entry.Status != models.EntryNotified {
		return ErrNotificationNotActive
	}

	list, err := e.entries.ForRound(entry.WorkDate, entry.GroupID, entry.Round)
	if err != nil {
		return err
	}

	// До двух ожидающих, стоящих после переносимого, двигаются на шаг вперёд.
	moved := 0
	newPos := entry.Position
	for i := range list {
		if moved >= e.cfg.PostponeShift {
			break
		}
		nxt := &list[i]
		if nxt.Position <= entry.Position || nxt.Status != models.EntryWaiting {
			continue
		}
		newPos = nxt.Position
		nxt.Position--
		if err := e.entries.Update(nxt); err != nil {
			return err
		}
		moved++
	}

	entry.Position = newPos
	entry.Status = models.EntryWaiting
	entry.NotifiedAt = nil
	if err := e.entries.Update(entry); err != nil {
		return err
	}

	e.notifyNext(entry.WorkDate, entry.GroupID, entry.Round)
	e.broadcast(entry.WorkDate, entry.GroupID, entry.Round)
	return nil
}

// ExpireNotification снимает просроченное уведомление и отправляет запись
// в хвост круга. Вызывается только фоновым наблюдателем; повторный вызов
// по уже снятой записи — no-op.
func (e *Engine) ExpireNotification(entryID uint) error {
	entry, err := e.entries.ByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil || entry.Status != models.EntryNotified {
		return nil
	}
	// Защита от гонки: подтверждение могло успеть раньше таймера.
	if entry.NotifiedAt == nil || e.Now().Sub(*entry.NotifiedAt) < e.cfg.NotifyTimeout {
		return nil
	}

	maxPos, err := e.entries.MaxPosition(entry.WorkDate, entry.GroupID, entry.Round)
	if err != nil {
		return err
	}
	if err := e.entries.ShiftPositionsAfter(entry.WorkDate, entry.GroupID, entry.Round, entry.Position, -1); err != nil {
		return err
	}

	entry.Position = maxPos
	entry.Status = models.EntryWaiting
	entry.NotifiedAt = nil
	if err := e.entries.Update(entry); err != nil {
		return err
	}

	e.notifyNext(entry.WorkDate, entry.GroupID, entry.Round)
	e.broadcast(entry.WorkDate, entry.GroupID, entry.Round)
	e.notify.NotifyExpired(entry.UserID, entry.ID, entry.Position)
	return nil
}

// SkipRound пропускает текущий круг: активная запись снимается, в историю
// пишется нулевой перерыв — круг для оператора закрыт без расхода слота.
func (e *Engine) SkipRound(userID uint) error {
	date := e.today()
	shift, err := e.shifts.ActiveForUser(userID, date)
	if err != nil {
		return err
	}
	if shift == nil {
		return ErrNoActiveShift
	}

	round, err := e.currentRound(shift.ID)
	if err != nil {
		return err
	}

	entry, err := e.entries.ActiveEntryFor(shift.ID, round)
	if err != nil {
		return err
	}
	if entry != nil {
		entry.Status = models.EntryCancelled
		if err := e.entries.Update(entry); err != nil {
			return err
		}
	}

	now := e.Now()
	br := &models.Break{
		ShiftID:         shift.ID,
		UserID:          userID,
		WorkDate:        date,
		GroupID:         shift.GroupID,
		Round:           round,
		DurationMinutes: 0,
		Status:          models.BreakSkipped,
		StartedAt:       now,
		EndedAt:         &now,
	}
	if err := e.breaks.Create(br); err != nil {
		return err
	}

	e.notifyNext(date, shift.GroupID, round)
	e.broadcast(date, shift.GroupID, round)
	return nil
}

// GetState возвращает проекцию очереди для оператора.
func (e *Engine) GetState(userID uint) (*State, error) {
	date := e.today()
	shift, err := e.shifts.ActiveForUser(userID, date)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, ErrNoActiveShift
	}

	round, err := e.currentRound(shift.ID)
	if err != nil {
		return nil, err
	}

	finished, err := e.roundComplete(date, shift.GroupID, round)
	if err != nil {
		// Чтение состояния не должно падать из-за незакрытого круга.
		finished = false
	}

	list, err := e.entries.ForRound(date, shift.GroupID, round)
	if err != nil {
		return nil, err
	}

	pool, err := e.getOrCreatePool(date, shift.GroupID)
	if err != nil {
		return nil, err
	}

	active, err := e.breaks.CountTaken(date, shift.GroupID)
	if err != nil {
		return nil, err
	}

	st := &State{
		Round:          round,
		RoundFinished:  finished,
		AvailableSlots: pool.AvailableSlots,
		ActiveBreaks:   active,
		Entries:        snapshotEntries(list),
	}
	for i := range st.Entries {
		if st.Entries[i].UserID == userID {
			own := st.Entries[i]
			st.MyEntry = &own
			break
		}
	}

	group, err := e.groups.ByID(shift.GroupID)
	if err != nil {
		return nil, err
	}
	if group != nil && group.Schedule.AllowDurationChoice {
		st.Left10 = pool.Left10
		st.Left20 = pool.Left20
	}
	return st, nil
}

// AdvanceQueue продвигает очередь группы: вызывается, когда освобождается слот.
func (e *Engine) AdvanceQueue(date string, groupID uint) {
	rounds, err := e.entries.ActiveRounds(date, groupID)
	if err != nil {
		log.Println("Ошибка продвижения очереди:", err)
		return
	}
	for _, round := range rounds {
		e.notifyNext(date, groupID, round)
		e.broadcast(date, groupID, round)
	}
}

// --- внутренняя кухня ---

// currentRound — номер круга оператора: закрытые перерывы (включая пропуски) + 1.
func (e *Engine) currentRound(shiftID uint) (int, error) {
	done, err := e.breaks.CountDoneFor(shiftID)
	if err != nil {
		return 0, err
	}
	return int(done) + 1, nil
}

// roundComplete — закрыли ли круг все активные операторы группы.
func (e *Engine) roundComplete(date string, groupID uint, round int) (bool, error) {
	if round < 1 {
		return true, nil
	}
	done, err := e.breaks.ParticipantsDoneInRound(date, groupID, round)
	if err != nil {
		return false, err
	}
	total, err := e.shifts.CountActive(date, groupID)
	if err != nil {
		return false, err
	}
	return done >= total, nil
}

func (e *Engine) prevRoundComplete(date string, groupID uint, round int) (bool, error) {
	if round <= 1 {
		return true, nil
	}
	return e.roundComplete(date, groupID, round-1)
}

func (e *Engine) resolveDuration(sched *models.Schedule, shiftID uint, requested *int) (int, error) {
	finished, err := e.breaks.CountFinishedFor(shiftID)
	if err != nil {
		return 0, err
	}
	return policyFor(sched, int(finished), e.cfg.DefaultDuration).resolve(requested)
}

// checkInterval проверяет минимальный интервал после прошлого перерыва.
func (e *Engine) checkInterval(sched *models.Schedule, userID uint) error {
	if sched.MinIntervalMinutes <= 0 {
		return nil
	}
	last, err := e.breaks.LastFinishedFor(userID)
	if err != nil {
		return err
	}
	if last == nil || last.EndedAt == nil {
		return nil
	}
	if e.Now().Sub(*last.EndedAt) < time.Duration(sched.MinIntervalMinutes)*time.Minute {
		return ErrIntervalNotPassed
	}
	return nil
}

func (e *Engine) countAhead(date string, groupID uint, round, position int) (int, error) {
	list, err := e.entries.ForRound(date, groupID, round)
	if err != nil {
		return 0, err
	}
	ahead := 0
	for _, it := range list {
		if it.Position < position {
			ahead++
		}
	}
	return ahead, nil
}

func (e *Engine) getOrCreatePool(date string, groupID uint) (*models.BreakPool, error) {
	pool, err := e.pools.ForDay(date, groupID)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		return pool, nil
	}
	pool = &models.BreakPool{
		WorkDate:       date,
		GroupID:        groupID,
		TotalSlots:     e.cfg.DefaultSlots,
		AvailableSlots: e.cfg.DefaultSlots,
	}
	if err := e.pools.Create(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// quotaLeft — остаток квоты для длительности, nil если квота не отслеживается.
func quotaLeft(pool *models.BreakPool, duration int) *int {
	switch duration {
	case DurationShort:
		if pool.Total10 != nil {
			return pool.Left10
		}
	case DurationLong:
		if pool.Total20 != nil {
			return pool.Left20
		}
	}
	return nil
}

// reserveSlot занимает слот пула с оптимистичной блокировкой.
// Перепродажа слотов недопустима, поэтому при каждом повторе пул перечитывается.
func (e *Engine) reserveSlot(date string, groupID uint, duration int) error {
	for i := 0; i < e.cfg.ReserveRetries; i++ {
		pool, err := e.getOrCreatePool(date, groupID)
		if err != nil {
			return err
		}
		if pool.AvailableSlots <= 0 {
			return ErrNoFreeSlots
		}
		if left := quotaLeft(pool, duration); left != nil {
			if *left <= 0 {
				return ErrQuotaExhausted
			}
			*left--
		}
		pool.AvailableSlots--
		ok, err := e.pools.UpdateCAS(pool)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrSlotsBusy
}

// releaseSlot возвращает слот в пул после завершения перерыва.
func (e *Engine) releaseSlot(date string, groupID uint, duration int) error {
	for i := 0; i < e.cfg.ReserveRetries; i++ {
		pool, err := e.pools.ForDay(date, groupID)
		if err != nil {
			return err
		}
		if pool == nil {
			return nil
		}
		if pool.AvailableSlots < pool.TotalSlots {
			pool.AvailableSlots++
		}
		switch duration {
		case DurationShort:
			if pool.Left10 != nil && pool.Total10 != nil && *pool.Left10 < *pool.Total10 {
				*pool.Left10++
			}
		case DurationLong:
			if pool.Left20 != nil && pool.Total20 != nil && *pool.Left20 < *pool.Total20 {
				*pool.Left20++
			}
		}
		ok, err := e.pools.UpdateCAS(pool)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return ErrSlotsBusy
}

// notifyNext выдаёт уведомление первому подходящему ожидающему.
// В круге одновременно может быть не больше одного уведомлённого.
func (e *Engine) notifyNext(date string, groupID uint, round int) {
	has, err := e.entries.HasNotified(date, groupID, round)
	if err != nil {
		log.Println("Ошибка проверки уведомлений:", err)
		return
	}
	if has {
		return
	}

	pool, err := e.getOrCreatePool(date, groupID)
	if err != nil {
		log.Println("Ошибка чтения пула слотов:", err)
		return
	}
	if pool.AvailableSlots <= 0 {
		return
	}

	list, err := e.entries.ForRound(date, groupID, round)
	if err != nil {
		log.Println("Ошибка чтения очереди:", err)
		return
	}

	group, err := e.groups.ByID(groupID)
	if err != nil || group == nil {
		log.Println("Ошибка чтения группы:", err)
		return
	}

	for i := range list {
		entry := &list[i]
		if entry.Status != models.EntryWaiting {
			continue
		}
		if err := e.checkInterval(&group.Schedule, entry.UserID); err != nil {
			continue
		}
		now := e.Now()
		entry.Status = models.EntryNotified
		entry.NotifiedAt = &now
		if err := e.entries.Update(entry); err != nil {
			log.Println("Ошибка выдачи уведомления:", err)
			return
		}
		e.notify.NotifyYourTurn(entry.UserID, entry.ID,
			entry.DurationMinutes, int(e.cfg.NotifyTimeout.Seconds()))
		return
	}
}

// broadcast рассылает снимок очереди всем подключённым клиентам группы.
func (e *Engine) broadcast(date string, groupID uint, round int) {
	list, err := e.entries.ForRound(date, groupID, round)
	if err != nil {
		log.Println("Ошибка сборки снимка очереди:", err)
		return
	}
	pool, err := e.getOrCreatePool(date, groupID)
	if err != nil {
		log.Println("Ошибка чтения пула слотов:", err)
		return
	}
	e.notify.BroadcastQueueUpdated(date, groupID, Snapshot{
		Round:          round,
		AvailableSlots: pool.AvailableSlots,
		Entries:        snapshotEntries(list),
	})
}

func snapshotEntries(list []models.BreakQueueEntry) []SnapshotEntry {
	out := make([]SnapshotEntry, 0, len(list))
	for _, it := range list {
		out = append(out, SnapshotEntry{
			EntryID:         it.ID,
			UserID:          it.UserID,
			Name:            it.User.Name,
			Surname:         it.User.Surname,
			Position:        it.Position,
			Status:          it.Status,
			DurationMinutes: it.DurationMinutes,
			Priority:        it.Priority,
		})
	}
	return out
}
