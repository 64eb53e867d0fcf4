package queue

import (
	"log"
	"time"

	"pereryv/internal/models"
)

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }

// FinishBreak — единственный путь завершения перерыва, и ручного, и по
// таймеру: перерыв закрывается, слот возвращается в пул, очередь продвигается.
func (e *Engine) FinishBreak(breakID uint) error {
	br, err := e.breaks.ByID(breakID)
	if err != nil {
		return err
	}
	if br == nil {
		return ErrBreakNotFound
	}
	if br.Status != models.BreakTaken {
		return ErrBreakNotActive
	}

	now := e.Now()
	br.Status = models.BreakFinished
	br.EndedAt = &now
	if err := e.breaks.Update(br); err != nil {
		return err
	}

	if err := e.releaseSlot(br.WorkDate, br.GroupID, br.DurationMinutes); err != nil {
		return err
	}

	e.AdvanceQueue(br.WorkDate, br.GroupID)

	name := ""
	if user, err := e.users.ByID(br.UserID); err == nil && user != nil {
		name = user.Name + " " + user.Surname
	}
	e.notify.BroadcastBreakEnded(br.WorkDate, br.GroupID, br.UserID, name, br.Round)
	return nil
}

// ExpireStaleNotifications снимает все просроченные уведомления.
// Идемпотентна: каждая запись перепроверяется внутри ExpireNotification.
func (e *Engine) ExpireStaleNotifications() (int, error) {
	cutoff := e.Now().Add(-e.cfg.NotifyTimeout)
	stale, err := e.entries.NotifiedOlderThan(cutoff)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, entry := range stale {
		if err := e.ExpireNotification(entry.ID); err != nil {
			log.Println("Ошибка снятия просроченного уведомления:", err)
			continue
		}
		expired++
	}
	return expired, nil
}

// CloseOverdueBreaks принудительно завершает перерывы, у которых вышло время.
func (e *Engine) CloseOverdueBreaks() (int, error) {
	taken, err := e.breaks.AllTaken()
	if err != nil {
		return 0, err
	}
	now := e.Now()
	closed := 0
	for _, br := range taken {
		if now.Sub(br.StartedAt) < minutes(br.DurationMinutes) {
			continue
		}
		if err := e.FinishBreak(br.ID); err != nil {
			log.Println("Ошибка автозакрытия перерыва:", err)
			continue
		}
		closed++
	}
	return closed, nil
}
