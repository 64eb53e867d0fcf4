package repository

import (
	"errors"

	"gorm.io/gorm"
)

// Repos собирает GORM-реализации контрактов движка очереди.
type Repos struct {
	Entries *EntryRepo
	Pools   *PoolRepo
	Breaks  *BreakRepo
	Shifts  *ShiftRepo
	Groups  *GroupRepo
	Users   *UserRepo
}

func New(db *gorm.DB) *Repos {
	return &Repos{
		Entries: &EntryRepo{db: db},
		Pools:   &PoolRepo{db: db},
		Breaks:  &BreakRepo{db: db},
		Shifts:  &ShiftRepo{db: db},
		Groups:  &GroupRepo{db: db},
		Users:   &UserRepo{db: db},
	}
}

// notFoundToNil превращает ErrRecordNotFound в (nil, nil):
// отсутствие записи — не ошибка хранилища, а бизнес-ситуация.
func notFoundToNil(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
