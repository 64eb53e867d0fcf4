package repository

import (
	"time"

	"pereryv/internal/models"

	"gorm.io/gorm"
)

var activeStatuses = []string{models.EntryWaiting, models.EntryNotified}

// EntryRepo — GORM-реализация хранилища записей очереди.
type EntryRepo struct {
	db *gorm.DB
}

func (r *EntryRepo) Create(e *models.BreakQueueEntry) error {
	return r.db.Create(e).Error
}

func (r *EntryRepo) Update(e *models.BreakQueueEntry) error {
	return r.db.Save(e).Error
}

func (r *EntryRepo) ByID(id uint) (*models.BreakQueueEntry, error) {
	var e models.BreakQueueEntry
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &e, nil
}

func (r *EntryRepo) ForRound(date string, groupID uint, round int) ([]models.BreakQueueEntry, error) {
	var entries []models.BreakQueueEntry
	err := r.db.
		Preload("User").
		Where("work_date = ? AND group_id = ? AND round = ? AND status IN ?",
			date, groupID, round, activeStatuses).
		Order("position ASC").
		Find(&entries).Error
	return entries, err
}

func (r *EntryRepo) ActiveEntryFor(shiftID uint, round int) (*models.BreakQueueEntry, error) {
	var e models.BreakQueueEntry
	err := r.db.
		Where("shift_id = ? AND round = ? AND status IN ?", shiftID, round, activeStatuses).
		First(&e).Error
	if err != nil {
		return nil, notFoundToNil(err)
	}
	return &e, nil
}

func (r *EntryRepo) MaxPosition(date string, groupID uint, round int) (int, error) {
	var maxPosition int
	row := r.db.Model(&models.BreakQueueEntry{}).
		Where("work_date = ? AND group_id = ? AND round = ? AND status <> ?",
			date, groupID, round, models.EntryCancelled).
		Select("COALESCE(MAX(position),0)").Row()
	err := row.Scan(&maxPosition)
	return maxPosition, err
}

func (r *EntryRepo) HasNotified(date string, groupID uint, round int) (bool, error) {
	var count int64
	err := r.db.Model(&models.BreakQueueEntry{}).
		Where("work_date = ? AND group_id = ? AND round = ? AND status = ?",
			date, groupID, round, models.EntryNotified).
		Count(&count).Error
	return count > 0, err
}

func (r *EntryRepo) NotifiedOlderThan(cutoff time.Time) ([]models.BreakQueueEntry, error) {
	var entries []models.BreakQueueEntry
	err := r.db.
		Where("status = ? AND notified_at IS NOT NULL AND notified_at <= ?",
			models.EntryNotified, cutoff).
		Find(&entries).Error
	return entries, err
}

func (r *EntryRepo) ShiftPositionsAfter(date string, groupID uint, round int, position, delta int) error {
	return r.db.Model(&models.BreakQueueEntry{}).
		Where("work_date = ? AND group_id = ? AND round = ? AND status IN ? AND position > ?",
			date, groupID, round, activeStatuses, position).
		Update("position", gorm.Expr("position + ?", delta)).Error
}

func (r *EntryRepo) ShiftAllPositions(date string, groupID uint, round int, delta int) error {
	return r.db.Model(&models.BreakQueueEntry{}).
		Where("work_date = ? AND group_id = ? AND round = ? AND status IN ?",
			date, groupID, round, activeStatuses).
		Update("position", gorm.Expr("position + ?", delta)).Error
}

func (r *EntryRepo) ActiveRounds(date string, groupID uint) ([]int, error) {
	var rounds []int
	err := r.db.Model(&models.BreakQueueEntry{}).
		Distinct("round").
		Where("work_date = ? AND group_id = ? AND status IN ?", date, groupID, activeStatuses).
		Order("round ASC").
		Pluck("round", &rounds).Error
	return rounds, err
}
