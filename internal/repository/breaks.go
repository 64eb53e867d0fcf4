package repository

import (
	"pereryv/internal/models"

	"gorm.io/gorm"
)

var doneStatuses = []string{models.BreakFinished, models.BreakSkipped}

// BreakRepo — GORM-реализация хранилища перерывов.
type BreakRepo struct {
	db *gorm.DB
}

func (r *BreakRepo) Create(b *models.Break) error {
	return r.db.Create(b).Error
}

func (r *BreakRepo) Update(b *models.Break) error {
	return r.db.Save(b).Error
}

func (r *BreakRepo) ByID(id uint) (*models.Break, error) {
	var b models.Break
	if err := r.db.First(&b, id).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &b, nil
}

func (r *BreakRepo) LastFinishedFor(userID uint) (*models.Break, error) {
	var b models.Break
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.BreakFinished).
		Order("ended_at DESC").
		First(&b).Error
	if err != nil {
		return nil, notFoundToNil(err)
	}
	return &b, nil
}

func (r *BreakRepo) CountFinishedFor(shiftID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Break{}).
		Where("shift_id = ? AND status = ?", shiftID, models.BreakFinished).
		Count(&count).Error
	return count, err
}

func (r *BreakRepo) CountDoneFor(shiftID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Break{}).
		Where("shift_id = ? AND status IN ?", shiftID, doneStatuses).
		Count(&count).Error
	return count, err
}

func (r *BreakRepo) ParticipantsDoneInRound(date string, groupID uint, round int) (int64, error) {
	var count int64
	err := r.db.Model(&models.Break{}).
		Distinct("user_id").
		Where("work_date = ? AND group_id = ? AND round = ? AND status IN ?",
			date, groupID, round, doneStatuses).
		Count(&count).Error
	return count, err
}

func (r *BreakRepo) ActiveFor(userID uint) (*models.Break, error) {
	var b models.Break
	err := r.db.
		Where("user_id = ? AND status = ?", userID, models.BreakTaken).
		First(&b).Error
	if err != nil {
		return nil, notFoundToNil(err)
	}
	return &b, nil
}

func (r *BreakRepo) AllTaken() ([]models.Break, error) {
	var breaks []models.Break
	err := r.db.Where("status = ?", models.BreakTaken).Find(&breaks).Error
	return breaks, err
}

func (r *BreakRepo) CountTaken(date string, groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Break{}).
		Where("work_date = ? AND group_id = ? AND status = ?", date, groupID, models.BreakTaken).
		Count(&count).Error
	return count, err
}
