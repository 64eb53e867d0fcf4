package repository

import (
	"pereryv/internal/models"

	"gorm.io/gorm"
)

// ShiftRepo — GORM-реализация хранилища смен.
type ShiftRepo struct {
	db *gorm.DB
}

func (r *ShiftRepo) ByID(id uint) (*models.Shift, error) {
	var s models.Shift
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &s, nil
}

func (r *ShiftRepo) ActiveForUser(userID uint, date string) (*models.Shift, error) {
	var s models.Shift
	err := r.db.
		Where("user_id = ? AND work_date = ? AND active = ?", userID, date, true).
		First(&s).Error
	if err != nil {
		return nil, notFoundToNil(err)
	}
	return &s, nil
}

func (r *ShiftRepo) CountActive(date string, groupID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Shift{}).
		Where("work_date = ? AND group_id = ? AND active = ?", date, groupID, true).
		Count(&count).Error
	return count, err
}

// GroupRepo — справочник групп смены.
type GroupRepo struct {
	db *gorm.DB
}

func (r *GroupRepo) ByID(id uint) (*models.ShiftGroup, error) {
	var g models.ShiftGroup
	if err := r.db.Preload("Schedule").First(&g, id).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &g, nil
}

// UserRepo — справочник пользователей.
type UserRepo struct {
	db *gorm.DB
}

func (r *UserRepo) ByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, notFoundToNil(err)
	}
	return &u, nil
}
