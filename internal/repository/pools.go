package repository

import (
	"pereryv/internal/models"

	"gorm.io/gorm"
)

// PoolRepo — GORM-реализация хранилища пулов слотов.
type PoolRepo struct {
	db *gorm.DB
}

func (r *PoolRepo) ForDay(date string, groupID uint) (*models.BreakPool, error) {
	var pool models.BreakPool
	err := r.db.Where("work_date = ? AND group_id = ?", date, groupID).First(&pool).Error
	if err != nil {
		return nil, notFoundToNil(err)
	}
	return &pool, nil
}

func (r *PoolRepo) Create(p *models.BreakPool) error {
	return r.db.Create(p).Error
}

// UpdateCAS пишет пул по условию совпадения версии. Проигравший гонку
// получает false и обязан перечитать пул перед повтором.
func (r *PoolRepo) UpdateCAS(p *models.BreakPool) (bool, error) {
	res := r.db.Model(&models.BreakPool{}).
		Where("id = ? AND version = ?", p.ID, p.Version).
		Updates(map[string]interface{}{
			"available_slots": p.AvailableSlots,
			"left10":          p.Left10,
			"left20":          p.Left20,
			"version":         p.Version + 1,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	p.Version++
	return true, nil
}
