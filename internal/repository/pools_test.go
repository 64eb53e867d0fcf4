package repository

import (
	"testing"

	"pereryv/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.BreakPool{}))
	return db
}

func TestUpdateCASSingleWinner(t *testing.T) {
	db := newTestDB(t)
	repo := &PoolRepo{db: db}

	require.NoError(t, repo.Create(&models.BreakPool{
		WorkDate: "2025-03-10", GroupID: 1,
		TotalSlots: 2, AvailableSlots: 2,
	}))

	// Две копии одного пула: обе хотят занять последний слот.
	first, err := repo.ForDay("2025-03-10", 1)
	require.NoError(t, err)
	second, err := repo.ForDay("2025-03-10", 1)
	require.NoError(t, err)

	first.AvailableSlots--
	ok, err := repo.UpdateCAS(first)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint(1), first.Version, "версия у победителя растёт")

	// Вторая копия держит устаревшую версию — запись отклоняется.
	second.AvailableSlots--
	ok, err = repo.UpdateCAS(second)
	require.NoError(t, err)
	assert.False(t, ok)

	fresh, err := repo.ForDay("2025-03-10", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.AvailableSlots, "списание прошло ровно один раз")
	assert.Equal(t, uint(1), fresh.Version)

	// После перечитывания повтор проходит.
	fresh.AvailableSlots--
	ok, err = repo.UpdateCAS(fresh)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateCASWritesQuotas(t *testing.T) {
	db := newTestDB(t)
	repo := &PoolRepo{db: db}

	one, two := 1, 2
	require.NoError(t, repo.Create(&models.BreakPool{
		WorkDate: "2025-03-10", GroupID: 1,
		TotalSlots: 2, AvailableSlots: 2,
		Total10: &one, Left10: &one,
		Total20: &two, Left20: &two,
	}))

	pool, err := repo.ForDay("2025-03-10", 1)
	require.NoError(t, err)
	*pool.Left10--
	pool.AvailableSlots--
	ok, err := repo.UpdateCAS(pool)
	require.NoError(t, err)
	require.True(t, ok)

	fresh, err := repo.ForDay("2025-03-10", 1)
	require.NoError(t, err)
	require.NotNil(t, fresh.Left10)
	assert.Equal(t, 0, *fresh.Left10)
	require.NotNil(t, fresh.Left20)
	assert.Equal(t, 2, *fresh.Left20)
	assert.Equal(t, 1, fresh.AvailableSlots)
}
