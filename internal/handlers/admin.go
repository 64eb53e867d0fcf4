package handlers

import (
	"net/http"

	"pereryv/internal/models"
	"pereryv/internal/response"
	"pereryv/internal/storage"

	"github.com/gin-gonic/gin"
)

type CreateScheduleRequest struct {
	Name                string `json:"name" binding:"required"`
	AllowDurationChoice bool   `json:"allow_duration_choice"`
	BreakTemplate       string `json:"break_template"` // например "20,10,20"
	MinIntervalMinutes  int    `json:"min_interval_minutes"`
}

// CreateScheduleHandler создаёт график перерывов
// @Summary		Создать график
// @Description	Создаёт график перерывов (выбор длительности или шаблон)
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			body	body		CreateScheduleRequest	true	"Параметры графика"
// @Security		BearerAuth
// @Success		201	{object}	map[string]interface{}	"График создан"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/admin/schedules [post]
func CreateScheduleHandler(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	sched := models.Schedule{
		Name:                req.Name,
		AllowDurationChoice: req.AllowDurationChoice,
		BreakTemplate:       req.BreakTemplate,
		MinIntervalMinutes:  req.MinIntervalMinutes,
	}
	if err := storage.DB.Create(&sched).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании графика",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "График создан", "schedule_id": sched.ID})
}

type CreateGroupRequest struct {
	Name       string `json:"name" binding:"required"`
	ScheduleID uint   `json:"schedule_id" binding:"required"`
}

// CreateGroupHandler создаёт группу смены
// @Summary		Создать группу
// @Description	Создаёт группу смены, привязанную к графику перерывов
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			body	body		CreateGroupRequest	true	"Параметры группы"
// @Security		BearerAuth
// @Success		201	{object}	map[string]interface{}	"Группа создана"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR, SCHEDULE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/admin/groups [post]
func CreateGroupHandler(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var sched models.Schedule
	if err := storage.DB.First(&sched, req.ScheduleID).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "SCHEDULE_NOT_FOUND",
			Message: "График перерывов не найден",
		})
		return
	}

	group := models.ShiftGroup{Name: req.Name, ScheduleID: req.ScheduleID}
	if err := storage.DB.Create(&group).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании группы",
			Details: err.Error(),
		})
		return
	}

	// Сбрасываем кэш списка групп.
	if storage.RedisClient != nil {
		storage.RedisClient.Del(ctx, "shift_groups_all")
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Группа создана", "group_id": group.ID})
}

type UpsertPoolRequest struct {
	WorkDate   string `json:"work_date" binding:"required"` // YYYY-MM-DD
	GroupID    uint   `json:"group_id" binding:"required"`
	TotalSlots int    `json:"total_slots" binding:"required,min=1"`
	Quota10    *int   `json:"quota10"` // квота 10-минутных, nil — не отслеживать
	Quota20    *int   `json:"quota20"` // квота 20-минутных, nil — не отслеживать
}

// UpsertPoolHandler задаёт ёмкость пула слотов на день
// @Summary		Задать пул слотов
// @Description	Создаёт или переинициализирует пул слотов на (дату, группу); остатки сбрасываются к полной ёмкости, поэтому настраивать пул нужно до начала смены
// @Tags			admin
// @Accept			json
// @Produce		json
// @Param			body	body		UpsertPoolRequest	true	"Ёмкость пула"
// @Security		BearerAuth
// @Success		200	{object}	map[string]interface{}	"Пул сохранён"
// @Failure		400	{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/admin/pools [post]
func UpsertPoolHandler(c *gin.Context) {
	var req UpsertPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var pool models.BreakPool
	err := storage.DB.
		Where("work_date = ? AND group_id = ?", req.WorkDate, req.GroupID).
		First(&pool).Error
	if err != nil {
		pool = models.BreakPool{WorkDate: req.WorkDate, GroupID: req.GroupID}
	}

	pool.TotalSlots = req.TotalSlots
	pool.AvailableSlots = req.TotalSlots
	pool.Total10 = req.Quota10
	pool.Left10 = copyInt(req.Quota10)
	pool.Total20 = req.Quota20
	pool.Left20 = copyInt(req.Quota20)

	if err := storage.DB.Save(&pool).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при сохранении пула",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Пул сохранён", "pool_id": pool.ID})
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}
