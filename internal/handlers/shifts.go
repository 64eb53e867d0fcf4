package handlers

import (
	"net/http"
	"time"

	"pereryv/internal/models"
	"pereryv/internal/response"
	"pereryv/internal/storage"

	"github.com/gin-gonic/gin"
)

type OpenShiftRequest struct {
	GroupID uint `json:"group_id" binding:"required"`
}

// OpenShiftHandler открывает смену оператора на сегодня
// @Summary		Открыть смену
// @Description	Выводит оператора на смену в группе; без активной смены очередь недоступна
// @Tags			shifts
// @Accept			json
// @Produce		json
// @Param			body	body		OpenShiftRequest	true	"Группа смены"
// @Security		BearerAuth
// @Success		200	{object}	map[string]interface{}	"Смена открыта"
// @Failure		400	{object}	response.ErrorResponse	"Смена уже открыта (SHIFT_EXISTS) или группа не найдена (GROUP_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/shifts/open [post]
func OpenShiftHandler(c *gin.Context) {
	var req OpenShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var group models.ShiftGroup
	if err := storage.DB.First(&group, req.GroupID).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "GROUP_NOT_FOUND",
			Message: "Группа смены не найдена",
		})
		return
	}

	userID := c.GetUint("userID")
	today := time.Now().Format("2006-01-02")

	var existing models.Shift
	if err := storage.DB.
		Where("user_id = ? AND work_date = ? AND active = ?", userID, today, true).
		First(&existing).Error; err == nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "SHIFT_EXISTS",
			Message: "Смена на сегодня уже открыта",
		})
		return
	}

	shift := models.Shift{
		UserID:   userID,
		GroupID:  req.GroupID,
		WorkDate: today,
		Active:   true,
	}
	if err := storage.DB.Create(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при открытии смены",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Смена открыта",
		"shift_id":  shift.ID,
		"group_id":  shift.GroupID,
		"work_date": shift.WorkDate,
	})
}

// CloseShiftHandler закрывает смену оператора
// @Summary		Закрыть смену
// @Description	Снимает оператора с сегодняшней смены
// @Tags			shifts
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Смена закрыта"
// @Failure		400	{object}	response.ErrorResponse	"Активная смена не найдена (NO_ACTIVE_SHIFT)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/shifts/close [post]
func CloseShiftHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	today := time.Now().Format("2006-01-02")

	var shift models.Shift
	if err := storage.DB.
		Where("user_id = ? AND work_date = ? AND active = ?", userID, today, true).
		First(&shift).Error; err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "NO_ACTIVE_SHIFT",
			Message: "Активная смена не найдена",
		})
		return
	}

	shift.Active = false
	if err := storage.DB.Save(&shift).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при закрытии смены",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Смена закрыта"})
}
