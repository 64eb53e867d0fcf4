package handlers

import (
	"net/http"
	"strconv"

	"pereryv/internal/models"
	"pereryv/internal/response"
	"pereryv/internal/storage"

	"github.com/gin-gonic/gin"
)

// FinishBreakHandler завершает перерыв вручную
// @Summary		Завершить перерыв
// @Description	Закрывает перерыв, возвращает слот в пул и продвигает очередь
// @Tags			breaks
// @Produce		json
// @Param			id	path		string	true	"ID перерыва"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Перерыв завершён"
// @Failure		400	{object}	response.ErrorResponse	"Перерыв уже завершён (BREAK_NOT_ACTIVE)"
// @Failure		403	{object}	response.ErrorResponse	"Чужой перерыв (FOREIGN_BREAK)"
// @Failure		404	{object}	response.ErrorResponse	"Перерыв не найден (BREAK_NOT_FOUND)"
// @Router			/api/breaks/{id}/finish [post]
func FinishBreakHandler(c *gin.Context) {
	breakID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_BREAK_ID",
			Message: "Неверный идентификатор перерыва",
		})
		return
	}

	var br models.Break
	if err := storage.DB.First(&br, breakID).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "BREAK_NOT_FOUND",
			Message: "Перерыв не найден",
		})
		return
	}

	// Свой перерыв может закрыть оператор, чужой — старший смены или админ.
	userID := c.GetUint("userID")
	role := c.GetString("role")
	if br.UserID != userID && role != models.RoleSenior && role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, response.ErrorResponse{
			Code:    "FOREIGN_BREAK",
			Message: "Перерыв принадлежит другому оператору",
		})
		return
	}

	if err := QueueEngine.FinishBreak(br.ID); err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Перерыв завершён"})
}

// GetActiveBreakHandler возвращает текущий перерыв оператора
// @Summary		Текущий перерыв
// @Description	Возвращает идущий перерыв оператора, если он есть
// @Tags			breaks
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	map[string]interface{}	"Текущий перерыв или null"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/breaks/active [get]
func GetActiveBreakHandler(c *gin.Context) {
	userID := c.GetUint("userID")

	var br models.Break
	err := storage.DB.
		Where("user_id = ? AND status = ?", userID, models.BreakTaken).
		First(&br).Error
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"break": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"break": gin.H{
		"break_id":         br.ID,
		"duration_minutes": br.DurationMinutes,
		"round":            br.Round,
		"started_at":       br.StartedAt,
	}})
}
