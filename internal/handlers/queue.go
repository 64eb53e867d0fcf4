package handlers

import (
	"net/http"
	"strconv"

	"pereryv/internal/queue"
	"pereryv/internal/response"

	"github.com/gin-gonic/gin"
)

// QueueEngine — движок очереди перерывов, задаётся при старте приложения.
var QueueEngine *queue.Engine

// abortWithQueueError переводит бизнес-ошибку движка в HTTP-ответ.
func abortWithQueueError(c *gin.Context, err error) {
	if qerr, ok := err.(*queue.Error); ok {
		status := http.StatusBadRequest
		switch qerr.Kind {
		case queue.KindForbidden:
			status = http.StatusForbidden
		case queue.KindNotFound:
			status = http.StatusNotFound
		case queue.KindTransient:
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, response.ErrorResponse{
			Code:    qerr.Code,
			Message: qerr.Message,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, response.ErrorResponse{
		Code:    "DB_ERROR",
		Message: "Внутренняя ошибка сервера",
		Details: err.Error(),
	})
}

type JoinQueueRequest struct {
	// Длительность в минутах; обязательна только если график разрешает выбор.
	DurationMinutes *int `json:"duration_minutes"`
}

// JoinQueueHandler ставит оператора в очередь на перерыв
// @Summary		Встать в очередь на перерыв
// @Description	Ставит оператора в очередь текущего круга и уведомляет группу
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			body	body		JoinQueueRequest	false	"Длительность (если график разрешает выбор)"
// @Security		BearerAuth
// @Success		200	{object}	queue.EnqueueResult	"Позиция, круг, длительность и число людей впереди"
// @Failure		400	{object}	response.ErrorResponse	"Бизнес-ошибка (NO_ACTIVE_SHIFT, ALREADY_IN_QUEUE, ROUND_NOT_FINISHED, INVALID_DURATION, QUOTA_EXHAUSTED, INTERVAL_NOT_PASSED)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queue/join [post]
func JoinQueueHandler(c *gin.Context) {
	var req JoinQueueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Ошибка валидации данных",
				Details: err.Error(),
			})
			return
		}
	}

	userID := c.GetUint("userID")
	result, err := QueueEngine.Enqueue(userID, req.DurationMinutes)
	if err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetQueueStateHandler возвращает состояние очереди для оператора
// @Summary		Состояние очереди
// @Description	Текущий круг, видимая очередь, свободные слоты и своя запись
// @Tags			queue
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	queue.State	"Состояние очереди"
// @Failure		400	{object}	response.ErrorResponse	"Нет активной смены (NO_ACTIVE_SHIFT)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/queue/state [get]
func GetQueueStateHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	state, err := QueueEngine.GetState(userID)
	if err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// ConfirmHandler подтверждает уведомление и начинает перерыв
// @Summary		Подтвердить перерыв
// @Description	Резервирует слот и уводит оператора на перерыв
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID записи в очереди"
// @Security		BearerAuth
// @Success		200	{object}	map[string]interface{}	"Начатый перерыв"
// @Failure		400	{object}	response.ErrorResponse	"Бизнес-ошибка (NOTIFICATION_NOT_ACTIVE, NO_FREE_SLOTS, QUOTA_EXHAUSTED)"
// @Failure		403	{object}	response.ErrorResponse	"Чужая запись (FOREIGN_ENTRY)"
// @Failure		503	{object}	response.ErrorResponse	"Не удалось занять слот (SLOTS_BUSY)"
// @Router			/api/queue/confirm/{id} [post]
func ConfirmHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи",
		})
		return
	}

	userID := c.GetUint("userID")
	br, err := QueueEngine.Confirm(userID, uint(entryID))
	if err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"break_id":         br.ID,
		"duration_minutes": br.DurationMinutes,
		"round":            br.Round,
		"started_at":       br.StartedAt,
	})
}

// PostponeHandler переносит уведомлённого оператора назад по очереди
// @Summary		Отложить перерыв
// @Description	Пропускает вперёд до двух следующих ожидающих
// @Tags			queue
// @Produce		json
// @Param			id	path		string	true	"ID записи в очереди"
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Перерыв отложен"
// @Failure		400	{object}	response.ErrorResponse	"Уведомление не активно (NOTIFICATION_NOT_ACTIVE)"
// @Failure		403	{object}	response.ErrorResponse	"Чужая запись (FOREIGN_ENTRY)"
// @Router			/api/queue/postpone/{id} [post]
func PostponeHandler(c *gin.Context) {
	entryID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_ENTRY_ID",
			Message: "Неверный идентификатор записи",
		})
		return
	}

	userID := c.GetUint("userID")
	if err := QueueEngine.Postpone(userID, uint(entryID)); err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Перерыв отложен"})
}

// SkipRoundHandler пропускает текущий круг перерывов
// @Summary		Пропустить круг
// @Description	Снимает оператора с очереди; круг засчитывается без перерыва
// @Tags			queue
// @Produce		json
// @Security		BearerAuth
// @Success		200	{object}	response.SuccessResponse	"Круг пропущен"
// @Failure		400	{object}	response.ErrorResponse	"Нет активной смены (NO_ACTIVE_SHIFT)"
// @Router			/api/queue/skip [post]
func SkipRoundHandler(c *gin.Context) {
	userID := c.GetUint("userID")
	if err := QueueEngine.SkipRound(userID); err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Круг пропущен"})
}

// PriorityHandler ставит оператора на первую позицию очереди
// @Summary		Поставить вне очереди
// @Description	Старший смены или администратор ставит оператора на позицию 1
// @Tags			queue
// @Accept			json
// @Produce		json
// @Param			userID	path		string				true	"ID оператора"
// @Param			body	body		JoinQueueRequest	false	"Длительность (если график разрешает выбор)"
// @Security		BearerAuth
// @Success		200	{object}	queue.EnqueueResult	"Запись вне очереди создана"
// @Failure		400	{object}	response.ErrorResponse	"Бизнес-ошибка (NO_ACTIVE_SHIFT, ALREADY_IN_QUEUE, ROUND_NOT_FINISHED, INVALID_DURATION)"
// @Failure		403	{object}	response.ErrorResponse	"Недостаточно прав (PRIORITY_FORBIDDEN)"
// @Router			/api/queue/priority/{userID} [post]
func PriorityHandler(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("userID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_USER_ID",
			Message: "Неверный идентификатор оператора",
		})
		return
	}

	var req JoinQueueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Ошибка валидации данных",
				Details: err.Error(),
			})
			return
		}
	}

	role := c.GetString("role")
	result, err := QueueEngine.EnqueuePriority(role, uint(targetID), req.DurationMinutes)
	if err != nil {
		abortWithQueueError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
