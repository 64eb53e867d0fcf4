package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"pereryv/internal/models"
	"pereryv/internal/storage"

	"github.com/gin-gonic/gin"
)

var ctx = context.Background()

type GroupItem struct {
	ID                  uint   `json:"id"`
	Name                string `json:"name"`
	ScheduleName        string `json:"schedule_name"`
	AllowDurationChoice bool   `json:"allow_duration_choice"`
}

type GroupListResponse struct {
	Items []GroupItem `json:"items"`
	Total int         `json:"total"`
}

// GetGroupsHandler обрабатывает запрос на получение списка групп смены
// @Summary		Получение списка групп
// @Description	Получает список групп смены с их графиками, кэширует результат в Redis
// @Tags			groups
// @Produce		json
// @Success		200		{object}	GroupListResponse	"Успешный ответ с данными групп"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера"
// @Router			/groups [get]
func GetGroupsHandler(c *gin.Context) {
	cacheKey := "shift_groups_all"
	redisClient := storage.RedisClient

	// Проверка кэша
	if redisClient != nil {
		cached, err := redisClient.Get(ctx, cacheKey).Result()
		if err == nil && cached != "" {
			var groups GroupListResponse
			if err := json.Unmarshal([]byte(cached), &groups); err == nil {
				c.JSON(http.StatusOK, groups)
				return
			}
		}
	}

	var list []models.ShiftGroup
	if err := storage.DB.Preload("Schedule").Order("name ASC").Find(&list).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить данные групп"})
		return
	}

	groups := GroupListResponse{Items: make([]GroupItem, 0, len(list)), Total: len(list)}
	for _, g := range list {
		groups.Items = append(groups.Items, GroupItem{
			ID:                  g.ID,
			Name:                g.Name,
			ScheduleName:        g.Schedule.Name,
			AllowDurationChoice: g.Schedule.AllowDurationChoice,
		})
	}

	// Кэширование результата
	if redisClient != nil {
		if payload, err := json.Marshal(groups); err == nil {
			redisClient.Set(ctx, cacheKey, string(payload), time.Minute*10)
		}
	}

	c.JSON(http.StatusOK, groups)
}
