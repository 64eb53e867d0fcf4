package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pereryv/internal/auth"
	"pereryv/internal/handlers"
	"pereryv/internal/models"
	"pereryv/internal/queue"
	"pereryv/internal/repository"
	"pereryv/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// noopNotifier глушит push-события в HTTP-тестах.
type noopNotifier struct{}

func (noopNotifier) NotifyYourTurn(userID, entryID uint, durationMinutes, timeoutSeconds int) {}
func (noopNotifier) NotifyExpired(userID, entryID uint, newPosition int)                      {}
func (noopNotifier) BroadcastQueueUpdated(date string, groupID uint, snapshot queue.Snapshot) {}
func (noopNotifier) BroadcastBreakEnded(date string, groupID uint, userID uint, name string, round int) {
}

// testAuth подставляет пользователя из заголовков вместо JWT.
func testAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		var id uint
		fmt.Sscan(c.GetHeader("X-Test-User"), &id)
		c.Set("userID", id)
		c.Set("role", c.GetHeader("X-Test-Role"))
		c.Next()
	}
}

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Schedule{}, &models.ShiftGroup{}, &models.Shift{},
		&models.BreakPool{}, &models.BreakQueueEntry{}, &models.Break{},
	))
	storage.DB = db
	storage.RedisClient = nil

	repos := repository.New(db)
	handlers.QueueEngine = queue.NewEngine(repos.Entries, repos.Pools, repos.Breaks,
		repos.Shifts, repos.Groups, repos.Users, noopNotifier{}, queue.DefaultConfig())

	r := gin.New()
	r.GET("/groups", handlers.GetGroupsHandler)

	api := r.Group("/api", testAuth())
	{
		api.POST("/shifts/open", handlers.OpenShiftHandler)
		api.POST("/shifts/close", handlers.CloseShiftHandler)

		api.POST("/queue/join", handlers.JoinQueueHandler)
		api.GET("/queue/state", handlers.GetQueueStateHandler)
		api.POST("/queue/confirm/:id", handlers.ConfirmHandler)
		api.POST("/queue/postpone/:id", handlers.PostponeHandler)
		api.POST("/queue/skip", handlers.SkipRoundHandler)
		api.POST("/queue/priority/:userID", handlers.PriorityHandler)

		api.POST("/breaks/:id/finish", handlers.FinishBreakHandler)
		api.GET("/breaks/active", handlers.GetActiveBreakHandler)

		admin := api.Group("/admin", auth.RequireRole(models.RoleAdmin))
		{
			admin.POST("/schedules", handlers.CreateScheduleHandler)
			admin.POST("/groups", handlers.CreateGroupHandler)
			admin.POST("/pools", handlers.UpsertPoolHandler)
		}
	}
	return r
}

func makeUser(t *testing.T, name, role string) *models.User {
	user := models.User{
		Name: name, Surname: "Тестов",
		Email:        name + "@example.com",
		PasswordHash: "hash", Role: role,
	}
	require.NoError(t, storage.DB.Create(&user).Error)
	return &user
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, user *models.User, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != nil {
		req.Header.Set("X-Test-User", fmt.Sprint(user.ID))
		req.Header.Set("X-Test-Role", user.Role)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w, out
}

func TestQueueFullFlow(t *testing.T) {
	r := setupRouter(t)

	admin := makeUser(t, "admin", models.RoleAdmin)
	anna := makeUser(t, "anna", models.RoleOperator)
	boris := makeUser(t, "boris", models.RoleOperator)

	// Администратор настраивает график, группу и пул на день.
	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/schedules", admin, gin.H{
		"name": "Шаблонный", "break_template": "20,10",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	scheduleID := resp["schedule_id"].(float64)

	w, resp = doJSON(t, r, http.MethodPost, "/api/admin/groups", admin, gin.H{
		"name": "Первая линия", "schedule_id": scheduleID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	groupID := resp["group_id"].(float64)

	w, _ = doJSON(t, r, http.MethodPost, "/api/admin/pools", admin, gin.H{
		"work_date":   handlers.QueueEngine.Now().Format("2006-01-02"),
		"group_id":    groupID,
		"total_slots": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Оператору без прав админка закрыта.
	w, _ = doJSON(t, r, http.MethodPost, "/api/admin/schedules", anna, gin.H{"name": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Без смены в очередь не встать.
	w, resp = doJSON(t, r, http.MethodPost, "/api/queue/join", anna, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_ACTIVE_SHIFT", resp["code"])

	for _, u := range []*models.User{anna, boris} {
		w, _ = doJSON(t, r, http.MethodPost, "/api/shifts/open", u, gin.H{"group_id": groupID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	// Повторное открытие смены отклоняется.
	w, resp = doJSON(t, r, http.MethodPost, "/api/shifts/open", anna, gin.H{"group_id": groupID})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "SHIFT_EXISTS", resp["code"])

	// Анна встаёт первой и сразу получает уведомление.
	w, resp = doJSON(t, r, http.MethodPost, "/api/queue/join", anna, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), resp["position"])
	assert.Equal(t, float64(1), resp["round"])
	assert.Equal(t, float64(20), resp["duration_minutes"])
	annaEntry := resp["entry_id"].(float64)

	w, resp = doJSON(t, r, http.MethodPost, "/api/queue/join", anna, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_IN_QUEUE", resp["code"])

	w, resp = doJSON(t, r, http.MethodPost, "/api/queue/join", boris, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), resp["position"])
	assert.Equal(t, float64(1), resp["ahead"])

	// Чужую запись подтвердить нельзя.
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/queue/confirm/%.0f", annaEntry), boris, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FOREIGN_ENTRY", resp["code"])

	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/queue/confirm/%.0f", annaEntry), anna, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	breakID := resp["break_id"].(float64)

	// Текущий перерыв виден оператору.
	w, resp = doJSON(t, r, http.MethodGet, "/api/breaks/active", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp["break"])

	// Состояние очереди: слот занят, Борис уведомлён.
	w, resp = doJSON(t, r, http.MethodGet, "/api/queue/state", boris, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), resp["available_slots"])
	my := resp["my_entry"].(map[string]any)
	assert.Equal(t, "notified", my["status"])

	// Завершение перерыва возвращает слот.
	w, _ = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/breaks/%.0f/finish", breakID), anna, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, resp = doJSON(t, r, http.MethodGet, "/api/queue/state", boris, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), resp["available_slots"])

	// Борис передумал — пропускает круг.
	w, _ = doJSON(t, r, http.MethodPost, "/api/queue/skip", boris, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Список групп доступен без авторизации.
	w, resp = doJSON(t, r, http.MethodGet, "/groups", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), resp["total"])
}

func TestPriorityEndpointChecksRole(t *testing.T) {
	r := setupRouter(t)

	admin := makeUser(t, "admin", models.RoleAdmin)
	senior := makeUser(t, "senior", models.RoleSenior)
	anna := makeUser(t, "anna", models.RoleOperator)
	vera := makeUser(t, "vera", models.RoleOperator)

	w, resp := doJSON(t, r, http.MethodPost, "/api/admin/schedules", admin, gin.H{
		"name": "Шаблонный", "break_template": "20",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	w, resp = doJSON(t, r, http.MethodPost, "/api/admin/groups", admin, gin.H{
		"name": "Вторая линия", "schedule_id": resp["schedule_id"],
	})
	require.Equal(t, http.StatusCreated, w.Code)
	groupID := resp["group_id"]

	for _, u := range []*models.User{anna, vera} {
		w, _ = doJSON(t, r, http.MethodPost, "/api/shifts/open", u, gin.H{"group_id": groupID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, http.MethodPost, "/api/queue/join", anna, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Обычный оператор не может ставить вне очереди.
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/queue/priority/%d", vera.ID), anna, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PRIORITY_FORBIDDEN", resp["code"])

	// Старший смены ставит Веру на первую позицию.
	w, resp = doJSON(t, r, http.MethodPost, fmt.Sprintf("/api/queue/priority/%d", vera.ID), senior, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), resp["position"])
}
