package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	_ "pereryv/docs"
	"pereryv/internal/auth"
	"pereryv/internal/handlers"
	"pereryv/internal/models"
	"pereryv/internal/queue"
	"pereryv/internal/repository"
	"pereryv/internal/storage"
	"pereryv/internal/tasks"
	"pereryv/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @Title						Очередь на перерывы для операторов КЦ
// @securityDefinitions.apikey	BearerAuth
// @in							header
// @name						Authorization
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	storage.ConnectDatabase()

	if err := storage.DB.AutoMigrate(
		&models.User{}, &models.Schedule{}, &models.ShiftGroup{}, &models.Shift{},
		&models.BreakPool{}, &models.BreakQueueEntry{}, &models.Break{},
	); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	storage.InitRedis()

	cfg := queue.DefaultConfig()
	if v := os.Getenv("BREAK_SLOTS_DEFAULT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultSlots = n
		}
	}

	repos := repository.New(storage.DB)
	engine := queue.NewEngine(repos.Entries, repos.Pools, repos.Breaks,
		repos.Shifts, repos.Groups, repos.Users, ws.HubInstance, cfg)
	handlers.QueueEngine = engine

	tasks.InitScheduler(engine)

	go ws.HubInstance.Run()

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", handlers.Login)
		authGroup.POST("/register", handlers.Register)
		authGroup.POST("/refresh", handlers.RefreshToken)
	}

	r.GET("/groups", handlers.GetGroupsHandler)

	api := r.Group("/api", auth.AuthMiddleware())
	{
		api.POST("/shifts/open", handlers.OpenShiftHandler)
		api.POST("/shifts/close", handlers.CloseShiftHandler)

		api.POST("/queue/join", handlers.JoinQueueHandler)
		api.GET("/queue/state", handlers.GetQueueStateHandler)
		api.POST("/queue/confirm/:id", handlers.ConfirmHandler)
		api.POST("/queue/postpone/:id", handlers.PostponeHandler)
		api.POST("/queue/skip", handlers.SkipRoundHandler)
		api.POST("/queue/priority/:userID", handlers.PriorityHandler)
		api.GET("/queue/ws", ws.QueueWebSocketHandler)

		api.POST("/breaks/:id/finish", handlers.FinishBreakHandler)
		api.GET("/breaks/active", handlers.GetActiveBreakHandler)

		admin := api.Group("/admin", auth.RequireRole(models.RoleAdmin))
		{
			admin.POST("/schedules", handlers.CreateScheduleHandler)
			admin.POST("/groups", handlers.CreateGroupHandler)
			admin.POST("/pools", handlers.UpsertPoolHandler)
		}
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
