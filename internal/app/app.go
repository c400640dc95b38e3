package app

import (
	"context"
	"fmt"

	"todo_backend/internal/config"
	"todo_backend/internal/dispatcher"
	"todo_backend/internal/handlers"
	"todo_backend/internal/logger"
	"todo_backend/internal/middleware"
	"todo_backend/internal/models"
	"todo_backend/internal/repositories"
	"todo_backend/internal/routes"
	"todo_backend/internal/scheduler"
	"todo_backend/internal/services"
	"todo_backend/internal/validator"
	"todo_backend/internal/workers"
	"todo_backend/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := gormDB.AutoMigrate(&models.Notification{}, &models.Reminder{}); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	ginRouter := SetupRouter(cfg, gormDB)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Server starting", "address", address)
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

// SetupRouter builds the whole application around a database handle and
// returns the configured gin engine. Tests reuse it against an in-memory
// database.
func SetupRouter(cfg *config.Config, gormDB *gorm.DB) *gin.Engine {
	hub := ws.NewHub()
	go hub.Run()

	disp := dispatcher.New(hub)

	notificationRepo := repositories.NewNotificationRepository(gormDB)
	reminderRepo := repositories.NewReminderRepository(gormDB)

	sched := scheduler.New(reminderRepo, notificationRepo, disp)
	if !cfg.Scheduler.DisableRestore {
		if err := sched.Restore(); err != nil {
			logger.Error("Failed to restore reminders", "error", err)
		}
	}

	notificationService := services.NewNotificationService(notificationRepo, disp)
	reminderService := services.NewReminderService(reminderRepo, sched)

	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	appHandlers := &handlers.AppHandlers{
		NotificationHandler: handlers.NewNotificationHandler(baseHandler, notificationService),
		ReminderHandler:     handlers.NewReminderHandler(baseHandler, reminderService),
	}

	wsHandler := ws.NewHandler(hub)

	retention := workers.NewRetentionWorker(notificationRepo, cfg.Retention.MaxAgeDays, cfg.Retention.IntervalHours)
	retention.Start(context.Background())

	ginRouter := initializeGinRouter()
	routes.RegisterRoutes(ginRouter, appHandlers, wsHandler)

	return ginRouter
}

func initializeGinRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	return router
}
