package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/timesheet-api/internal/config"
	"github.com/yukikurage/timesheet-api/internal/constants"
	"github.com/yukikurage/timesheet-api/internal/database"
	"github.com/yukikurage/timesheet-api/internal/handlers"
	applog "github.com/yukikurage/timesheet-api/internal/logger"
	"github.com/yukikurage/timesheet-api/internal/middleware"
	"github.com/yukikurage/timesheet-api/internal/models"
	"github.com/yukikurage/timesheet-api/internal/repository"
	"github.com/yukikurage/timesheet-api/internal/services"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := applog.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Run migrations
	if err := database.Migrate(db, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		log.Fatal("Failed to create session store", zap.Error(err), zap.String("store", cfg.SessionStore))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	timeLogRepo := repository.NewTimeLogRepository(db)
	timesheetRepo := repository.NewTimesheetRepository(db)
	timerStore := repository.NewTimerStore(db)

	// Services
	timerOpts := []services.TimerOption{
		services.WithLocation(cfg.Location()),
		services.WithRequireClockIn(cfg.TimerRequireClockIn),
		services.WithLogger(log),
	}
	if cfg.OpenAIAPIKey != "" {
		timerOpts = append(timerOpts, services.WithNoteSummarizer(services.NewAIService(cfg.OpenAIAPIKey)))
	} else {
		log.Info("OPENAI_API_KEY not set, timesheet descriptions will use raw notes")
	}

	timerService := services.NewTimerService(timerStore, timerOpts...)
	authService := services.NewAuthService(userRepo, log)
	orgService := services.NewOrganizationService(orgRepo, timerService)
	projectService := services.NewProjectService(projectRepo, orgRepo)
	taskService := services.NewTaskService(taskRepo, projectRepo, orgRepo)
	timeLogService := services.NewTimeLogService(timeLogRepo, taskRepo, orgRepo, cfg.Location())
	timesheetService := services.NewTimesheetService(timerService, timesheetRepo, taskRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	orgHandler := handlers.NewOrganizationHandler(orgService)
	projectHandler := handlers.NewProjectHandler(projectService)
	taskHandler := handlers.NewTaskHandler(taskService)
	timerHandler := handlers.NewTimerHandler(timerService, timeLogService)
	timesheetHandler := handlers.NewTimesheetHandler(timesheetService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CollectMetrics())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Accept-Encoding", constants.HeaderRequestID},
		ExposeHeaders:    []string{"Content-Length", "Content-Encoding", constants.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Timesheet API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		// Organization routes (protected)
		orgs := api.Group("/organizations")
		orgs.Use(middleware.RequireAuth())
		{
			orgAccess := middleware.RequireOrganizationAccess(orgRepo)
			ownerOnly := middleware.RequireOrganizationOwner()

			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("", orgHandler.ListOrganizations)
			orgs.POST("/join", orgHandler.JoinOrganization)
			orgs.GET("/:id", orgAccess, orgHandler.GetOrganization)
			orgs.PUT("/:id", orgAccess, ownerOnly, orgHandler.UpdateOrganization)
			orgs.POST("/:id/regenerate-code", orgAccess, ownerOnly, orgHandler.RegenerateInviteCode)
			orgs.DELETE("/:id/members/:user_id", orgAccess, ownerOnly, orgHandler.RemoveMember)
			orgs.GET("/:id/projects", orgAccess, projectHandler.ListProjects)
			orgs.POST("/:id/projects", orgAccess, ownerOnly, projectHandler.CreateProject)
		}

		api.GET("/projects/:id", middleware.RequireAuth(), projectHandler.GetProject)

		// Task routes (protected)
		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			taskAccess := middleware.RequireTaskAccess(taskRepo, orgRepo)

			tasks.GET("", taskHandler.ListTasks)
			tasks.POST("", taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.POST("/:id/assign", taskHandler.AssignTask)
			tasks.POST("/:id/accept", taskHandler.AcceptTask)
			tasks.POST("/:id/reject", taskHandler.RejectTask)
			tasks.POST("/:id/cancel", taskHandler.CancelTask)

			for _, action := range models.TimerActions {
				tasks.POST("/:id/"+string(action), taskAccess, timerHandler.Transition)
			}
			tasks.GET("/:id/logs", taskAccess, timerHandler.ListLogs)
			tasks.GET("/:id/logs/summary", taskAccess, timerHandler.Summary)
			tasks.GET("/:id/logs/reconcile", taskAccess, timerHandler.Reconcile)
		}

		// Timesheet routes (protected)
		timesheet := api.Group("/timesheet")
		timesheet.Use(middleware.RequireAuth())
		{
			timesheet.POST("/clockin", timesheetHandler.ClockIn)
			timesheet.POST("/clockout", timesheetHandler.ClockOut)
			timesheet.GET("/status", timesheetHandler.Status)
			timesheet.GET("/entries", timesheetHandler.Entries)
			timesheet.PATCH("/entries/:id", timesheetHandler.UpdateEntry)
			timesheet.DELETE("/entries/:id", timesheetHandler.DeleteEntry)
			timesheet.POST("/submit", timesheetHandler.Submit)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
}

// newSessionStore builds the redis-backed store, or a signed cookie store when
// SESSION_STORE=cookie.
func newSessionStore(cfg *config.Config) (sessions.Store, error) {
	options := sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}

	if cfg.SessionStore == config.SessionStoreCookie {
		store := cookie.NewStore([]byte(cfg.SessionSecret))
		store.Options(options)
		return store, nil
	}

	store, err := redisStore.NewStore(
		10,    // Redis pool size
		"tcp", // network type
		cfg.RedisHost+":"+cfg.RedisPort,
		"", // username (empty for default user)
		"", // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return nil, err
	}
	store.Options(options)
	return store, nil
}
