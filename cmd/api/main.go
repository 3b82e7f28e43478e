package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/alumtek/budgets-api/internal/handler"
	appmiddleware "github.com/alumtek/budgets-api/internal/middleware"
	"github.com/alumtek/budgets-api/internal/models"
	"github.com/alumtek/budgets-api/internal/repository"
	"github.com/alumtek/budgets-api/internal/service"
	"github.com/alumtek/budgets-api/pkg/cache"
	"github.com/alumtek/budgets-api/pkg/config"
	"github.com/alumtek/budgets-api/pkg/database"
	"github.com/alumtek/budgets-api/pkg/jobs"
	"github.com/alumtek/budgets-api/pkg/logger"
	corsmiddleware "github.com/alumtek/budgets-api/pkg/middleware/cors"
	reqidmiddleware "github.com/alumtek/budgets-api/pkg/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect postgres", "error", err)
	}
	defer db.Close()

	ddb, err := database.NewDynamoDB(ctx, cfg.Dynamo)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect dynamodb", "error", err)
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Timeline.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, timeline caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}

	budgetRepo := repository.NewBudgetRepository(ddb, cfg.Dynamo.Table)
	quotationRepo := repository.NewQuotationRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	userRepo := repository.NewUserRepository(db)

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	versionOpts := []service.BudgetVersionServiceOption{}
	timelineOpts := []service.TimelineServiceOption{}
	transitionOpts := []service.StatusTransitionServiceOption{}
	if cacheRepo != nil {
		versionOpts = append(versionOpts, service.WithTimelineInvalidator(cacheRepo))
		timelineOpts = append(timelineOpts, service.WithTimelineCache(cacheRepo, cfg.Timeline.CacheTTL))
		transitionOpts = append(transitionOpts, service.WithTransitionCache(cacheRepo))
	}

	// the queue handler re-applies a transition through the same service it
	// reports failures to, so the service pointer is bound after construction
	var transitionSvc *service.StatusTransitionService
	reconcileQueue := jobs.NewQueue(func(ctx context.Context, job jobs.TransitionJob) error {
		_, err := transitionSvc.ChangeStatus(ctx, job.BudgetID, models.BudgetStatus(job.Status), job.Comment)
		return err
	}, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: cfg.Budget.RetryAttempts,
		RetryDelay: cfg.Budget.RetryBaseDelay,
		Logger:     logr,
	})
	transitionOpts = append(transitionOpts, service.WithRetryScheduler(reconcileQueue))
	transitionSvc = service.NewStatusTransitionService(budgetRepo, quotationRepo, logr, transitionOpts...)

	reconcileQueue.Start(ctx)
	defer reconcileQueue.Stop()

	versionSvc := service.NewBudgetVersionService(budgetRepo, quotationRepo, cfg.Budget, validate, logr, versionOpts...)
	timelineSvc := service.NewTimelineService(budgetRepo, logr, timelineOpts...)
	reportSvc := service.NewReportService(budgetRepo, quotationRepo, logr)
	customerSvc := service.NewCustomerService(customerRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)

	budgetHandler := handler.NewBudgetHandler(versionSvc, transitionSvc, timelineSvc, metricsSvc, logr)
	reportHandler := handler.NewReportHandler(reportSvc)
	customerHandler := handler.NewCustomerHandler(customerSvc)
	userHandler := handler.NewUserHandler(userSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(appmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		budgets := api.Group("/budgets")
		{
			budgets.POST("/:budgetId/versions", budgetHandler.CreateVersion)
			budgets.POST("/:budgetId/status", budgetHandler.ChangeStatus)
			budgets.GET("/:budgetId/timeline", budgetHandler.Timeline)
		}

		customers := api.Group("/customers")
		{
			customers.POST("", customerHandler.Create)
			customers.GET("", customerHandler.List)
			customers.GET("/:dni", customerHandler.GetByDNI)
			customers.GET("/:dni/timeline", budgetHandler.CustomerTimeline)
			customers.GET("/:dni/budgets", reportHandler.BudgetsByCustomer)
		}

		users := api.Group("/users")
		{
			users.POST("", userHandler.Create)
			users.GET("", userHandler.List)
			users.DELETE("/:id", userHandler.Deactivate)
		}

		reports := api.Group("/reports")
		{
			reports.GET("/budgets", reportHandler.BudgetsByDateRange)
		}

		api.GET("/quotations", reportHandler.Quotations)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
