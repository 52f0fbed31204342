package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pharmadesk/pharmacy-backend/internal/auth/jwt"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/events"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/handler"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/repository"
	"github.com/pharmadesk/pharmacy-backend/internal/pharmacy/service"
	"github.com/pharmadesk/pharmacy-backend/pkg/cache"
	"github.com/pharmadesk/pharmacy-backend/pkg/config"
	"github.com/pharmadesk/pharmacy-backend/pkg/database"
	"github.com/pharmadesk/pharmacy-backend/pkg/httputil"
	"github.com/pharmadesk/pharmacy-backend/pkg/logger"
	"github.com/pharmadesk/pharmacy-backend/pkg/messaging"
	"github.com/pharmadesk/pharmacy-backend/pkg/storage"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("pharmacy-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("pharmacy-service", cfg.Server.Environment)
	log.Info().Msg("starting Pharmacy Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis (import previews)
	redisCache, err := cache.New(ctx, &cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisCache.Close()

	// Connect to object storage. Image uploads degrade gracefully when
	// MinIO is unreachable.
	imageStore, err := storage.New(ctx, &cfg.MinIO, log)
	if err != nil {
		log.Warn().Err(err).Msg("object storage unavailable, image uploads disabled")
		imageStore = nil
	}

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize event publisher
	publisher, err := events.NewPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize JWT manager
	jwtManager := jwt.NewManager(&cfg.JWT)

	// Initialize repositories
	medicineRepo := repository.NewMedicineRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	stockLogRepo := repository.NewStockLogRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	userRepo := repository.NewUserRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	// Initialize services
	medicineService := service.NewMedicineService(medicineRepo, batchRepo, publisher, log)
	batchService := service.NewBatchService(batchRepo, medicineRepo, stockLogRepo, publisher, log)
	dispenseService := service.NewDispenseService(db, receiptRepo, publisher, log)
	historyService := service.NewHistoryService(stockLogRepo, receiptRepo, log)
	referenceService := service.NewReferenceService(categoryRepo, unitRepo, log)
	userService := service.NewUserService(userRepo, jwtManager, log)
	dashboardService := service.NewDashboardService(dashboardRepo, log)
	importService := service.NewImportService(
		medicineRepo, categoryRepo, unitRepo, batchService,
		redisCache, cfg.Import.CacheTTL, cfg.Import.MaxRows,
		publisher, log,
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, log)
	medicineHandler := handler.NewMedicineHandler(medicineService, batchService, log)
	batchHandler := handler.NewBatchHandler(batchService, log)
	dispenseHandler := handler.NewDispenseHandler(dispenseService, log)
	historyHandler := handler.NewHistoryHandler(historyService, log)
	referenceHandler := handler.NewReferenceHandler(referenceService, log)
	userHandler := handler.NewUserHandler(userService, log)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, log)
	uploadHandler := handler.NewUploadHandler(imageStore, log)
	importHandler := handler.NewImportHandler(importService, log)

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "pharmacy-service",
			"database": db.Health(r.Context()),
			"redis":    redisCache.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(jwt.Middleware(jwtManager))

			// Medicine catalog
			r.Route("/medicines", func(r chi.Router) {
				r.Get("/", medicineHandler.List)
				r.Post("/", medicineHandler.Create)
				r.Get("/{id}", medicineHandler.Get)
				r.Put("/{id}", medicineHandler.Update)
				r.Delete("/{id}", medicineHandler.Delete)
				r.Get("/{id}/batches", medicineHandler.ListBatches)
			})

			// Batches
			r.Route("/batches", func(r chi.Router) {
				r.Get("/", batchHandler.List)
				r.Post("/", batchHandler.Create)
				r.Get("/{id}", batchHandler.Get)
				r.Put("/{id}", batchHandler.Update)
				r.Delete("/{id}", batchHandler.Delete)
			})

			// Dispensing
			r.Post("/dispense", dispenseHandler.Dispense)
			r.Post("/dispense/complete", dispenseHandler.Complete)

			// Movement log and receipts
			r.Get("/stock-logs", historyHandler.StockLogs)
			r.Get("/receipts", historyHandler.Receipts)
			r.Get("/receipts/{id}", historyHandler.Receipt)

			// Reference data
			r.Route("/categories", func(r chi.Router) {
				r.Get("/", referenceHandler.ListCategories)
				r.Post("/", referenceHandler.CreateCategory)
				r.Get("/{id}", referenceHandler.GetCategory)
				r.Put("/{id}", referenceHandler.UpdateCategory)
				r.Delete("/{id}", referenceHandler.DeleteCategory)
			})
			r.Route("/units", func(r chi.Router) {
				r.Get("/", referenceHandler.ListUnits)
				r.Post("/", referenceHandler.CreateUnit)
				r.Get("/{id}", referenceHandler.GetUnit)
				r.Put("/{id}", referenceHandler.UpdateUnit)
				r.Delete("/{id}", referenceHandler.DeleteUnit)
			})

			// Users and roles
			r.Get("/users", userHandler.List)
			r.Post("/users", userHandler.Create)
			r.Get("/roles", userHandler.ListRoles)

			// Uploads and imports
			r.Post("/upload/image", uploadHandler.UploadImage)
			r.Post("/import-excel/parse", importHandler.Parse)
			r.Post("/import-excel/confirm", importHandler.Confirm)

			// Dashboard
			r.Get("/dashboard/stats", dashboardHandler.Stats)
		})
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
