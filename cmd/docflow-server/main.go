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

	"github.com/docflow/docflow-backend/internal/docflow/consumers"
	"github.com/docflow/docflow-backend/internal/docflow/events"
	"github.com/docflow/docflow-backend/internal/docflow/handler"
	"github.com/docflow/docflow-backend/internal/docflow/repository"
	"github.com/docflow/docflow-backend/internal/docflow/service"
	"github.com/docflow/docflow-backend/pkg/config"
	"github.com/docflow/docflow-backend/pkg/database"
	"github.com/docflow/docflow-backend/pkg/filestore"
	"github.com/docflow/docflow-backend/pkg/httputil"
	"github.com/docflow/docflow-backend/pkg/logger"
	"github.com/docflow/docflow-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("docflow-server")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("docflow-server", cfg.Server.Environment)
	log.Info().Msg("starting DocFlow Server")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer rmq.Close()

	// Initialize file store
	store, err := filestore.New(cfg.Storage.Root, cfg.Storage.MaxFileSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize file store")
	}

	// Initialize event publisher
	publisher, err := events.NewDocflowEventPublisher(rmq, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create event publisher")
	}

	// Initialize repositories
	documentRepo := repository.NewDocumentRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)
	delegationRepo := repository.NewDelegationRepository(db)
	accessRepo := repository.NewAccessRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	userCacheRepo := repository.NewUserCacheRepository(db)

	// Initialize services
	directory := service.NewDirectory(userCacheRepo)
	delegationService := service.NewDelegationService(delegationRepo, directory, publisher, log)
	documentService := service.NewDocumentService(db, documentRepo, versionRepo, approvalRepo,
		accessRepo, auditRepo, delegationService, publisher, log)
	versionService := service.NewVersionService(db, documentRepo, versionRepo, accessRepo,
		auditRepo, documentService, store, publisher, log)
	approvalService := service.NewApprovalService(db, documentRepo, approvalRepo, accessRepo,
		notificationRepo, auditRepo, delegationService, directory, publisher, log)
	accessService := service.NewAccessService(db, documentRepo, accessRepo, notificationRepo,
		auditRepo, directory, publisher, log)
	notificationService := service.NewNotificationService(notificationRepo, publisher, log)
	auditService := service.NewAuditService(auditRepo, log)
	commentService := service.NewCommentService(db, commentRepo, notificationRepo, auditRepo,
		documentService, log)

	// Initialize handlers
	documentHandler := handler.NewDocumentHandler(documentService, store, log)
	versionHandler := handler.NewVersionHandler(versionService, store, log)
	approvalHandler := handler.NewApprovalHandler(approvalService, log)
	delegationHandler := handler.NewDelegationHandler(delegationService, log)
	accessHandler := handler.NewAccessHandler(accessService, log)
	notificationHandler := handler.NewNotificationHandler(notificationService, log)
	auditHandler := handler.NewAuditHandler(auditService, log)
	commentHandler := handler.NewCommentHandler(commentService, log)

	// Start user event consumer
	userConsumer, err := consumers.NewUserEventConsumer(rmq, userCacheRepo, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create user event consumer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := userConsumer.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start user event consumer")
	}

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.JSON(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"service":  "docflow-server",
			"database": db.Health(r.Context()),
			"rabbitmq": rmq.Health(),
		})
	})

	// API routes (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httputil.Auth(&cfg.JWT, log))

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", documentHandler.List)
			r.Post("/", documentHandler.Create)
			r.Get("/statistics", documentHandler.Statistics)
			r.Get("/{id}", documentHandler.Get)
			r.Put("/{id}", documentHandler.Update)
			r.Delete("/{id}", documentHandler.Delete)
			r.Post("/{id}/archive", documentHandler.Archive)

			r.Get("/{id}/versions", versionHandler.List)
			r.Post("/{id}/versions", versionHandler.Upload)
			r.Get("/{id}/versions/current", versionHandler.GetCurrent)

			r.Post("/{id}/submit", approvalHandler.Submit)
			r.Get("/{id}/approvals", approvalHandler.ListByDocument)

			r.Get("/{id}/access", accessHandler.ListForDocument)
			r.Post("/{id}/access", accessHandler.Grant)
			r.Delete("/{id}/access/{userID}", accessHandler.Revoke)
			r.Get("/{id}/blocks", accessHandler.ListBlocks)
			r.Post("/{id}/blocks", accessHandler.Block)

			r.Get("/{id}/comments", commentHandler.List)
			r.Post("/{id}/comments", commentHandler.Create)
		})

		r.Route("/versions", func(r chi.Router) {
			r.Post("/{versionID}/restore", versionHandler.Restore)
			r.Get("/{versionID}/download", versionHandler.Download)
		})

		r.Route("/approvals", func(r chi.Router) {
			r.Get("/pending", approvalHandler.Pending)
			r.Get("/summary", approvalHandler.Summary)
			r.Get("/{id}", approvalHandler.Get)
			r.Post("/{id}/decide", approvalHandler.Decide)
		})

		r.Route("/delegations", func(r chi.Router) {
			r.Get("/", delegationHandler.List)
			r.Post("/", delegationHandler.Create)
			r.Get("/{id}", delegationHandler.Get)
			r.Delete("/{id}", delegationHandler.Revoke)
		})

		r.Route("/blocks", func(r chi.Router) {
			r.Post("/{blockID}/unblock", accessHandler.Unblock)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", notificationHandler.List)
			r.Get("/unread-count", notificationHandler.UnreadCount)
			r.Post("/{id}/read", notificationHandler.MarkRead)
			r.Post("/read-all", notificationHandler.MarkAllRead)
		})

		r.Route("/comments", func(r chi.Router) {
			r.Put("/{commentID}", commentHandler.Update)
			r.Delete("/{commentID}", commentHandler.Delete)
		})

		r.With(httputil.RequirePermission("admin.audit.read")).Get("/audit", auditHandler.List)
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

	// Cancel context to stop consumers
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
