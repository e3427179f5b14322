package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/callhub/be-dispatch/internal/client"
	"github.com/callhub/be-dispatch/internal/config"
	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/handler"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/middleware"
	"github.com/callhub/be-dispatch/internal/repository"
	"github.com/callhub/be-dispatch/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting dispatch service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	db, err := database.New(ctx, database.Config{
		Host:        cfg.Database.Host,
		Port:        cfg.Database.Port,
		User:        cfg.Database.User,
		Password:    cfg.Database.Password,
		Database:    cfg.Database.Database,
		SSLMode:     cfg.Database.SSLMode,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnTime: cfg.Database.MaxConnTime,
		MaxIdleTime: cfg.Database.MaxIdleTime,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap database schema")
	}
	log.Info().Msg("Database connection established")

	// NATS is optional; claims and transitions work without it, only
	// transfer notifications are silently dropped.
	var nc *nats.Conn
	if cfg.NATS.Enabled {
		nc, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.Service.Name),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.NATS.URL).Msg("Failed to connect to NATS, notifications disabled")
			nc = nil
		} else {
			defer nc.Close()
			log.Info().Str("url", cfg.NATS.URL).Msg("NATS connection established")
		}
	}

	// Initialize repositories
	clientRepo := repository.NewClientRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	poolRepo := repository.NewPoolRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	buttonRepo := repository.NewStatusButtonRepository(db)

	// Initialize external clients
	identityClient := client.NewIdentityClient(cfg.Identity.BaseURL, cfg.Identity.Timeout)
	notifier := client.NewNotificationPublisher(nc, cfg.Notification.SubjectPrefix, log.Logger)

	// Initialize services
	registry := service.NewStatusRegistry(buttonRepo, cfg.StatusesTTL, log)
	assignmentService := service.NewAssignmentService(clientRepo, filterRepo, poolRepo, log)
	statusService := service.NewStatusService(clientRepo, registry, identityClient, notifier, log)
	clientService := service.NewClientService(clientRepo, noteRepo, log)
	filterService := service.NewFilterService(filterRepo, clientRepo, poolRepo, log)
	historyService := service.NewHistoryService(historyRepo, noteRepo, log)

	// Setup HTTP routes
	httpHandler := handler.NewHTTPHandler(
		assignmentService, statusService, clientService,
		filterService, historyService, registry, poolRepo, log,
	)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	// Claim routes
	mux.HandleFunc("/api/v1/clients/claim", httpHandler.ClaimNext)
	mux.HandleFunc("/api/v1/clients/claim/filter", httpHandler.ClaimNextForFilter)
	mux.HandleFunc("/api/v1/clients/claim/wiki", httpHandler.ClaimNextWiki)

	// Transition routes
	mux.HandleFunc("/api/v1/clients/status", httpHandler.SetStatus)
	mux.HandleFunc("/api/v1/clients/callback", httpHandler.ScheduleCallback)
	mux.HandleFunc("/api/v1/clients/transfer", httpHandler.Transfer)
	mux.HandleFunc("/api/v1/clients/return", httpHandler.ReturnToWork)
	mux.HandleFunc("/api/v1/clients/clear-section", httpHandler.ClearProfileSection)

	// Client views
	mux.HandleFunc("/api/v1/clients/get", httpHandler.GetClient)
	mux.HandleFunc("/api/v1/clients/my", httpHandler.MyClients)
	mux.HandleFunc("/api/v1/clients/by-status", httpHandler.ClientsByStatus)
	mux.HandleFunc("/api/v1/clients/notes", httpHandler.Notes)

	// History
	mux.HandleFunc("/api/v1/clients/history", httpHandler.ClientHistory)
	mux.HandleFunc("/api/v1/clients/last-transfer", httpHandler.LastTransfer)
	mux.HandleFunc("/api/v1/workers/history", httpHandler.WorkerHistory)
	mux.HandleFunc("/api/v1/history/purge", httpHandler.PurgeHistory)

	// Filters, pools, statuses
	mux.HandleFunc("/api/v1/filters", httpHandler.Filters)
	mux.HandleFunc("/api/v1/filters/update", httpHandler.UpdateFilter)
	mux.HandleFunc("/api/v1/filters/toggle", httpHandler.ToggleFilter)
	mux.HandleFunc("/api/v1/filters/delete", httpHandler.DeleteFilter)
	mux.HandleFunc("/api/v1/pools", httpHandler.Pools)
	mux.HandleFunc("/api/v1/statuses", httpHandler.Statuses)

	// Apply middleware
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(30 * time.Second)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
}
