package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/auth"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/config"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/geo"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/jobs"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/messages"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/notifications"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/offers"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/payments"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/pesepay"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/profiles"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/ratings"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/realtime"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/router"
	"github.com/shelbyTagv/MuseyamwaLabourConnect/internal/wallet"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Unable to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("Cannot reach PostgreSQL (connection refused or invalid). Ensure Postgres is running, e.g. docker-compose up -d", "error", err)
		os.Exit(1)
	}
	slog.Info("Connected to PostgreSQL database successfully!")

	// River migrations (queue tables only; application schema is managed out
	// of band).
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		slog.Error("Failed to create River migrator", "error", err)
		os.Exit(1)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		slog.Error("River migrate up failed. If the error is 'connection refused', start PostgreSQL first", "error", err)
		os.Exit(1)
	}
	slog.Info("River migrations applied")

	// Repositories
	authRepo := auth.NewRepository(pool)
	walletRepo := wallet.NewRepository(pool)
	jobsRepo := jobs.NewRepository(pool)
	geoRepo := geo.NewRepository(pool)
	offersRepo := offers.NewRepository(pool)
	messagesRepo := messages.NewRepository(pool)
	notificationsRepo := notifications.NewRepository(pool)
	paymentsRepo := payments.NewRepository(pool)
	profilesRepo := profiles.NewRepository(pool)
	ratingsRepo := ratings.NewRepository(pool)

	// Realtime hub carries every push: notifications, chat, presence.
	hub := realtime.NewHub(logger)

	// Services
	walletSvc := wallet.NewService(walletRepo)
	notesSvc := notifications.NewService(notificationsRepo, hub, logger)
	authSvc := auth.NewService(authRepo, walletSvc, profilesRepo, []byte(cfg.JWTSecret), cfg.TokenTTL, cfg.RegistrationBonus, logger)
	jobsSvc := jobs.NewService(jobsRepo, walletSvc, notesSvc, profilesRepo, cfg.JobPostCost, logger)
	geoSvc := geo.NewService(geoRepo, logger)
	offersSvc := offers.NewService(offersRepo, jobsRepo, walletSvc, notesSvc, cfg.OfferCost, cfg.OfferTTL, logger)
	messagesSvc := messages.NewService(messagesRepo, walletSvc, notesSvc, hub, cfg.MessageCost, logger)
	profilesSvc := profiles.NewService(profilesRepo)
	ratingsSvc := ratings.NewService(ratingsRepo, jobsRepo, profilesRepo, notesSvc, logger)

	// Pesepay gateway
	gateway := pesepay.NewClient(pesepay.ClientConfig{
		BaseURL:        cfg.PesepayBaseURL,
		IntegrationKey: cfg.PesepayIntegrationKey,
		EncryptionKey:  cfg.PesepayEncryptionKey,
		ResultURL:      cfg.PaymentResultURL,
		ReturnURL:      cfg.PaymentReturnURL,
	}, logger)
	if !gateway.Configured() {
		slog.Warn("Pesepay credentials missing; token purchases are disabled")
	}

	// Payments: the poll enqueue func is bound after the River client exists
	// (breaks the init cycle between the service and its worker).
	var enqueueMu sync.Mutex
	var enqueueFn payments.EnqueuePoll
	enqueuePoll := func(ctx context.Context, paymentID uuid.UUID) error {
		enqueueMu.Lock()
		fn := enqueueFn
		enqueueMu.Unlock()
		if fn == nil {
			return errors.New("poll queue not ready")
		}
		return fn(ctx, paymentID)
	}
	paymentsSvc := payments.NewService(paymentsRepo, gateway, walletSvc, notesSvc, enqueuePoll,
		cfg.TokenPriceUSDCents, cfg.PaymentPendingMaxAge, logger)

	workers := river.NewWorkers()
	river.AddWorker(workers, payments.NewPollWorker(paymentsSvc, gateway,
		cfg.PaymentPollInterval, cfg.PaymentPollMaxAttempts, cfg.PaymentPollSnooze, logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)
		os.Exit(1)
	}

	enqueueMu.Lock()
	enqueueFn = func(ctx context.Context, paymentID uuid.UUID) error {
		_, err := riverClient.Insert(ctx, payments.PollPaymentArgs{PaymentID: paymentID}, nil)
		return err
	}
	enqueueMu.Unlock()

	// Handlers
	handler := router.New(router.Deps{
		Auth:          auth.NewHandler(authSvc, logger),
		Wallet:        wallet.NewHandler(walletSvc, logger),
		Jobs:          jobs.NewHandler(jobsSvc, logger),
		Geo:           geo.NewHandler(geoSvc, logger),
		Offers:        offers.NewHandler(offersSvc, logger),
		Messages:      messages.NewHandler(messagesSvc, logger),
		Notifications: notifications.NewHandler(notesSvc, logger),
		Payments:      payments.NewHandler(paymentsSvc, logger),
		Profiles:      profiles.NewHandler(profilesSvc, logger),
		Ratings:       ratings.NewHandler(ratingsSvc, logger),
		Realtime: realtime.NewHandler(hub, authSvc, messagesSvc, geoSvc,
			cfg.LocationRateLimit, cfg.LocationRateBurst, logger),
		Validator: authSvc,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(handler)

	// Start River client (processes settlement polls)
	riverCtx, stopRiver := context.WithCancel(ctx)
	defer stopRiver()
	go func() {
		if err := riverClient.Start(riverCtx); err != nil && riverCtx.Err() == nil {
			slog.Error("River client stopped", "error", err)
		}
	}()

	// Housekeeping sweeps
	sched := cron.New()
	_, _ = sched.AddFunc("@every 10m", func() {
		if _, err := offersSvc.ExpireStale(context.Background()); err != nil {
			slog.Error("offer expiry sweep failed", "error", err)
		}
	})
	_, _ = sched.AddFunc("@every 30m", func() {
		if _, err := paymentsSvc.CancelStale(context.Background()); err != nil {
			slog.Error("stale payment sweep failed", "error", err)
		}
	})
	sched.Start()

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: corsHandler,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server failed", "error", err)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP shutdown", "error", err)
	}
	hub.Close()
	<-sched.Stop().Done()
	if err := riverClient.Stop(shutdownCtx); err != nil {
		slog.Error("River client stop", "error", err)
	}
	slog.Info("Shutdown complete")
}
