package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/King12-D/hypegrow-boost/internal/client"
	"github.com/King12-D/hypegrow-boost/internal/config"
	"github.com/King12-D/hypegrow-boost/internal/logger"
	"github.com/King12-D/hypegrow-boost/internal/repository"
	"github.com/King12-D/hypegrow-boost/internal/server"
	"github.com/King12-D/hypegrow-boost/internal/service"
	"github.com/King12-D/hypegrow-boost/internal/storage"
	"github.com/King12-D/hypegrow-boost/internal/worker"
	"github.com/King12-D/hypegrow-boost/internal/ws"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer l.Sync()

	l = l.With(zap.String("env", cfg.Environment.Name))

	if err := run(cfg, l); err != nil {
		l.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	if cfg.Auth.JWTSecret == "" {
		l.Warn("AUTH_JWT_SECRET is empty, every signed-in request will be rejected")
	}

	db, err := client.InitDBClient(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	proofStore, err := storage.NewLocalProofStore(&cfg.Storage)
	if err != nil {
		return err
	}

	resellerClient := client.NewResellerClient(&cfg.Reseller)
	cardClient := client.NewBraintreeClient(&cfg.BrainTree)
	publisher := client.NewEventPublisher(&cfg.Kafka, l.With(zap.String("component", "events")))
	defer publisher.Close()

	hub := ws.NewHub(l.With(zap.String("component", "ws")))

	orderRepo := repository.NewOrderRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	packageRepo := repository.NewPackageRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	ticketRepo := repository.NewTicketRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)

	notificationService := service.NewNotificationService(notificationRepo, hub, l.With(zap.String("component", "notifications")))
	catalogService := service.NewCatalogService(packageRepo, resellerClient, &cfg.Reseller, l.With(zap.String("component", "catalog")))
	discountService := service.NewDiscountService(db, discountRepo)
	fulfillmentService := service.NewFulfillmentService(
		db,
		orderRepo,
		resellerClient,
		notificationService,
		publisher,
		&cfg.Fulfillment,
		l.With(zap.String("component", "fulfillment")),
	)
	orderService := service.NewOrderService(
		db,
		orderRepo,
		packageRepo,
		catalogService,
		discountService,
		fulfillmentService,
		notificationService,
		publisher,
		&cfg.Reseller,
		l.With(zap.String("component", "orders")),
	)
	paymentService := service.NewPaymentService(
		db,
		orderRepo,
		paymentRepo,
		profileRepo,
		walletRepo,
		proofStore,
		cardClient,
		fulfillmentService,
		notificationService,
		publisher,
		l.With(zap.String("component", "payments")),
	)
	adminService := service.NewAdminService(
		db,
		orderRepo,
		paymentRepo,
		profileRepo,
		walletRepo,
		fulfillmentService,
		notificationService,
		publisher,
		l.With(zap.String("component", "admin")),
	)
	profileService := service.NewProfileService(profileRepo, roleRepo, walletRepo)
	supportService := service.NewSupportService(ticketRepo, notificationService)
	analyticsService := service.NewAnalyticsService(analyticsRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range cfg.Auth.AdminUserIDs {
		if err := profileService.GrantAdmin(ctx, id); err != nil {
			return err
		}
		l.Info("admin role granted", zap.String("user_id", id))
	}

	poller := worker.NewPoller(fulfillmentService, cfg.Fulfillment.PollInterval, l.With(zap.String("component", "poller")))
	go poller.Start(ctx)

	srv := server.NewServer(server.Services{
		Catalog:      catalogService,
		Discount:     discountService,
		Order:        orderService,
		Payment:      paymentService,
		Admin:        adminService,
		Profile:      profileService,
		Support:      supportService,
		Notification: notificationService,
		Analytics:    analyticsService,
	}, hub, server.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ProofDir:       cfg.Storage.ProofDir,
		ProofURLPrefix: cfg.Storage.PublicBaseURL,
		BodyLimit:      cfg.HTTP.BodyLimit,
	}, l)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	serverErr := make(chan error, 1)

	l.Info("starting HTTP server", zap.String("addr", serverAddr))
	go func() {
		if err := srv.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigChan:
		l.Info("signal received, starting graceful shutdown", zap.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	poller.Stop()
	select {
	case <-poller.Done():
	case <-shutdownCtx.Done():
		l.Warn("status poller did not stop in time")
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	l.Info("shutdown complete")
	return nil
}
