package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"homepros/internal/cache"
	"homepros/internal/database"
	"homepros/internal/handlers"
	"homepros/internal/middleware"
	"homepros/internal/payments"
	"homepros/internal/places"
	"homepros/internal/router"
	"homepros/internal/session"
	"homepros/internal/storage"
	"homepros/internal/store"
)

var (
	// Serve flags
	skipMigrate  bool
	writeLimit   int
	writeWindow  time.Duration
	shutdownWait time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server. Pending migrations are applied first
unless --skip-migrate is given; in development the starter data is seeded.

Examples:
  homepros serve
  homepros serve --write-limit 10 --write-window 1m
  APP_ENV=production homepros serve --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on start")
	serveCmd.Flags().IntVar(&writeLimit, "write-limit", 20, "Public write requests allowed per client per window")
	serveCmd.Flags().DurationVar(&writeWindow, "write-window", time.Minute, "Rate limit window for public writes")
	serveCmd.Flags().DurationVar(&shutdownWait, "shutdown-timeout", 30*time.Second, "How long to drain requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	cfg, db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("configuration loaded", "env", cfg.Env, "addr", cfg.Addr())

	if !skipMigrate {
		if err := database.Migrate(db); err != nil {
			return err
		}
	}
	if cfg.IsDev() {
		if err := database.Seed(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	valkeyClient, err := cache.ConnectValkey(ctx, cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
	if err != nil {
		return err
	}
	defer valkeyClient.Close()

	// Session cookies are Secure everywhere but development.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, secureCookies)
	responseCache := cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)

	// Stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db, cfg.DBTxTimeout)
	providerStore := store.NewProviderStore(db, cfg.DBTxTimeout)
	claimStore := store.NewClaimStore(db, cfg.DBTxTimeout)
	reviewStore := store.NewReviewStore(db, cfg.DBTxTimeout)
	paymentStore := store.NewPaymentStore(db, cfg.DBTxTimeout)
	statsStore := store.NewStatsStore(db)
	notificationStore := store.NewNotificationStore(db)

	// Object storage is optional; uploads answer 503 without it.
	var images handlers.ImageStorage
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3PublicURL)
	if err != nil {
		return fmt.Errorf("initialize s3 storage: %w", err)
	}
	if storageClient != nil {
		images = storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	placesClient := places.NewClient(cfg.PlacesAPIKey, cfg.PlacesBaseURL)
	if cfg.PlacesAPIKey == "" {
		slog.Warn("places search not configured")
	}
	checkoutClient := payments.NewClient(cfg.PaymentSecretKey, cfg.PaymentBaseURL)
	if cfg.PaymentSecretKey == "" {
		slog.Warn("payments not configured, premium checkout disabled")
	}

	showDetails := !cfg.IsProd()
	h := router.Handlers{
		Auth:    handlers.NewAuth(sessionStore, userStore, showDetails),
		Catalog: handlers.NewCatalog(categoryStore, providerStore, responseCache, showDetails),
		Claims: handlers.NewClaims(claimStore, providerStore, userStore, sessionStore,
			cfg.BaseURL, cfg.ClaimTokenTTL, showDetails),
		Reviews:         handlers.NewReviews(reviewStore, userStore, showDetails),
		AdminProviders:  handlers.NewAdminProviders(providerStore, images, showDetails),
		AdminCategories: handlers.NewAdminCategories(categoryStore, showDetails),
		Payments: handlers.NewPayments(paymentStore, providerStore, checkoutClient,
			cfg.PaymentWebhookSecret, cfg.BaseURL, cfg.PremiumPriceCents, showDetails),
		Platform: handlers.NewPlatform(db, valkeyClient, statsStore, notificationStore, placesClient, showDetails),
	}

	limiter := middleware.NewRateLimiter(valkeyClient, writeLimit, writeWindow)

	r := router.New(sessionStore, h, router.Options{
		SecureCookies: secureCookies,
		WriteLimiter:  limiter,
		Cache:         responseCache,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
