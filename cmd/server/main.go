// Command server runs the subscription billing backend: checkout-session
// creation, payment verification, subscription restore/cancel, and the Stripe
// webhook reconciler persisting into Firestore.
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

	"cloud.google.com/go/firestore"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/AregawiF/Chicken-Chores/pkg/api"
	"github.com/AregawiF/Chicken-Chores/pkg/billing"
	prommetrics "github.com/AregawiF/Chicken-Chores/pkg/billing/metrics/prometheus"
	stripeprovider "github.com/AregawiF/Chicken-Chores/pkg/billing/stripe"
	"github.com/AregawiF/Chicken-Chores/pkg/config"
	firestorestore "github.com/AregawiF/Chicken-Chores/storage/firestore"
	"github.com/AregawiF/Chicken-Chores/storage/memory"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := prommetrics.NewMetrics(registry, "chicken_chores")

	var records billing.RecordStore
	if cfg.Firebase.ProjectID != "" {
		var opts []option.ClientOption
		if sa, ok := cfg.Firebase.ServiceAccountJSON(); ok {
			opts = append(opts, option.WithCredentialsJSON(sa))
		}
		fsClient, err := firestore.NewClient(ctx, cfg.Firebase.ProjectID, opts...)
		if err != nil {
			return fmt.Errorf("failed to create firestore client: %w", err)
		}
		defer fsClient.Close()

		store, err := firestorestore.New(fsClient, logger, firestorestore.Config{
			Metrics: metrics,
		})
		if err != nil {
			return fmt.Errorf("failed to create record store: %w", err)
		}
		records = store
	} else {
		logger.Warn().Msg("FIREBASE_PROJECT_ID not set, using in-memory record store")
		records = memory.New()
	}

	provider, err := stripeprovider.NewProvider(records, logger, stripeprovider.Config{
		APIKey:         cfg.Stripe.SecretKey,
		WebhookSecret:  cfg.Stripe.WebhookSecret,
		MonthlyPriceID: cfg.Stripe.MonthlyPriceID,
		YearlyPriceID:  cfg.Stripe.YearlyPriceID,
		SuccessURL:     cfg.Stripe.SuccessURL,
		CancelURL:      cfg.Stripe.CancelURL,
		Metrics:        metrics,
	})
	if err != nil {
		return fmt.Errorf("failed to create stripe provider: %w", err)
	}

	handler, err := api.NewHandler(logger, api.Config{
		Provider:  provider,
		Records:   records,
		StaticDir: cfg.StaticDir,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	if err != nil {
		return fmt.Errorf("failed to create api handler: %w", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Int("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
