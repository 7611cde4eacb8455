package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"cantine/internal/api"
	"cantine/internal/cache"
	"cantine/internal/config"
	"cantine/internal/events"
	"cantine/internal/metrics"
	"cantine/internal/notify"
	"cantine/internal/report"
	"cantine/internal/service"
	"cantine/internal/storage"
	"cantine/internal/storage/gsheets"
	"cantine/internal/storage/sqlite"
)

func main() {
	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CANTINE_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("open storage error")
	}
	defer store.Close()

	var rdb *redis.Client
	var boardCache *cache.BoardCache
	if ttl := cfg.CacheTTL(); ttl > 0 {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		boardCache = cache.New(rdb, ttl, &logger)
	}

	metrics.Register()

	bus := events.NewBus()
	registerClosingSubscribers(cfg, store, bus, &logger)

	svc := service.New(store, bus, &logger)
	server := api.NewHTTPServer(svc, boardCache, &logger)

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, store, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.Handler(),
	}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()

	logger.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Storage.Backend).Msg("cantine server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("api server error")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Backend {
	case config.BackendSheets:
		s, err := gsheets.New(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		db, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
}

// registerClosingSubscribers wires the best-effort closing side effects:
// notification channels and the xlsx report.
func registerClosingSubscribers(cfg *config.Config, store storage.Store, bus *events.Bus, logger *zerolog.Logger) {
	var channels []notify.Notifier

	if token := cfg.Notify.Telegram.BotToken; token != "" && len(cfg.Notify.Telegram.ChatIDs) > 0 {
		tg, err := notify.NewTelegramNotifier(token, cfg.Notify.Telegram.ChatIDs)
		if err != nil {
			logger.Error().Err(err).Msg("telegram notifier disabled")
		} else {
			channels = append(channels, tg)
		}
	}
	if cfg.Notify.SMTP.Enabled() {
		channels = append(channels, notify.NewSMTPNotifier(cfg.Notify.SMTP))
	}
	if len(channels) > 0 {
		fanout := notify.NewFanout(logger, channels...)
		bus.Subscribe(events.TypeDayClosed, fanout.Handler())
	}

	if cfg.Reports.Enabled {
		writer, err := report.NewWriter(cfg.Reports.Dir, store, logger)
		if err != nil {
			logger.Error().Err(err).Msg("closing report disabled")
			return
		}
		bus.Subscribe(events.TypeDayClosed, writer.Handler())
	}
}

func startHealthServer(ctx context.Context, port int, store storage.Store, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := store.Ping(ctxPing); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		if rdb != nil {
			if err := rdb.Ping(ctxPing).Err(); err != nil {
				http.Error(w, "redis not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
