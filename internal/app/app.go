package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchtogether/internal/controller"
	"github.com/sharetube/watchtogether/internal/metric"
	brokerModels "github.com/sharetube/watchtogether/internal/repository/broker"
	inmemoryBroker "github.com/sharetube/watchtogether/internal/repository/broker/inmemory"
	redisBroker "github.com/sharetube/watchtogether/internal/repository/broker/redis"
	"github.com/sharetube/watchtogether/internal/repository/connection/inmemory"
	historySQL "github.com/sharetube/watchtogether/internal/repository/history/sql"
	uploadModels "github.com/sharetube/watchtogether/internal/repository/upload"
	inmemoryStore "github.com/sharetube/watchtogether/internal/repository/upload/inmemory"
	"github.com/sharetube/watchtogether/internal/repository/upload/jetstream"
	"github.com/sharetube/watchtogether/internal/service/history"
	"github.com/sharetube/watchtogether/internal/service/relay"
	"github.com/sharetube/watchtogether/internal/service/search"
	"github.com/sharetube/watchtogether/internal/service/upload"
	"github.com/sharetube/watchtogether/pkg/ctxlogger"
	"github.com/sharetube/watchtogether/pkg/dbclient"
	"github.com/sharetube/watchtogether/pkg/redisclient"
	"github.com/sharetube/watchtogether/pkg/ytvideodata"
	"golang.org/x/sync/errgroup"
)

const (
	RelayBackendMemory = "memory"
	RelayBackendRedis  = "redis"

	writeWait       = 10 * time.Second
	shutdownTimeout = 30 * time.Second
	brokerBuffer    = 256
)

type AppConfig struct {
	Host             string `json:"host"`
	Port             int    `json:"port"`
	MetricsPort      int    `json:"metrics_port"`
	LogLevel         string `json:"log_level"`
	RelayBackend     string `json:"relay_backend"`
	RedisHost        string `json:"redis_host"`
	RedisPort        int    `json:"redis_port"`
	RedisPassword    string `json:"-"`
	HistoryDriver    string `json:"history_driver"`
	HistoryDSN       string `json:"-"`
	NatsURL          string `json:"nats_url"`
	UploadBucket     string `json:"upload_bucket"`
	UploadMaxSize    int64  `json:"upload_max_size"`
	PublicURL        string `json:"public_url"`
	YouTubeAPIKey    string `json:"-"`
	WSMaxMessageSize int64  `json:"ws_max_message_size"`
	TriggerSecret    string `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535")
	}
	if cfg.MetricsPort < 0 || cfg.MetricsPort > 65535 {
		return fmt.Errorf("metrics port must be between 0 and 65535")
	}
	if cfg.MetricsPort != 0 && cfg.MetricsPort == cfg.Port {
		return fmt.Errorf("metrics port must differ from port")
	}
	switch cfg.RelayBackend {
	case RelayBackendMemory, RelayBackendRedis:
	default:
		return fmt.Errorf("relay backend must be %q or %q", RelayBackendMemory, RelayBackendRedis)
	}
	switch cfg.HistoryDriver {
	case dbclient.DriverPostgres, dbclient.DriverSQLite:
	default:
		return fmt.Errorf("history driver must be %q or %q", dbclient.DriverPostgres, dbclient.DriverSQLite)
	}
	if cfg.HistoryDSN == "" {
		return fmt.Errorf("history dsn is required")
	}
	if cfg.UploadMaxSize < 1 {
		return fmt.Errorf("upload max size must be greater than 0")
	}
	if cfg.WSMaxMessageSize < 1 {
		return fmt.Errorf("ws max message size must be greater than 0")
	}
	if cfg.NatsURL != "" && cfg.UploadBucket == "" {
		return fmt.Errorf("upload bucket is required with nats")
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return err
	}

	return nil
}

func parseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	return l, nil
}

func NewLogger(level string) (*slog.Logger, error) {
	logLevel, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

type iBroker interface {
	Publish(context.Context, *brokerModels.Publication) error
	Subscribe(context.Context) (<-chan *brokerModels.Publication, error)
}

type iObjectStore interface {
	Put(ctx context.Context, name string, data []byte, contentType string) (*uploadModels.ObjectInfo, error)
	Get(ctx context.Context, name string) ([]byte, *uploadModels.ObjectInfo, error)
}

type relayRunner interface {
	Run(ctx context.Context) error
}

// App holds the wired server and everything it must close on shutdown.
type App struct {
	cfg     *AppConfig
	logger  *slog.Logger
	handler http.Handler
	metrics *echo.Echo
	relay   relayRunner
	closers []func()
}

// New connects to the configured backends and builds the handlers.
func New(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var broker iBroker
	switch cfg.RelayBackend {
	case RelayBackendRedis:
		var rc *redis.Client
		rc, err = redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		a.closers = append(a.closers, func() { rc.Close() })
		broker = redisBroker.NewBroker(rc)
	default:
		broker = inmemoryBroker.NewBroker(brokerBuffer)
	}

	var db *sqlx.DB
	db, err = dbclient.NewDB(ctx, &dbclient.Config{Driver: cfg.HistoryDriver, DSN: cfg.HistoryDSN})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	a.closers = append(a.closers, func() { db.Close() })

	if err = historySQL.Migrate(ctx, db.DB, cfg.HistoryDriver); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	var objects iObjectStore
	if cfg.NatsURL != "" {
		store, storeErr := jetstream.NewStore(ctx, cfg.NatsURL, cfg.UploadBucket)
		if storeErr != nil {
			return nil, fmt.Errorf("failed to open upload store: %w", storeErr)
		}
		a.closers = append(a.closers, store.Close)
		objects = store
	} else {
		logger.WarnContext(ctx, "nats url is not set, uploads are kept in memory")
		objects = inmemoryStore.NewStore()
	}

	relayService := relay.NewService(inmemory.NewRepo(writeWait), broker, relay.UUIDGenerator{}, logger)
	historyService := history.NewService(historySQL.NewRepo(db), history.DefaultConfig(), logger)
	searchService := search.NewService(search.Config{APIKey: cfg.YouTubeAPIKey})
	uploadService := upload.NewService(objects, upload.Config{MaxSize: cfg.UploadMaxSize, PublicURL: cfg.PublicURL})

	ctrl := controller.NewController(
		relayService,
		historyService,
		searchService,
		ytvideodata.NewFetcher(),
		uploadService,
		controller.Config{
			TriggerSecret:  cfg.TriggerSecret,
			MaxMessageSize: cfg.WSMaxMessageSize,
			MaxUploadSize:  cfg.UploadMaxSize,
		},
		logger,
	)

	a.handler = ctrl.GetMux()
	a.relay = relayService
	if cfg.MetricsPort != 0 {
		a.metrics = metric.NewServer()
	}

	return a, nil
}

func (a *App) Handler() http.Handler {
	return a.handler
}

// Serve runs the API server on ln together with the relay delivery loop
// and the metrics server until ctx is done, then shuts them down.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{Handler: a.handler}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.relay.Run(gCtx)
	})

	g.Go(func() error {
		a.logger.InfoContext(gCtx, "starting server", "address", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if a.metrics != nil {
		addr := fmt.Sprintf("%s:%d", a.cfg.Host, a.cfg.MetricsPort)
		g.Go(func() error {
			a.logger.InfoContext(gCtx, "starting metrics server", "address", addr)
			if err := a.metrics.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server failed: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		a.logger.InfoContext(shutdownCtx, "shutting down")
		err := server.Shutdown(shutdownCtx)
		if a.metrics != nil {
			err = errors.Join(err, a.metrics.Shutdown(shutdownCtx))
		}
		if err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logger, err := NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	return a.Serve(ctx, ln)
}
