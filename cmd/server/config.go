package main

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/sharetube/watchtogether/internal/app"
	"github.com/sharetube/watchtogether/pkg/dbclient"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

var (
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	metricsPort = configVar[int]{
		envKey:       "SERVER_METRICS_PORT",
		flagKey:      "metrics-port",
		defaultValue: 9090,
		usage:        "Metrics server port, 0 disables it",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	relayBackend = configVar[string]{
		envKey:       "RELAY_BACKEND",
		flagKey:      "relay-backend",
		defaultValue: app.RelayBackendMemory,
		usage:        "Relay broker: memory or redis",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	historyDriver = configVar[string]{
		envKey:       "HISTORY_DRIVER",
		flagKey:      "history-driver",
		defaultValue: dbclient.DriverSQLite,
		usage:        "History database driver: pgx or sqlite",
	}
	historyDSN = configVar[string]{
		envKey:       "HISTORY_DSN",
		flagKey:      "history-dsn",
		defaultValue: "file:history.db?_pragma=busy_timeout(5000)",
		usage:        "History database connection string",
	}
	natsURL = configVar[string]{
		envKey:       "NATS_URL",
		flagKey:      "nats-url",
		defaultValue: "",
		usage:        "NATS url for the upload object store, empty keeps uploads in memory",
	}
	uploadBucket = configVar[string]{
		envKey:       "UPLOAD_BUCKET",
		flagKey:      "upload-bucket",
		defaultValue: "memories",
		usage:        "Object store bucket for uploads",
	}
	uploadMaxSize = configVar[int64]{
		envKey:       "UPLOAD_MAX_SIZE",
		flagKey:      "upload-max-size",
		defaultValue: 5 << 20,
		usage:        "Maximum upload size in bytes",
	}
	publicURL = configVar[string]{
		envKey:       "PUBLIC_URL",
		flagKey:      "public-url",
		defaultValue: "http://localhost:8080",
		usage:        "Public base url used in upload links",
	}
	youtubeAPIKey = configVar[string]{
		envKey:       "YOUTUBE_API_KEY",
		flagKey:      "youtube-api-key",
		defaultValue: "",
		usage:        "YouTube Data API key, empty disables search",
	}
	wsMaxMessageSize = configVar[int64]{
		envKey:       "WS_MAX_MESSAGE_SIZE",
		flagKey:      "ws-max-message-size",
		defaultValue: 64 << 10,
		usage:        "Maximum websocket message size in bytes",
	}
	triggerSecret = configVar[string]{
		envKey:       "TRIGGER_SECRET",
		flagKey:      "trigger-secret",
		defaultValue: "",
		usage:        "Secret required by the trigger endpoint, empty disables the check",
	}
)

func (c configVar[T]) register(fs *pflag.FlagSet) {
	switch v := any(c.defaultValue).(type) {
	case string:
		fs.String(c.flagKey, v, c.usage)
	case int:
		fs.Int(c.flagKey, v, c.usage)
	case int64:
		fs.Int64(c.flagKey, v, c.usage)
	default:
		panic(fmt.Sprintf("unsupported config type %T", v))
	}
}

func (c configVar[T]) bind(v *viper.Viper, fs *pflag.FlagSet) error {
	if err := v.BindPFlag(c.flagKey, fs.Lookup(c.flagKey)); err != nil {
		return err
	}
	if err := v.BindEnv(c.flagKey, c.envKey); err != nil {
		return err
	}
	v.SetDefault(c.flagKey, c.defaultValue)

	return nil
}

type binder interface {
	register(fs *pflag.FlagSet)
	bind(v *viper.Viper, fs *pflag.FlagSet) error
}

var (
	serveVars = []binder{
		host, port, metricsPort, logLevel, relayBackend, redisHost, redisPort, redisPassword,
		historyDriver, historyDSN, natsURL, uploadBucket, uploadMaxSize, publicURL,
		youtubeAPIKey, wsMaxMessageSize, triggerSecret,
	}
	migrateVars = []binder{historyDriver, historyDSN}
)

func registerFlags(fs *pflag.FlagSet, vars []binder) {
	for _, c := range vars {
		c.register(fs)
	}
}

func newViper(fs *pflag.FlagSet, vars []binder) (*viper.Viper, error) {
	v := viper.New()
	for _, c := range vars {
		if err := c.bind(v, fs); err != nil {
			return nil, fmt.Errorf("failed to bind config: %w", err)
		}
	}

	return v, nil
}

func loadAppConfig(fs *pflag.FlagSet) (*app.AppConfig, error) {
	v, err := newViper(fs, serveVars)
	if err != nil {
		return nil, err
	}

	return &app.AppConfig{
		Host:             v.GetString(host.flagKey),
		Port:             v.GetInt(port.flagKey),
		MetricsPort:      v.GetInt(metricsPort.flagKey),
		LogLevel:         v.GetString(logLevel.flagKey),
		RelayBackend:     v.GetString(relayBackend.flagKey),
		RedisHost:        v.GetString(redisHost.flagKey),
		RedisPort:        v.GetInt(redisPort.flagKey),
		RedisPassword:    v.GetString(redisPassword.flagKey),
		HistoryDriver:    v.GetString(historyDriver.flagKey),
		HistoryDSN:       v.GetString(historyDSN.flagKey),
		NatsURL:          v.GetString(natsURL.flagKey),
		UploadBucket:     v.GetString(uploadBucket.flagKey),
		UploadMaxSize:    v.GetInt64(uploadMaxSize.flagKey),
		PublicURL:        v.GetString(publicURL.flagKey),
		YouTubeAPIKey:    v.GetString(youtubeAPIKey.flagKey),
		WSMaxMessageSize: v.GetInt64(wsMaxMessageSize.flagKey),
		TriggerSecret:    v.GetString(triggerSecret.flagKey),
	}, nil
}
