package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	logLevelEnv       = "LOG_LEVEL"
	databaseDSNEnv    = "DATABASE_DSN"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	legacyTokenEnv    = "BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	kafkaBrokersEnv   = "KAFKA_BROKERS"

	StorageDriverFile     = "file"
	StorageDriverPostgres = "postgres"
)

// Config holds high-level settings required across the application.
// It is built once at startup and handed out by value.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Source        SourceConfig       `yaml:"source"`
	Filter        FilterConfig       `yaml:"filter"`
	Documents     DocumentConfig     `yaml:"documents"`
	Storage       StorageConfig      `yaml:"storage"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Notifications NotificationConfig `yaml:"notifications"`
	HTTP          HTTPConfig         `yaml:"http"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes the listing page.
type SourceConfig struct {
	ListingURL    string        `yaml:"listingUrl"`
	UserAgent     string        `yaml:"userAgent"`
	Timeout       time.Duration `yaml:"timeout"`
	RespectRobots bool          `yaml:"respectRobots"`
}

// FilterConfig carries the locality token and the ordered TI keyword phrases.
type FilterConfig struct {
	Locality string   `yaml:"locality"`
	Keywords []string `yaml:"keywords"`
}

// DocumentConfig tunes the document fallback downloads.
type DocumentConfig struct {
	Timeout           time.Duration `yaml:"timeout"`
	MaxBytes          int64         `yaml:"maxBytes"`
	InsecureTLS       bool          `yaml:"insecureTLS"`
	RequestsPerSecond float64       `yaml:"requestsPerSecond"`
	Burst             int           `yaml:"burst"`
	TempDir           string        `yaml:"tempDir"`
	RejectionTTL      time.Duration `yaml:"rejectionTTL"`
}

// StorageConfig points at the persisted accepted set.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table"`
}

// SchedulerConfig defines the optional global recurring search and the /auto defaults.
type SchedulerConfig struct {
	Interval     time.Duration `yaml:"interval"`
	FirstDelay   time.Duration `yaml:"firstDelay"`
	AutoInterval time.Duration `yaml:"autoInterval"`
	AutoDelay    time.Duration `yaml:"autoDelay"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Kafka    KafkaConfig    `yaml:"kafka"`
}

// TelegramConfig wires all data required to run the bot and send messages.
type TelegramConfig struct {
	BotToken    string        `yaml:"botToken"`
	ChatID      string        `yaml:"chatId"`
	APIURL      string        `yaml:"apiUrl"`
	PollTimeout time.Duration `yaml:"pollTimeout"`
}

// KafkaConfig enables the notice publisher when brokers are set.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// HTTPConfig enables the trigger API when BindAddr is set.
type HTTPConfig struct {
	BindAddr string `yaml:"bindAddr"`
}

// Load reads YAML configuration (if path is set) and applies environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the pipeline cannot run without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Source.ListingURL) == "" {
		errs = append(errs, errors.New("source.listingUrl is required"))
	}
	if strings.TrimSpace(c.Filter.Locality) == "" {
		errs = append(errs, errors.New("filter.locality is required"))
	}
	if len(c.Filter.Keywords) == 0 {
		errs = append(errs, errors.New("filter.keywords must not be empty"))
	}
	switch c.Storage.Driver {
	case StorageDriverFile:
		if strings.TrimSpace(c.Storage.Path) == "" {
			errs = append(errs, errors.New("storage.path is required for the file driver"))
		}
	case StorageDriverPostgres:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if len(c.Notifications.Kafka.Brokers) > 0 && c.Notifications.Kafka.Topic == "" {
		errs = append(errs, errors.New("notifications.kafka.topic is required when brokers are set"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	out := c
	if out.Notifications.Telegram.BotToken != "" {
		out.Notifications.Telegram.BotToken = "***"
	}
	if out.Storage.DSN != "" {
		out.Storage.DSN = "***"
	}
	out.Filter.Keywords = append([]string(nil), c.Filter.Keywords...)
	out.Notifications.Kafka.Brokers = append([]string(nil), c.Notifications.Kafka.Brokers...)
	return out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Storage.DSN = v
	}

	if v := os.Getenv(legacyTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(kafkaBrokersEnv); v != "" {
		c.Notifications.Kafka.Brokers = splitAndTrim(v)
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.Source.ListingURL != "" {
		base.Source.ListingURL = override.Source.ListingURL
	}
	if override.Source.UserAgent != "" {
		base.Source.UserAgent = override.Source.UserAgent
	}
	if override.Source.Timeout > 0 {
		base.Source.Timeout = override.Source.Timeout
	}
	if override.Source.RespectRobots {
		base.Source.RespectRobots = true
	}

	if override.Filter.Locality != "" {
		base.Filter.Locality = override.Filter.Locality
	}
	if len(override.Filter.Keywords) > 0 {
		base.Filter.Keywords = override.Filter.Keywords
	}

	if override.Documents.Timeout > 0 {
		base.Documents.Timeout = override.Documents.Timeout
	}
	if override.Documents.MaxBytes > 0 {
		base.Documents.MaxBytes = override.Documents.MaxBytes
	}
	if override.Documents.InsecureTLS {
		base.Documents.InsecureTLS = true
	}
	if override.Documents.RequestsPerSecond > 0 {
		base.Documents.RequestsPerSecond = override.Documents.RequestsPerSecond
	}
	if override.Documents.Burst > 0 {
		base.Documents.Burst = override.Documents.Burst
	}
	if override.Documents.TempDir != "" {
		base.Documents.TempDir = override.Documents.TempDir
	}
	if override.Documents.RejectionTTL != 0 {
		base.Documents.RejectionTTL = override.Documents.RejectionTTL
	}

	if override.Storage.Driver != "" {
		base.Storage.Driver = override.Storage.Driver
	}
	if override.Storage.Path != "" {
		base.Storage.Path = override.Storage.Path
	}
	if override.Storage.DSN != "" {
		base.Storage.DSN = override.Storage.DSN
	}
	if override.Storage.Table != "" {
		base.Storage.Table = override.Storage.Table
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}
	if override.Scheduler.FirstDelay > 0 {
		base.Scheduler.FirstDelay = override.Scheduler.FirstDelay
	}
	if override.Scheduler.AutoInterval > 0 {
		base.Scheduler.AutoInterval = override.Scheduler.AutoInterval
	}
	if override.Scheduler.AutoDelay > 0 {
		base.Scheduler.AutoDelay = override.Scheduler.AutoDelay
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIURL != "" {
		base.Notifications.Telegram.APIURL = override.Notifications.Telegram.APIURL
	}
	if override.Notifications.Telegram.PollTimeout > 0 {
		base.Notifications.Telegram.PollTimeout = override.Notifications.Telegram.PollTimeout
	}

	if len(override.Notifications.Kafka.Brokers) > 0 {
		base.Notifications.Kafka.Brokers = override.Notifications.Kafka.Brokers
	}
	if override.Notifications.Kafka.Topic != "" {
		base.Notifications.Kafka.Topic = override.Notifications.Kafka.Topic
	}

	if override.HTTP.BindAddr != "" {
		base.HTTP.BindAddr = override.HTTP.BindAddr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Source: SourceConfig{
			ListingURL: "https://www.pe.senai.br/editais/",
			UserAgent:  "EditaisScanner/1.0",
			Timeout:    30 * time.Second,
		},
		Filter: FilterConfig{
			Locality: "cabo",
			Keywords: []string{
				"desenvolvimento de sistemas",
				"tecnico em desenvolvimento de sistemas",
				"informatica",
				"tecnico em informatica",
				"informatica para internet",
				"redes de computadores",
				"tecnico em redes",
				"programacao",
				"programador",
				"desenvolvimento web",
				"software",
				"banco de dados",
				"seguranca da informacao",
				"ciberseguranca",
				"tecnologia da informacao",
			},
		},
		Documents: DocumentConfig{
			Timeout:           60 * time.Second,
			MaxBytes:          50 << 20,
			RequestsPerSecond: 1,
			Burst:             2,
		},
		Storage: StorageConfig{
			Driver: StorageDriverFile,
			Path:   "editais_cabo_ti.json",
			Table:  "accepted_notices",
		},
		Scheduler: SchedulerConfig{
			AutoInterval: 24 * time.Hour,
			AutoDelay:    10 * time.Second,
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{
				APIURL:      "https://api.telegram.org",
				PollTimeout: 30 * time.Second,
			},
			Kafka: KafkaConfig{Topic: "editais.accepted"},
		},
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
