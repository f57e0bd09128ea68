package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/smith3v/vocab-srs/pkg/logger"
	"github.com/spf13/pflag"
)

const EnvPrefix = "VOCAB_"

type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Telegram    TelegramConfig    `koanf:"telegram"`
	Logging     LoggingConfig     `koanf:"logging"`
	Session     SessionConfig     `koanf:"session"`
	Persistence PersistenceConfig `koanf:"persistence"`
	Reminders   RemindersConfig   `koanf:"reminders"`
	Cleanup     CleanupConfig     `koanf:"cleanup"`
}

type DatabaseConfig struct {
	Driver   string `koanf:"driver" validate:"oneof=postgres sqlite"`
	Host     string `koanf:"host" validate:"required_if=Driver postgres"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"dbname" validate:"required_if=Driver postgres"`
	Port     int    `koanf:"port" validate:"omitempty,min=1,max=65535"`
	SSLMode  string `koanf:"sslmode"`
	// Path is the sqlite database file.
	Path string `koanf:"path" validate:"required_if=Driver sqlite"`
}

type TelegramConfig struct {
	Token string `koanf:"token" validate:"required"`
}

type LoggingConfig struct {
	Level     string `koanf:"level" validate:"omitempty,oneof=debug info warn warning error"`
	Format    string `koanf:"format" validate:"omitempty,oneof=text json"`
	File      string `koanf:"file"`
	GormLevel string `koanf:"gorm_level" validate:"omitempty,oneof=silent error warn info"`
}

type SessionConfig struct {
	ReviewLimit        int           `koanf:"review_limit" validate:"min=1"`
	LearningLimit      int           `koanf:"learning_limit" validate:"min=1"`
	MixedReviewLimit   int           `koanf:"mixed_review_limit" validate:"min=0"`
	MixedLearningLimit int           `koanf:"mixed_learning_limit" validate:"min=0"`
	InactivityTimeout  time.Duration `koanf:"inactivity_timeout" validate:"gt=0"`
}

type PersistenceConfig struct {
	Workers       int           `koanf:"workers" validate:"min=1,max=64"`
	RetryAttempts int           `koanf:"retry_attempts" validate:"min=1,max=10"`
	RetryBackoff  time.Duration `koanf:"retry_backoff" validate:"gte=0"`
}

type RemindersConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"gte=1m"`
}

type CleanupConfig struct {
	Interval   time.Duration `koanf:"interval" validate:"gte=1m"`
	SessionTTL time.Duration `koanf:"session_ttl" validate:"gt=0"`
}

var AppConfig = Default()

func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:  "postgres",
			Port:    5432,
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "text",
			GormLevel: "warn",
		},
		Session: SessionConfig{
			ReviewLimit:        20,
			LearningLimit:      10,
			MixedReviewLimit:   15,
			MixedLearningLimit: 5,
			InactivityTimeout:  24 * time.Hour,
		},
		Persistence: PersistenceConfig{
			Workers:       4,
			RetryAttempts: 3,
			RetryBackoff:  200 * time.Millisecond,
		},
		Reminders: RemindersConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		Cleanup: CleanupConfig{
			Interval:   time.Hour,
			SessionTTL: 24 * time.Hour,
		},
	}
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"log-level": "logging.level",
	"log-file":  "logging.file",
	"db-driver": "database.driver",
	"db-path":   "database.path",
	"token":     "telegram.token",
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "config.yaml", "path to the config file (YAML or JSON)")
	fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.String("log-file", "", "also write logs to this file")
	fs.String("db-driver", "", "database driver: postgres or sqlite")
	fs.String("db-path", "", "sqlite database file")
	fs.String("token", "", "telegram bot token")
}

// Load layers defaults, the config file, VOCAB_ environment variables and
// changed flags, validates the result and stores it in AppConfig. A missing
// config file is not an error.
func Load(path string, flags *pflag.FlagSet) error {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logger.Error("failed to read config file", "path", path, "error", err)
				return fmt.Errorf("read config %s: %w", path, err)
			}
			logger.Warn("config file not found, using defaults and environment", "path", path)
		}
	}

	// VOCAB_DATABASE__HOST -> database.host
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return fmt.Errorf("read flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		logger.Error("failed to decode config", "error", err)
		return fmt.Errorf("decode config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

func envKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(name, "__", ".")
}

func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}

var validate = validator.New()

func Validate(cfg Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
