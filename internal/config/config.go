package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ConfigFileEnv overrides the config file location when no explicit path is given.
const ConfigFileEnv = "LECTIO_CONFIG"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Quiz     QuizConfig     `mapstructure:"quiz"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string     `mapstructure:"addr" validate:"required"`
	CORS CORSConfig `mapstructure:"cors"`
	// RequestTimeoutSeconds bounds every API request except test generation. 0 disables it.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds" validate:"gte=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	// Driver is one of mysql, sqlite or postgres.
	Driver string `mapstructure:"driver" validate:"required,oneof=mysql sqlite postgres"`
	// DSN is used as is when set. Otherwise the mysql DSN is built from the fields below.
	DSN             string            `mapstructure:"dsn"`
	Host            string            `mapstructure:"host"`
	Port            int               `mapstructure:"port" validate:"gte=0,lte=65535"`
	Database        string            `mapstructure:"database"`
	Username        string            `mapstructure:"username"`
	Password        string            `mapstructure:"password"`
	TLS             bool              `mapstructure:"tls"`
	Params          map[string]string `mapstructure:"params"`
	MaxOpenConns    int               `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds" validate:"gte=0"`
}

type OpenAIConfig struct {
	APIKey           string  `mapstructure:"api_key"`
	Model            string  `mapstructure:"model" validate:"required"`
	BaseURL          string  `mapstructure:"base_url" validate:"omitempty,url"`
	Temperature      float32 `mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxRetryAttempts uint    `mapstructure:"max_retry_attempts"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	// TokenTTLHours is the lifetime of tokens issued by the CLI.
	TokenTTLHours int `mapstructure:"token_ttl_hours" validate:"gt=0"`
}

type QuizConfig struct {
	CachePolicy       string `mapstructure:"cache_policy" validate:"required,oneof=auto always never"`
	AllowResubmission bool   `mapstructure:"allow_resubmission"`
	WholeBookLabel    string `mapstructure:"whole_book_label" validate:"required"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=text json"`
}

type ConfigLoader struct {
	viper      *viper.Viper
	validator  *validator.Validate
	translator ut.Translator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, trans, err := newValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	if configFile == "" {
		configFile = os.Getenv(ConfigFileEnv)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/lectio")
	}

	return &ConfigLoader{
		viper:      v,
		validator:  validate,
		translator: trans,
	}, nil
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "lectio")
	v.SetDefault("database.username", "lectio")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_retry_attempts", 0)
	v.SetDefault("auth.token_ttl_hours", 24)
	v.SetDefault("quiz.cache_policy", "auto")
	v.SetDefault("quiz.allow_resubmission", true)
	v.SetDefault("quiz.whole_book_label", "Whole book")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Secrets are bound to environment variables only
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}
	if err := v.BindEnv("auth.jwt_secret", "LECTIO_JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind LECTIO_JWT_SECRET environment variable: %w", err)
	}
	if err := v.BindEnv("database.password", "LECTIO_DATABASE_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind LECTIO_DATABASE_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
		var errorMsgs []string
		for _, e := range validationErrors {
			errorMsgs = append(errorMsgs, e.Translate(loader.translator))
		}
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errorMsgs, ", "))
	}

	return &cfg, nil
}

// Load reads the configuration from configFile, LECTIO_CONFIG or the default search paths.
func Load(configFile string) (*Config, error) {
	loader, err := NewConfigLoader(configFile)
	if err != nil {
		return nil, err
	}
	return loader.Load()
}
