package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	API     APIConfig     `mapstructure:"api"`
	Checker CheckerConfig `mapstructure:"checker"`
	Session SessionConfig `mapstructure:"session"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Logging LoggingConfig `mapstructure:"logging"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	MaxUploadSize   int64         `mapstructure:"max_upload_size"`
}

// APIConfig описывает удалённый сервис анализа.
type APIConfig struct {
	URL           string        `mapstructure:"url"`
	CheckEndpoint string        `mapstructure:"check_endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

type CheckerConfig struct {
	MaxFileSize     int64    `mapstructure:"max_file_size"`
	AllowedTypes    []string `mapstructure:"allowed_types"`
	MaxTextLength   int      `mapstructure:"max_text_length"`
	RefreshInterval int      `mapstructure:"refresh_interval"`
}

type SessionConfig struct {
	CookieName    string        `mapstructure:"cookie_name"`
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	Secure        bool          `mapstructure:"secure"`
}

type WorkerConfig struct {
	MaxWorkers int `mapstructure:"max_workers"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Pretty  bool   `mapstructure:"pretty"`
	NoColor bool   `mapstructure:"no_color"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.API.URL) == "" {
		return fmt.Errorf("api.url is required")
	}
	if c.Checker.MaxFileSize <= 0 {
		return fmt.Errorf("checker.max_file_size must be positive")
	}
	// форма несёт два файла плюс поля, поэтому лимит тела должен их вмещать
	if c.Server.MaxUploadSize < 2*c.Checker.MaxFileSize {
		return fmt.Errorf("server.max_upload_size must be at least twice checker.max_file_size")
	}
	// синхронный API ждёт ответа анализатора внутри обоих таймаутов сервера
	if c.Server.WriteTimeout <= c.API.Timeout {
		return fmt.Errorf("server.write_timeout must exceed api.timeout")
	}
	if c.Server.RequestTimeout <= c.API.Timeout {
		return fmt.Errorf("server.request_timeout must exceed api.timeout")
	}
	if c.Server.WriteTimeout <= c.Server.RequestTimeout {
		return fmt.Errorf("server.write_timeout must exceed server.request_timeout")
	}
	if c.Worker.MaxWorkers <= 0 {
		return fmt.Errorf("worker.max_workers must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "75s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.request_timeout", "60s")
	v.SetDefault("server.max_upload_size", 12582912) // 12MB

	v.SetDefault("api.url", "http://localhost:5000")
	v.SetDefault("api.check_endpoint", "/check-plagiarism")
	v.SetDefault("api.timeout", "45s")

	v.SetDefault("checker.max_file_size", 5242880) // 5MB
	v.SetDefault("checker.allowed_types", []string{".txt"})
	v.SetDefault("checker.max_text_length", 100000)
	v.SetDefault("checker.refresh_interval", 2)

	v.SetDefault("session.cookie_name", "checker_session")
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.sweep_interval", "1m")
	v.SetDefault("session.secure", false)

	v.SetDefault("worker.max_workers", 8)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
	v.SetDefault("logging.no_color", false)

	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{"Accept", "Content-Type", "X-Request-Id"})
	v.SetDefault("cors.exposed_headers", []string{"Content-Disposition"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 300)
}
