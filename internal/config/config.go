package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PSYSCORE_DB_DSN.
const EnvPrefix = "PSYSCORE"

// Config is the service configuration.
type Config struct {
	Addr    string        `mapstructure:"addr"`
	DB      DBConfig      `mapstructure:"db"`
	Storage StorageConfig `mapstructure:"storage"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Log     LogConfig     `mapstructure:"log"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Survey  SurveyConfig  `mapstructure:"survey"`
	CORS    CORSConfig    `mapstructure:"cors"`
}

type DBConfig struct {
	Driver       string `mapstructure:"driver"`
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	Migrations   string `mapstructure:"migrations"`
}

type StorageConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Issuer string        `mapstructure:"issuer"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CatalogConfig locates instrument definition files. Strict turns band
// coverage warnings into load errors.
type CatalogConfig struct {
	Paths       []string `mapstructure:"paths"`
	Strict      bool     `mapstructure:"strict"`
	SeedOnStart bool     `mapstructure:"seed_on_start"`
}

type SurveyConfig struct {
	ListType string `mapstructure:"list_type"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SetDefaults registers every key so environment overrides are visible to Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "psyscore.db")
	v.SetDefault("db.max_open_conns", 0)
	v.SetDefault("db.migrations", "")
	v.SetDefault("storage.timeout", 5*time.Second)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "psyscore")
	v.SetDefault("jwt.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("catalog.paths", []string{"catalog/**/*.yaml", "catalog/**/*.toml"})
	v.SetDefault("catalog.strict", true)
	v.SetDefault("catalog.seed_on_start", false)
	v.SetDefault("survey.list_type", "professional")
	v.SetDefault("cors.allowed_origins", []string{})
}

// Load resolves configuration from defaults, an optional config file,
// a .env file and PSYSCORE_* environment variables, in increasing priority.
// Flags bound to v take precedence over all of them.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("psyscore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that cannot be defaulted.
func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "sqlite3", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid db.driver: %s. Must be 'sqlite3', 'sqlite', or 'postgres'", c.DB.Driver)
	}
	if strings.TrimSpace(c.DB.DSN) == "" {
		return errors.New("db.dsn is required")
	}
	if c.Storage.Timeout < 0 {
		return errors.New("storage.timeout must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log.format: %s. Must be 'text' or 'json'", c.Log.Format)
	}
	if strings.TrimSpace(c.Survey.ListType) == "" {
		return errors.New("survey.list_type is required")
	}
	return nil
}

// RequireSecret fails when no JWT secret is configured. Commands that
// verify or sign tokens call it; offline commands do not need a secret.
func (c *Config) RequireSecret() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return fmt.Errorf("jwt.secret is required (set %s_JWT_SECRET)", EnvPrefix)
	}
	return nil
}
