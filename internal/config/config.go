package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          string        `mapstructure:"port"`
	DatabaseURL   string        `mapstructure:"database_url"`
	AuthSecret    string        `mapstructure:"auth_secret"`
	MediaDir      string        `mapstructure:"media_dir"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`
	CORSOrigins   []string      `mapstructure:"cors_origins"`
	Seed          bool          `mapstructure:"seed"`
}

func (c Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("media_dir", "./data/media")
	v.SetDefault("public_base_url", "")
	v.SetDefault("max_upload_mb", 50)
	v.SetDefault("cache_ttl", 5*time.Minute)
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("seed", true)
	v.SetDefault("database_url", "")
	v.SetDefault("auth_secret", "")
}

// Load reads configuration from the environment (PORT, DATABASE_URL, ...) and,
// when configFile is set, from that file first.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// env lists arrive as one comma separated string
	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is not set"))
	}
	if c.AuthSecret == "" {
		errs = append(errs, errors.New("AUTH_SECRET is not set"))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_MB must be positive"))
	}
	return errors.Join(errs...)
}
