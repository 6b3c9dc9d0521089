package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Env          string        `mapstructure:"env"`
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	StaticPath   string        `mapstructure:"static_path"`
	ReadLimit    int64         `mapstructure:"read_limit"`
	PingPeriod   time.Duration `mapstructure:"ping_period"`
	Secret       string        `mapstructure:"secret"`
	LogLevel     string        `mapstructure:"log_level"`
	KickSilent   time.Duration `mapstructure:"kick_silent"`
	RateLimit    int           `mapstructure:"rate_limit"`
	RateInterval time.Duration `mapstructure:"rate_interval"`
	NicknameRule string        `mapstructure:"nickname_rule"`
}

// PongWait is how long a connection may stay quiet at the transport level.
func (c *Config) PongWait() time.Duration {
	return c.PingPeriod * 10 / 9
}

var ErrBadConfig = errors.New("bad config")

// Load reads config/config.$CONFIG_ENV.yaml relative to the working directory.
func Load() (*Config, error) {
	return LoadFrom(".", os.Getenv("CONFIG_ENV"))
}

// LoadFrom reads config.<env>.yaml from dir or dir/config. A missing file
// is not an error; defaults and CHAT_* environment variables still apply.
func LoadFrom(dir, env string) (*Config, error) {
	if env == "" {
		env = "dev"
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("chat")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", env)
	v.SetDefault("mode", "release")
	v.SetDefault("port", defaultPort(env))
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 4096)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "change-me")
	v.SetDefault("log_level", "info")
	v.SetDefault("kick_silent", "5m")
	v.SetDefault("rate_limit", 10)
	v.SetDefault("rate_interval", "1s")
	v.SetDefault("nickname_rule", "")

	fileName := fmt.Sprintf("config.%s.yaml", env)
	loaded := ""
	for _, candidate := range []string{filepath.Join(dir, "config", fileName), filepath.Join(dir, fileName)} {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		v.SetConfigFile(candidate)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", candidate, err)
		}
		loaded = candidate
		break
	}
	if loaded == "" {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", loaded).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log.Info().Str("module", "config").Str("env", cfg.Env).Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Dur("kick_silent", cfg.KickSilent).Msg("config ready")
	return &cfg, nil
}

func defaultPort(env string) int {
	if env == "prod" || env == "production" {
		return 80
	}
	return 8081
}

func (c *Config) validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d", ErrBadConfig, c.Port)
	case c.KickSilent <= 0:
		return fmt.Errorf("%w: kick_silent must be positive", ErrBadConfig)
	case c.PingPeriod <= 0:
		return fmt.Errorf("%w: ping_period must be positive", ErrBadConfig)
	case c.RateLimit <= 0 || c.RateInterval <= 0:
		return fmt.Errorf("%w: rate limit must be positive", ErrBadConfig)
	}
	return nil
}
