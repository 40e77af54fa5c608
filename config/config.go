package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
)

const (
	DefaultAccessTokenLifetime = int64(365 * 24 * 60 * 60)
	DefaultCleanupSpec         = "@every 5m"
	MinSecretLength            = 32
)

type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	/* Доверять X-Forwarded-For / X-Real-IP: включать только за своим прокси */
	TrustProxy  bool   `json:"trust_proxy"`
	Env         string `json:"-"`
	DatabaseUrl string `json:"-"`
	Secret      []byte `json:"-"`
	Lifetime    struct {
		/* Время жизни access токена в секундах */
		AccessToken int64 `json:"access_token"`
		/* Расписание очистки просроченных токенов в формате cron */
		Cleanup string `json:"cleanup"`
	} `json:"lifetime"`
	Hasher struct {
		Algorithm  string `json:"algorithm"`
		BcryptCost int    `json:"bcrypt_cost"`
		Argon2     struct {
			Time    uint32 `json:"time"`
			Memory  uint32 `json:"memory"`
			Threads uint8  `json:"threads"`
		} `json:"argon2"`
	} `json:"hasher"`
	RateLimit struct {
		PerMinute int `json:"per_minute"`
		Burst     int `json:"burst"`
	} `json:"rate_limit"`
	UserCache struct {
		Size int   `json:"size"`
		TTL  int64 `json:"ttl"`
	} `json:"user_cache"`
}

func (cfg *Config) IsDev() bool {
	return cfg.Env == "DEV"
}

// Load reads the JSON file at filePath, applies environment overrides and defaults.
func Load(filePath string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config %q: %w", filePath, err)
	}
	if err = json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", filePath, err)
	}
	cfg.Env = os.Getenv("GO_ENV")
	cfg.DatabaseUrl = os.Getenv("DATABASE_URL")
	cfg.Secret = []byte(os.Getenv("SECRET"))
	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(filePath string) *Config {
	cfg, err := Load(filePath)
	if errors.Is(err, os.ErrNotExist) {
		log.Fatal("Config at \"" + filePath + "\" not found.")
	}
	if err != nil {
		log.Fatal("Config parsing failed with error - " + err.Error())
	}
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Lifetime.AccessToken <= 0 {
		cfg.Lifetime.AccessToken = DefaultAccessTokenLifetime
	}
	if cfg.Lifetime.Cleanup == "" {
		cfg.Lifetime.Cleanup = DefaultCleanupSpec
	}
	if cfg.Hasher.Algorithm == "" {
		cfg.Hasher.Algorithm = "bcrypt"
	}
	if cfg.RateLimit.PerMinute <= 0 {
		cfg.RateLimit.PerMinute = 30
	}
	if cfg.RateLimit.Burst <= 0 {
		cfg.RateLimit.Burst = 10
	}
	if cfg.UserCache.Size == 0 {
		cfg.UserCache.Size = 1024
	}
	if cfg.UserCache.TTL == 0 {
		cfg.UserCache.TTL = 300
	}
}

func (cfg *Config) Validate() error {
	if len(cfg.Secret) < MinSecretLength {
		return fmt.Errorf("SECRET must be at least %d bytes long", MinSecretLength)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("invalid port %d", cfg.Port)
	}
	switch cfg.Hasher.Algorithm {
	case "bcrypt", "argon2id":
	default:
		return fmt.Errorf("unknown hasher algorithm %q", cfg.Hasher.Algorithm)
	}
	return nil
}

func WriteTemplate(filePath string) error {
	cfg := &Config{}
	cfg.applyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config template: %w", err)
	}
	if err = os.WriteFile(filePath, data, 0666); err != nil {
		return fmt.Errorf("save config template: %w", err)
	}
	return nil
}
