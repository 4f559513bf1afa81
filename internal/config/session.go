package config

import (
	"fmt"
	"strings"
	"time"
)

const minSecretLength = 16

// SessionConfig holds cookie session configuration
type SessionConfig struct {
	// Store selects the session backend: redis or memory
	Store string `mapstructure:"store"`

	// Secret signs the session cookie. Set SESSION_SECRET in production.
	Secret string `mapstructure:"secret"`

	CookieName string        `mapstructure:"cookie_name"`
	TTL        time.Duration `mapstructure:"ttl"`

	// MemorySize caps the number of sessions the in-memory store keeps
	MemorySize int `mapstructure:"memory_size"`
}

// UsesRedis returns true if sessions live in redis
func (s *SessionConfig) UsesRedis() bool {
	return strings.ToLower(s.Store) == "redis"
}

// UsesMemory returns true if sessions live in process memory
func (s *SessionConfig) UsesMemory() bool {
	return strings.ToLower(s.Store) == "memory"
}

func (s *SessionConfig) validate(production bool) error {
	if !s.UsesRedis() && !s.UsesMemory() {
		return fmt.Errorf("invalid session store: %s", s.Store)
	}
	if s.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if s.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if production && len(s.Secret) < minSecretLength {
		return fmt.Errorf("session secret must be at least %d characters in production", minSecretLength)
	}
	if s.UsesMemory() && s.MemorySize <= 0 {
		return fmt.Errorf("session memory_size must be positive")
	}
	return nil
}

// RedisConfig holds redis connection settings. URL wins over the discrete fields.
type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Address returns host:port for the redis server
func (r *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// GitHubConfig holds GitHub REST API client settings
type GitHubConfig struct {
	// Token is optional. Unauthenticated calls work with a lower rate limit.
	Token string `mapstructure:"token"`

	// BaseURL points at a GitHub Enterprise API. Empty means api.github.com.
	BaseURL string `mapstructure:"base_url"`

	Timeout time.Duration `mapstructure:"timeout"`
}
