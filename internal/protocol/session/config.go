package session

import (
	"time"

	"github.com/danmuck/tabletctl/internal/protocol/frame"
)

// Config defines transport timing defaults.
type Config struct {
	ConnectTimeout time.Duration
	WriteTimeout   time.Duration
	// DefaultTimeout bounds the reply wait when a caller passes a zero or
	// negative timeout.
	DefaultTimeout time.Duration
	Limits         frame.Limits
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 2 * time.Second,
		WriteTimeout:   5 * time.Second,
		DefaultTimeout: 15 * time.Second,
		Limits:         frame.DefaultLimits(),
	}
}

// WithDefaults fills unset fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.DefaultTimeout <= 0 {
		c.DefaultTimeout = def.DefaultTimeout
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = def.Limits
	}
	return c
}
