package config

import (
	"time"

	"go.uber.org/zap/zapcore"
)

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

// WithWriteTimeout bounds REST responses only; hijacked websocket
// connections manage their own deadlines.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}

func WithMigrationsTable(table string) Option {
	return func(c *Config) {
		c.Database.MigrationsTable = table
	}
}
