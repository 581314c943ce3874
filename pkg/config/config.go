// Package config provides typed, dynamically sourced configuration values.
// Values are read on every Get, so sources may change them at runtime.
package config

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// ErrNoValue indicates the source has no value, and the default applies
	ErrNoValue = errors.New("config: no value set")

	// ErrShutdown indicates the config was used after Shutdown
	ErrShutdown = errors.New("config: shutdown")
)

// Config is an untyped configuration source
type Config interface {
	// Get returns the current raw value
	Get(ctx context.Context) (interface{}, error)

	// Shutdown releases resources held by the source
	Shutdown()
}

// Bool provides a boolean typed config.Config.
type Bool interface {
	Get(ctx context.Context) bool
	GetSafe(ctx context.Context) (bool, error)
	Shutdown()
}

// Duration provides a time.Duration typed config.Config.
type Duration interface {
	Get(ctx context.Context) time.Duration
	GetSafe(ctx context.Context) (time.Duration, error)
	Shutdown()
}

// Uint64 provides a uint64 typed config.Config.
type Uint64 interface {
	Get(ctx context.Context) uint64
	GetSafe(ctx context.Context) (uint64, error)
	Shutdown()
}

// String provides a string typed config.Config.
type String interface {
	Get(ctx context.Context) string
	GetSafe(ctx context.Context) (string, error)
	Shutdown()
}
