// Package wrapper converts untyped config sources into typed configs with
// defaults. A source that stops yielding valid values falls back to the last
// known good value.
package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/goosy-labs/goosy-vault/pkg/config"
)

// ErrUnsupportedConversion indicates the source yielded a type the wrapper
// can't convert
var ErrUnsupportedConversion = errors.New("config: wrapper conversion from source type not implemented")

type converter func(raw interface{}) (interface{}, error)

// value holds the conversion and last known value shared by every typed
// wrapper
type value struct {
	source       config.Config
	defaultValue interface{}
	convert      converter

	mu   sync.RWMutex
	last interface{}
}

func newValue(source config.Config, defaultValue interface{}, convert converter) *value {
	return &value{
		source:       source,
		defaultValue: defaultValue,
		convert:      convert,
		last:         defaultValue,
	}
}

func (v *value) get(ctx context.Context) (interface{}, error) {
	raw, err := v.source.Get(ctx)
	if err == config.ErrNoValue {
		v.set(v.defaultValue)
		return v.defaultValue, nil
	} else if err != nil {
		return v.lastValue(), err
	}

	converted, err := v.convert(raw)
	if err != nil {
		return v.lastValue(), err
	}

	v.set(converted)
	return converted, nil
}

func (v *value) set(val interface{}) {
	v.mu.Lock()
	v.last = val
	v.mu.Unlock()
}

func (v *value) lastValue() interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.last
}

func (v *value) Shutdown() {
	v.source.Shutdown()
}

type boolConfig struct {
	*value
}

// NewBoolConfig wraps a source yielding bool or parseable []byte values
func NewBoolConfig(source config.Config, defaultValue bool) config.Bool {
	return &boolConfig{newValue(source, defaultValue, func(raw interface{}) (interface{}, error) {
		switch raw := raw.(type) {
		case bool:
			return raw, nil
		case []byte:
			return strconv.ParseBool(string(raw))
		}
		return nil, ErrUnsupportedConversion
	})}
}

func (c *boolConfig) GetSafe(ctx context.Context) (bool, error) {
	val, err := c.get(ctx)
	return val.(bool), err
}

func (c *boolConfig) Get(ctx context.Context) bool {
	val, _ := c.GetSafe(ctx)
	return val
}

type durationConfig struct {
	*value
}

// NewDurationConfig wraps a source yielding time.Duration or []byte values
// in time.ParseDuration format
func NewDurationConfig(source config.Config, defaultValue time.Duration) config.Duration {
	return &durationConfig{newValue(source, defaultValue, func(raw interface{}) (interface{}, error) {
		switch raw := raw.(type) {
		case time.Duration:
			return raw, nil
		case []byte:
			return time.ParseDuration(string(raw))
		}
		return nil, ErrUnsupportedConversion
	})}
}

func (c *durationConfig) GetSafe(ctx context.Context) (time.Duration, error) {
	val, err := c.get(ctx)
	return val.(time.Duration), err
}

func (c *durationConfig) Get(ctx context.Context) time.Duration {
	val, _ := c.GetSafe(ctx)
	return val
}

type uint64Config struct {
	*value
}

// NewUint64Config wraps a source yielding unsigned integer or []byte values
func NewUint64Config(source config.Config, defaultValue uint64) config.Uint64 {
	return &uint64Config{newValue(source, defaultValue, func(raw interface{}) (interface{}, error) {
		switch raw := raw.(type) {
		case uint64:
			return raw, nil
		case uint32:
			return uint64(raw), nil
		case uint:
			return uint64(raw), nil
		case []byte:
			return strconv.ParseUint(string(raw), 10, 64)
		}
		return nil, ErrUnsupportedConversion
	})}
}

func (c *uint64Config) GetSafe(ctx context.Context) (uint64, error) {
	val, err := c.get(ctx)
	return val.(uint64), err
}

func (c *uint64Config) Get(ctx context.Context) uint64 {
	val, _ := c.GetSafe(ctx)
	return val
}

type stringConfig struct {
	*value
}

// NewStringConfig wraps a source yielding string or []byte values
func NewStringConfig(source config.Config, defaultValue string) config.String {
	return &stringConfig{newValue(source, defaultValue, func(raw interface{}) (interface{}, error) {
		switch raw := raw.(type) {
		case string:
			return raw, nil
		case []byte:
			return string(raw), nil
		}
		return nil, ErrUnsupportedConversion
	})}
}

func (c *stringConfig) GetSafe(ctx context.Context) (string, error) {
	val, err := c.get(ctx)
	return val.(string), err
}

func (c *stringConfig) Get(ctx context.Context) string {
	val, _ := c.GetSafe(ctx)
	return val
}
