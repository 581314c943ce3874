// Package query holds the pagination options shared by store implementations
package query

import (
	"github.com/pkg/errors"
)

const maxPageSize = 1000

var ErrQueryNotSupported = errors.New("the requested query option is not supported")

// Capability is a bitmask of the options a store call accepts
type Capability byte

const (
	CanLimitResults Capability = 1 << iota
	CanSortBy
	CanQueryByCursor
)

type Options struct {
	Supported Capability

	SortBy Ordering
	Limit  uint64
	Cursor Cursor
}

type Option func(*Options) error

func (o *Options) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

func (o *Options) require(c Capability) error {
	if o.Supported&c != c {
		return ErrQueryNotSupported
	}
	return nil
}

func WithDirection(val Ordering) Option {
	return func(o *Options) error {
		if err := o.require(CanSortBy); err != nil {
			return err
		}
		o.SortBy = val
		return nil
	}
}

func WithLimit(val uint64) Option {
	return func(o *Options) error {
		if err := o.require(CanLimitResults); err != nil {
			return err
		}
		o.Limit = val
		return nil
	}
}

func WithCursor(val Cursor) Option {
	return func(o *Options) error {
		if err := o.require(CanQueryByCursor); err != nil {
			return err
		}
		o.Cursor = val
		return nil
	}
}

// DefaultPaginationHandler resolves paging options for a cursor-paged listing
// ordered by record id
func DefaultPaginationHandler(opts ...Option) (*Options, error) {
	req := &Options{
		Limit:     maxPageSize,
		SortBy:    Ascending,
		Supported: CanLimitResults | CanSortBy | CanQueryByCursor,
	}
	if err := req.Apply(opts...); err != nil {
		return nil, err
	}

	if req.Limit == 0 || req.Limit > maxPageSize {
		return nil, ErrQueryNotSupported
	}
	if len(req.Cursor) != 0 && len(req.Cursor) != cursorSize {
		return nil, errors.Errorf("invalid cursor length %d", len(req.Cursor))
	}
	return req, nil
}
