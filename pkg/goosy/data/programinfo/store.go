package programinfo

import (
	"context"
	"errors"
)

var (
	ErrProgramInfoNotFound = errors.New("program info not found")
	ErrProgramInfoExists   = errors.New("program info already exists")
	ErrStaleProgramInfo    = errors.New("program info vaults count is stale")
)

type Store interface {
	// Create creates the program info record. ErrProgramInfoExists is returned
	// if a record already exists at the address.
	Create(ctx context.Context, record *Record) error

	// Get gets the program info record at the address
	Get(ctx context.Context, address string) (*Record, error)

	// IncrementVaultsCount moves the vaults count from expected to expected+1.
	// ErrStaleProgramInfo is returned when the current count isn't expected.
	IncrementVaultsCount(ctx context.Context, address string, expected uint32) error
}
