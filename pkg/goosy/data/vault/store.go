package vault

import (
	"context"
	"errors"

	"github.com/goosy-labs/goosy-vault/pkg/database/query"
)

var (
	ErrVaultNotFound = errors.New("no vault could be found")
	ErrVaultExists   = errors.New("vault already exists")
	ErrStaleVersion  = errors.New("vault version is stale")
)

type Store interface {
	// Create creates a new vault. ErrVaultExists is returned when the address,
	// external account, user index or admin slot is already taken.
	Create(ctx context.Context, record *Record) error

	// Update saves the vault's total balance. The provided record's version
	// must match the stored version, otherwise ErrStaleVersion is returned.
	// On success, the record's version is incremented.
	Update(ctx context.Context, record *Record) error

	// GetByAddress gets a vault by its address
	GetByAddress(ctx context.Context, address string) (*Record, error)

	// GetByIndex gets a user vault by its index
	GetByIndex(ctx context.Context, index uint32) (*Record, error)

	// GetAdmin gets the admin vault
	GetAdmin(ctx context.Context) (*Record, error)

	// GetAllByType gets vaults of a type using the provided paging options
	GetAllByType(ctx context.Context, t Type, opts ...query.Option) ([]*Record, error)

	// CountByType counts vaults of a type
	CountByType(ctx context.Context, t Type) (uint64, error)
}
