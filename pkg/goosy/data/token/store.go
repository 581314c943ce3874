package token

import (
	"context"
	"errors"
)

var (
	ErrMintNotFound      = errors.New("mint not found")
	ErrMintExists        = errors.New("mint already exists")
	ErrAccountNotFound   = errors.New("token account not found")
	ErrAccountExists     = errors.New("token account already exists")
	ErrMintMismatch      = errors.New("token accounts have different mints")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrSupplyOverflow    = errors.New("mint supply overflow")
)

type Store interface {
	// CreateMint creates a new mint with zero supply
	CreateMint(ctx context.Context, record *Mint) error

	// GetMint gets a mint by its address
	GetMint(ctx context.Context, address string) (*Mint, error)

	// CreateAccount creates a new token account for an existing mint
	CreateAccount(ctx context.Context, record *Account) error

	// GetAccount gets a token account by its address
	GetAccount(ctx context.Context, address string) (*Account, error)

	// Transfer atomically moves amount from source to destination. Both
	// accounts must share a mint.
	Transfer(ctx context.Context, source, destination string, amount uint64) error

	// MintTo atomically increases the mint's supply and the destination's
	// amount.
	MintTo(ctx context.Context, mint, destination string, amount uint64) error
}
