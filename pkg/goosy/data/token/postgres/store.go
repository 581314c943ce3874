package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/token"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed token.Store
func New(db *sql.DB) token.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// CreateMint implements token.Store.CreateMint
func (s *store) CreateMint(ctx context.Context, record *token.Mint) error {
	m, err := toMintModel(record)
	if err != nil {
		return err
	}

	if err := m.dbCreate(ctx, s.db); err != nil {
		return err
	}

	fromMintModel(m).CopyTo(record)
	return nil
}

// GetMint implements token.Store.GetMint
func (s *store) GetMint(ctx context.Context, address string) (*token.Mint, error) {
	m, err := dbGetMint(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromMintModel(m), nil
}

// CreateAccount implements token.Store.CreateAccount
func (s *store) CreateAccount(ctx context.Context, record *token.Account) error {
	m, err := toAccountModel(record)
	if err != nil {
		return err
	}

	if err := m.dbCreate(ctx, s.db); err != nil {
		return err
	}

	fromAccountModel(m).CopyTo(record)
	return nil
}

// GetAccount implements token.Store.GetAccount
func (s *store) GetAccount(ctx context.Context, address string) (*token.Account, error) {
	m, err := dbGetAccount(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromAccountModel(m), nil
}

// Transfer implements token.Store.Transfer
func (s *store) Transfer(ctx context.Context, source, destination string, amount uint64) error {
	return dbTransfer(ctx, s.db, source, destination, amount)
}

// MintTo implements token.Store.MintTo
func (s *store) MintTo(ctx context.Context, mint, destination string, amount uint64) error {
	return dbMintTo(ctx, s.db, mint, destination, amount)
}
