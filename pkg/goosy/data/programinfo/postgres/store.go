package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed programinfo.Store
func New(db *sql.DB) programinfo.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Create implements programinfo.Store.Create
func (s *store) Create(ctx context.Context, record *programinfo.Record) error {
	m, err := toModel(record)
	if err != nil {
		return err
	}

	if err := m.dbCreate(ctx, s.db); err != nil {
		return err
	}

	fromModel(m).CopyTo(record)
	return nil
}

// Get implements programinfo.Store.Get
func (s *store) Get(ctx context.Context, address string) (*programinfo.Record, error) {
	m, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// IncrementVaultsCount implements programinfo.Store.IncrementVaultsCount
func (s *store) IncrementVaultsCount(ctx context.Context, address string, expected uint32) error {
	return dbIncrementVaultsCount(ctx, s.db, address, expected)
}
