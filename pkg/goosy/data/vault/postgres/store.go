package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/goosy-labs/goosy-vault/pkg/database/query"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres-backed vault.Store
func New(db *sql.DB) vault.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Create implements vault.Store.Create
func (s *store) Create(ctx context.Context, record *vault.Record) error {
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

// Update implements vault.Store.Update
func (s *store) Update(ctx context.Context, record *vault.Record) error {
	m, err := toModel(record)
	if err != nil {
		return err
	}

	if err := m.dbUpdate(ctx, s.db); err != nil {
		return err
	}

	fromModel(m).CopyTo(record)
	return nil
}

// GetByAddress implements vault.Store.GetByAddress
func (s *store) GetByAddress(ctx context.Context, address string) (*vault.Record, error) {
	m, err := dbGetByAddress(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// GetByIndex implements vault.Store.GetByIndex
func (s *store) GetByIndex(ctx context.Context, index uint32) (*vault.Record, error) {
	m, err := dbGetByIndex(ctx, s.db, index)
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// GetAdmin implements vault.Store.GetAdmin
func (s *store) GetAdmin(ctx context.Context) (*vault.Record, error) {
	m, err := dbGetAdmin(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return fromModel(m), nil
}

// GetAllByType implements vault.Store.GetAllByType
func (s *store) GetAllByType(ctx context.Context, t vault.Type, opts ...query.Option) ([]*vault.Record, error) {
	req, err := query.DefaultPaginationHandler(opts...)
	if err != nil {
		return nil, err
	}

	models, err := dbGetAllByType(ctx, s.db, t, req.Cursor, req.Limit, req.SortBy)
	if err != nil {
		return nil, err
	}

	res := make([]*vault.Record, len(models))
	for i, m := range models {
		res[i] = fromModel(m)
	}
	return res, nil
}

// CountByType implements vault.Store.CountByType
func (s *store) CountByType(ctx context.Context, t vault.Type) (uint64, error) {
	return dbCountByType(ctx, s.db, t)
}
