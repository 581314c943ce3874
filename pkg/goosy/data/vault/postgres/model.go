package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/goosy-labs/goosy-vault/pkg/database/postgres"
	q "github.com/goosy-labs/goosy-vault/pkg/database/query"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
)

const (
	tableName = "goosy__core_vault"

	allColumns = `id, address, bump, vault_type, vault_index, owner, external_account, mint, total_balance, creation_date, version, last_updated_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Bump    uint   `db:"bump"`

	Type  uint  `db:"vault_type"`
	Index int64 `db:"vault_index"`

	Owner string `db:"owner"`

	ExternalAccount string `db:"external_account"`
	Mint            string `db:"mint"`

	TotalBalance int64 `db:"total_balance"`

	CreationDate time.Time `db:"creation_date"`

	Version       int64     `db:"version"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *vault.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,
		Bump:    uint(obj.Bump),

		Type:  uint(obj.Type),
		Index: int64(obj.Index),

		Owner: obj.Owner,

		ExternalAccount: obj.ExternalAccount,
		Mint:            obj.Mint,

		TotalBalance: int64(obj.TotalBalance),

		CreationDate: obj.CreationDate,

		Version:       int64(obj.Version),
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *vault.Record {
	return &vault.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Bump:    uint8(obj.Bump),

		Type:  vault.Type(obj.Type),
		Index: uint32(obj.Index),

		Owner: obj.Owner,

		ExternalAccount: obj.ExternalAccount,
		Mint:            obj.Mint,

		TotalBalance: uint64(obj.TotalBalance),

		CreationDate: obj.CreationDate,

		Version:       uint64(obj.Version),
		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbCreate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		m.Version = 1
		m.LastUpdatedAt = time.Now()

		query := `INSERT INTO ` + tableName + `
			(address, bump, vault_type, vault_index, owner, external_account, mint, total_balance, creation_date, version, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING ` + allColumns
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Bump,
			m.Type,
			m.Index,
			m.Owner,
			m.ExternalAccount,
			m.Mint,
			m.TotalBalance,
			m.CreationDate.UTC(),
			m.Version,
			m.LastUpdatedAt.UTC(),
		).StructScan(m)
		return pgutil.CheckUniqueViolation(err, vault.ErrVaultExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET total_balance = $2, version = version + 1, last_updated_at = $4
			WHERE address = $1 AND version = $3
			RETURNING ` + allColumns
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.TotalBalance,
			m.Version,
			time.Now().UTC(),
		).StructScan(m)
		if err == nil {
			return nil
		}
		if !pgutil.IsNoRows(err) {
			return err
		}

		var exists bool
		err = tx.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+tableName+` WHERE address = $1)`, m.Address).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return vault.ErrVaultNotFound
		}
		return vault.ErrStaleVersion
	})
}

func dbGetByAddress(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
	`
	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return &res, nil
}

func dbGetByIndex(ctx context.Context, db *sqlx.DB, index uint32) (*model, error) {
	var res model
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE vault_type = $1 AND vault_index = $2
	`
	err := db.GetContext(ctx, &res, query, uint(vault.TypeUser), int64(index))
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return &res, nil
}

func dbGetAdmin(ctx context.Context, db *sqlx.DB) (*model, error) {
	var res model
	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE vault_type = $1
	`
	err := db.GetContext(ctx, &res, query, uint(vault.TypeAdmin))
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	return &res, nil
}

func dbGetAllByType(ctx context.Context, db *sqlx.DB, t vault.Type, cursor q.Cursor, limit uint64, direction q.Ordering) ([]*model, error) {
	res := []*model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE (vault_type = $1)
	`
	opts := []interface{}{uint(t)}
	query, opts = q.PaginateQuery(query, opts, cursor, limit, direction)

	err := db.SelectContext(ctx, &res, query, opts...)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, vault.ErrVaultNotFound)
	}
	if len(res) == 0 {
		return nil, vault.ErrVaultNotFound
	}
	return res, nil
}

func dbCountByType(ctx context.Context, db *sqlx.DB, t vault.Type) (uint64, error) {
	var res uint64
	query := `SELECT COUNT(*) FROM ` + tableName + ` WHERE vault_type = $1`
	err := db.GetContext(ctx, &res, query, uint(t))
	if err != nil {
		return 0, err
	}
	return res, nil
}
