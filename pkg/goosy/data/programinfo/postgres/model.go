package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
	pgutil "github.com/goosy-labs/goosy-vault/pkg/database/postgres"
)

const (
	tableName = "goosy__core_programinfo"
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address string `db:"address"`
	Bump    uint   `db:"bump"`

	Admin string `db:"admin"`

	VaultsCount int64 `db:"vaults_count"`

	CreatedAt     time.Time `db:"created_at"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
}

func toModel(obj *programinfo.Record) (*model, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &model{
		Address: obj.Address,
		Bump:    uint(obj.Bump),

		Admin: obj.Admin,

		VaultsCount: int64(obj.VaultsCount),

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}, nil
}

func fromModel(obj *model) *programinfo.Record {
	return &programinfo.Record{
		Id: uint64(obj.Id.Int64),

		Address: obj.Address,
		Bump:    uint8(obj.Bump),

		Admin: obj.Admin,

		VaultsCount: uint32(obj.VaultsCount),

		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *model) dbCreate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now()
		}
		m.LastUpdatedAt = time.Now()

		query := `INSERT INTO ` + tableName + `
			(address, bump, admin, vaults_count, created_at, last_updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, address, bump, admin, vaults_count, created_at, last_updated_at
		`
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Bump,
			m.Admin,
			m.VaultsCount,
			m.CreatedAt.UTC(),
			m.LastUpdatedAt.UTC(),
		).StructScan(m)
		return pgutil.CheckUniqueViolation(err, programinfo.ErrProgramInfoExists)
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	var res model
	query := `SELECT id, address, bump, admin, vaults_count, created_at, last_updated_at FROM ` + tableName + `
		WHERE address = $1
	`
	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, programinfo.ErrProgramInfoNotFound)
	}
	return &res, nil
}

func dbIncrementVaultsCount(ctx context.Context, db *sqlx.DB, address string, expected uint32) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET vaults_count = vaults_count + 1, last_updated_at = $3
			WHERE address = $1 AND vaults_count = $2
			RETURNING vaults_count
		`
		var updated int64
		err := tx.QueryRowxContext(ctx, query, address, int64(expected), time.Now().UTC()).Scan(&updated)
		if err == nil {
			return nil
		}
		if !pgutil.IsNoRows(err) {
			return err
		}

		var exists bool
		err = tx.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM `+tableName+` WHERE address = $1)`, address).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return programinfo.ErrProgramInfoNotFound
		}
		return programinfo.ErrStaleProgramInfo
	})
}
