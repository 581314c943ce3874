package postgres

import (
	"context"
	"database/sql"
	"math"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/goosy-labs/goosy-vault/pkg/database/postgres"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/token"
)

const (
	mintTableName    = "goosy__core_tokenmint"
	accountTableName = "goosy__core_tokenaccount"

	mintColumns    = `id, address, authority, decimals, supply, created_at`
	accountColumns = `id, address, mint, owner, amount, created_at, last_updated_at`
)

type mintModel struct {
	Id        sql.NullInt64 `db:"id"`
	Address   string        `db:"address"`
	Authority string        `db:"authority"`
	Decimals  uint          `db:"decimals"`
	Supply    int64         `db:"supply"`
	CreatedAt time.Time     `db:"created_at"`
}

type accountModel struct {
	Id            sql.NullInt64 `db:"id"`
	Address       string        `db:"address"`
	Mint          string        `db:"mint"`
	Owner         string        `db:"owner"`
	Amount        int64         `db:"amount"`
	CreatedAt     time.Time     `db:"created_at"`
	LastUpdatedAt time.Time     `db:"last_updated_at"`
}

func toMintModel(obj *token.Mint) (*mintModel, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &mintModel{
		Address:   obj.Address,
		Authority: obj.Authority,
		Decimals:  uint(obj.Decimals),
	}, nil
}

func fromMintModel(obj *mintModel) *token.Mint {
	return &token.Mint{
		Id:        uint64(obj.Id.Int64),
		Address:   obj.Address,
		Authority: obj.Authority,
		Decimals:  uint8(obj.Decimals),
		Supply:    uint64(obj.Supply),
		CreatedAt: obj.CreatedAt,
	}
}

func toAccountModel(obj *token.Account) (*accountModel, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}

	return &accountModel{
		Address: obj.Address,
		Mint:    obj.Mint,
		Owner:   obj.Owner,
	}, nil
}

func fromAccountModel(obj *accountModel) *token.Account {
	return &token.Account{
		Id:            uint64(obj.Id.Int64),
		Address:       obj.Address,
		Mint:          obj.Mint,
		Owner:         obj.Owner,
		Amount:        uint64(obj.Amount),
		CreatedAt:     obj.CreatedAt,
		LastUpdatedAt: obj.LastUpdatedAt,
	}
}

func (m *mintModel) dbCreate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + mintTableName + `
			(address, authority, decimals, supply, created_at)
			VALUES ($1, $2, $3, 0, $4)
			RETURNING ` + mintColumns
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Authority,
			m.Decimals,
			time.Now().UTC(),
		).StructScan(m)
		return pgutil.CheckUniqueViolation(err, token.ErrMintExists)
	})
}

func (m *accountModel) dbCreate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		if _, err := dbGetMintTx(ctx, tx, m.Mint, false); err != nil {
			return err
		}

		now := time.Now().UTC()
		query := `INSERT INTO ` + accountTableName + `
			(address, mint, owner, amount, created_at, last_updated_at)
			VALUES ($1, $2, $3, 0, $4, $4)
			RETURNING ` + accountColumns
		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Mint,
			m.Owner,
			now,
		).StructScan(m)
		return pgutil.CheckUniqueViolation(err, token.ErrAccountExists)
	})
}

func dbGetMint(ctx context.Context, db *sqlx.DB, address string) (*mintModel, error) {
	var res mintModel
	query := `SELECT ` + mintColumns + ` FROM ` + mintTableName + `
		WHERE address = $1
	`
	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, token.ErrMintNotFound)
	}
	return &res, nil
}

func dbGetAccount(ctx context.Context, db *sqlx.DB, address string) (*accountModel, error) {
	var res accountModel
	query := `SELECT ` + accountColumns + ` FROM ` + accountTableName + `
		WHERE address = $1
	`
	err := db.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, token.ErrAccountNotFound)
	}
	return &res, nil
}

func dbTransfer(ctx context.Context, db *sqlx.DB, source, destination string, amount uint64) error {
	if amount > math.MaxInt64 {
		return token.ErrInsufficientFunds
	}

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		// Rows are locked in address order so opposing transfers can't deadlock
		var locked []*accountModel
		query := `SELECT ` + accountColumns + ` FROM ` + accountTableName + `
			WHERE address IN ($1, $2)
			ORDER BY address
			FOR UPDATE
		`
		err := tx.SelectContext(ctx, &locked, query, source, destination)
		if err != nil {
			return err
		}

		var from, to *accountModel
		for _, m := range locked {
			if m.Address == source {
				from = m
			}
			if m.Address == destination {
				to = m
			}
		}
		if from == nil || to == nil {
			return token.ErrAccountNotFound
		}

		if from.Mint != to.Mint {
			return token.ErrMintMismatch
		}

		if uint64(from.Amount) < amount {
			return token.ErrInsufficientFunds
		}

		if source == destination || amount == 0 {
			return nil
		}

		now := time.Now().UTC()
		update := `UPDATE ` + accountTableName + ` SET amount = amount + $2, last_updated_at = $3 WHERE address = $1`
		if _, err := tx.ExecContext(ctx, update, source, -int64(amount), now); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, update, destination, int64(amount), now)
		return err
	})
}

func dbMintTo(ctx context.Context, db *sqlx.DB, mint, destination string, amount uint64) error {
	if amount > math.MaxInt64 {
		return token.ErrSupplyOverflow
	}

	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		m, err := dbGetMintTx(ctx, tx, mint, true)
		if err != nil {
			return err
		}

		var to accountModel
		query := `SELECT ` + accountColumns + ` FROM ` + accountTableName + `
			WHERE address = $1
			FOR UPDATE
		`
		err = tx.GetContext(ctx, &to, query, destination)
		if err != nil {
			return pgutil.CheckNoRows(err, token.ErrAccountNotFound)
		}

		if to.Mint != m.Address {
			return token.ErrMintMismatch
		}

		if m.Supply > math.MaxInt64-int64(amount) {
			return token.ErrSupplyOverflow
		}

		_, err = tx.ExecContext(ctx, `UPDATE `+mintTableName+` SET supply = supply + $2 WHERE address = $1`, mint, int64(amount))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(
			ctx,
			`UPDATE `+accountTableName+` SET amount = amount + $2, last_updated_at = $3 WHERE address = $1`,
			destination,
			int64(amount),
			time.Now().UTC(),
		)
		return err
	})
}

func dbGetMintTx(ctx context.Context, tx *sqlx.Tx, address string, forUpdate bool) (*mintModel, error) {
	var res mintModel
	query := `SELECT ` + mintColumns + ` FROM ` + mintTableName + `
		WHERE address = $1
	`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := tx.GetContext(ctx, &res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, token.ErrMintNotFound)
	}
	return &res, nil
}
