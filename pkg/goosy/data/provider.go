package data

import (
	"context"
	"database/sql"
	"sync"

	"github.com/jmoiron/sqlx"

	pg "github.com/goosy-labs/goosy-vault/pkg/database/postgres"
	"github.com/goosy-labs/goosy-vault/pkg/database/query"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/token"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"

	programinfo_memory_client "github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo/memory"
	token_memory_client "github.com/goosy-labs/goosy-vault/pkg/goosy/data/token/memory"
	vault_memory_client "github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault/memory"

	programinfo_postgres_client "github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo/postgres"
	token_postgres_client "github.com/goosy-labs/goosy-vault/pkg/goosy/data/token/postgres"
	vault_postgres_client "github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault/postgres"
)

type DatabaseData interface {
	// Program Info
	// --------------------------------------------------------------------------------
	CreateProgramInfo(ctx context.Context, record *programinfo.Record) error
	GetProgramInfo(ctx context.Context, address string) (*programinfo.Record, error)
	IncrementVaultsCount(ctx context.Context, address string, expected uint32) error

	// Vault
	// --------------------------------------------------------------------------------
	CreateVault(ctx context.Context, record *vault.Record) error
	UpdateVault(ctx context.Context, record *vault.Record) error
	GetVaultByAddress(ctx context.Context, address string) (*vault.Record, error)
	GetVaultByIndex(ctx context.Context, index uint32) (*vault.Record, error)
	GetAdminVault(ctx context.Context) (*vault.Record, error)
	GetAllVaultsByType(ctx context.Context, t vault.Type, opts ...query.Option) ([]*vault.Record, error)
	GetVaultCountByType(ctx context.Context, t vault.Type) (uint64, error)

	// Token
	// --------------------------------------------------------------------------------
	CreateTokenMint(ctx context.Context, record *token.Mint) error
	GetTokenMint(ctx context.Context, address string) (*token.Mint, error)
	CreateTokenAccount(ctx context.Context, record *token.Account) error
	GetTokenAccount(ctx context.Context, address string) (*token.Account, error)
	TransferTokens(ctx context.Context, source, destination string, amount uint64) error
	MintTokens(ctx context.Context, mint, destination string, amount uint64) error

	// ExecuteInTx executes fn with a single DB transaction that is scoped to the call.
	// Either every write made through the provider within fn is applied, or none
	// are.
	ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error
}

type DatabaseProvider struct {
	programInfo programinfo.Store
	vaults      vault.Store
	tokens      token.Store

	db *sqlx.DB

	// Used only for the in memory provider
	memoryTxMu sync.Mutex
}

func NewDatabaseProvider(dbConfig *pg.Config) (DatabaseData, error) {
	db, err := pg.Open(dbConfig)
	if err != nil {
		return nil, err
	}
	return NewDatabaseProviderFromDB(db), nil
}

func NewDatabaseProviderFromDB(db *sql.DB) DatabaseData {
	return &DatabaseProvider{
		programInfo: programinfo_postgres_client.New(db),
		vaults:      vault_postgres_client.New(db),
		tokens:      token_postgres_client.New(db),

		db: sqlx.NewDb(db, "pgx"),
	}
}

func NewTestDatabaseProvider() DatabaseData {
	return &DatabaseProvider{
		programInfo: programinfo_memory_client.New(),
		vaults:      vault_memory_client.New(),
		tokens:      token_memory_client.New(),
	}
}

type memoryTxContextKey struct{}

// snapshotter is implemented by the in memory stores
type snapshotter interface {
	Snapshot() func()
}

func (dp *DatabaseProvider) ExecuteInTx(ctx context.Context, isolation sql.IsolationLevel, fn func(ctx context.Context) error) error {
	if dp.db != nil {
		return pg.ExecuteTxWithinCtx(ctx, dp.db, isolation, fn)
	}

	if ctx.Value(memoryTxContextKey{}) != nil {
		return pg.ErrAlreadyInTx
	}

	dp.memoryTxMu.Lock()
	defer dp.memoryTxMu.Unlock()

	var restores []func()
	for _, store := range []interface{}{dp.programInfo, dp.vaults, dp.tokens} {
		if s, ok := store.(snapshotter); ok {
			restores = append(restores, s.Snapshot())
		}
	}

	err := fn(context.WithValue(ctx, memoryTxContextKey{}, struct{}{}))
	if err != nil {
		for _, restore := range restores {
			restore()
		}
	}
	return err
}

// Program Info
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateProgramInfo(ctx context.Context, record *programinfo.Record) error {
	return dp.programInfo.Create(ctx, record)
}
func (dp *DatabaseProvider) GetProgramInfo(ctx context.Context, address string) (*programinfo.Record, error) {
	return dp.programInfo.Get(ctx, address)
}
func (dp *DatabaseProvider) IncrementVaultsCount(ctx context.Context, address string, expected uint32) error {
	return dp.programInfo.IncrementVaultsCount(ctx, address, expected)
}

// Vault
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateVault(ctx context.Context, record *vault.Record) error {
	return dp.vaults.Create(ctx, record)
}
func (dp *DatabaseProvider) UpdateVault(ctx context.Context, record *vault.Record) error {
	return dp.vaults.Update(ctx, record)
}
func (dp *DatabaseProvider) GetVaultByAddress(ctx context.Context, address string) (*vault.Record, error) {
	return dp.vaults.GetByAddress(ctx, address)
}
func (dp *DatabaseProvider) GetVaultByIndex(ctx context.Context, index uint32) (*vault.Record, error) {
	return dp.vaults.GetByIndex(ctx, index)
}
func (dp *DatabaseProvider) GetAdminVault(ctx context.Context) (*vault.Record, error) {
	return dp.vaults.GetAdmin(ctx)
}
func (dp *DatabaseProvider) GetAllVaultsByType(ctx context.Context, t vault.Type, opts ...query.Option) ([]*vault.Record, error) {
	return dp.vaults.GetAllByType(ctx, t, opts...)
}
func (dp *DatabaseProvider) GetVaultCountByType(ctx context.Context, t vault.Type) (uint64, error) {
	return dp.vaults.CountByType(ctx, t)
}

// Token
// --------------------------------------------------------------------------------
func (dp *DatabaseProvider) CreateTokenMint(ctx context.Context, record *token.Mint) error {
	return dp.tokens.CreateMint(ctx, record)
}
func (dp *DatabaseProvider) GetTokenMint(ctx context.Context, address string) (*token.Mint, error) {
	return dp.tokens.GetMint(ctx, address)
}
func (dp *DatabaseProvider) CreateTokenAccount(ctx context.Context, record *token.Account) error {
	return dp.tokens.CreateAccount(ctx, record)
}
func (dp *DatabaseProvider) GetTokenAccount(ctx context.Context, address string) (*token.Account, error) {
	return dp.tokens.GetAccount(ctx, address)
}
func (dp *DatabaseProvider) TransferTokens(ctx context.Context, source, destination string, amount uint64) error {
	return dp.tokens.Transfer(ctx, source, destination, amount)
}
func (dp *DatabaseProvider) MintTokens(ctx context.Context, mint, destination string, amount uint64) error {
	return dp.tokens.MintTo(ctx, mint, destination, amount)
}
