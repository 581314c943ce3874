package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
	"github.com/goosy-labs/goosy-vault/pkg/testutil"
)

type testEnv struct {
	ctx    context.Context
	clock  *clockwork.FakeClock
	data   data.DatabaseData
	tokens *token.Client
	engine *Engine

	mint           string
	admin          *common.Account
	adminAuthority *vault_program.Authority

	programInfo *programinfo.Record
	adminVault  *vault.Record
}

// setupUninitialized creates a mint controlled by the admin vault address,
// without initializing the program.
func setupUninitialized(t *testing.T) *testEnv {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	db := data.NewTestDatabaseProvider()
	tokens := token.NewClient(db)

	adminAuthority, err := vault_program.NewAdminVaultAuthority()
	require.NoError(t, err)

	env := &testEnv{
		ctx:            ctx,
		clock:          clock,
		data:           db,
		tokens:         tokens,
		engine:         New(db, tokens, clock),
		mint:           testutil.NewRandomAccount(t).PublicKey().ToBase58(),
		admin:          testutil.NewRandomAccount(t),
		adminAuthority: adminAuthority,
	}

	_, err = tokens.CreateMint(ctx, env.mint, adminAuthority.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)

	return env
}

// setup initializes the program and creates the admin vault
func setup(t *testing.T) *testEnv {
	env := setupUninitialized(t)

	programInfo, err := env.engine.InitializeProgram(env.ctx, &InitializeProgramArgs{
		Admin: env.admin,
	})
	require.NoError(t, err)
	env.programInfo = programInfo

	adminExternal := env.newTokenAccount(t, env.adminAuthority.PublicKey(), 0)
	adminVault, err := env.engine.CreateAdminVault(env.ctx, &CreateAdminVaultArgs{
		Owner:           env.admin,
		ExternalAccount: adminExternal,
		Mint:            env.mint,
	})
	require.NoError(t, err)
	env.adminVault = adminVault

	return env
}

// newTokenAccount creates a token account for owner holding amount
func (e *testEnv) newTokenAccount(t *testing.T, owner string, amount uint64) string {
	return e.newTokenAccountForMint(t, e.mint, owner, amount)
}

func (e *testEnv) newTokenAccountForMint(t *testing.T, mint, owner string, amount uint64) string {
	address := testutil.NewRandomAccount(t).PublicKey().ToBase58()

	_, err := e.tokens.CreateAccount(e.ctx, address, mint, owner)
	require.NoError(t, err)

	if amount > 0 {
		require.NoError(t, e.tokens.MintTo(e.ctx, &token.MintToArgs{
			Mint:        mint,
			Destination: address,
			Amount:      amount,
			Authority:   token.ProgramSigner(e.adminAuthority),
		}))
	}
	return address
}

// newVault creates a user vault with an empty external account
func (e *testEnv) newVault(t *testing.T) (*vault.Record, *common.Account) {
	owner := testutil.NewRandomAccount(t)
	external := e.newTokenAccount(t, owner.PublicKey().ToBase58(), 0)

	record, err := e.engine.CreateVault(e.ctx, &CreateVaultArgs{
		Owner:           owner,
		ExternalAccount: external,
		Mint:            e.mint,
	})
	require.NoError(t, err)
	return record, owner
}

// deposit funds a fresh wallet for owner and deposits all of it into the vault
func (e *testEnv) deposit(t *testing.T, address string, owner *common.Account, amount uint64) *vault.Record {
	wallet := e.newTokenAccount(t, owner.PublicKey().ToBase58(), amount)

	record, err := e.engine.Deposit(e.ctx, &DepositArgs{
		Vault:     address,
		Source:    wallet,
		Amount:    amount,
		Depositor: owner,
	})
	require.NoError(t, err)
	return record
}

func (e *testEnv) fundAdminVault(t *testing.T, amount uint64) {
	e.adminVault = e.deposit(t, e.adminVault.Address, e.admin, amount)
}

func (e *testEnv) externalBalance(t *testing.T, address string) uint64 {
	balance, err := e.tokens.GetBalance(e.ctx, address)
	require.NoError(t, err)
	return balance
}

func (e *testEnv) getVault(t *testing.T, address string) *vault.Record {
	record, err := e.engine.GetVaultByAddress(e.ctx, address)
	require.NoError(t, err)
	return record
}

func (e *testEnv) distribute(destination string) (*DistributeInterestResult, error) {
	return e.engine.DistributeInterest(e.ctx, &DistributeInterestArgs{
		ProgramInfo:      e.programInfo.Address,
		AdminVault:       e.adminVault.Address,
		DestinationVault: destination,
	})
}

func publicOnly(t *testing.T, account *common.Account) *common.Account {
	public, err := common.NewAccountFromPublicKey(account.PublicKey())
	require.NoError(t, err)
	return public
}
