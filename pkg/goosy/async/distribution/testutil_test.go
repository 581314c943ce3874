package async_distribution

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/interest"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/ledger"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	"github.com/goosy-labs/goosy-vault/pkg/lock"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
	"github.com/goosy-labs/goosy-vault/pkg/testutil"
)

type testEnv struct {
	ctx    context.Context
	clock  *clockwork.FakeClock
	tokens *token.Client
	engine *ledger.Engine

	mint           string
	admin          *common.Account
	adminAuthority *vault_program.Authority
	adminVault     *vault.Record
}

// setupUninitialized creates the engine and a mint controlled by the admin
// vault address
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
		tokens:         tokens,
		engine:         ledger.New(db, tokens, clock),
		mint:           testutil.NewRandomAccount(t).PublicKey().ToBase58(),
		admin:          testutil.NewRandomAccount(t),
		adminAuthority: adminAuthority,
	}

	_, err = tokens.CreateMint(ctx, env.mint, adminAuthority.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)

	return env
}

// setup initializes the program and creates a funded admin vault
func setup(t *testing.T, adminFunds uint64) *testEnv {
	env := setupUninitialized(t)

	_, err := env.engine.InitializeProgram(env.ctx, &ledger.InitializeProgramArgs{
		Admin: env.admin,
	})
	require.NoError(t, err)

	adminVault, err := env.engine.CreateAdminVault(env.ctx, &ledger.CreateAdminVaultArgs{
		Owner:           env.admin,
		ExternalAccount: env.newTokenAccount(t, env.adminAuthority.PublicKey(), 0),
		Mint:            env.mint,
	})
	require.NoError(t, err)
	env.adminVault = adminVault

	if adminFunds > 0 {
		env.adminVault = env.deposit(t, adminVault.Address, env.admin, adminFunds)
	}
	return env
}

func (e *testEnv) newService(t *testing.T, locks lock.Manager, overrides *testOverrides) *service {
	return New(e.engine, locks, withManualTestOverrides(overrides)).(*service)
}

func (e *testEnv) newTokenAccount(t *testing.T, owner string, amount uint64) string {
	address := testutil.NewRandomAccount(t).PublicKey().ToBase58()

	_, err := e.tokens.CreateAccount(e.ctx, address, e.mint, owner)
	require.NoError(t, err)

	if amount > 0 {
		require.NoError(t, e.tokens.MintTo(e.ctx, &token.MintToArgs{
			Mint:        e.mint,
			Destination: address,
			Amount:      amount,
			Authority:   token.ProgramSigner(e.adminAuthority),
		}))
	}
	return address
}

// newVault creates a user vault holding balance
func (e *testEnv) newVault(t *testing.T, balance uint64) *vault.Record {
	owner := testutil.NewRandomAccount(t)

	record, err := e.engine.CreateVault(e.ctx, &ledger.CreateVaultArgs{
		Owner:           owner,
		ExternalAccount: e.newTokenAccount(t, owner.PublicKey().ToBase58(), 0),
		Mint:            e.mint,
	})
	require.NoError(t, err)

	if balance > 0 {
		record = e.deposit(t, record.Address, owner, balance)
	}
	return record
}

func (e *testEnv) deposit(t *testing.T, address string, owner *common.Account, amount uint64) *vault.Record {
	record, err := e.engine.Deposit(e.ctx, &ledger.DepositArgs{
		Vault:     address,
		Source:    e.newTokenAccount(t, owner.PublicKey().ToBase58(), amount),
		Amount:    amount,
		Depositor: owner,
	})
	require.NoError(t, err)
	return record
}

func (e *testEnv) accrue() {
	e.clock.Advance(interest.OneMonth)
}

func (e *testEnv) getVault(t *testing.T, address string) *vault.Record {
	record, err := e.engine.GetVaultByAddress(e.ctx, address)
	require.NoError(t, err)
	return record
}

func (e *testEnv) externalBalance(t *testing.T, record *vault.Record) uint64 {
	balance, err := e.engine.GetExternalBalance(e.ctx, record)
	require.NoError(t, err)
	return balance
}

// assertReconciled checks every vault's mirrored balance matches its
// external token account
func (e *testEnv) assertReconciled(t *testing.T, records ...*vault.Record) {
	for _, record := range append(records, e.adminVault) {
		actual := e.getVault(t, record.Address)
		require.Equal(t, e.externalBalance(t, actual), actual.TotalBalance, "vault %s", actual.Address)
	}
}

// mismatchedLedger reports every user vault at the wrong index
type mismatchedLedger struct {
	*ledger.Engine
}

func (l *mismatchedLedger) GetVaultByAddress(ctx context.Context, address string) (*vault.Record, error) {
	record, err := l.Engine.GetVaultByAddress(ctx, address)
	if err != nil {
		return nil, err
	}
	record.Index++
	return record, nil
}

// recordingLedger records the destination of every distribution in call order
type recordingLedger struct {
	*ledger.Engine

	mu           sync.Mutex
	destinations []string
}

func (l *recordingLedger) DistributeInterest(ctx context.Context, args *ledger.DistributeInterestArgs) (*ledger.DistributeInterestResult, error) {
	l.mu.Lock()
	l.destinations = append(l.destinations, args.DestinationVault)
	l.mu.Unlock()

	return l.Engine.DistributeInterest(ctx, args)
}

func (l *recordingLedger) calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.destinations...)
}
