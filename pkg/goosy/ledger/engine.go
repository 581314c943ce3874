// Package ledger implements the vault accounting state machine. Every
// transition evaluates all of its preconditions before mutating anything, and
// applies the external token movement together with the mirrored vault
// balances in a single database transaction.
package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mr-tron/base58/base58"
	"github.com/sirupsen/logrus"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	"github.com/goosy-labs/goosy-vault/pkg/metrics"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
	"github.com/goosy-labs/goosy-vault/pkg/sync"
)

const (
	metricsStructName = "ledger.engine"

	lockStripes = 1024
)

// Engine executes ledger transitions against the durable ledger state
type Engine struct {
	log    *logrus.Entry
	data   data.DatabaseData
	tokens *token.Client
	clock  clockwork.Clock

	// Serializes transitions touching the same record address within this
	// process. Optimistic record versions cover the rest.
	locks *sync.StripedLock
}

func New(data data.DatabaseData, tokens *token.Client, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Engine{
		log:    logrus.StandardLogger().WithField("type", "ledger/engine"),
		data:   data,
		tokens: tokens,
		clock:  clock,
		locks:  sync.NewStripedLock(lockStripes),
	}
}

func (e *Engine) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return e.data.ExecuteInTx(ctx, sql.LevelDefault, fn)
}

// startTransition starts tracing a named transition. The returned function
// records the outcome and must be deferred with the transition's error.
func startTransition(ctx context.Context, name string) func(err error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, name)
	start := time.Now()

	return func(err error) {
		tracer.OnError(err)
		tracer.End()

		metrics.LedgerTransitionsTotal.WithLabelValues(name, statusOf(err)).Inc()
		metrics.LedgerTransitionDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}

// getProgramInfo loads the program info record at its derived address and
// verifies the stored bump.
func (e *Engine) getProgramInfo(ctx context.Context) (*programinfo.Record, error) {
	authority, err := vault_program.NewProgramInfoAuthority()
	if err != nil {
		return nil, err
	}

	record, err := e.data.GetProgramInfo(ctx, authority.PublicKey())
	if err == programinfo.ErrProgramInfoNotFound {
		return nil, ErrProgramNotInitialized
	} else if err != nil {
		return nil, err
	}

	if record.Bump != authority.Bump {
		return nil, ErrAddressDerivationMismatch
	}
	return record, nil
}

func (e *Engine) getVault(ctx context.Context, address string) (*vault.Record, error) {
	record, err := e.data.GetVaultByAddress(ctx, address)
	if err == vault.ErrVaultNotFound {
		return nil, ErrVaultNotFound
	} else if err != nil {
		return nil, err
	}

	if _, err := vaultAuthority(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (e *Engine) getAdminVault(ctx context.Context, address string) (*vault.Record, error) {
	record, err := e.getVault(ctx, address)
	if err == ErrVaultNotFound {
		return nil, ErrAdminVaultNotFound
	} else if err != nil {
		return nil, err
	}

	if !record.IsAdmin() {
		return nil, ErrAddressDerivationMismatch
	}
	return record, nil
}

// vaultAuthority rebuilds the derivation proof for a stored vault and checks
// it still yields the vault's address.
func vaultAuthority(record *vault.Record) (*vault_program.Authority, error) {
	address, err := base58.Decode(record.Address)
	if err != nil {
		return nil, ErrAddressDerivationMismatch
	}

	var authority *vault_program.Authority
	switch record.Type {
	case vault.TypeAdmin:
		authority = vault_program.AdminVaultAuthority(address, record.Bump)
	case vault.TypeUser:
		authority = vault_program.VaultAuthority(address, record.Index, record.Bump)
	default:
		return nil, ErrAddressDerivationMismatch
	}

	if err := authority.Verify(); err != nil {
		return nil, ErrAddressDerivationMismatch
	}
	return authority, nil
}

func (e *Engine) getExternalBalance(ctx context.Context, address string) (uint64, error) {
	balance, err := e.tokens.GetBalance(ctx, address)
	if err == token.ErrAccountNotFound {
		return 0, ErrTokenAccountNotFound
	}
	return balance, err
}

// saveBalance persists a mirrored balance change, guarded by the version read
// earlier in the same transition.
func (e *Engine) saveBalance(ctx context.Context, record *vault.Record, balance uint64) error {
	record.TotalBalance = balance
	err := e.data.UpdateVault(ctx, record)
	if err == vault.ErrStaleVersion {
		e.log.WithField("vault", record.Address).Warn("vault changed during transition")
	}
	return err
}

// debit lowers a mirrored balance, clamping at zero
func debit(balance, amount uint64) uint64 {
	if balance < amount {
		return 0
	}
	return balance - amount
}
