package ledger

import (
	"context"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
)

// Reader is the read only view of the ledger used to enumerate and inspect
// vaults. Vaults are located by recomputing their addresses, never through a
// stored index.
type Reader interface {
	GetProgramInfo(ctx context.Context) (*programinfo.Record, error)

	GetVaultsCount(ctx context.Context) (uint32, error)

	// GetVault gets the user vault at the index by deriving its address
	GetVault(ctx context.Context, index uint32) (*vault.Record, error)

	GetVaultByAddress(ctx context.Context, address string) (*vault.Record, error)

	GetAdminVault(ctx context.Context) (*vault.Record, error)

	// GetExternalBalance gets the balance of the vault's external token account
	GetExternalBalance(ctx context.Context, record *vault.Record) (uint64, error)
}

// GetProgramInfo implements Reader.GetProgramInfo
func (e *Engine) GetProgramInfo(ctx context.Context) (*programinfo.Record, error) {
	return e.getProgramInfo(ctx)
}

// GetVaultsCount implements Reader.GetVaultsCount
func (e *Engine) GetVaultsCount(ctx context.Context) (uint32, error) {
	programInfo, err := e.getProgramInfo(ctx)
	if err != nil {
		return 0, err
	}
	return programInfo.VaultsCount, nil
}

// GetVault implements Reader.GetVault
func (e *Engine) GetVault(ctx context.Context, index uint32) (*vault.Record, error) {
	address, _, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{
		Index: index,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "error deriving address for vault %d", index)
	}

	record, err := e.getVault(ctx, base58.Encode(address))
	if err != nil {
		return nil, err
	}

	if record.IsAdmin() || record.Index != index {
		return nil, ErrAddressDerivationMismatch
	}
	return record, nil
}

// GetVaultByAddress implements Reader.GetVaultByAddress
func (e *Engine) GetVaultByAddress(ctx context.Context, address string) (*vault.Record, error) {
	return e.getVault(ctx, address)
}

// GetAdminVault implements Reader.GetAdminVault
func (e *Engine) GetAdminVault(ctx context.Context) (*vault.Record, error) {
	address, _, err := vault_program.GetAdminVaultAddress()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving admin vault address")
	}
	return e.getAdminVault(ctx, base58.Encode(address))
}

// GetExternalBalance implements Reader.GetExternalBalance
func (e *Engine) GetExternalBalance(ctx context.Context, record *vault.Record) (uint64, error) {
	return e.getExternalBalance(ctx, record.ExternalAccount)
}
