package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
)

type InitializeProgramArgs struct {
	// Admin becomes the program admin. It must be a signer.
	Admin *common.Account
}

// InitializeProgram creates the program info singleton with no vaults
func (e *Engine) InitializeProgram(ctx context.Context, args *InitializeProgramArgs) (record *programinfo.Record, err error) {
	end := startTransition(ctx, "InitializeProgram")
	defer func() { end(err) }()

	if args.Admin == nil || args.Admin.VerifySigner() != nil {
		return nil, ErrInvalidOwner
	}

	authority, err := vault_program.NewProgramInfoAuthority()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving program info address")
	}

	log := e.log.WithFields(logrus.Fields{
		"method":       "InitializeProgram",
		"program_info": authority.PublicKey(),
		"admin":        args.Admin.PublicKey().ToBase58(),
	})

	unlock := e.locks.LockAll(authority.PublicKey())
	defer unlock()

	record = &programinfo.Record{
		Address:     authority.PublicKey(),
		Bump:        authority.Bump,
		Admin:       args.Admin.PublicKey().ToBase58(),
		VaultsCount: 0,
		CreatedAt:   e.clock.Now(),
	}

	err = e.inTx(ctx, func(ctx context.Context) error {
		return e.data.CreateProgramInfo(ctx, record)
	})
	if err == programinfo.ErrProgramInfoExists {
		return nil, ErrAlreadyInitialized
	} else if err != nil {
		log.WithError(err).Warn("failure creating program info")
		return nil, err
	}

	log.Debug("program initialized")
	return record.Clone(), nil
}

type CreateVaultArgs struct {
	// Owner is the only account allowed to withdraw. It must be a signer.
	Owner *common.Account

	// ExternalAccount is the token account whose balance the vault mirrors
	ExternalAccount string

	// Mint is the asset type held by the vault
	Mint string
}

// CreateVault creates a user vault at the next free index
func (e *Engine) CreateVault(ctx context.Context, args *CreateVaultArgs) (record *vault.Record, err error) {
	end := startTransition(ctx, "CreateVault")
	defer func() { end(err) }()

	if args.Owner == nil || args.Owner.VerifySigner() != nil {
		return nil, ErrInvalidOwner
	}

	programInfoAuthority, err := vault_program.NewProgramInfoAuthority()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving program info address")
	}

	log := e.log.WithFields(logrus.Fields{
		"method":           "CreateVault",
		"owner":            args.Owner.PublicKey().ToBase58(),
		"external_account": args.ExternalAccount,
		"mint":             args.Mint,
	})

	// The next index is claimed through the program info record, so creations
	// are serialized on it.
	unlock := e.locks.LockAll(programInfoAuthority.PublicKey())
	defer unlock()

	err = e.inTx(ctx, func(ctx context.Context) error {
		programInfo, err := e.getProgramInfo(ctx)
		if err != nil {
			return err
		}

		if err := e.checkExternalAccount(ctx, args.ExternalAccount, args.Mint); err != nil {
			return err
		}

		authority, err := vault_program.NewVaultAuthority(programInfo.VaultsCount)
		if err != nil {
			return errors.Wrap(err, "error deriving vault address")
		}

		record = &vault.Record{
			Address:         authority.PublicKey(),
			Bump:            authority.Bump,
			Type:            vault.TypeUser,
			Index:           programInfo.VaultsCount,
			Owner:           args.Owner.PublicKey().ToBase58(),
			ExternalAccount: args.ExternalAccount,
			Mint:            args.Mint,
			TotalBalance:    0,
			CreationDate:    e.clock.Now(),
		}

		err = e.data.CreateVault(ctx, record)
		if err == vault.ErrVaultExists {
			return ErrAlreadyInitialized
		} else if err != nil {
			return err
		}

		err = e.data.IncrementVaultsCount(ctx, programInfo.Address, programInfo.VaultsCount)
		if err == programinfo.ErrStaleProgramInfo {
			log.Warn("vaults count changed during vault creation")
		}
		return err
	})
	if err != nil {
		log.WithError(err).Debug("vault not created")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"vault": record.Address,
		"index": record.Index,
	}).Debug("vault created")
	return record.Clone(), nil
}

type CreateAdminVaultArgs struct {
	// Owner must match the program admin for interest distribution to
	// succeed. It must be a signer.
	Owner *common.Account

	// ExternalAccount is the token account funding interest. It should be
	// owned by the admin vault address so the program can sign for it.
	ExternalAccount string

	// Mint is the asset type held by the vault
	Mint string
}

// CreateAdminVault creates the admin vault at its fixed address. It does not
// consume a vault index.
func (e *Engine) CreateAdminVault(ctx context.Context, args *CreateAdminVaultArgs) (record *vault.Record, err error) {
	end := startTransition(ctx, "CreateAdminVault")
	defer func() { end(err) }()

	if args.Owner == nil || args.Owner.VerifySigner() != nil {
		return nil, ErrInvalidOwner
	}

	authority, err := vault_program.NewAdminVaultAuthority()
	if err != nil {
		return nil, errors.Wrap(err, "error deriving admin vault address")
	}

	log := e.log.WithFields(logrus.Fields{
		"method":           "CreateAdminVault",
		"vault":            authority.PublicKey(),
		"owner":            args.Owner.PublicKey().ToBase58(),
		"external_account": args.ExternalAccount,
		"mint":             args.Mint,
	})

	unlock := e.locks.LockAll(authority.PublicKey())
	defer unlock()

	err = e.inTx(ctx, func(ctx context.Context) error {
		if _, err := e.getProgramInfo(ctx); err != nil {
			return err
		}

		_, err := e.data.GetAdminVault(ctx)
		if err == nil {
			return ErrAlreadyInitialized
		} else if err != vault.ErrVaultNotFound {
			return err
		}

		if err := e.checkExternalAccount(ctx, args.ExternalAccount, args.Mint); err != nil {
			return err
		}

		record = &vault.Record{
			Address:         authority.PublicKey(),
			Bump:            authority.Bump,
			Type:            vault.TypeAdmin,
			Owner:           args.Owner.PublicKey().ToBase58(),
			ExternalAccount: args.ExternalAccount,
			Mint:            args.Mint,
			TotalBalance:    0,
			CreationDate:    e.clock.Now(),
		}

		err = e.data.CreateVault(ctx, record)
		if err == vault.ErrVaultExists {
			return ErrAlreadyInitialized
		}
		return err
	})
	if err != nil {
		log.WithError(err).Debug("admin vault not created")
		return nil, err
	}

	log.Debug("admin vault created")
	return record.Clone(), nil
}

// checkExternalAccount requires the token account to exist and hold mint
func (e *Engine) checkExternalAccount(ctx context.Context, address, mint string) error {
	account, err := e.tokens.GetAccount(ctx, address)
	if err == token.ErrAccountNotFound {
		return ErrTokenAccountNotFound
	} else if err != nil {
		return err
	}

	if account.Mint != mint {
		return ErrInvalidAssetType
	}
	return nil
}
