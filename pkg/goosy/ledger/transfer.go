package ledger

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
)

type DepositArgs struct {
	Vault string

	// Source is the depositor's token account
	Source string

	Amount uint64

	// Depositor owns Source and must be a signer
	Depositor *common.Account
}

// Deposit moves tokens from the depositor into the vault's external account
// and credits the vault's total balance.
func (e *Engine) Deposit(ctx context.Context, args *DepositArgs) (record *vault.Record, err error) {
	end := startTransition(ctx, "Deposit")
	defer func() { end(err) }()

	log := e.log.WithFields(logrus.Fields{
		"method": "Deposit",
		"vault":  args.Vault,
		"source": args.Source,
		"amount": args.Amount,
	})

	unlock := e.locks.LockAll(args.Vault)
	defer unlock()

	err = e.inTx(ctx, func(ctx context.Context) error {
		record, err = e.getVault(ctx, args.Vault)
		if err != nil {
			return err
		}

		source, err := e.tokens.GetAccount(ctx, args.Source)
		if err != nil {
			return toLedgerError(err)
		}

		if source.Mint != record.Mint {
			return ErrInvalidAssetType
		}

		if args.Depositor == nil || args.Depositor.VerifySigner() != nil {
			return ErrInvalidOwner
		}
		if source.Owner != args.Depositor.PublicKey().ToBase58() {
			return ErrInvalidOwner
		}

		if source.Amount < args.Amount {
			return ErrInsufficientBalance
		}

		destinationBalance, err := e.getExternalBalance(ctx, record.ExternalAccount)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"source_balance":      source.Amount,
			"destination_balance": destinationBalance,
		}).Trace("balances before transfer")

		err = e.tokens.TransferChecked(ctx, &token.TransferCheckedArgs{
			Source:      args.Source,
			Destination: record.ExternalAccount,
			Mint:        record.Mint,
			Amount:      args.Amount,
			Decimals:    vault_program.TokenDecimals,
			Authority:   token.ExternalSigner(args.Depositor),
		})
		if err != nil {
			return toLedgerError(err)
		}

		if err := e.saveBalance(ctx, record, record.TotalBalance+args.Amount); err != nil {
			return err
		}

		e.logBalancesAfter(ctx, log, args.Source, record.ExternalAccount)
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("deposit rejected")
		return nil, err
	}

	return record.Clone(), nil
}

type WithdrawArgs struct {
	Vault string

	// Destination is the token account receiving the tokens
	Destination string

	Amount uint64

	// Requester must be the vault owner and a signer
	Requester *common.Account
}

// Withdraw moves tokens out of the vault's external account and debits the
// vault's total balance. Both balances must cover the amount.
func (e *Engine) Withdraw(ctx context.Context, args *WithdrawArgs) (record *vault.Record, err error) {
	end := startTransition(ctx, "Withdraw")
	defer func() { end(err) }()

	log := e.log.WithFields(logrus.Fields{
		"method":      "Withdraw",
		"vault":       args.Vault,
		"destination": args.Destination,
		"amount":      args.Amount,
	})

	unlock := e.locks.LockAll(args.Vault)
	defer unlock()

	err = e.inTx(ctx, func(ctx context.Context) error {
		record, err = e.getVault(ctx, args.Vault)
		if err != nil {
			return err
		}

		if args.Requester == nil || args.Requester.VerifySigner() != nil {
			return ErrInvalidOwner
		}
		if args.Requester.PublicKey().ToBase58() != record.Owner {
			return ErrInvalidOwner
		}

		destination, err := e.tokens.GetAccount(ctx, args.Destination)
		if err != nil {
			return toLedgerError(err)
		}

		if destination.Mint != record.Mint {
			return ErrInvalidAssetType
		}

		// The admin vault's external account is owned by its derivation
		// address, so the program signs once the owner is verified.
		signer := token.ExternalSigner(args.Requester)
		if record.IsAdmin() {
			authority, err := vaultAuthority(record)
			if err != nil {
				return err
			}
			signer = token.ProgramSigner(authority)
		}

		externalBalance, err := e.getExternalBalance(ctx, record.ExternalAccount)
		if err != nil {
			return err
		}

		if record.TotalBalance < args.Amount || externalBalance < args.Amount {
			log.WithFields(logrus.Fields{
				"total_balance":    record.TotalBalance,
				"external_balance": externalBalance,
			}).Debug("insufficient balance")
			return ErrInsufficientBalance
		}

		err = e.tokens.TransferChecked(ctx, &token.TransferCheckedArgs{
			Source:      record.ExternalAccount,
			Destination: args.Destination,
			Mint:        record.Mint,
			Amount:      args.Amount,
			Decimals:    vault_program.TokenDecimals,
			Authority:   signer,
		})
		if err != nil {
			return toLedgerError(err)
		}

		return e.saveBalance(ctx, record, debit(record.TotalBalance, args.Amount))
	})
	if err != nil {
		log.WithError(err).Debug("withdrawal rejected")
		return nil, err
	}

	return record.Clone(), nil
}

type MintArgs struct {
	AdminVault       string
	DestinationVault string

	Amount uint64

	// Authority must be the admin vault's derivation proof
	Authority *vault_program.Authority
}

// Mint creates new tokens in the destination vault's external account, signed
// by the admin vault. Neither vault's total balance changes.
func (e *Engine) Mint(ctx context.Context, args *MintArgs) (err error) {
	end := startTransition(ctx, "Mint")
	defer func() { end(err) }()

	log := e.log.WithFields(logrus.Fields{
		"method":      "Mint",
		"admin_vault": args.AdminVault,
		"destination": args.DestinationVault,
		"amount":      args.Amount,
	})

	unlock := e.locks.LockAll(args.AdminVault, args.DestinationVault)
	defer unlock()

	err = e.inTx(ctx, func(ctx context.Context) error {
		admin, err := e.getAdminVault(ctx, args.AdminVault)
		if err != nil {
			return err
		}

		if args.Authority == nil || args.Authority.Verify() != nil {
			return ErrAddressDerivationMismatch
		}
		if !args.Authority.Controls(admin.Address) {
			return ErrInvalidOwner
		}

		destination, err := e.getVault(ctx, args.DestinationVault)
		if err != nil {
			return err
		}

		if destination.Mint != admin.Mint {
			return ErrInvalidAssetType
		}

		err = e.tokens.MintTo(ctx, &token.MintToArgs{
			Mint:        destination.Mint,
			Destination: destination.ExternalAccount,
			Amount:      args.Amount,
			Authority:   token.ProgramSigner(args.Authority),
		})
		if err != nil {
			return toLedgerError(err)
		}

		e.logBalancesAfter(ctx, log, destination.ExternalAccount)
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("mint rejected")
		return err
	}
	return nil
}

func (e *Engine) logBalancesAfter(ctx context.Context, log *logrus.Entry, accounts ...string) {
	if !log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		return
	}

	fields := logrus.Fields{}
	for _, account := range accounts {
		balance, err := e.tokens.GetBalance(ctx, account)
		if err != nil {
			continue
		}
		fields[account] = balance
	}
	log.WithFields(fields).Trace("balances after transfer")
}

// toLedgerError maps token client failures onto ledger errors
func toLedgerError(err error) error {
	switch err {
	case token.ErrInsufficientFunds:
		return ErrInsufficientBalance
	case token.ErrMintMismatch, token.ErrDecimalsMismatch, token.ErrMintNotFound:
		return ErrInvalidAssetType
	case token.ErrOwnerMismatch, token.ErrInvalidAuthority:
		return ErrInvalidOwner
	case token.ErrAccountNotFound:
		return ErrTokenAccountNotFound
	}
	return err
}
