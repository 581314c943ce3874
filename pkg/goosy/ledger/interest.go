package ledger

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/interest"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
)

type DistributeInterestArgs struct {
	ProgramInfo      string
	AdminVault       string
	DestinationVault string
}

type DistributeInterestResult struct {
	Interest uint64

	AdminVault       *vault.Record
	DestinationVault *vault.Record
}

// DistributeInterest pays a user vault 1% of its external balance out of the
// admin vault. The destination vault must be at least a month old.
func (e *Engine) DistributeInterest(ctx context.Context, args *DistributeInterestArgs) (result *DistributeInterestResult, err error) {
	end := startTransition(ctx, "DistributeInterest")
	defer func() { end(err) }()

	log := e.log.WithFields(logrus.Fields{
		"method":      "DistributeInterest",
		"admin_vault": args.AdminVault,
		"destination": args.DestinationVault,
	})

	unlock := e.locks.LockAll(args.AdminVault, args.DestinationVault)
	defer unlock()

	var amount uint64
	var admin, destination *vault.Record
	err = e.inTx(ctx, func(ctx context.Context) error {
		programInfo, err := e.getProgramInfo(ctx)
		if err != nil {
			return err
		}
		if programInfo.Address != args.ProgramInfo {
			return ErrAddressDerivationMismatch
		}

		admin, err = e.getAdminVault(ctx, args.AdminVault)
		if err != nil {
			return err
		}

		destination, err = e.getVault(ctx, args.DestinationVault)
		if err != nil {
			return err
		}
		if destination.IsAdmin() {
			return ErrAddressDerivationMismatch
		}

		if admin.Owner != programInfo.Admin {
			return ErrInvalidOwner
		}

		if destination.Mint != admin.Mint {
			return ErrInvalidAssetType
		}

		destinationBalance, err := e.getExternalBalance(ctx, destination.ExternalAccount)
		if err != nil {
			return err
		}

		amount = interest.CalculateInterest(destinationBalance)

		adminBalance, err := e.getExternalBalance(ctx, admin.ExternalAccount)
		if err != nil {
			return err
		}

		if adminBalance < amount {
			log.WithField("admin_balance", adminBalance).Debug("admin vault cannot cover interest")
			return ErrInsufficientBalance
		}

		if !interest.IsEligible(destination.CreationDate, e.clock.Now()) {
			return ErrInterestNotAccruedYet
		}

		adminAuthority, err := vaultAuthority(admin)
		if err != nil {
			return err
		}

		log.WithFields(logrus.Fields{
			"interest":            amount,
			"admin_balance":       adminBalance,
			"destination_balance": destinationBalance,
		}).Trace("balances before transfer")

		err = e.tokens.TransferChecked(ctx, &token.TransferCheckedArgs{
			Source:      admin.ExternalAccount,
			Destination: destination.ExternalAccount,
			Mint:        admin.Mint,
			Amount:      amount,
			Decimals:    vault_program.TokenDecimals,
			Authority:   token.ProgramSigner(adminAuthority),
		})
		if err != nil {
			return toLedgerError(err)
		}

		if err := e.saveBalance(ctx, destination, destination.TotalBalance+amount); err != nil {
			return err
		}
		if err := e.saveBalance(ctx, admin, debit(admin.TotalBalance, amount)); err != nil {
			return err
		}

		e.logBalancesAfter(ctx, log, admin.ExternalAccount, destination.ExternalAccount)
		return nil
	})
	if err != nil {
		log.WithError(err).Debug("interest not distributed")
		return nil, err
	}

	return &DistributeInterestResult{
		Interest:         amount,
		AdminVault:       admin.Clone(),
		DestinationVault: destination.Clone(),
	}, nil
}
