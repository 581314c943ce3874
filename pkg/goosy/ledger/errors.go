package ledger

import (
	"errors"
)

var (
	ErrAlreadyInitialized        = errors.New("already initialized")
	ErrInvalidOwner              = errors.New("invalid owner")
	ErrInvalidAssetType          = errors.New("invalid asset type")
	ErrInsufficientBalance       = errors.New("insufficient balance")
	ErrInterestNotAccruedYet     = errors.New("interest not accrued yet")
	ErrAddressDerivationMismatch = errors.New("address derivation mismatch")

	ErrProgramNotInitialized = errors.New("program info is not initialized")
	ErrAdminVaultNotFound    = errors.New("admin vault not found")
	ErrVaultNotFound         = errors.New("vault not found")
	ErrTokenAccountNotFound  = errors.New("token account not found")
)

// statusOf names the outcome of a transition for metrics
func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAlreadyInitialized):
		return "already_initialized"
	case errors.Is(err, ErrInvalidOwner):
		return "invalid_owner"
	case errors.Is(err, ErrInvalidAssetType):
		return "invalid_asset_type"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInterestNotAccruedYet):
		return "interest_not_accrued_yet"
	case errors.Is(err, ErrAddressDerivationMismatch):
		return "address_derivation_mismatch"
	case errors.Is(err, ErrProgramNotInitialized),
		errors.Is(err, ErrAdminVaultNotFound),
		errors.Is(err, ErrVaultNotFound),
		errors.Is(err, ErrTokenAccountNotFound):
		return "not_found"
	}
	return "error"
}
