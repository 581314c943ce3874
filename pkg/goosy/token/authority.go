package token

import (
	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
)

// Authority signs for token operations. It's either an external signer
// holding a private key, or a program derived address proving control with
// its seeds.
type Authority interface {
	// Address is the base58 encoded public key of the signer
	Address() string

	// Verify proves the signer controls Address
	Verify() error
}

type externalSigner struct {
	account *common.Account
}

// ExternalSigner returns an Authority for an account holding a private key
func ExternalSigner(account *common.Account) Authority {
	return &externalSigner{account: account}
}

func (s *externalSigner) Address() string {
	return s.account.PublicKey().ToBase58()
}

func (s *externalSigner) Verify() error {
	return s.account.VerifySigner()
}

type programSigner struct {
	authority *vault_program.Authority
}

// ProgramSigner returns an Authority for a program derived address
func ProgramSigner(authority *vault_program.Authority) Authority {
	return &programSigner{authority: authority}
}

func (s *programSigner) Address() string {
	return s.authority.PublicKey()
}

func (s *programSigner) Verify() error {
	return s.authority.Verify()
}
