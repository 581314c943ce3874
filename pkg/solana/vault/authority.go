package vault_program

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58/base58"

	"github.com/goosy-labs/goosy-vault/pkg/solana"
)

var (
	ErrInvalidAuthority = errors.New("authority address does not match its derivation")
)

// Authority is a program derived address acting as a signer. It carries the
// seeds and bump needed to prove the program controls the address, much like
// invoke_signed does on chain.
type Authority struct {
	Address ed25519.PublicKey
	Bump    uint8

	seeds [][]byte
}

// NewProgramInfoAuthority derives the authority for the program info record
func NewProgramInfoAuthority() (*Authority, error) {
	return deriveAuthority(programInfoPrefix)
}

// NewAdminVaultAuthority derives the authority for the admin vault
func NewAdminVaultAuthority() (*Authority, error) {
	return deriveAuthority(adminVaultPrefix)
}

// NewVaultAuthority derives the authority for the vault at the index
func NewVaultAuthority(index uint32) (*Authority, error) {
	return deriveAuthority(vaultPrefix, encodeIndex(index))
}

// AdminVaultAuthority builds an unverified admin vault authority from a stored
// address and bump. Call Verify before trusting it.
func AdminVaultAuthority(address ed25519.PublicKey, bump uint8) *Authority {
	return &Authority{
		Address: address,
		Bump:    bump,
		seeds:   [][]byte{adminVaultPrefix},
	}
}

// VaultAuthority builds an unverified vault authority from a stored address,
// index and bump. Call Verify before trusting it.
func VaultAuthority(address ed25519.PublicKey, index uint32, bump uint8) *Authority {
	return &Authority{
		Address: address,
		Bump:    bump,
		seeds:   [][]byte{vaultPrefix, encodeIndex(index)},
	}
}

// ProgramInfoAuthority builds an unverified program info authority from a
// stored address and bump. Call Verify before trusting it.
func ProgramInfoAuthority(address ed25519.PublicKey, bump uint8) *Authority {
	return &Authority{
		Address: address,
		Bump:    bump,
		seeds:   [][]byte{programInfoPrefix},
	}
}

func deriveAuthority(seeds ...[]byte) (*Authority, error) {
	address, bump, err := solana.FindProgramAddressAndBump(PROGRAM_ID, seeds...)
	if err != nil {
		return nil, err
	}

	return &Authority{
		Address: address,
		Bump:    bump,
		seeds:   seeds,
	}, nil
}

// PublicKey returns the base58 encoded address
func (a *Authority) PublicKey() string {
	return base58.Encode(a.Address)
}

// Seeds returns the signer seeds, including the bump
func (a *Authority) Seeds() [][]byte {
	seeds := make([][]byte, 0, len(a.seeds)+1)
	for _, seed := range a.seeds {
		seeds = append(seeds, append([]byte{}, seed...))
	}
	return append(seeds, []byte{a.Bump})
}

// Verify recomputes the address from the seeds and bump
func (a *Authority) Verify() error {
	ok, err := solana.VerifyProgramAddress(a.Address, PROGRAM_ID, a.Bump, a.seeds...)
	if err != nil || !ok {
		return ErrInvalidAuthority
	}
	return nil
}

// Controls returns whether the verified authority is the provided base58
// encoded address.
func (a *Authority) Controls(address string) bool {
	if a.Verify() != nil {
		return false
	}
	return a.PublicKey() == address
}
