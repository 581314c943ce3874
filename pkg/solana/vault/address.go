package vault_program

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/goosy-labs/goosy-vault/pkg/solana"
)

var (
	programInfoPrefix = []byte("program_info")
	adminVaultPrefix  = []byte("admin-vault")
	vaultPrefix       = []byte("vault")
)

type GetVaultAddressArgs struct {
	Index uint32
}

func GetProgramInfoAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		programInfoPrefix,
	)
}

func GetAdminVaultAddress() (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		adminVaultPrefix,
	)
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		PROGRAM_ID,
		vaultPrefix,
		encodeIndex(args.Index),
	)
}

func encodeIndex(index uint32) []byte {
	var encoded [4]byte
	binary.BigEndian.PutUint32(encoded[:], index)
	return encoded[:]
}
