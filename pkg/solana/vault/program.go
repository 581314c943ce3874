package vault_program

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58/base58"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("5wsNMDzsM3RepTN9Z2A4DCJViqXE8o3KbFJfa3t5hmZh")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

// TokenDecimals is the number of decimals the vaulted token mint is expected
// to have. Checked transfers are rejected when the mint disagrees.
const TokenDecimals = 6

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
