package vault_program

import (
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/solana"
)

func TestGetVaultAddress_Deterministic(t *testing.T) {
	first, firstBump, err := GetVaultAddress(&GetVaultAddressArgs{Index: 7})
	require.NoError(t, err)

	second, secondBump, err := GetVaultAddress(&GetVaultAddressArgs{Index: 7})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, firstBump, secondBump)
}

func TestGetVaultAddress_Injective(t *testing.T) {
	seen := make(map[string]uint32)
	for i := uint32(0); i < 512; i++ {
		address, _, err := GetVaultAddress(&GetVaultAddressArgs{Index: i})
		require.NoError(t, err)

		encoded := base58.Encode(address)
		previous, ok := seen[encoded]
		require.False(t, ok, "index %d collides with index %d", i, previous)
		seen[encoded] = i
	}
}

func TestGetVaultAddress_MatchesRawDerivation(t *testing.T) {
	for _, index := range []uint32{0, 1, 255, 256, 1 << 24} {
		expected, expectedBump, err := solana.FindProgramAddressAndBump(
			PROGRAM_ID,
			[]byte("vault"),
			[]byte{byte(index >> 24), byte(index >> 16), byte(index >> 8), byte(index)},
		)
		require.NoError(t, err)

		actual, bump, err := GetVaultAddress(&GetVaultAddressArgs{Index: index})
		require.NoError(t, err)
		assert.Equal(t, expected, actual)
		assert.Equal(t, expectedBump, bump)
	}
}

func TestNamespacesDoNotCollide(t *testing.T) {
	programInfo, _, err := GetProgramInfoAddress()
	require.NoError(t, err)

	adminVault, _, err := GetAdminVaultAddress()
	require.NoError(t, err)

	vault, _, err := GetVaultAddress(&GetVaultAddressArgs{Index: 0})
	require.NoError(t, err)

	assert.NotEqual(t, programInfo, adminVault)
	assert.NotEqual(t, programInfo, vault)
	assert.NotEqual(t, adminVault, vault)
}
