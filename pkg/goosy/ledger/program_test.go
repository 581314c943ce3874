package ledger

import (
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
	"github.com/goosy-labs/goosy-vault/pkg/testutil"
)

func TestInitializeProgram_HappyPath(t *testing.T) {
	env := setupUninitialized(t)

	_, err := env.engine.GetProgramInfo(env.ctx)
	assert.Equal(t, ErrProgramNotInitialized, err)

	record, err := env.engine.InitializeProgram(env.ctx, &InitializeProgramArgs{
		Admin: env.admin,
	})
	require.NoError(t, err)

	expectedAddress, expectedBump, err := vault_program.GetProgramInfoAddress()
	require.NoError(t, err)

	assert.Equal(t, base58.Encode(expectedAddress), record.Address)
	assert.Equal(t, expectedBump, record.Bump)
	assert.Equal(t, env.admin.PublicKey().ToBase58(), record.Admin)
	assert.EqualValues(t, 0, record.VaultsCount)

	count, err := env.engine.GetVaultsCount(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestInitializeProgram_SecondCallFails(t *testing.T) {
	env := setup(t)

	env.newVault(t)
	env.newVault(t)

	_, err := env.engine.InitializeProgram(env.ctx, &InitializeProgramArgs{
		Admin: testutil.NewRandomAccount(t),
	})
	assert.Equal(t, ErrAlreadyInitialized, err)

	programInfo, err := env.engine.GetProgramInfo(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, programInfo.VaultsCount)
	assert.Equal(t, env.admin.PublicKey().ToBase58(), programInfo.Admin)
}

func TestInitializeProgram_RequiresSigner(t *testing.T) {
	env := setupUninitialized(t)

	_, err := env.engine.InitializeProgram(env.ctx, &InitializeProgramArgs{
		Admin: publicOnly(t, env.admin),
	})
	assert.Equal(t, ErrInvalidOwner, err)

	_, err = env.engine.GetProgramInfo(env.ctx)
	assert.Equal(t, ErrProgramNotInitialized, err)
}

func TestCreateVault_SequentialIndices(t *testing.T) {
	env := setup(t)

	k := 5
	addresses := make(map[string]struct{})
	for i := 0; i < k; i++ {
		record, owner := env.newVault(t)

		expectedAddress, expectedBump, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{
			Index: uint32(i),
		})
		require.NoError(t, err)

		assert.Equal(t, base58.Encode(expectedAddress), record.Address)
		assert.Equal(t, expectedBump, record.Bump)
		assert.EqualValues(t, i, record.Index)
		assert.Equal(t, vault.TypeUser, record.Type)
		assert.Equal(t, owner.PublicKey().ToBase58(), record.Owner)
		assert.Equal(t, env.mint, record.Mint)
		assert.EqualValues(t, 0, record.TotalBalance)
		assert.Equal(t, env.clock.Now().Unix(), record.CreationDate.Unix())

		addresses[record.Address] = struct{}{}
	}
	assert.Len(t, addresses, k)

	count, err := env.engine.GetVaultsCount(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, k, count)

	for i := 0; i < k; i++ {
		record, err := env.engine.GetVault(env.ctx, uint32(i))
		require.NoError(t, err)
		assert.EqualValues(t, i, record.Index)
	}

	_, err = env.engine.GetVault(env.ctx, uint32(k))
	assert.Equal(t, ErrVaultNotFound, err)
}

func TestCreateVault_ProgramNotInitialized(t *testing.T) {
	env := setupUninitialized(t)

	owner := testutil.NewRandomAccount(t)
	_, err := env.engine.CreateVault(env.ctx, &CreateVaultArgs{
		Owner:           owner,
		ExternalAccount: env.newTokenAccount(t, owner.PublicKey().ToBase58(), 0),
		Mint:            env.mint,
	})
	assert.Equal(t, ErrProgramNotInitialized, err)
}

func TestCreateVault_InvalidAssetType(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomAccount(t)
	otherMint := testutil.NewRandomAccount(t).PublicKey().ToBase58()
	_, err := env.tokens.CreateMint(env.ctx, otherMint, env.adminAuthority.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)

	_, err = env.engine.CreateVault(env.ctx, &CreateVaultArgs{
		Owner:           owner,
		ExternalAccount: env.newTokenAccountForMint(t, otherMint, owner.PublicKey().ToBase58(), 0),
		Mint:            env.mint,
	})
	assert.Equal(t, ErrInvalidAssetType, err)

	_, err = env.engine.CreateVault(env.ctx, &CreateVaultArgs{
		Owner:           owner,
		ExternalAccount: "missing",
		Mint:            env.mint,
	})
	assert.Equal(t, ErrTokenAccountNotFound, err)

	count, err := env.engine.GetVaultsCount(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestCreateVault_ExternalAccountAlreadyBound(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)

	_, err := env.engine.CreateVault(env.ctx, &CreateVaultArgs{
		Owner:           owner,
		ExternalAccount: record.ExternalAccount,
		Mint:            env.mint,
	})
	assert.Equal(t, ErrAlreadyInitialized, err)

	count, err := env.engine.GetVaultsCount(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = env.engine.GetVault(env.ctx, 1)
	assert.Equal(t, ErrVaultNotFound, err)
}

func TestCreateVault_RequiresSigner(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomAccount(t)
	_, err := env.engine.CreateVault(env.ctx, &CreateVaultArgs{
		Owner:           publicOnly(t, owner),
		ExternalAccount: env.newTokenAccount(t, owner.PublicKey().ToBase58(), 0),
		Mint:            env.mint,
	})
	assert.Equal(t, ErrInvalidOwner, err)
}

func TestCreateAdminVault(t *testing.T) {
	env := setup(t)

	expectedAddress, expectedBump, err := vault_program.GetAdminVaultAddress()
	require.NoError(t, err)

	assert.Equal(t, base58.Encode(expectedAddress), env.adminVault.Address)
	assert.Equal(t, expectedBump, env.adminVault.Bump)
	assert.True(t, env.adminVault.IsAdmin())

	actual, err := env.engine.GetAdminVault(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, env.adminVault.Address, actual.Address)

	_, err = env.engine.CreateAdminVault(env.ctx, &CreateAdminVaultArgs{
		Owner:           env.admin,
		ExternalAccount: env.newTokenAccount(t, env.adminAuthority.PublicKey(), 0),
		Mint:            env.mint,
	})
	assert.Equal(t, ErrAlreadyInitialized, err)

	// The admin vault never consumes an index
	count, err := env.engine.GetVaultsCount(env.ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	record, _ := env.newVault(t)
	assert.EqualValues(t, 0, record.Index)
}

func TestCreateAdminVault_ProgramNotInitialized(t *testing.T) {
	env := setupUninitialized(t)

	_, err := env.engine.CreateAdminVault(env.ctx, &CreateAdminVaultArgs{
		Owner:           env.admin,
		ExternalAccount: env.newTokenAccount(t, env.adminAuthority.PublicKey(), 0),
		Mint:            env.mint,
	})
	assert.Equal(t, ErrProgramNotInitialized, err)

	_, err = env.engine.GetAdminVault(env.ctx)
	assert.Equal(t, ErrAdminVaultNotFound, err)
}

func TestGetVault_TamperedBump(t *testing.T) {
	env := setup(t)

	address, bump, err := vault_program.GetVaultAddress(&vault_program.GetVaultAddressArgs{Index: 7})
	require.NoError(t, err)

	require.NoError(t, env.data.CreateVault(env.ctx, &vault.Record{
		Address:         base58.Encode(address),
		Bump:            bump - 1,
		Type:            vault.TypeUser,
		Index:           7,
		Owner:           testutil.NewRandomAccount(t).PublicKey().ToBase58(),
		ExternalAccount: env.newTokenAccount(t, env.admin.PublicKey().ToBase58(), 0),
		Mint:            env.mint,
		CreationDate:    env.clock.Now(),
	}))

	_, err = env.engine.GetVault(env.ctx, 7)
	assert.Equal(t, ErrAddressDerivationMismatch, err)

	_, err = env.engine.GetVaultByAddress(env.ctx, base58.Encode(address))
	assert.Equal(t, ErrAddressDerivationMismatch, err)
}
