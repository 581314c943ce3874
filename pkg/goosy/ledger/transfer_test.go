package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/token"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
	"github.com/goosy-labs/goosy-vault/pkg/testutil"
)

func TestDeposit_HappyPath(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)

	updated := env.deposit(t, record.Address, owner, 500)
	assert.EqualValues(t, 500, updated.TotalBalance)
	assert.EqualValues(t, 500, env.externalBalance(t, record.ExternalAccount))

	updated = env.deposit(t, record.Address, owner, 250)
	assert.EqualValues(t, 750, updated.TotalBalance)
	assert.EqualValues(t, 750, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 750, env.externalBalance(t, record.ExternalAccount))
}

func TestDeposit_AnyDepositor(t *testing.T) {
	env := setup(t)

	record, _ := env.newVault(t)

	updated := env.deposit(t, record.Address, testutil.NewRandomAccount(t), 100)
	assert.EqualValues(t, 100, updated.TotalBalance)
}

func TestDeposit_InvalidAssetType(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)

	otherMint := testutil.NewRandomAccount(t).PublicKey().ToBase58()
	_, err := env.tokens.CreateMint(env.ctx, otherMint, env.adminAuthority.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)

	wallet := env.newTokenAccountForMint(t, otherMint, owner.PublicKey().ToBase58(), 100)

	_, err = env.engine.Deposit(env.ctx, &DepositArgs{
		Vault:     record.Address,
		Source:    wallet,
		Amount:    100,
		Depositor: owner,
	})
	assert.Equal(t, ErrInvalidAssetType, err)

	assert.EqualValues(t, 0, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 0, env.externalBalance(t, record.ExternalAccount))
	assert.EqualValues(t, 100, env.externalBalance(t, wallet))
}

func TestDeposit_Unauthorized(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)
	wallet := env.newTokenAccount(t, owner.PublicKey().ToBase58(), 100)

	for _, depositor := range []*struct {
		name string
		args *DepositArgs
	}{
		{"not source owner", &DepositArgs{Vault: record.Address, Source: wallet, Amount: 100, Depositor: testutil.NewRandomAccount(t)}},
		{"not a signer", &DepositArgs{Vault: record.Address, Source: wallet, Amount: 100, Depositor: publicOnly(t, owner)}},
		{"missing", &DepositArgs{Vault: record.Address, Source: wallet, Amount: 100}},
	} {
		_, err := env.engine.Deposit(env.ctx, depositor.args)
		assert.Equal(t, ErrInvalidOwner, err, depositor.name)
	}

	assert.EqualValues(t, 0, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 100, env.externalBalance(t, wallet))
}

func TestDeposit_InsufficientSourceBalance(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)
	wallet := env.newTokenAccount(t, owner.PublicKey().ToBase58(), 99)

	_, err := env.engine.Deposit(env.ctx, &DepositArgs{
		Vault:     record.Address,
		Source:    wallet,
		Amount:    100,
		Depositor: owner,
	})
	assert.Equal(t, ErrInsufficientBalance, err)

	assert.EqualValues(t, 0, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 99, env.externalBalance(t, wallet))
}

func TestDeposit_UnknownVault(t *testing.T) {
	env := setup(t)

	owner := testutil.NewRandomAccount(t)
	_, err := env.engine.Deposit(env.ctx, &DepositArgs{
		Vault:     testutil.NewRandomAccount(t).PublicKey().ToBase58(),
		Source:    env.newTokenAccount(t, owner.PublicKey().ToBase58(), 10),
		Amount:    10,
		Depositor: owner,
	})
	assert.Equal(t, ErrVaultNotFound, err)
}

func TestWithdraw_HappyPath(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)
	env.deposit(t, record.Address, owner, 500)

	destination := env.newTokenAccount(t, owner.PublicKey().ToBase58(), 0)

	updated, err := env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       record.Address,
		Destination: destination,
		Amount:      200,
		Requester:   owner,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 300, updated.TotalBalance)
	assert.EqualValues(t, 300, env.externalBalance(t, record.ExternalAccount))
	assert.EqualValues(t, 200, env.externalBalance(t, destination))

	updated, err = env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       record.Address,
		Destination: destination,
		Amount:      300,
		Requester:   owner,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, updated.TotalBalance)
	assert.EqualValues(t, 0, env.externalBalance(t, record.ExternalAccount))
	assert.EqualValues(t, 500, env.externalBalance(t, destination))
}

func TestWithdraw_AdminVault(t *testing.T) {
	env := setup(t)
	env.fundAdminVault(t, 1000)

	destination := env.newTokenAccount(t, env.admin.PublicKey().ToBase58(), 0)

	updated, err := env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       env.adminVault.Address,
		Destination: destination,
		Amount:      100,
		Requester:   env.admin,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 900, updated.TotalBalance)
	assert.EqualValues(t, 900, env.externalBalance(t, env.adminVault.ExternalAccount))
	assert.EqualValues(t, 100, env.externalBalance(t, destination))

	outsider := testutil.NewRandomAccount(t)
	_, err = env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       env.adminVault.Address,
		Destination: env.newTokenAccount(t, outsider.PublicKey().ToBase58(), 0),
		Amount:      100,
		Requester:   outsider,
	})
	assert.Equal(t, ErrInvalidOwner, err)
	assert.EqualValues(t, 900, env.getVault(t, env.adminVault.Address).TotalBalance)
}

func TestWithdraw_InvalidOwner(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)
	env.deposit(t, record.Address, owner, 500)

	thief := testutil.NewRandomAccount(t)
	destination := env.newTokenAccount(t, thief.PublicKey().ToBase58(), 0)

	for _, requester := range []*common.Account{
		thief,
		publicOnly(t, owner),
		nil,
	} {
		_, err := env.engine.Withdraw(env.ctx, &WithdrawArgs{
			Vault:       record.Address,
			Destination: destination,
			Amount:      100,
			Requester:   requester,
		})
		assert.Equal(t, ErrInvalidOwner, err)
	}

	assert.EqualValues(t, 500, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 500, env.externalBalance(t, record.ExternalAccount))
	assert.EqualValues(t, 0, env.externalBalance(t, destination))
}

func TestWithdraw_InsufficientBalance(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)
	env.deposit(t, record.Address, owner, 500)

	destination := env.newTokenAccount(t, owner.PublicKey().ToBase58(), 0)

	_, err := env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       record.Address,
		Destination: destination,
		Amount:      501,
		Requester:   owner,
	})
	assert.Equal(t, ErrInsufficientBalance, err)

	assert.EqualValues(t, 500, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 500, env.externalBalance(t, record.ExternalAccount))

	// The owner controls the external account directly, so it can fall below
	// the mirrored balance.
	require.NoError(t, env.tokens.TransferChecked(env.ctx, &token.TransferCheckedArgs{
		Source:      record.ExternalAccount,
		Destination: destination,
		Mint:        env.mint,
		Amount:      400,
		Decimals:    vault_program.TokenDecimals,
		Authority:   token.ExternalSigner(owner),
	}))

	_, err = env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       record.Address,
		Destination: destination,
		Amount:      200,
		Requester:   owner,
	})
	assert.Equal(t, ErrInsufficientBalance, err)

	assert.EqualValues(t, 500, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 100, env.externalBalance(t, record.ExternalAccount))
	assert.EqualValues(t, 400, env.externalBalance(t, destination))
}

func TestWithdraw_InvalidDestinationAssetType(t *testing.T) {
	env := setup(t)

	record, owner := env.newVault(t)
	env.deposit(t, record.Address, owner, 500)

	otherMint := testutil.NewRandomAccount(t).PublicKey().ToBase58()
	_, err := env.tokens.CreateMint(env.ctx, otherMint, env.adminAuthority.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)

	_, err = env.engine.Withdraw(env.ctx, &WithdrawArgs{
		Vault:       record.Address,
		Destination: env.newTokenAccountForMint(t, otherMint, owner.PublicKey().ToBase58(), 0),
		Amount:      100,
		Requester:   owner,
	})
	assert.Equal(t, ErrInvalidAssetType, err)

	assert.EqualValues(t, 500, env.getVault(t, record.Address).TotalBalance)
}

func TestMint_HappyPath(t *testing.T) {
	env := setup(t)

	env.fundAdminVault(t, 1_000)

	record, owner := env.newVault(t)
	env.deposit(t, record.Address, owner, 100)

	require.NoError(t, env.engine.Mint(env.ctx, &MintArgs{
		AdminVault:       env.adminVault.Address,
		DestinationVault: record.Address,
		Amount:           50,
		Authority:        env.adminAuthority,
	}))

	assert.EqualValues(t, 150, env.externalBalance(t, record.ExternalAccount))
	assert.EqualValues(t, 100, env.getVault(t, record.Address).TotalBalance)
	assert.EqualValues(t, 1_000, env.getVault(t, env.adminVault.Address).TotalBalance)
	assert.EqualValues(t, 1_000, env.externalBalance(t, env.adminVault.ExternalAccount))

	// Minting into the admin vault leaves its mirror untouched too
	require.NoError(t, env.engine.Mint(env.ctx, &MintArgs{
		AdminVault:       env.adminVault.Address,
		DestinationVault: env.adminVault.Address,
		Amount:           500,
		Authority:        env.adminAuthority,
	}))

	assert.EqualValues(t, 1_500, env.externalBalance(t, env.adminVault.ExternalAccount))
	assert.EqualValues(t, 1_000, env.getVault(t, env.adminVault.Address).TotalBalance)
}

func TestMint_InvalidAuthority(t *testing.T) {
	env := setup(t)

	record, _ := env.newVault(t)

	vaultAuthority, err := vault_program.NewVaultAuthority(record.Index)
	require.NoError(t, err)

	err = env.engine.Mint(env.ctx, &MintArgs{
		AdminVault:       env.adminVault.Address,
		DestinationVault: record.Address,
		Amount:           50,
		Authority:        vaultAuthority,
	})
	assert.Equal(t, ErrInvalidOwner, err)

	forged := vault_program.AdminVaultAuthority(env.adminAuthority.Address, env.adminAuthority.Bump-1)
	err = env.engine.Mint(env.ctx, &MintArgs{
		AdminVault:       env.adminVault.Address,
		DestinationVault: record.Address,
		Amount:           50,
		Authority:        forged,
	})
	assert.Equal(t, ErrAddressDerivationMismatch, err)

	err = env.engine.Mint(env.ctx, &MintArgs{
		AdminVault:       env.adminVault.Address,
		DestinationVault: record.Address,
		Amount:           50,
	})
	assert.Equal(t, ErrAddressDerivationMismatch, err)

	// A user vault can't stand in for the admin vault
	err = env.engine.Mint(env.ctx, &MintArgs{
		AdminVault:       record.Address,
		DestinationVault: record.Address,
		Amount:           50,
		Authority:        vaultAuthority,
	})
	assert.Equal(t, ErrAddressDerivationMismatch, err)

	assert.EqualValues(t, 0, env.externalBalance(t, record.ExternalAccount))
}
