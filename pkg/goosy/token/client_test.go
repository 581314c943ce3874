package token

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/common"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data"
	vault_program "github.com/goosy-labs/goosy-vault/pkg/solana/vault"
	"github.com/goosy-labs/goosy-vault/pkg/testutil"
)

type testEnv struct {
	ctx    context.Context
	client *Client

	mint     string
	mintAuth *vault_program.Authority
	owner    *common.Account
	other    *common.Account
}

func setup(t *testing.T) *testEnv {
	ctx := context.Background()
	client := NewClient(data.NewTestDatabaseProvider())

	mintAuth, err := vault_program.NewAdminVaultAuthority()
	require.NoError(t, err)

	env := &testEnv{
		ctx:      ctx,
		client:   client,
		mint:     testutil.NewRandomAccount(t).PublicKey().ToBase58(),
		mintAuth: mintAuth,
		owner:    testutil.NewRandomAccount(t),
		other:    testutil.NewRandomAccount(t),
	}

	_, err = client.CreateMint(ctx, env.mint, mintAuth.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)

	_, err = client.CreateAccount(ctx, "source", env.mint, env.owner.PublicKey().ToBase58())
	require.NoError(t, err)
	_, err = client.CreateAccount(ctx, "destination", env.mint, env.other.PublicKey().ToBase58())
	require.NoError(t, err)

	require.NoError(t, client.MintTo(ctx, &MintToArgs{
		Mint:        env.mint,
		Destination: "source",
		Amount:      1_000,
		Authority:   ProgramSigner(mintAuth),
	}))
	return env
}

func (e *testEnv) transferArgs(amount uint64, authority Authority) *TransferCheckedArgs {
	return &TransferCheckedArgs{
		Source:      "source",
		Destination: "destination",
		Mint:        e.mint,
		Amount:      amount,
		Decimals:    vault_program.TokenDecimals,
		Authority:   authority,
	}
}

func TestTransferChecked_HappyPath(t *testing.T) {
	env := setup(t)

	require.NoError(t, env.client.TransferChecked(env.ctx, env.transferArgs(400, ExternalSigner(env.owner))))

	balance, err := env.client.GetBalance(env.ctx, "source")
	require.NoError(t, err)
	assert.EqualValues(t, 600, balance)

	balance, err = env.client.GetBalance(env.ctx, "destination")
	require.NoError(t, err)
	assert.EqualValues(t, 400, balance)
}

func TestTransferChecked_ProgramSigner(t *testing.T) {
	env := setup(t)

	vaultAuth, err := vault_program.NewVaultAuthority(0)
	require.NoError(t, err)

	_, err = env.client.CreateAccount(env.ctx, "vault-token", env.mint, vaultAuth.PublicKey())
	require.NoError(t, err)
	require.NoError(t, env.client.TransferChecked(env.ctx, env.transferArgs(100, ExternalSigner(env.owner))))

	args := env.transferArgs(50, ProgramSigner(vaultAuth))
	args.Source = "destination"
	assert.Equal(t, ErrOwnerMismatch, env.client.TransferChecked(env.ctx, args))

	args.Source = "vault-token"
	assert.Equal(t, ErrInsufficientFunds, env.client.TransferChecked(env.ctx, args))

	// A spoofed derivation never authorizes anything
	spoofed := vault_program.VaultAuthority(vaultAuth.Address, 1, vaultAuth.Bump)
	args.Authority = ProgramSigner(spoofed)
	assert.Equal(t, ErrInvalidAuthority, env.client.TransferChecked(env.ctx, args))
}

func TestTransferChecked_Validation(t *testing.T) {
	env := setup(t)

	publicOnly, err := common.NewAccountFromPublicKey(env.owner.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, ErrInvalidAuthority, env.client.TransferChecked(env.ctx, env.transferArgs(1, ExternalSigner(publicOnly))))
	assert.Equal(t, ErrInvalidAuthority, env.client.TransferChecked(env.ctx, env.transferArgs(1, nil)))

	assert.Equal(t, ErrOwnerMismatch, env.client.TransferChecked(env.ctx, env.transferArgs(1, ExternalSigner(env.other))))
	assert.Equal(t, ErrInsufficientFunds, env.client.TransferChecked(env.ctx, env.transferArgs(1_001, ExternalSigner(env.owner))))

	args := env.transferArgs(1, ExternalSigner(env.owner))
	args.Decimals = 9
	assert.Equal(t, ErrDecimalsMismatch, env.client.TransferChecked(env.ctx, args))

	args = env.transferArgs(1, ExternalSigner(env.owner))
	args.Mint = "unknown"
	assert.Equal(t, ErrMintNotFound, env.client.TransferChecked(env.ctx, args))

	args = env.transferArgs(1, ExternalSigner(env.owner))
	args.Destination = "unknown"
	assert.Equal(t, ErrAccountNotFound, env.client.TransferChecked(env.ctx, args))

	otherMint := testutil.NewRandomAccount(t).PublicKey().ToBase58()
	_, err = env.client.CreateMint(env.ctx, otherMint, env.mintAuth.PublicKey(), vault_program.TokenDecimals)
	require.NoError(t, err)
	_, err = env.client.CreateAccount(env.ctx, "other-mint-token", otherMint, env.other.PublicKey().ToBase58())
	require.NoError(t, err)

	args = env.transferArgs(1, ExternalSigner(env.owner))
	args.Destination = "other-mint-token"
	assert.Equal(t, ErrMintMismatch, env.client.TransferChecked(env.ctx, args))

	balance, err := env.client.GetBalance(env.ctx, "source")
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, balance)
}

func TestMintTo_RequiresMintAuthority(t *testing.T) {
	env := setup(t)

	vaultAuth, err := vault_program.NewVaultAuthority(0)
	require.NoError(t, err)

	assert.Equal(t, ErrInvalidAuthority, env.client.MintTo(env.ctx, &MintToArgs{
		Mint:        env.mint,
		Destination: "destination",
		Amount:      1,
		Authority:   ProgramSigner(vaultAuth),
	}))

	assert.Equal(t, ErrInvalidAuthority, env.client.MintTo(env.ctx, &MintToArgs{
		Mint:        env.mint,
		Destination: "destination",
		Amount:      1,
		Authority:   ExternalSigner(env.owner),
	}))

	assert.Equal(t, ErrAccountNotFound, env.client.MintTo(env.ctx, &MintToArgs{
		Mint:        env.mint,
		Destination: "unknown",
		Amount:      1,
		Authority:   ProgramSigner(env.mintAuth),
	}))

	require.NoError(t, env.client.MintTo(env.ctx, &MintToArgs{
		Mint:        env.mint,
		Destination: "destination",
		Amount:      5,
		Authority:   ProgramSigner(env.mintAuth),
	}))

	balance, err := env.client.GetBalance(env.ctx, "destination")
	require.NoError(t, err)
	assert.EqualValues(t, 5, balance)

	_, err = env.client.GetBalance(env.ctx, "unknown")
	assert.Equal(t, ErrAccountNotFound, err)

	_, err = env.client.CreateAccount(env.ctx, "orphan", "unknown-mint", env.owner.PublicKey().ToBase58())
	assert.Equal(t, ErrMintNotFound, err)
}
