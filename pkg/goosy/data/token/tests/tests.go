package tests

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/token"
)

func RunTests(t *testing.T, s token.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s token.Store){
		testMintRoundTrip,
		testAccountRoundTrip,
		testMintTo,
		testTransfer,
		testConcurrentTransfers,
	} {
		tf(t, s)
		teardown()
	}
}

func testMintRoundTrip(t *testing.T, s token.Store) {
	t.Run("testMintRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetMint(ctx, "mint")
		assert.Equal(t, token.ErrMintNotFound, err)

		expected := &token.Mint{
			Address:   "mint",
			Authority: "authority",
			Decimals:  6,
			Supply:    1000,
		}
		require.NoError(t, s.CreateMint(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 0, expected.Supply)

		actual, err := s.GetMint(ctx, "mint")
		require.NoError(t, err)
		assert.Equal(t, "authority", actual.Authority)
		assert.EqualValues(t, 6, actual.Decimals)
		assert.EqualValues(t, 0, actual.Supply)

		assert.Equal(t, token.ErrMintExists, s.CreateMint(ctx, &token.Mint{Address: "mint", Authority: "other"}))
	})
}

func testAccountRoundTrip(t *testing.T, s token.Store) {
	t.Run("testAccountRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAccount(ctx, "token")
		assert.Equal(t, token.ErrAccountNotFound, err)

		assert.Equal(t, token.ErrMintNotFound, s.CreateAccount(ctx, &token.Account{
			Address: "token",
			Mint:    "mint",
			Owner:   "owner",
		}))

		setupMint(t, s, "mint")

		expected := &token.Account{
			Address: "token",
			Mint:    "mint",
			Owner:   "owner",
			Amount:  55,
		}
		require.NoError(t, s.CreateAccount(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 0, expected.Amount)

		actual, err := s.GetAccount(ctx, "token")
		require.NoError(t, err)
		assert.Equal(t, "mint", actual.Mint)
		assert.Equal(t, "owner", actual.Owner)
		assert.EqualValues(t, 0, actual.Amount)

		assert.Equal(t, token.ErrAccountExists, s.CreateAccount(ctx, &token.Account{
			Address: "token",
			Mint:    "mint",
			Owner:   "other",
		}))
	})
}

func testMintTo(t *testing.T, s token.Store) {
	t.Run("testMintTo", func(t *testing.T) {
		ctx := context.Background()

		setupMint(t, s, "mint")
		setupMint(t, s, "other-mint")
		setupAccount(t, s, "token", "mint")
		setupAccount(t, s, "other-token", "other-mint")

		assert.Equal(t, token.ErrMintNotFound, s.MintTo(ctx, "missing", "token", 1))
		assert.Equal(t, token.ErrAccountNotFound, s.MintTo(ctx, "mint", "missing", 1))
		assert.Equal(t, token.ErrMintMismatch, s.MintTo(ctx, "mint", "other-token", 1))

		require.NoError(t, s.MintTo(ctx, "mint", "token", 100))
		require.NoError(t, s.MintTo(ctx, "mint", "token", 25))

		assert.Equal(t, token.ErrSupplyOverflow, s.MintTo(ctx, "mint", "token", math.MaxInt64))

		account, err := s.GetAccount(ctx, "token")
		require.NoError(t, err)
		assert.EqualValues(t, 125, account.Amount)

		mint, err := s.GetMint(ctx, "mint")
		require.NoError(t, err)
		assert.EqualValues(t, 125, mint.Supply)
	})
}

func testTransfer(t *testing.T, s token.Store) {
	t.Run("testTransfer", func(t *testing.T) {
		ctx := context.Background()

		setupMint(t, s, "mint")
		setupMint(t, s, "other-mint")
		setupAccount(t, s, "source", "mint")
		setupAccount(t, s, "destination", "mint")
		setupAccount(t, s, "other-token", "other-mint")

		require.NoError(t, s.MintTo(ctx, "mint", "source", 100))

		assert.Equal(t, token.ErrAccountNotFound, s.Transfer(ctx, "missing", "destination", 1))
		assert.Equal(t, token.ErrAccountNotFound, s.Transfer(ctx, "source", "missing", 1))
		assert.Equal(t, token.ErrMintMismatch, s.Transfer(ctx, "source", "other-token", 1))
		assert.Equal(t, token.ErrInsufficientFunds, s.Transfer(ctx, "source", "destination", 101))

		require.NoError(t, s.Transfer(ctx, "source", "destination", 40))
		require.NoError(t, s.Transfer(ctx, "source", "destination", 0))
		require.NoError(t, s.Transfer(ctx, "source", "source", 60))

		assertAmount(t, s, "source", 60)
		assertAmount(t, s, "destination", 40)

		require.NoError(t, s.Transfer(ctx, "source", "destination", 60))
		assertAmount(t, s, "source", 0)
		assertAmount(t, s, "destination", 100)
	})
}

func testConcurrentTransfers(t *testing.T, s token.Store) {
	t.Run("testConcurrentTransfers", func(t *testing.T) {
		ctx := context.Background()

		setupMint(t, s, "mint")
		setupAccount(t, s, "a", "mint")
		setupAccount(t, s, "b", "mint")

		require.NoError(t, s.MintTo(ctx, "mint", "a", 50))
		require.NoError(t, s.MintTo(ctx, "mint", "b", 50))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Transfer(ctx, "a", "b", 1))
			}()
			go func() {
				defer wg.Done()
				assert.NoError(t, s.Transfer(ctx, "b", "a", 1))
			}()
		}
		wg.Wait()

		assertAmount(t, s, "a", 50)
		assertAmount(t, s, "b", 50)
	})
}

func setupMint(t *testing.T, s token.Store, address string) {
	require.NoError(t, s.CreateMint(context.Background(), &token.Mint{
		Address:   address,
		Authority: "authority",
		Decimals:  6,
	}))
}

func setupAccount(t *testing.T, s token.Store, address, mint string) {
	require.NoError(t, s.CreateAccount(context.Background(), &token.Account{
		Address: address,
		Mint:    mint,
		Owner:   "owner",
	}))
}

func assertAmount(t *testing.T, s token.Store, address string, expected uint64) {
	account, err := s.GetAccount(context.Background(), address)
	require.NoError(t, err)
	assert.Equal(t, expected, account.Amount)
}
