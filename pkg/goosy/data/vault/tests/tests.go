package tests

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/database/query"
	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/vault"
)

func RunTests(t *testing.T, s vault.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s vault.Store){
		testRoundTrip,
		testUniqueness,
		testOptimisticUpdate,
		testGetAllByType,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s vault.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetByAddress(ctx, "vault0")
		assert.Equal(t, vault.ErrVaultNotFound, err)
		_, err = s.GetByIndex(ctx, 0)
		assert.Equal(t, vault.ErrVaultNotFound, err)
		_, err = s.GetAdmin(ctx)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		expected := newUserRecord(0)
		cloned := expected.Clone()
		require.NoError(t, s.Create(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.EqualValues(t, 1, expected.Version)

		actual, err := s.GetByAddress(ctx, "vault0")
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)
		assert.EqualValues(t, 1, actual.Version)

		actual, err = s.GetByIndex(ctx, 0)
		require.NoError(t, err)
		assertEquivalentRecords(t, cloned, actual)

		admin := newAdminRecord()
		require.NoError(t, s.Create(ctx, admin))

		actual, err = s.GetAdmin(ctx)
		require.NoError(t, err)
		assert.Equal(t, admin.Address, actual.Address)
		assert.True(t, actual.IsAdmin())

		// The admin vault has no index
		actual, err = s.GetByIndex(ctx, 1)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		count, err := s.CountByType(ctx, vault.TypeUser)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		count, err = s.CountByType(ctx, vault.TypeAdmin)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testUniqueness(t *testing.T, s vault.Store) {
	t.Run("testUniqueness", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, newUserRecord(0)))
		require.NoError(t, s.Create(ctx, newAdminRecord()))

		sameAddress := newUserRecord(1)
		sameAddress.Address = "vault0"
		assert.Equal(t, vault.ErrVaultExists, s.Create(ctx, sameAddress))

		sameExternalAccount := newUserRecord(1)
		sameExternalAccount.ExternalAccount = "token0"
		assert.Equal(t, vault.ErrVaultExists, s.Create(ctx, sameExternalAccount))

		sameIndex := newUserRecord(0)
		sameIndex.Address = "other"
		sameIndex.ExternalAccount = "other"
		assert.Equal(t, vault.ErrVaultExists, s.Create(ctx, sameIndex))

		secondAdmin := newAdminRecord()
		secondAdmin.Address = "other-admin"
		secondAdmin.ExternalAccount = "other-admin-token"
		assert.Equal(t, vault.ErrVaultExists, s.Create(ctx, secondAdmin))

		require.NoError(t, s.Create(ctx, newUserRecord(1)))
	})
}

func testOptimisticUpdate(t *testing.T, s vault.Store) {
	t.Run("testOptimisticUpdate", func(t *testing.T) {
		ctx := context.Background()

		missing := newUserRecord(0)
		missing.Version = 1
		assert.Equal(t, vault.ErrVaultNotFound, s.Update(ctx, missing))

		record := newUserRecord(0)
		require.NoError(t, s.Create(ctx, record))

		stale := record.Clone()

		record.TotalBalance = 100
		record.Owner = "ignored"
		require.NoError(t, s.Update(ctx, record))
		assert.EqualValues(t, 2, record.Version)
		assert.Equal(t, "owner0", record.Owner)

		stale.TotalBalance = 5
		assert.Equal(t, vault.ErrStaleVersion, s.Update(ctx, stale))

		actual, err := s.GetByAddress(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 100, actual.TotalBalance)
		assert.EqualValues(t, 2, actual.Version)
		assert.Equal(t, "owner0", actual.Owner)
	})
}

func testGetAllByType(t *testing.T, s vault.Store) {
	t.Run("testGetAllByType", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.GetAllByType(ctx, vault.TypeUser)
		assert.Equal(t, vault.ErrVaultNotFound, err)

		var expected []*vault.Record
		for i := 0; i < 10; i++ {
			record := newUserRecord(uint32(i))
			require.NoError(t, s.Create(ctx, record))
			expected = append(expected, record)
		}
		require.NoError(t, s.Create(ctx, newAdminRecord()))

		actual, err := s.GetAllByType(ctx, vault.TypeUser)
		require.NoError(t, err)
		require.Len(t, actual, 10)
		for i, record := range actual {
			assert.Equal(t, expected[i].Address, record.Address)
		}

		actual, err = s.GetAllByType(ctx, vault.TypeUser, query.WithLimit(3))
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "vault2", actual[2].Address)

		actual, err = s.GetAllByType(ctx, vault.TypeUser, query.WithLimit(3), query.WithCursor(query.ToCursor(actual[2].Id)))
		require.NoError(t, err)
		require.Len(t, actual, 3)
		assert.Equal(t, "vault3", actual[0].Address)

		actual, err = s.GetAllByType(ctx, vault.TypeUser, query.WithDirection(query.Descending), query.WithLimit(2))
		require.NoError(t, err)
		require.Len(t, actual, 2)
		assert.Equal(t, "vault9", actual[0].Address)
		assert.Equal(t, "vault8", actual[1].Address)

		actual, err = s.GetAllByType(ctx, vault.TypeAdmin)
		require.NoError(t, err)
		require.Len(t, actual, 1)

		_, err = s.GetAllByType(ctx, vault.TypeUser, query.WithCursor(query.ToCursor(expected[9].Id)))
		assert.Equal(t, vault.ErrVaultNotFound, err)
	})
}

func newUserRecord(index uint32) *vault.Record {
	return &vault.Record{
		Address:         fmt.Sprintf("vault%d", index),
		Bump:            255,
		Type:            vault.TypeUser,
		Index:           index,
		Owner:           fmt.Sprintf("owner%d", index),
		ExternalAccount: fmt.Sprintf("token%d", index),
		Mint:            "mint",
		CreationDate:    time.Now().Truncate(time.Second),
	}
}

func newAdminRecord() *vault.Record {
	return &vault.Record{
		Address:         "admin-vault",
		Bump:            254,
		Type:            vault.TypeAdmin,
		Owner:           "admin",
		ExternalAccount: "admin-token",
		Mint:            "mint",
		CreationDate:    time.Now().Truncate(time.Second),
	}
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *vault.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Bump, obj2.Bump)
	assert.Equal(t, obj1.Type, obj2.Type)
	assert.Equal(t, obj1.Index, obj2.Index)
	assert.Equal(t, obj1.Owner, obj2.Owner)
	assert.Equal(t, obj1.ExternalAccount, obj2.ExternalAccount)
	assert.Equal(t, obj1.Mint, obj2.Mint)
	assert.Equal(t, obj1.TotalBalance, obj2.TotalBalance)
	assert.Equal(t, obj1.CreationDate.Unix(), obj2.CreationDate.Unix())
}
