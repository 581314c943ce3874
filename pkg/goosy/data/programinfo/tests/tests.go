package tests

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/goosy/data/programinfo"
)

func RunTests(t *testing.T, s programinfo.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s programinfo.Store){
		testRoundTrip,
		testIncrementVaultsCount,
		testConcurrentIncrements,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s programinfo.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.Get(ctx, "program_info")
		assert.Equal(t, programinfo.ErrProgramInfoNotFound, err)

		expected := &programinfo.Record{
			Address: "program_info",
			Bump:    253,
			Admin:   "admin",
		}
		cloned := expected.Clone()

		require.NoError(t, s.Create(ctx, expected))
		assert.True(t, expected.Id > 0)
		assert.False(t, expected.CreatedAt.IsZero())

		actual, err := s.Get(ctx, "program_info")
		require.NoError(t, err)
		assert.Equal(t, cloned.Address, actual.Address)
		assert.Equal(t, cloned.Bump, actual.Bump)
		assert.Equal(t, cloned.Admin, actual.Admin)
		assert.EqualValues(t, 0, actual.VaultsCount)

		assert.Equal(t, programinfo.ErrProgramInfoExists, s.Create(ctx, &programinfo.Record{
			Address: "program_info",
			Admin:   "other",
		}))

		actual, err = s.Get(ctx, "program_info")
		require.NoError(t, err)
		assert.Equal(t, "admin", actual.Admin)
	})
}

func testIncrementVaultsCount(t *testing.T, s programinfo.Store) {
	t.Run("testIncrementVaultsCount", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, programinfo.ErrProgramInfoNotFound, s.IncrementVaultsCount(ctx, "program_info", 0))

		require.NoError(t, s.Create(ctx, &programinfo.Record{
			Address: "program_info",
			Admin:   "admin",
		}))

		for i := uint32(0); i < 5; i++ {
			assert.Equal(t, programinfo.ErrStaleProgramInfo, s.IncrementVaultsCount(ctx, "program_info", i+1))
			require.NoError(t, s.IncrementVaultsCount(ctx, "program_info", i))
			assert.Equal(t, programinfo.ErrStaleProgramInfo, s.IncrementVaultsCount(ctx, "program_info", i))
		}

		actual, err := s.Get(ctx, "program_info")
		require.NoError(t, err)
		assert.EqualValues(t, 5, actual.VaultsCount)
	})
}

func testConcurrentIncrements(t *testing.T, s programinfo.Store) {
	t.Run("testConcurrentIncrements", func(t *testing.T) {
		ctx := context.Background()

		require.NoError(t, s.Create(ctx, &programinfo.Record{
			Address: "program_info",
			Admin:   "admin",
		}))

		var wg sync.WaitGroup
		results := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- s.IncrementVaultsCount(ctx, "program_info", 0)
			}()
		}
		wg.Wait()
		close(results)

		var successes int
		for err := range results {
			if err == nil {
				successes++
			} else {
				assert.Equal(t, programinfo.ErrStaleProgramInfo, err)
			}
		}
		assert.Equal(t, 1, successes)

		actual, err := s.Get(ctx, "program_info")
		require.NoError(t, err)
		assert.EqualValues(t, 1, actual.VaultsCount)
	})
}
