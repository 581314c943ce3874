package async_distribution

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goosy-labs/goosy-vault/pkg/lock/local"
	"github.com/goosy-labs/goosy-vault/pkg/testutil"
)

func TestStart_Interval(t *testing.T) {
	env := setup(t, 100)
	record := env.newVault(t, 1000)
	env.accrue()

	p := env.newService(t, local.NewLockManager(), &testOverrides{})
	env.testStart(t, p, record.Address, 10*time.Millisecond, time.Second)
}

func TestStart_Schedule(t *testing.T) {
	env := setup(t, 100)
	record := env.newVault(t, 1000)
	env.accrue()

	p := env.newService(t, nil, &testOverrides{schedule: "@every 1s"})
	env.testStart(t, p, record.Address, time.Hour, 5*time.Second)
}

func (e *testEnv) testStart(t *testing.T, p *service, address string, interval, timeout time.Duration) {
	ctx, cancel := context.WithCancel(e.ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- p.Start(ctx, interval)
	}()

	require.NoError(t, testutil.WaitFor(timeout, 10*time.Millisecond, func() bool {
		record, err := e.engine.GetVaultByAddress(e.ctx, address)
		return err == nil && record.TotalBalance > 1000
	}))

	cancel()

	select {
	case err := <-done:
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("service didn't stop")
	}
}
