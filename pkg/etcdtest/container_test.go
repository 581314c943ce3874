//go:build integration

package etcdtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/stretchr/testify/require"
	v3 "go.etcd.io/etcd/client/v3"
)

func TestStartEtcd(t *testing.T) {
	ctx := context.Background()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	client, teardown, err := StartEtcd(pool)
	require.NoError(t, err)
	defer teardown()

	for i := 0; i < 5; i++ {
		_, err := client.Put(ctx, fmt.Sprintf("/vaults/%d", i), fmt.Sprintf("vault-%d", i))
		require.NoError(t, err)
	}

	resp, err := client.Get(ctx, "/vaults/", v3.WithPrefix())
	require.NoError(t, err)
	require.Len(t, resp.Kvs, 5)
	for i, kv := range resp.Kvs {
		require.Equal(t, fmt.Sprintf("/vaults/%d", i), string(kv.Key))
		require.Equal(t, fmt.Sprintf("vault-%d", i), string(kv.Value))
	}
}
