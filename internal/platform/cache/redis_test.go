package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestNewConnects(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := New(context.Background(), srv.Addr())
	require.NoError(t, err)
	require.NoError(t, client.Close())

	client, err = New(context.Background(), "redis://"+srv.Addr()+"/2")
	require.NoError(t, err)
	require.Equal(t, 2, client.Options().DB)
	require.NoError(t, client.Close())
}

func TestNewRejectsBadAddress(t *testing.T) {
	_, err := New(context.Background(), "")
	require.Error(t, err)
	_, err = New(context.Background(), "redis://localhost:6379/notanumber")
	require.Error(t, err)
}
