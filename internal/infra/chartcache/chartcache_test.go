package chartcache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"
)

func TestMemoryStore_RoundTripAndExpiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "positions:abc", []byte(`{"ok":true}`), time.Minute))
	payload, ok, err := store.Get(ctx, "positions:abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"ok":true}`, string(payload))

	now = now.Add(2 * time.Minute)
	_, ok, err = store.Get(ctx, "positions:abc")
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, store.Len())
}

func TestMemoryStore_NoTTLNeverExpires(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 0))
	store.now = func() time.Time { return time.Now().Add(24 * 365 * time.Hour) }
	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStore_EmptyKeyIsIgnored(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "", []byte("v"), time.Minute))
	require.Zero(t, store.Len())
}

func newValkeyClient(t *testing.T) (*miniredis.Miniredis, valkey.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:  []string{server.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return server, client
}

func TestValkeyStore_RoundTripAndTTL(t *testing.T) {
	server, client := newValkeyClient(t)
	store := NewValkeyStore(client, "test")
	ctx := context.Background()

	_, ok, err := store.Get(ctx, "transits:123")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "transits:123", []byte(`{"events":[]}`), time.Hour))
	require.True(t, server.Exists("test:cache:transits:123"))
	require.Equal(t, time.Hour, server.TTL("test:cache:transits:123"))

	payload, ok, err := store.Get(ctx, "transits:123")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"events":[]}`, string(payload))

	server.FastForward(2 * time.Hour)
	_, ok, err = store.Get(ctx, "transits:123")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestValkeyStore_SubSecondTTLRoundsUp(t *testing.T) {
	server, client := newValkeyClient(t)
	store := NewValkeyStore(client, "")

	require.NoError(t, store.Set(context.Background(), "k", []byte("v"), 10*time.Millisecond))
	require.Equal(t, time.Second, server.TTL("astro:cache:k"))
}
