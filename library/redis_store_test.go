package library

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Runs against a real server when LIBRARY_TEST_REDIS_ADDR is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("LIBRARY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LIBRARY_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := DialRedis(ctx, addr, "", 0)
	require.NoError(t, err)

	prefix := "test_" + uuid.NewString()
	mgr := newManager(t, store, WithKeyPrefix(prefix))
	keys := NewKeys(prefix)
	t.Cleanup(func() {
		for _, k := range []string{keys.Books, keys.Members, keys.Loans, keys.Reservations, keys.CurrentUser} {
			_ = store.Delete(ctx, k)
		}
	})

	_, err = store.Get(ctx, keys.Books)
	require.ErrorIs(t, err, ErrKeyNotFound)

	_, err = mgr.Reserve(ctx, "1", "M-002")
	require.NoError(t, err)
	raw, err := store.Get(ctx, keys.Books)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"status":"Reserved"`)
}
