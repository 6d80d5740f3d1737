package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"oraclia-chat-platform/internal/domain"
	"oraclia-chat-platform/internal/domain/model"
	"oraclia-chat-platform/internal/infra/security"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	cli := NewClientFromAddr(srv.Addr())
	t.Cleanup(func() { _ = cli.Close() })
	return cli, srv
}

func TestLockerMutualExclusion(t *testing.T) {
	cli, _ := newTestClient(t)
	locker := NewLocker(cli)
	ctx := context.Background()

	token, err := locker.TryLock(ctx, "session:c1/p1", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	_, err = locker.TryLock(ctx, "session:c1/p1", time.Minute)
	require.ErrorIs(t, err, domain.ErrActiveSessionExists)

	require.NoError(t, locker.Unlock(ctx, "session:c1/p1", token))

	_, err = locker.TryLock(ctx, "session:c1/p1", time.Minute)
	require.NoError(t, err)
}

func TestLockerUnlockRequiresToken(t *testing.T) {
	cli, _ := newTestClient(t)
	locker := NewLocker(cli)
	ctx := context.Background()

	token, err := locker.TryLock(ctx, "session:c1/p1", time.Minute)
	require.NoError(t, err)

	// A stale holder with the wrong token must not release the lease.
	require.NoError(t, locker.Unlock(ctx, "session:c1/p1", "stale-token"))
	_, err = locker.TryLock(ctx, "session:c1/p1", time.Minute)
	require.ErrorIs(t, err, domain.ErrActiveSessionExists)

	require.NoError(t, locker.Unlock(ctx, "session:c1/p1", token))
}

func TestSessionCacheRoundTrip(t *testing.T) {
	cli, srv := newTestClient(t)
	cache := NewSessionCache(cli, time.Minute, nil)
	ctx := context.Background()

	sess, err := model.NewSession("conv1", "c1", "p1", "a1", time.Now().UTC(), 300, 600)
	require.NoError(t, err)

	require.NoError(t, cache.StoreSession(ctx, sess))
	got, err := cache.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)
	require.Equal(t, 300, got.InitialFreeSeconds)
	require.Equal(t, 600, got.InitialPaidSeconds)

	srv.FastForward(2 * time.Minute)
	_, err = cache.GetSession(ctx, sess.ID)
	require.Error(t, err)
}

func TestRateLimiterWindow(t *testing.T) {
	cli, srv := newTestClient(t)
	limiter := NewRateLimiter(cli)
	ctx := context.Background()
	key := MessageKey("c1")

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, key, 3, time.Minute)
		require.NoError(t, err)
		require.True(t, ok, "send %d should pass", i)
	}
	ok, err := limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	require.False(t, ok, "fourth send in the window must be throttled")

	srv.FastForward(2 * time.Minute)
	ok, err = limiter.Allow(ctx, key, 3, time.Minute)
	require.NoError(t, err)
	require.True(t, ok, "window expiry resets the counter")
}

func TestSessionCacheEncryptsAtRest(t *testing.T) {
	cli, _ := newTestClient(t)
	enc, err := security.NewEncryptionService("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	cache := NewSessionCache(cli, time.Minute, enc)
	ctx := context.Background()

	sess, err := model.NewSession("conv1", "c1", "p1", "a1", time.Now().UTC(), 300, 600)
	require.NoError(t, err)
	require.NoError(t, cache.StoreSession(ctx, sess))

	raw, err := cli.Get(ctx, "session:"+sess.ID)
	require.NoError(t, err)
	require.False(t, json.Valid([]byte(raw)), "snapshot must not be readable in redis")

	got, err := cache.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.ConversationID, got.ConversationID)
	require.Equal(t, 600, got.InitialPaidSeconds)
}
