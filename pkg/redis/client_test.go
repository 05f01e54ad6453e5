package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements cmdable over maps. TTLs follow Redis: -2 for a
// missing key, -1 for a key without expiry.
type fakeRedis struct {
	values   map[string]string
	counters map[string]int64
	ttls     map[string]time.Duration
	expires  []string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		values:   map[string]string{},
		counters: map[string]int64{},
		ttls:     map[string]time.Duration{},
	}
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.values[key] = fmt.Sprint(value)
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if v, ok := f.values[key]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) *redis.BoolCmd {
	if _, taken := f.values[key]; taken {
		return redis.NewBoolResult(false, nil)
	}
	f.Set(ctx, key, value, ttl)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	f.counters[key]++
	if _, ok := f.ttls[key]; !ok {
		f.ttls[key] = -1
	}
	return redis.NewIntResult(f.counters[key], nil)
}

func (f *fakeRedis) Expire(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	f.expires = append(f.expires, key)
	f.ttls[key] = ttl
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) TTL(_ context.Context, key string) *redis.DurationCmd {
	if ttl, ok := f.ttls[key]; ok {
		return redis.NewDurationResult(ttl, nil)
	}
	return redis.NewDurationResult(-2, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(f.values, key)
		delete(f.ttls, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	client := &Client{store: fake}

	for i, wantAllowed := range []bool{true, true, false} {
		allowed, count, err := client.FixedWindowAllow(ctx, "google:ip:10.0.0.1", 2, time.Minute)
		require.NoError(t, err)
		require.Equal(t, wantAllowed, allowed, "hit %d", i+1)
		require.EqualValues(t, i+1, count)
	}
	require.Len(t, fake.expires, 1, "window is armed once")
	require.Equal(t, time.Minute, fake.ttls[client.RateLimitKey("google:ip:10.0.0.1")])
}

func TestFixedWindowRearmsLostExpiry(t *testing.T) {
	fake := newFakeRedis()
	client := &Client{store: fake}
	key := client.RateLimitKey("relay:ip:1.2.3.4")
	fake.counters[key] = 4
	fake.ttls[key] = -1

	allowed, count, err := client.FixedWindowAllow(context.Background(), "relay:ip:1.2.3.4", 10, time.Minute)
	require.NoError(t, err)
	require.True(t, allowed)
	require.EqualValues(t, 5, count)
	require.Equal(t, []string{key}, fake.expires)
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	client := &Client{store: fake}
	key := client.AccessSessionKey("sid-1")

	require.NoError(t, client.Set(ctx, key, "user-1", 10*time.Minute))
	got, err := client.Get(ctx, key)
	require.NoError(t, err)
	require.Equal(t, "user-1", got)
	require.Equal(t, 10*time.Minute, fake.ttls[key])

	require.NoError(t, client.Del(ctx, key))
	_, err = client.Get(ctx, key)
	require.ErrorIs(t, err, redis.Nil)
}

func TestUninitializedClient(t *testing.T) {
	ctx := context.Background()
	client := &Client{}

	require.ErrorIs(t, client.Ping(ctx), errNotInitialized)
	_, err := client.SetNX(ctx, "k", "v", time.Second)
	require.ErrorIs(t, err, errNotInitialized)
	_, _, err = client.FixedWindowAllow(ctx, "scope", 1, time.Second)
	require.ErrorIs(t, err, errNotInitialized)
	require.NoError(t, client.Close())
}

func TestKeyLayout(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.IdempotencyKey("scope", "id"): "bazaar:idempotency:scope:id",
		client.IdempotencyKey("scope", " "):  "bazaar:idempotency:scope",
		client.RateLimitKey("relay"):         "bazaar:rate_limit:relay",
		client.LockKey("cron"):               "bazaar:lock:cron",
		client.AccessSessionKey("abc"):       "bazaar:session:access:abc",
	}
	for got, want := range cases {
		require.Equal(t, want, got)
	}
}
