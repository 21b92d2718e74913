package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newTestCache(clock *fakeClock) *Cache {
	return New(WithClock(clock.Now))
}

func TestGetReturnsAbsentAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestCache(clock)
	ctx := context.Background()

	c.Set("orders:list:abc", "page-1")
	clock.Advance(DefaultTTL)
	v, ok := c.Get(ctx, "orders:list:abc")
	require.True(t, ok, "entry at exactly TTL is still fresh")
	require.Equal(t, "page-1", v)

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "orders:list:abc")
	require.False(t, ok)
	require.Zero(t, c.Len(), "expired entry is removed lazily on access")
}

func TestSetWithTTLUsesShorterTrackingWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := newTestCache(clock)
	ctx := context.Background()

	c.SetWithTTL("tracking:get:1", "in transit", TrackingTTL)
	clock.Advance(59 * time.Second)
	_, ok := c.Get(ctx, "tracking:get:1")
	require.True(t, ok)
	clock.Advance(2 * time.Second)
	_, ok = c.Get(ctx, "tracking:get:1")
	require.False(t, ok)
}

func TestInvalidateAndPrefix(t *testing.T) {
	c := New()
	ctx := context.Background()
	orders := Namespace("orders")
	cart := Namespace("cart")

	c.Set(orders.Key("list", map[string]int{"page": 1}), 1)
	c.Set(orders.Key("list", map[string]int{"page": 2}), 2)
	c.Set(orders.Key("detail", "o-1"), 3)
	c.Set(cart.Key("get", "guest:abc"), 4)

	removed := c.InvalidatePrefix(ctx, orders.Prefix("list"))
	require.Equal(t, 2, removed)
	_, ok := c.Get(ctx, orders.Key("detail", "o-1"))
	require.True(t, ok)

	c.Invalidate(ctx, orders.Key("detail", "o-1"))
	_, ok = c.Get(ctx, orders.Key("detail", "o-1"))
	require.False(t, ok)

	_, ok = c.Get(ctx, cart.Key("get", "guest:abc"))
	require.True(t, ok, "other namespaces are untouched")

	c.Reset(ctx)
	require.Zero(t, c.Len())
}

func TestKeyIsDeterministic(t *testing.T) {
	ns := Namespace("orders")
	a := ns.Key("list", map[string]any{"page": 1, "status": "shipped"})
	b := ns.Key("list", map[string]any{"status": "shipped", "page": 1})
	require.Equal(t, a, b)
	require.NotEqual(t, a, ns.Key("list", map[string]any{"page": 2, "status": "shipped"}))
	require.Contains(t, a, "orders:list:")
	require.Equal(t, "orders:", ns.Prefix(""))
}

func TestGetOrLoadCachesOnlySuccess(t *testing.T) {
	c := New()
	ctx := context.Background()
	calls := 0
	failing := func(context.Context) (int, error) {
		calls++
		return 0, errors.New("remote down")
	}
	_, err := GetOrLoad(ctx, c, "cart:count:x", DefaultTTL, failing)
	require.Error(t, err)
	require.Zero(t, c.Len())

	loader := func(context.Context) (int, error) {
		calls++
		return 7, nil
	}
	v, err := GetOrLoad(ctx, c, "cart:count:x", DefaultTTL, loader)
	require.NoError(t, err)
	require.Equal(t, 7, v)
	v, err = GetOrLoad(ctx, c, "cart:count:x", DefaultTTL, loader)
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.Equal(t, 2, calls)
}
