package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Namespace scopes keys for one store so stores sharing a Cache never collide.
type Namespace string

const (
	Cart      Namespace = "cart"
	CartCount Namespace = "cart-count"
	Orders    Namespace = "orders"
	Tracking  Namespace = "tracking"
	Payments  Namespace = "payments"
	Returns   Namespace = "returns"
)

// Key derives the deterministic slot for operation+params inside the namespace:
// "<namespace>:<operation>:<fingerprint>". Params are JSON-encoded, so map keys
// are ordered and identical reads land on the same slot.
func (n Namespace) Key(operation string, params any) string {
	return fmt.Sprintf("%s:%s:%s", n, operation, fingerprint(params))
}

// Prefix returns the prefix shared by every key of operation ("" for the whole namespace).
func (n Namespace) Prefix(operation string) string {
	if operation == "" {
		return string(n) + ":"
	}
	return fmt.Sprintf("%s:%s:", n, operation)
}

func fingerprint(params any) string {
	if params == nil {
		return "-"
	}
	payload, err := json.Marshal(params)
	if err != nil {
		payload = []byte(fmt.Sprintf("%#v", params))
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:8])
}

// GetOrLoad is the read-through helper: it returns a cached T for key or calls
// load, storing the result with ttl only when load succeeds.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(ctx, key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
		c.Invalidate(ctx, key)
	}
	value, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.SetWithTTL(key, value, ttl)
	return value, nil
}
