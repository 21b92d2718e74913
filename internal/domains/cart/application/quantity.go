package application

import (
	"context"
	"sync"

	"github.com/Apurer/storefront-core/internal/domains/cart/ports"
)

// QuantityControl backs a quantity stepper. It shows the new value at once and
// reverts to the last confirmed value when the update fails.
type QuantityControl struct {
	mu        sync.Mutex
	store     ports.Service
	itemID    string
	confirmed int
	display   int
	inFlight  bool
}

func NewQuantityControl(store ports.Service, itemID string, quantity int) *QuantityControl {
	return &QuantityControl{store: store, itemID: itemID, confirmed: quantity, display: quantity}
}

// Display is the value the UI should render.
func (q *QuantityControl) Display() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.display
}

// Confirmed is the last quantity the remote accepted.
func (q *QuantityControl) Confirmed() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.confirmed
}

// Pending reports whether an update awaits confirmation.
func (q *QuantityControl) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inFlight
}

// Set applies quantity to the display, then issues the update.
func (q *QuantityControl) Set(ctx context.Context, quantity int) error {
	q.mu.Lock()
	if q.inFlight {
		q.mu.Unlock()
		return ErrUpdateInFlight
	}
	previous := q.display
	q.display = quantity
	q.inFlight = true
	q.mu.Unlock()

	err := q.store.UpdateItem(ctx, q.itemID, quantity)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = false
	if err != nil {
		q.display = previous
		return err
	}
	q.confirmed = quantity
	return nil
}
