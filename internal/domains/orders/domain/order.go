package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TrackingPollInterval is how often a UI should re-poll tracking for an active order.
const TrackingPollInterval = 60 * time.Second

var (
	ErrEmptyOrderID      = errors.New("order id is required")
	ErrEmptyReturnID     = errors.New("return id is required")
	ErrEmptyOrderItemID  = errors.New("order item id is required")
	ErrEmptyReturnReason = errors.New("return reason is required")
	ErrInvalidQuantity   = errors.New("return quantity must be at least 1")
)

// Status is owned by the remote system; this layer only reads it.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// Terminal reports whether no further status change is expected.
func (s Status) Terminal() bool {
	switch Status(strings.ToLower(string(s))) {
	case StatusDelivered, StatusCancelled, StatusRefunded:
		return true
	default:
		return false
	}
}

// ShouldPoll reports whether tracking for an order in status s is worth polling.
func ShouldPoll(s Status) bool { return s != "" && !s.Terminal() }

// Item is one order line as reported by the remote system.
type Item struct {
	ID          string
	ProductID   string
	ProductName string
	VariantID   string
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
}

// Order is the normalized remote order.
type Order struct {
	ID                string
	Number            string
	Status            Status
	Items             []Item
	Subtotal          decimal.Decimal
	Total             decimal.Decimal
	Currency          string
	BillingAddressID  string
	ShippingAddressID string
	PaymentMethod     string
	Notes             string
	CreatedAt         time.Time
}

// TrackingEvent is one carrier scan.
type TrackingEvent struct {
	Status      string
	Location    string
	Description string
	Timestamp   time.Time
}

// Tracking is the shipment view of an order.
type Tracking struct {
	OrderID           string
	Status            Status
	Carrier           string
	TrackingNumber    string
	EstimatedDelivery time.Time
	Events            []TrackingEvent
}

// Payment is one payment record.
type Payment struct {
	ID            string
	OrderID       string
	Amount        decimal.Decimal
	Currency      string
	Method        string
	Status        string
	TransactionID string
	CreatedAt     time.Time
}

// Return is a return request.
type Return struct {
	ID           string
	OrderItemID  string
	Reason       string
	Description  string
	Quantity     int
	Images       []string
	Status       string
	RefundAmount decimal.Decimal
	CreatedAt    time.Time
}

// ReturnRequest is the create-return input.
type ReturnRequest struct {
	OrderItemID string
	Reason      string
	Description string
	Quantity    int
	Images      []string
}

func (r ReturnRequest) Validate() error {
	if strings.TrimSpace(r.OrderItemID) == "" {
		return ErrEmptyOrderItemID
	}
	if strings.TrimSpace(r.Reason) == "" {
		return ErrEmptyReturnReason
	}
	if r.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}

// PageQuery selects one page of a listing.
type PageQuery struct {
	Page     int
	PageSize int
}

// Normalize fills defaults: page 1, size 10.
func (q PageQuery) Normalize() PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 10
	}
	return q
}

// OrderQuery filters the order listing.
type OrderQuery struct {
	PageQuery
	Status Status
}

// Page is one page of results plus the total count.
type Page[T any] struct {
	Results  []T
	Count    int
	Page     int
	PageSize int
}
