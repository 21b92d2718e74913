package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency applies when neither the cart nor the caller names one.
const DefaultCurrency = "INR"

var (
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrEmptyProductID  = errors.New("product id is required")
	ErrEmptyItemID     = errors.New("cart item id is required")
)

// Owner identifies whose cart a call addresses: a signed-in user or a guest session, never both.
type Owner struct {
	UserID    string
	SessionID string
}

// Guest reports whether the owner is an anonymous session.
func (o Owner) Guest() bool { return o.UserID == "" }

// Key is the cache identity of the owner.
func (o Owner) Key() string {
	if o.UserID != "" {
		return "user:" + o.UserID
	}
	return "guest:" + o.SessionID
}

// Product is the catalog snapshot embedded in a cart line.
type Product struct {
	ID    string
	Name  string
	Price decimal.NullDecimal
}

// Item is one cart line. At most one Item exists per (ProductID, VariantID).
type Item struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  int
	// UnitPrice is the price captured when the line was added.
	UnitPrice decimal.NullDecimal
	Product   Product
}

// Price returns the captured unit price, falling back to the product price.
func (i Item) Price() decimal.Decimal {
	if i.UnitPrice.Valid {
		return i.UnitPrice.Decimal
	}
	if i.Product.Price.Valid {
		return i.Product.Price.Decimal
	}
	return decimal.Zero
}

// Cart is the normalized remote cart.
type Cart struct {
	ID       string
	Items    []Item
	Currency string
	// Server-computed figures; absent when the remote omitted them.
	Subtotal  decimal.NullDecimal
	Total     decimal.NullDecimal
	ItemCount int
}

// Empty returns the cart synthesized for an owner whose cart does not exist yet.
func Empty() Cart {
	return Cart{Items: []Item{}}
}

// Find returns the line for (productID, variantID).
func (c Cart) Find(productID, variantID string) (Item, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID && it.VariantID == variantID {
			return it, true
		}
	}
	return Item{}, false
}

// Totals is the display summary of a cart.
type Totals struct {
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	ItemCount int
	Currency  string
}

// ComputeTotals derives display totals without touching the network. Server totals win
// when present and non-zero; otherwise the subtotal is summed from unit price x quantity.
func ComputeTotals(c Cart) Totals {
	derived := decimal.Zero
	count := 0
	for _, it := range c.Items {
		derived = derived.Add(it.Price().Mul(decimal.NewFromInt(int64(it.Quantity))))
		count += it.Quantity
	}

	subtotal := derived
	if c.Subtotal.Valid && !c.Subtotal.Decimal.IsZero() {
		subtotal = c.Subtotal.Decimal
	}
	total := subtotal
	if c.Total.Valid && !c.Total.Decimal.IsZero() {
		total = c.Total.Decimal
	}
	if c.ItemCount > 0 {
		count = c.ItemCount
	}
	currency := strings.TrimSpace(c.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	return Totals{Subtotal: subtotal, Total: total, ItemCount: count, Currency: currency}
}

// AddItem is the add-to-cart request.
type AddItem struct {
	ProductID string
	VariantID string
	Quantity  int
}

// Validate rejects a non-positive quantity as a caller logic error.
func (a AddItem) Validate() error {
	if strings.TrimSpace(a.ProductID) == "" {
		return ErrEmptyProductID
	}
	if a.Quantity < 1 {
		return ErrInvalidQuantity
	}
	return nil
}
