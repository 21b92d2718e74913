package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMalformedAddressID   = errors.New("resolved address id is malformed")
)

// PaymentMethod is the selection forwarded to the remote API; no gateway is involved here.
type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cod"
	PaymentCard           PaymentMethod = "card"
	PaymentUPI            PaymentMethod = "upi"
	PaymentNetBanking     PaymentMethod = "netbanking"
	PaymentWallet         PaymentMethod = "wallet"
)

// ParsePaymentMethod normalizes and checks a method name.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(raw)))
	switch m {
	case PaymentCashOnDelivery, PaymentCard, PaymentUPI, PaymentNetBanking, PaymentWallet:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, raw)
	}
}

// Details is everything the shopper enters across the checkout steps.
type Details struct {
	Billing              Address
	Shipping             Address
	UseDifferentShipping bool
	PaymentMethod        PaymentMethod
	Notes                string
	AgreedToPolicies     bool
}

// ValidateAddresses is the step-1 check: billing always, shipping only when it differs.
func (d Details) ValidateAddresses() error {
	billingErr := d.Billing.Validate(string(AddressBilling))
	if !d.UseDifferentShipping {
		return billingErr
	}
	shippingErr := d.Shipping.Validate(string(AddressShipping))
	return mergeValidation(billingErr, shippingErr)
}

// ValidatePayment is the step-2 check.
func (d Details) ValidatePayment() error {
	_, err := ParsePaymentMethod(string(d.PaymentMethod))
	return err
}

// OrderRequest is what the remote create-order call receives. An empty
// ShippingAddressID means "same as billing".
type OrderRequest struct {
	BillingAddressID  string
	ShippingAddressID string
	PaymentMethod     PaymentMethod
	Notes             string
}

// Validate checks resolved ids before they reach the remote API.
func (r OrderRequest) Validate() error {
	if !WellFormedID(r.BillingAddressID) {
		return fmt.Errorf("%w: billing %q", ErrMalformedAddressID, r.BillingAddressID)
	}
	if r.ShippingAddressID != "" && !WellFormedID(r.ShippingAddressID) {
		return fmt.Errorf("%w: shipping %q", ErrMalformedAddressID, r.ShippingAddressID)
	}
	return nil
}
