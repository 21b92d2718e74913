package commerce

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	cartdomain "github.com/Apurer/storefront-core/internal/domains/cart/domain"
	checkoutdomain "github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	ordersdomain "github.com/Apurer/storefront-core/internal/domains/orders/domain"
)

// flexID accepts identifiers encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// flexInt accepts integers encoded as JSON numbers or numeric strings.
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		d, derr := decimal.NewFromString(raw)
		if derr != nil {
			return err
		}
		n = int(d.IntPart())
	}
	f.Value, f.Set = n, true
	return nil
}

// flexTime accepts RFC 3339 timestamps, bare dates, empty strings and null.
type flexTime struct{ time.Time }

func (f *flexTime) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if raw == "" || raw == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", raw)
}

func firstID(ids ...flexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

func firstString(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func firstMoney(values ...decimal.NullDecimal) decimal.NullDecimal {
	for _, v := range values {
		if v.Valid {
			return v
		}
	}
	return decimal.NullDecimal{}
}

func firstInt(values ...flexInt) int {
	for _, v := range values {
		if v.Set {
			return v.Value
		}
	}
	return 0
}

func firstTime(values ...flexTime) time.Time {
	for _, v := range values {
		if !v.IsZero() {
			return v.Time
		}
	}
	return time.Time{}
}

// Cart

type wireProduct struct {
	ID    flexID              `json:"id"`
	Name  string              `json:"name"`
	Title string              `json:"title"`
	Price decimal.NullDecimal `json:"price"`
}

type wireCartItem struct {
	ID        flexID              `json:"id"`
	ProductID flexID              `json:"product_id"`
	Product   *wireProduct        `json:"product"`
	VariantID flexID              `json:"variant_id"`
	Variant   flexID              `json:"variant"`
	Quantity  flexInt             `json:"quantity"`
	UnitPrice decimal.NullDecimal `json:"unit_price"`
	Price     decimal.NullDecimal `json:"price"`
}

type wireCart struct {
	ID          flexID              `json:"id"`
	Items       []wireCartItem      `json:"items"`
	Subtotal    decimal.NullDecimal `json:"subtotal"`
	SubTotal    decimal.NullDecimal `json:"sub_total"`
	TotalAmount decimal.NullDecimal `json:"total_amount"`
	Total       decimal.NullDecimal `json:"total"`
	ItemCount   flexInt             `json:"item_count"`
	Count       flexInt             `json:"count"`
	Currency    string              `json:"currency"`
}

func (w wireCart) toDomain() cartdomain.Cart {
	c := cartdomain.Cart{
		ID:        string(w.ID),
		Items:     make([]cartdomain.Item, 0, len(w.Items)),
		Currency:  strings.ToUpper(strings.TrimSpace(w.Currency)),
		Subtotal:  firstMoney(w.Subtotal, w.SubTotal),
		Total:     firstMoney(w.TotalAmount, w.Total),
		ItemCount: firstInt(w.ItemCount, w.Count),
	}
	for _, it := range w.Items {
		item := cartdomain.Item{
			ID:        string(it.ID),
			VariantID: firstID(it.VariantID, it.Variant),
			Quantity:  it.Quantity.Value,
			UnitPrice: firstMoney(it.UnitPrice, it.Price),
		}
		if it.Product != nil {
			item.Product = cartdomain.Product{
				ID:    string(it.Product.ID),
				Name:  firstString(it.Product.Name, it.Product.Title),
				Price: it.Product.Price,
			}
		}
		item.ProductID = firstID(it.ProductID, flexID(item.Product.ID))
		c.Items = append(c.Items, item)
	}
	return c
}

type wireCount struct {
	Count     flexInt `json:"count"`
	ItemCount flexInt `json:"item_count"`
}

type addItemBody struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity"`
	SessionID string  `json:"session_id,omitempty"`
}

type updateItemBody struct {
	Quantity  int    `json:"quantity"`
	SessionID string `json:"session_id,omitempty"`
}

type transferBody struct {
	SessionID string `json:"session_id"`
}

// Addresses

type wireAddress struct {
	ID           flexID `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line1"`
	Line1        string `json:"line1"`
	AddressLine2 string `json:"address_line2"`
	Line2        string `json:"line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	AddressType  string `json:"address_type"`
	Type         string `json:"type"`
}

// Matching is exact, so values pass through untrimmed.
func (w wireAddress) toDomain() checkoutdomain.Address {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return checkoutdomain.Address{
		ID:         string(w.ID),
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		Line1:      pick(w.AddressLine1, w.Line1),
		Line2:      pick(w.AddressLine2, w.Line2),
		City:       w.City,
		State:      w.State,
		PostalCode: pick(w.PostalCode, w.ZipCode),
		Country:    w.Country,
		Phone:      w.Phone,
		Type:       checkoutdomain.AddressType(pick(w.AddressType, w.Type)),
	}
}

type addressBody struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	AddressType  string `json:"address_type,omitempty"`
}

func newAddressBody(a checkoutdomain.Address) addressBody {
	return addressBody{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		AddressLine1: a.Line1,
		AddressLine2: a.Line2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
		Phone:        a.Phone,
		AddressType:  string(a.Type),
	}
}

// Orders

type wireOrderItem struct {
	ID          flexID              `json:"id"`
	ProductID   flexID              `json:"product_id"`
	Product     *wireProduct        `json:"product"`
	ProductName string              `json:"product_name"`
	Name        string              `json:"name"`
	VariantID   flexID              `json:"variant_id"`
	Quantity    flexInt             `json:"quantity"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	Price       decimal.NullDecimal `json:"price"`
	TotalPrice  decimal.NullDecimal `json:"total_price"`
	Total       decimal.NullDecimal `json:"total"`
}

type wireOrder struct {
	ID                flexID              `json:"id"`
	OrderNumber       string              `json:"order_number"`
	Number            string              `json:"number"`
	Status            string              `json:"status"`
	Items             []wireOrderItem     `json:"items"`
	Subtotal          decimal.NullDecimal `json:"subtotal"`
	SubTotal          decimal.NullDecimal `json:"sub_total"`
	TotalAmount       decimal.NullDecimal `json:"total_amount"`
	Total             decimal.NullDecimal `json:"total"`
	Currency          string              `json:"currency"`
	BillingAddressID  flexID              `json:"billing_address_id"`
	ShippingAddressID flexID              `json:"shipping_address_id"`
	PaymentMethod     string              `json:"payment_method"`
	Notes             string              `json:"notes"`
	CustomerNotes     string              `json:"customer_notes"`
	CreatedAt         flexTime            `json:"created_at"`
}

func (w wireOrder) toDomain() ordersdomain.Order {
	o := ordersdomain.Order{
		ID:                string(w.ID),
		Number:            firstString(w.OrderNumber, w.Number, string(w.ID)),
		Status:            ordersdomain.Status(strings.ToLower(strings.TrimSpace(w.Status))),
		Items:             make([]ordersdomain.Item, 0, len(w.Items)),
		Subtotal:          firstMoney(w.Subtotal, w.SubTotal).Decimal,
		Total:             firstMoney(w.TotalAmount, w.Total).Decimal,
		Currency:          firstString(strings.ToUpper(w.Currency), cartdomain.DefaultCurrency),
		BillingAddressID:  string(w.BillingAddressID),
		ShippingAddressID: string(w.ShippingAddressID),
		PaymentMethod:     w.PaymentMethod,
		Notes:             firstString(w.Notes, w.CustomerNotes),
		CreatedAt:         w.CreatedAt.Time,
	}
	for _, it := range w.Items {
		item := ordersdomain.Item{
			ID:          string(it.ID),
			ProductID:   string(it.ProductID),
			ProductName: firstString(it.ProductName, it.Name),
			VariantID:   string(it.VariantID),
			Quantity:    it.Quantity.Value,
		}
		price := firstMoney(it.UnitPrice, it.Price)
		if it.Product != nil {
			item.ProductID = firstID(it.ProductID, it.Product.ID)
			item.ProductName = firstString(item.ProductName, it.Product.Name, it.Product.Title)
			price = firstMoney(price, it.Product.Price)
		}
		item.UnitPrice = price.Decimal
		item.Total = firstMoney(it.TotalPrice, it.Total).Decimal
		if item.Total.IsZero() {
			item.Total = item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		}
		o.Items = append(o.Items, item)
	}
	return o
}

type createOrderBody struct {
	BillingAddressID  string  `json:"billing_address_id"`
	ShippingAddressID *string `json:"shipping_address_id"`
	PaymentMethod     string  `json:"payment_method"`
	Notes             string  `json:"notes"`
}

type cancelBody struct {
	Reason string `json:"reason"`
}

type wireTrackingEvent struct {
	Status      string   `json:"status"`
	Location    string   `json:"location"`
	Description string   `json:"description"`
	Timestamp   flexTime `json:"timestamp"`
	CreatedAt   flexTime `json:"created_at"`
}

type wireTracking struct {
	OrderID           flexID              `json:"order_id"`
	Order             flexID              `json:"order"`
	Status            string              `json:"status"`
	Carrier           string              `json:"carrier"`
	TrackingNumber    string              `json:"tracking_number"`
	EstimatedDelivery flexTime            `json:"estimated_delivery"`
	Events            []wireTrackingEvent `json:"events"`
	History           []wireTrackingEvent `json:"tracking_history"`
}

func (w wireTracking) toDomain(orderID string) ordersdomain.Tracking {
	events := w.Events
	if len(events) == 0 {
		events = w.History
	}
	t := ordersdomain.Tracking{
		OrderID:           firstString(firstID(w.OrderID, w.Order), orderID),
		Status:            ordersdomain.Status(strings.ToLower(strings.TrimSpace(w.Status))),
		Carrier:           w.Carrier,
		TrackingNumber:    w.TrackingNumber,
		EstimatedDelivery: w.EstimatedDelivery.Time,
		Events:            make([]ordersdomain.TrackingEvent, 0, len(events)),
	}
	for _, e := range events {
		t.Events = append(t.Events, ordersdomain.TrackingEvent{
			Status:      e.Status,
			Location:    e.Location,
			Description: e.Description,
			Timestamp:   firstTime(e.Timestamp, e.CreatedAt),
		})
	}
	return t
}

// Payments

type wirePayment struct {
	ID            flexID              `json:"id"`
	OrderID       flexID              `json:"order_id"`
	Order         flexID              `json:"order"`
	Amount        decimal.NullDecimal `json:"amount"`
	Currency      string              `json:"currency"`
	PaymentMethod string              `json:"payment_method"`
	Method        string              `json:"method"`
	Status        string              `json:"status"`
	TransactionID string              `json:"transaction_id"`
	CreatedAt     flexTime            `json:"created_at"`
}

func (w wirePayment) toDomain() ordersdomain.Payment {
	return ordersdomain.Payment{
		ID:            string(w.ID),
		OrderID:       firstID(w.OrderID, w.Order),
		Amount:        w.Amount.Decimal,
		Currency:      firstString(strings.ToUpper(w.Currency), cartdomain.DefaultCurrency),
		Method:        firstString(w.PaymentMethod, w.Method),
		Status:        w.Status,
		TransactionID: w.TransactionID,
		CreatedAt:     w.CreatedAt.Time,
	}
}

// Returns

type wireReturn struct {
	ID           flexID              `json:"id"`
	OrderItemID  flexID              `json:"order_item_id"`
	OrderItem    flexID              `json:"order_item"`
	Reason       string              `json:"reason"`
	Description  string              `json:"description"`
	Quantity     flexInt             `json:"quantity"`
	Images       []string            `json:"images"`
	Status       string              `json:"status"`
	RefundAmount decimal.NullDecimal `json:"refund_amount"`
	CreatedAt    flexTime            `json:"created_at"`
}

func (w wireReturn) toDomain() ordersdomain.Return {
	return ordersdomain.Return{
		ID:           string(w.ID),
		OrderItemID:  firstID(w.OrderItemID, w.OrderItem),
		Reason:       w.Reason,
		Description:  w.Description,
		Quantity:     w.Quantity.Value,
		Images:       append([]string(nil), w.Images...),
		Status:       w.Status,
		RefundAmount: w.RefundAmount.Decimal,
		CreatedAt:    w.CreatedAt.Time,
	}
}

type createReturnBody struct {
	OrderItemID string   `json:"order_item_id"`
	Reason      string   `json:"reason"`
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	Images      []string `json:"images"`
}

// Pages

// wirePage accepts both {results,count,...} envelopes and bare arrays.
type wirePage[W any] struct {
	Results  []W
	Count    int
	Page     int
	PageSize int
}

func (p *wirePage[W]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		if err := json.Unmarshal(data, &p.Results); err != nil {
			return err
		}
		p.Count = len(p.Results)
		return nil
	}
	var envelope struct {
		Results  []W     `json:"results"`
		Items    []W     `json:"items"`
		Count    flexInt `json:"count"`
		Total    flexInt `json:"total"`
		Page     flexInt `json:"page"`
		PageSize flexInt `json:"page_size"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	p.Results = envelope.Results
	if p.Results == nil {
		p.Results = envelope.Items
	}
	p.Count = firstInt(envelope.Count, envelope.Total)
	if !envelope.Count.Set && !envelope.Total.Set {
		p.Count = len(p.Results)
	}
	p.Page = envelope.Page.Value
	p.PageSize = envelope.PageSize.Value
	return nil
}

func toPage[W any, T any](w wirePage[W], q ordersdomain.PageQuery, convert func(W) T) ordersdomain.Page[T] {
	page := ordersdomain.Page[T]{
		Results:  make([]T, 0, len(w.Results)),
		Count:    w.Count,
		Page:     w.Page,
		PageSize: w.PageSize,
	}
	if page.Page == 0 {
		page.Page = q.Page
	}
	if page.PageSize == 0 {
		page.PageSize = q.PageSize
	}
	for _, item := range w.Results {
		page.Results = append(page.Results, convert(item))
	}
	return page
}
