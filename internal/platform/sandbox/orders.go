package sandbox

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

type addressRecord struct {
	ID           string `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	AddressType  string `json:"address_type"`
}

type orderItemJSON struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	VariantID   string          `json:"variant_id,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type trackingEventJSON struct {
	Status      string    `json:"status"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type orderRecord struct {
	ID                string          `json:"id"`
	OrderNumber       string          `json:"order_number"`
	Status            string          `json:"status"`
	Items             []orderItemJSON `json:"items"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Currency          string          `json:"currency"`
	BillingAddressID  string          `json:"billing_address_id"`
	ShippingAddressID *string         `json:"shipping_address_id"`
	PaymentMethod     string          `json:"payment_method"`
	Notes             string          `json:"notes"`
	CreatedAt         time.Time       `json:"created_at"`

	userID   string
	carrier  string
	tracking string
	events   []trackingEventJSON
}

type paymentRecord struct {
	ID            string          `json:"id"`
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"payment_method"`
	Status        string          `json:"status"`
	TransactionID string          `json:"transaction_id"`
	CreatedAt     time.Time       `json:"created_at"`
}

type returnRecord struct {
	ID           string          `json:"id"`
	OrderItemID  string          `json:"order_item_id"`
	Reason       string          `json:"reason"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	Images       []string        `json:"images"`
	Status       string          `json:"status"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	CreatedAt    time.Time       `json:"created_at"`

	userID string
}

type createOrderRequest struct {
	BillingAddressID  string  `json:"billing_address_id"`
	ShippingAddressID *string `json:"shipping_address_id"`
	PaymentMethod     string  `json:"payment_method"`
	Notes             string  `json:"notes"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type createReturnRequest struct {
	OrderItemID string   `json:"order_item_id"`
	Reason      string   `json:"reason"`
	Description string   `json:"description"`
	Quantity    int      `json:"quantity"`
	Images      []string `json:"images"`
}

type pageJSON[T any] struct {
	Results  []T `json:"results"`
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

var paymentMethods = map[string]bool{"cod": true, "card": true, "upi": true, "netbanking": true, "wallet": true}

func (s *Server) listAddresses(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append([]addressRecord{}, s.addresses[currentUser(c)]...)
	c.JSON(http.StatusOK, list)
}

func (s *Server) createAddress(c *gin.Context) {
	var req addressRecord
	if err := c.ShouldBindJSON(&req); err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithDetail(err.Error()))
		return
	}
	problem := sharederrors.ProblemValidation
	required := []struct{ field, value string }{
		{"first_name", req.FirstName}, {"last_name", req.LastName}, {"address_line1", req.AddressLine1},
		{"city", req.City}, {"postal_code", req.PostalCode}, {"country", req.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			problem = problem.WithFieldError(r.field, "This field is required.")
		}
	}
	if len(problem.Errors) > 0 {
		sharederrors.Respond(c, problem)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	req.ID = s.newID()
	user := currentUser(c)
	s.addresses[user] = append(s.addresses[user], req)
	c.JSON(http.StatusCreated, req)
}

func (s *Server) ownsAddress(user, id string) bool {
	for _, a := range s.addresses[user] {
		if a.ID == id {
			return true
		}
	}
	return false
}

func (s *Server) createOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithDetail(err.Error()))
		return
	}
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()

	problem := sharederrors.ProblemValidation
	if !s.ownsAddress(user, req.BillingAddressID) {
		problem = problem.WithFieldError("billing_address_id", "Unknown address.")
	}
	if req.ShippingAddressID != nil && !s.ownsAddress(user, *req.ShippingAddressID) {
		problem = problem.WithFieldError("shipping_address_id", "Unknown address.")
	}
	if !paymentMethods[req.PaymentMethod] {
		problem = problem.WithFieldError("payment_method", fmt.Sprintf("%q is not a valid choice.", req.PaymentMethod))
	}
	if len(problem.Errors) > 0 {
		sharederrors.Respond(c, problem)
		return
	}
	rec, found := s.carts["user:"+user]
	if !found || len(rec.Lines) == 0 {
		sharederrors.Respond(c, sharederrors.ProblemValidation.WithDetail("Cart is empty."))
		return
	}

	order := s.placeOrder(s.newID(), user, rec.Lines, req)
	c.JSON(http.StatusCreated, order)
}

// placeOrder records order id for lines plus its payment. Callers hold mu.
func (s *Server) placeOrder(id, user string, lines []*cartLine, req createOrderRequest) *orderRecord {
	now := s.now().UTC()
	s.orderSeq++
	order := &orderRecord{
		ID:                id,
		OrderNumber:       fmt.Sprintf("ORD-%06d", s.orderSeq),
		Status:            "pending",
		Currency:          currency,
		BillingAddressID:  req.BillingAddressID,
		ShippingAddressID: req.ShippingAddressID,
		PaymentMethod:     req.PaymentMethod,
		Notes:             req.Notes,
		CreatedAt:         now,
		userID:            user,
		carrier:           "Sandbox Express",
		tracking:          "SBX" + strconv.Itoa(100000+s.orderSeq),
		events:            []trackingEventJSON{{Status: "pending", Location: "Warehouse", Description: "Order placed", Timestamp: now}},
	}
	for _, line := range lines {
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		order.Items = append(order.Items, orderItemJSON{
			ID: s.newID(), ProductID: line.ProductID, ProductName: s.catalog[line.ProductID].Name,
			VariantID: line.VariantID, Quantity: line.Quantity, UnitPrice: line.UnitPrice, TotalPrice: total,
		})
		order.Subtotal = order.Subtotal.Add(total)
	}
	order.TotalAmount = order.Subtotal
	s.orders[order.ID] = order

	status := "completed"
	if req.PaymentMethod == "cod" {
		status = "pending"
	}
	s.payments[order.ID] = append(s.payments[order.ID], paymentRecord{
		ID: s.newID(), OrderID: order.ID, Amount: order.TotalAmount, Currency: currency,
		PaymentMethod: req.PaymentMethod, Status: status, TransactionID: "TXN-" + order.OrderNumber, CreatedAt: now,
	})
	return order
}

// userOrder loads an order owned by the caller, responding 404 otherwise.
func (s *Server) userOrder(c *gin.Context) (*orderRecord, bool) {
	order, found := s.orders[c.Param("orderId")]
	if !found || order.userID != currentUser(c) {
		sharederrors.Respond(c, sharederrors.NewNotFoundProblem("order", c.Param("orderId")))
		return nil, false
	}
	return order, true
}

func (s *Server) listOrders(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}
	status := strings.ToLower(strings.TrimSpace(c.Query("status")))
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []orderRecord
	for _, o := range s.orders {
		if o.userID == currentUser(c) && (status == "" || o.Status == status) {
			mine = append(mine, *o)
		}
	}
	newestFirst(mine, func(o orderRecord) time.Time { return o.CreatedAt })
	c.JSON(http.StatusOK, pageJSON[orderRecord]{Results: paginate(mine, page, pageSize), Count: len(mine), Page: page, PageSize: pageSize})
}

func (s *Server) getOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.userOrder(c); ok {
		c.JSON(http.StatusOK, order)
	}
}

func (s *Server) cancelOrder(c *gin.Context) {
	var req cancelRequest
	_ = c.ShouldBindJSON(&req)
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.userOrder(c)
	if !ok {
		return
	}
	switch order.Status {
	case "pending", "confirmed", "processing":
	default:
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithDetail(fmt.Sprintf("Order cannot be cancelled in status %s.", order.Status)))
		return
	}
	s.setStatus(order, "cancelled", strings.TrimSpace("Order cancelled. "+req.Reason))
	c.JSON(http.StatusOK, order)
}

func (s *Server) setStatus(order *orderRecord, status, description string) {
	order.Status = status
	order.events = append(order.events, trackingEventJSON{Status: status, Location: "Sandbox", Description: description, Timestamp: s.now().UTC()})
}

// AdvanceOrder moves an order to status, as the fulfilment side would.
func (s *Server) AdvanceOrder(orderID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, found := s.orders[orderID]
	if !found {
		return fmt.Errorf("order %s not found", orderID)
	}
	s.setStatus(order, status, "Order "+status)
	return nil
}

func (s *Server) trackOrder(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.userOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_id":           order.ID,
		"status":             order.Status,
		"carrier":            order.carrier,
		"tracking_number":    order.tracking,
		"estimated_delivery": order.CreatedAt.Add(5 * 24 * time.Hour).Format("2006-01-02"),
		"tracking_history":   order.events,
	})
}

func (s *Server) orderPayments(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.userOrder(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, append([]paymentRecord{}, s.payments[order.ID]...))
}

func (s *Server) listPayments(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []paymentRecord
	for orderID, list := range s.payments {
		if s.orders[orderID].userID == currentUser(c) {
			mine = append(mine, list...)
		}
	}
	newestFirst(mine, func(p paymentRecord) time.Time { return p.CreatedAt })
	c.JSON(http.StatusOK, pageJSON[paymentRecord]{Results: paginate(mine, page, pageSize), Count: len(mine), Page: page, PageSize: pageSize})
}

func (s *Server) createReturn(c *gin.Context) {
	var req createReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithDetail(err.Error()))
		return
	}
	user := currentUser(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	item, found := s.orderItem(user, req.OrderItemID)
	if !found {
		sharederrors.Respond(c, sharederrors.ProblemValidation.WithFieldError("order_item_id", "Unknown order item."))
		return
	}
	problem := sharederrors.ProblemValidation
	if strings.TrimSpace(req.Reason) == "" {
		problem = problem.WithFieldError("reason", "This field is required.")
	}
	if req.Quantity < 1 || req.Quantity > item.Quantity {
		problem = problem.WithFieldError("quantity", fmt.Sprintf("Quantity must be between 1 and %d.", item.Quantity))
	}
	if len(problem.Errors) > 0 {
		sharederrors.Respond(c, problem)
		return
	}
	ret := &returnRecord{
		ID:           s.newID(),
		OrderItemID:  item.ID,
		Reason:       req.Reason,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Images:       append([]string{}, req.Images...),
		Status:       "requested",
		RefundAmount: item.UnitPrice.Mul(decimal.NewFromInt(int64(req.Quantity))),
		CreatedAt:    s.now().UTC(),
		userID:       user,
	}
	s.returns[ret.ID] = ret
	c.JSON(http.StatusCreated, ret)
}

func (s *Server) orderItem(user, itemID string) (orderItemJSON, bool) {
	for _, o := range s.orders {
		if o.userID != user {
			continue
		}
		for _, it := range o.Items {
			if it.ID == itemID {
				return it, true
			}
		}
	}
	return orderItemJSON{}, false
}

func (s *Server) listReturns(c *gin.Context) {
	page, pageSize, ok := pageParams(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []returnRecord
	for _, r := range s.returns {
		if r.userID == currentUser(c) {
			mine = append(mine, *r)
		}
	}
	newestFirst(mine, func(r returnRecord) time.Time { return r.CreatedAt })
	c.JSON(http.StatusOK, pageJSON[returnRecord]{Results: paginate(mine, page, pageSize), Count: len(mine), Page: page, PageSize: pageSize})
}

func (s *Server) getReturn(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret, found := s.returns[c.Param("returnId")]
	if !found || ret.userID != currentUser(c) {
		sharederrors.Respond(c, sharederrors.NewNotFoundProblem("return", c.Param("returnId")))
		return
	}
	c.JSON(http.StatusOK, ret)
}

func pageParams(c *gin.Context) (int, int, bool) {
	page, err := positiveQuery(c, "page", 1)
	if err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithFieldError("page", err.Error()))
		return 0, 0, false
	}
	pageSize, err := positiveQuery(c, "page_size", 10)
	if err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithFieldError("page_size", err.Error()))
		return 0, 0, false
	}
	return page, pageSize, true
}

func positiveQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}
