package sandbox

import (
	"fmt"
	"strings"
)

// Reset drops every cart, address, order, payment and return.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts = map[string]*cartRecord{}
	s.addresses = map[string][]addressRecord{}
	s.orders = map[string]*orderRecord{}
	s.orderSeq = 0
	s.payments = map[string][]paymentRecord{}
	s.returns = map[string]*returnRecord{}
}

// SeedGuestCart puts quantity of productID into the cart of a guest session.
func (s *Server) SeedGuestCart(sessionID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, err := s.seedLine(productID, quantity)
	if err != nil {
		return err
	}
	rec := s.cartFor("guest:" + strings.TrimSpace(sessionID))
	rec.Lines = append(rec.Lines, line)
	return nil
}

// SeedOrder records a pending cash-on-delivery order with a fixed id for userID,
// billed to a seeded address.
func (s *Server) SeedOrder(userID, orderID, productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[orderID]; exists {
		return fmt.Errorf("order %s already exists", orderID)
	}
	line, err := s.seedLine(productID, quantity)
	if err != nil {
		return err
	}
	address := addressRecord{
		ID: s.newID(), FirstName: "Seed", LastName: "User", AddressLine1: "1 Sandbox Street",
		City: "Pune", State: "MH", PostalCode: "411001", Country: "IN", Phone: "+91-9000000000", AddressType: "billing",
	}
	s.addresses[userID] = append(s.addresses[userID], address)
	s.placeOrder(orderID, userID, []*cartLine{line}, createOrderRequest{BillingAddressID: address.ID, PaymentMethod: "cod"})
	return nil
}

func (s *Server) seedLine(productID string, quantity int) (*cartLine, error) {
	product, found := s.catalog[productID]
	if !found {
		return nil, fmt.Errorf("unknown product %s", productID)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	return &cartLine{ID: s.newID(), ProductID: product.ID, Quantity: quantity, UnitPrice: product.Price}, nil
}
