package sandbox

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

type cartLine struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
}

type cartRecord struct {
	ID    string
	Lines []*cartLine
}

type productJSON struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type cartItemJSON struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Product   productJSON     `json:"product"`
	VariantID *string         `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type cartJSON struct {
	ID          string          `json:"id"`
	Items       []cartItemJSON  `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	ItemCount   int             `json:"item_count"`
	Currency    string          `json:"currency"`
}

type addItemRequest struct {
	ProductID string  `json:"product_id"`
	VariantID *string `json:"variant_id"`
	Quantity  int     `json:"quantity"`
	SessionID string  `json:"session_id"`
}

type updateItemRequest struct {
	Quantity  int    `json:"quantity"`
	SessionID string `json:"session_id"`
}

type transferRequest struct {
	SessionID string `json:"session_id"`
}

// cartOwner addresses the guest cart when a session id is given, else the bearer's cart.
func cartOwner(c *gin.Context, sessionID string) (string, bool) {
	if sid := strings.TrimSpace(sessionID); sid != "" {
		return "guest:" + sid, true
	}
	if user := currentUser(c); user != "" {
		return "user:" + user, true
	}
	sharederrors.Respond(c, sharederrors.ProblemUnauthorized.WithDetail("a bearer token or session_id is required"))
	return "", false
}

func (s *Server) renderCart(rec *cartRecord) cartJSON {
	out := cartJSON{ID: rec.ID, Items: make([]cartItemJSON, 0, len(rec.Lines)), Currency: currency}
	for _, line := range rec.Lines {
		product := s.catalog[line.ProductID]
		item := cartItemJSON{
			ID:        line.ID,
			ProductID: line.ProductID,
			Product:   productJSON{ID: product.ID, Name: product.Name, Price: product.Price},
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if line.VariantID != "" {
			variant := line.VariantID
			item.VariantID = &variant
		}
		out.Items = append(out.Items, item)
		out.Subtotal = out.Subtotal.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		out.ItemCount += line.Quantity
	}
	out.TotalAmount = out.Subtotal
	return out
}

func cartNotFound(c *gin.Context) {
	sharederrors.Respond(c, sharederrors.ProblemNotFound.WithDetail("cart not found"))
}

func (s *Server) getCart(c *gin.Context) {
	owner, ok := cartOwner(c, c.Query("session_id"))
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.carts[owner]
	if !found {
		cartNotFound(c)
		return
	}
	c.JSON(http.StatusOK, s.renderCart(rec))
}

func (s *Server) cartCount(c *gin.Context) {
	owner, ok := cartOwner(c, c.Query("session_id"))
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, found := s.carts[owner]
	if !found {
		cartNotFound(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": s.renderCart(rec).ItemCount})
}

func (s *Server) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithDetail(err.Error()))
		return
	}
	owner, ok := cartOwner(c, req.SessionID)
	if !ok {
		return
	}
	if req.Quantity < 1 {
		sharederrors.Respond(c, sharederrors.ProblemValidation.WithFieldError("quantity", "Ensure this value is greater than or equal to 1."))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	product, found := s.catalog[strings.TrimSpace(req.ProductID)]
	if !found {
		sharederrors.Respond(c, sharederrors.ProblemValidation.WithFieldError("product_id", "Unknown product."))
		return
	}
	variant := ""
	if req.VariantID != nil {
		variant = strings.TrimSpace(*req.VariantID)
	}
	rec := s.cartFor(owner)
	for _, line := range rec.Lines {
		if line.ProductID == product.ID && line.VariantID == variant {
			line.Quantity += req.Quantity
			c.JSON(http.StatusCreated, s.renderCart(rec))
			return
		}
	}
	rec.Lines = append(rec.Lines, &cartLine{
		ID: s.newID(), ProductID: product.ID, VariantID: variant, Quantity: req.Quantity, UnitPrice: product.Price,
	})
	c.JSON(http.StatusCreated, s.renderCart(rec))
}

func (s *Server) cartFor(owner string) *cartRecord {
	rec, found := s.carts[owner]
	if !found {
		rec = &cartRecord{ID: s.newID()}
		s.carts[owner] = rec
	}
	return rec
}

func (s *Server) updateCartItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sharederrors.Respond(c, sharederrors.ProblemBadRequest.WithDetail(err.Error()))
		return
	}
	owner, ok := cartOwner(c, req.SessionID)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, idx, found := s.findLine(owner, c.Param("itemId"))
	if !found {
		sharederrors.Respond(c, sharederrors.NewNotFoundProblem("cart item", c.Param("itemId")))
		return
	}
	if req.Quantity < 1 {
		rec.Lines = append(rec.Lines[:idx], rec.Lines[idx+1:]...)
	} else {
		rec.Lines[idx].Quantity = req.Quantity
	}
	c.JSON(http.StatusOK, s.renderCart(rec))
}

func (s *Server) removeCartItem(c *gin.Context) {
	owner, ok := cartOwner(c, c.Query("session_id"))
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, idx, found := s.findLine(owner, c.Param("itemId"))
	if !found {
		sharederrors.Respond(c, sharederrors.NewNotFoundProblem("cart item", c.Param("itemId")))
		return
	}
	rec.Lines = append(rec.Lines[:idx], rec.Lines[idx+1:]...)
	c.Status(http.StatusNoContent)
}

func (s *Server) findLine(owner, itemID string) (*cartRecord, int, bool) {
	rec, found := s.carts[owner]
	if !found {
		return nil, 0, false
	}
	for i, line := range rec.Lines {
		if line.ID == itemID {
			return rec, i, true
		}
	}
	return rec, 0, false
}

// clearCart empties the lines; the cart itself stays.
func (s *Server) clearCart(c *gin.Context) {
	owner, ok := cartOwner(c, c.Query("session_id"))
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, found := s.carts[owner]; found {
		rec.Lines = nil
	}
	c.Status(http.StatusNoContent)
}

// transferCart merges the guest cart into the bearer's cart and drops the guest cart.
func (s *Server) transferCart(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		sharederrors.Respond(c, sharederrors.ProblemValidation.WithFieldError("session_id", "This field is required."))
		return
	}
	guestKey := "guest:" + strings.TrimSpace(req.SessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	guest, found := s.carts[guestKey]
	if !found {
		cartNotFound(c)
		return
	}
	target := s.cartFor("user:" + currentUser(c))
	for _, line := range guest.Lines {
		merged := false
		for _, existing := range target.Lines {
			if existing.ProductID == line.ProductID && existing.VariantID == line.VariantID {
				existing.Quantity += line.Quantity
				merged = true
				break
			}
		}
		if !merged {
			target.Lines = append(target.Lines, line)
		}
	}
	delete(s.carts, guestKey)
	c.JSON(http.StatusOK, s.renderCart(target))
}
