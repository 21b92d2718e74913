// Package sandbox is an in-memory implementation of the commerce API the
// storefront core consumes. It backs local development, end-to-end tests and
// contract verification.
package sandbox

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// BasePath is where the API is mounted.
const BasePath = "/api/v1"

const currency = "INR"

// Product is a catalog entry.
type Product struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// DefaultCatalog seeds the sandbox with a few products.
func DefaultCatalog() []Product {
	return []Product{
		{ID: "P1", Name: "Cotton Kurta", Price: decimal.RequireFromString("799.00")},
		{ID: "P2", Name: "Steel Water Bottle", Price: decimal.RequireFromString("349.50")},
		{ID: "P3", Name: "Desk Lamp", Price: decimal.RequireFromString("1299.00")},
	}
}

// Server holds the sandbox state. All handlers serialize on mu.
type Server struct {
	mu sync.Mutex

	signingKey  []byte
	serviceName string
	now         func() time.Time
	newID       func() string
	logger      *slog.Logger

	catalog   map[string]Product
	carts     map[string]*cartRecord
	addresses map[string][]addressRecord
	orders    map[string]*orderRecord
	orderSeq  int
	payments  map[string][]paymentRecord
	returns   map[string]*returnRecord
}

type Option func(*Server)

// WithSigningKey sets the HS256 key bearer tokens are verified with.
func WithSigningKey(key []byte) Option {
	return func(s *Server) {
		if len(key) > 0 {
			s.signingKey = key
		}
	}
}

func WithCatalog(products []Product) Option {
	return func(s *Server) {
		s.catalog = make(map[string]Product, len(products))
		for _, p := range products {
			s.catalog[p.ID] = p
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServiceName names the server in otelgin spans.
func WithServiceName(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.serviceName = name
		}
	}
}

// DevSigningKey is the key used when none is configured.
var DevSigningKey = []byte("storefront-sandbox-dev-key")

func New(opts ...Option) *Server {
	s := &Server{
		signingKey:  DevSigningKey,
		serviceName: "commerce-sandbox",
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		carts:       map[string]*cartRecord{},
		addresses:   map[string][]addressRecord{},
		orders:      map[string]*orderRecord{},
		payments:    map[string][]paymentRecord{},
		returns:     map[string]*returnRecord{},
	}
	WithCatalog(DefaultCatalog())(s)
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Router builds the gin engine serving the API under BasePath.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		sharederrors.RespondError(c, fmt.Errorf("sandbox handler panicked: %v", recovered))
	}), otelgin.Middleware(s.serviceName), s.accessLog())
	router.NoRoute(func(c *gin.Context) {
		sharederrors.RespondError(c, fmt.Errorf("no route for %s %s: %w", c.Request.Method, c.Request.URL.Path, sharederrors.ErrNotFound))
	})

	api := router.Group(BasePath, s.authenticate())
	api.GET("/cart", s.getCart)
	api.DELETE("/cart", s.clearCart)
	api.GET("/cart/count", s.cartCount)
	api.POST("/cart/items", s.addCartItem)
	api.PATCH("/cart/items/:itemId", s.updateCartItem)
	api.DELETE("/cart/items/:itemId", s.removeCartItem)

	member := api.Group("", requireUser())
	member.POST("/cart/transfer", s.transferCart)
	member.GET("/addresses", s.listAddresses)
	member.POST("/addresses", s.createAddress)
	member.GET("/orders", s.listOrders)
	member.POST("/orders", s.createOrder)
	member.GET("/orders/:orderId", s.getOrder)
	member.POST("/orders/:orderId/cancel", s.cancelOrder)
	member.GET("/orders/:orderId/tracking", s.trackOrder)
	member.GET("/orders/:orderId/payments", s.orderPayments)
	member.GET("/payments", s.listPayments)
	member.GET("/returns", s.listReturns)
	member.POST("/returns", s.createReturn)
	member.GET("/returns/:returnId", s.getReturn)
	return router
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.LogAttrs(c.Request.Context(), slog.LevelInfo, "sandbox request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	}
}

// paginate slices items for page/pageSize (both already normalized).
func paginate[T any](items []T, page, pageSize int) []T {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func newestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).After(created(items[j])) })
}
