// Package storefront is the composition root of the commerce core. A Core is
// built once per client instance and owns the shared cache, the guest
// identity and the auth state every store works against.
package storefront

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/storefront-core/internal/clients/http/commerce"
	cartobs "github.com/Apurer/storefront-core/internal/domains/cart/adapters/observability"
	cartapp "github.com/Apurer/storefront-core/internal/domains/cart/application"
	cartports "github.com/Apurer/storefront-core/internal/domains/cart/ports"
	checkoutobs "github.com/Apurer/storefront-core/internal/domains/checkout/adapters/observability"
	checkoutworkflows "github.com/Apurer/storefront-core/internal/domains/checkout/adapters/workflows"
	checkoutapp "github.com/Apurer/storefront-core/internal/domains/checkout/application"
	checkoutports "github.com/Apurer/storefront-core/internal/domains/checkout/ports"
	identitymemory "github.com/Apurer/storefront-core/internal/domains/identity/adapters/memory"
	identitypostgres "github.com/Apurer/storefront-core/internal/domains/identity/adapters/persistence/postgres"
	identityapp "github.com/Apurer/storefront-core/internal/domains/identity/application"
	identitydomain "github.com/Apurer/storefront-core/internal/domains/identity/domain"
	identityports "github.com/Apurer/storefront-core/internal/domains/identity/ports"
	ordersobs "github.com/Apurer/storefront-core/internal/domains/orders/adapters/observability"
	ordersapp "github.com/Apurer/storefront-core/internal/domains/orders/application"
	ordersports "github.com/Apurer/storefront-core/internal/domains/orders/ports"
	"github.com/Apurer/storefront-core/internal/platform/cache"
	"github.com/Apurer/storefront-core/internal/platform/migrations"
	platformobservability "github.com/Apurer/storefront-core/internal/platform/observability"
	platformpostgres "github.com/Apurer/storefront-core/internal/platform/postgres"
)

// Core wires the stores of one client instance.
type Core struct {
	Cache  *cache.Cache
	Guest  *identityapp.GuestIdentity
	Auth   *identityapp.AuthState
	Client *commerce.Client
	Cart   cartports.Service
	Orders ordersports.Service

	placer      checkoutports.OrderPlacer
	instruments *platformobservability.Instruments
	logger      *slog.Logger
	cleanups    []func()
}

type options struct {
	httpClient *http.Client
	storage    identityports.LocalStorage
	temporal   client.Client
	clock      func() time.Time
}

// Option customizes how New assembles the core.
type Option func(*options)

// WithHTTPClient replaces the transport the commerce client uses.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLocalStorage bypasses the POSTGRES_DSN/in-memory selection.
func WithLocalStorage(s identityports.LocalStorage) Option {
	return func(o *options) { o.storage = s }
}

// WithTemporalClient places orders durably through c instead of dialing one.
func WithTemporalClient(c client.Client) Option {
	return func(o *options) { o.temporal = c }
}

// WithClock sets the time source of the cache and the auth state.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New builds the core. instruments may be nil, in which case telemetry is discarded.
func New(ctx context.Context, cfg Config, instruments *platformobservability.Instruments, opts ...Option) (*Core, error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if instruments != nil && instruments.Logger != nil {
		logger = instruments.Logger
	}
	core := &Core{instruments: instruments, logger: logger}

	cacheOpts := []cache.Option{
		cache.WithDefaultTTL(cfg.CacheTTL),
		cache.WithMeter(instruments.Meter("internal.platform.cache")),
	}
	var authOpts []identityapp.AuthOption
	if o.clock != nil {
		cacheOpts = append(cacheOpts, cache.WithClock(o.clock))
		authOpts = append(authOpts, identityapp.WithAuthClock(o.clock))
	}
	core.Cache = cache.New(cacheOpts...)

	storage := o.storage
	if storage == nil {
		var cleanup func()
		storage, cleanup = buildLocalStorage(ctx, cfg.PostgresDSN, logger)
		core.cleanups = append(core.cleanups, cleanup)
	}
	core.Guest = identityapp.NewGuestIdentity(storage, cfg.StorageNamespace)
	core.Auth = identityapp.NewAuthState(authOpts...)

	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	remote, err := commerce.NewClient(cfg.CommerceBaseURL, commerce.WithHTTPClient(hc), commerce.WithCredentials(core.Auth))
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("build commerce client: %w", err)
	}
	core.Client = remote

	cartStore := cartapp.NewService(remote, core.Cache, core.Guest, core.Auth, cartapp.WithTTL(cfg.CacheTTL))
	core.Cart = cartobs.New(
		cartStore,
		cartobs.WithLogger(logger),
		cartobs.WithTracer(instruments.Tracer("internal.domains.cart.application")),
		cartobs.WithMeter(instruments.Meter("internal.domains.cart.application")),
	)
	core.Orders = ordersobs.New(
		ordersapp.NewService(remote, core.Cache, ordersapp.WithPrincipal(core.Auth), ordersapp.WithTTL(cfg.CacheTTL), ordersapp.WithTrackingTTL(cfg.TrackingTTL)),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.domains.orders.application")),
		ordersobs.WithMeter(instruments.Meter("internal.domains.orders.application")),
	)
	core.placer = core.buildPlacer(cfg, remote, o.temporal)

	core.cleanups = append(core.cleanups,
		core.Auth.Subscribe(core.logged("cart transfer", cartStore.OnAuthChange)),
		core.Auth.Subscribe(core.logged("account reset", core.resetOnAccountChange)),
	)
	return core, nil
}

// NewCheckout starts a checkout session at the address step.
func (c *Core) NewCheckout() checkoutports.Service {
	return checkoutobs.New(
		checkoutapp.NewService(c.Cart, c.placer, c.Cache),
		checkoutobs.WithLogger(c.logger),
		checkoutobs.WithTracer(c.instruments.Tracer("internal.domains.checkout.application")),
		checkoutobs.WithMeter(c.instruments.Meter("internal.domains.checkout.application")),
	)
}

// Close releases subscriptions and connections, newest first.
func (c *Core) Close() {
	for i := len(c.cleanups) - 1; i >= 0; i-- {
		c.cleanups[i]()
	}
	c.cleanups = nil
}

func (c *Core) buildPlacer(cfg Config, remote *commerce.Client, tc client.Client) checkoutports.OrderPlacer {
	inline := checkoutworkflows.NewInlineOrderPlacer(checkoutapp.NewPlacer(remote,
		checkoutapp.WithListFailureHook(func(ctx context.Context, err error) {
			c.logger.WarnContext(ctx, "address list unavailable, resolving against none", slog.String("error", err.Error()))
		}),
	))
	if tc == nil {
		dialed, err := DialTemporal(cfg, c.instruments, "temporal-client")
		if err != nil {
			if !errors.Is(err, ErrTemporalDisabled) {
				c.logger.Warn("Temporal workflows unavailable, placing orders inline", slog.String("error", err.Error()))
			}
			return inline
		}
		c.cleanups = append(c.cleanups, dialed.Close)
		tc = dialed
	}
	c.logger.Info("Temporal order placement enabled", slog.String("namespace", cfg.TemporalNamespace))
	return checkoutworkflows.NewTemporalOrderPlacer(tc, c.Auth)
}

// resetOnAccountChange drops every cached read when the signed-in user goes
// away or is replaced; signing out also drops the guest token.
func (c *Core) resetOnAccountChange(ctx context.Context, change identitydomain.AuthChange) error {
	switch {
	case change.SignedOut():
		err := c.Guest.Clear(ctx)
		c.Cache.Reset(ctx)
		return err
	case change.SwitchedAccount():
		c.Cache.Reset(ctx)
	}
	return nil
}

func (c *Core) logged(name string, listener identityports.AuthListener) identityports.AuthListener {
	return func(ctx context.Context, change identitydomain.AuthChange) error {
		err := listener(ctx, change)
		if err != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "auth listener failed",
				slog.String("listener", name),
				slog.Bool("signed_in", change.SignedIn()),
				slog.String("error", err.Error()),
			)
		}
		return err
	}
}

func buildLocalStorage(ctx context.Context, dsn string, logger *slog.Logger) (identityports.LocalStorage, func()) {
	db, cleanup := platformpostgres.Open(ctx, dsn, logger)
	if db == nil {
		return identitymemory.NewLocalStorage(), cleanup
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate local storage schema, keeping it in memory", slog.String("error", err.Error()))
		cleanup()
		return identitymemory.NewLocalStorage(), func() {}
	}
	logger.Info("local storage configured with postgres")
	return identitypostgres.NewLocalStorage(db), cleanup
}
