package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// DefaultTimeout bounds a single remote call when no http.Client is supplied.
const DefaultTimeout = 15 * time.Second

const maxErrorPayload = 64 << 10

// CredentialsProvider supplies the bearer credential of the signed-in identity.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (string, bool)
}

type noCredentials struct{}

func (noCredentials) Credentials(context.Context) (string, bool) { return "", false }

// Client is a stateless wrapper around the remote commerce API.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	creds   CredentialsProvider
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the transport client. Its Transport is wrapped with otelhttp.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithCredentials sets the source of bearer credentials.
func WithCredentials(p CredentialsProvider) Option {
	return func(c *Client) {
		if p != nil {
			c.creds = p
		}
	}
}

// NewClient instantiates the commerce client with sane defaults.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("commerce base URL is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse commerce base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("commerce base URL %q must be absolute", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: DefaultTimeout},
		creds:   noCredentials{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	instrumented := *c.http
	instrumented.Transport = otelhttp.NewTransport(transportOf(c.http),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			if op, ok := r.Context().Value(operationKey{}).(string); ok {
				return "commerce." + op
			}
			return "commerce " + r.Method
		}))
	c.http = &instrumented
	return c, nil
}

func transportOf(hc *http.Client) http.RoundTripper {
	if hc.Transport != nil {
		return hc.Transport
	}
	return http.DefaultTransport
}

type operationKey struct{}

type bearerKey struct{}

// WithBearer pins the bearer credential for calls made with ctx, overriding the provider.
// Durable workers use it to act for the identity that started the workflow.
func WithBearer(ctx context.Context, bearer string) context.Context {
	return context.WithValue(ctx, bearerKey{}, strings.TrimSpace(bearer))
}

// BearerFromContext returns the credential pinned with WithBearer.
func BearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerKey{}).(string)
	return token, ok && token != ""
}

func (c *Client) bearer(ctx context.Context) (string, bool) {
	if token, ok := BearerFromContext(ctx); ok {
		return token, true
	}
	return c.creds.Credentials(ctx)
}

type authMode int

const (
	authRequired authMode = iota
	// authOrSession accepts a guest session id in place of a bearer credential.
	authOrSession
)

type call struct {
	op      string
	method  string
	path    []string
	query   url.Values
	body    any
	auth    authMode
	session string
}

// do performs the call and decodes a 2xx JSON body into out (when non-nil).
func (c *Client) do(ctx context.Context, req call, out any) error {
	if c == nil || c.http == nil || c.baseURL == nil {
		return errors.New("commerce client not configured")
	}
	bearer, authenticated := c.bearer(ctx)
	switch req.auth {
	case authRequired:
		if !authenticated {
			return fmt.Errorf("%s: %w", req.op, sharederrors.ErrAuthenticationRequired)
		}
	case authOrSession:
		if !authenticated && req.session == "" {
			return fmt.Errorf("%s: %w", req.op, sharederrors.ErrAuthenticationRequired)
		}
	}

	target := c.baseURL.JoinPath(req.path...)
	if len(req.query) > 0 {
		target.RawQuery = req.query.Encode()
	}
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}
	ctx = context.WithValue(ctx, operationKey{}, req.op)
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		httpReq.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: call commerce API: %w", req.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorPayload))
		return remoteError(req.op, resp.StatusCode, payload)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: decode response: %w", req.op, err)
	}
	return nil
}

// queryParams encodes form-style query parameters, skipping zero values.
func queryParams(pairs ...any) (url.Values, error) {
	values := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		name, _ := pairs[i].(string)
		value := pairs[i+1]
		if isZero(value) {
			continue
		}
		encoded, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
		if err != nil {
			return nil, fmt.Errorf("encode query parameter %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(encoded)
		if err != nil {
			return nil, fmt.Errorf("encode query parameter %s: %w", name, err)
		}
		for k, vs := range parsed {
			values[k] = append(values[k], vs...)
		}
	}
	return values, nil
}

func isZero(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case int:
		return t == 0
	default:
		return false
	}
}
