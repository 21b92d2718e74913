//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Apurer/storefront-core/internal/platform/sandbox"
)

const (
	ProviderName = "commerce-api"
	ConsumerName = "storefront-core"

	StateGuestCartMissing = "guest session pact-session has no cart"
	StateGuestCartFilled  = "guest session pact-session holds one P1"
	StateCatalogSeeded    = "catalog contains P1"
	StateUserOrderExists  = "user pact-user has order pact-order"
)

const (
	GuestSessionID  = "pact-session"
	UserID          = "pact-user"
	ExistingOrderID = "pact-order"
	MissingOrderID  = "missing-order"
	ProductID       = "P1"
)

// BearerToken signs a long-lived token for UserID with the sandbox dev key,
// so the recorded header replays against the provider.
func BearerToken(t testing.TB) string {
	t.Helper()
	token, err := sandbox.IssueToken(sandbox.DevSigningKey, UserID, 10*365*24*time.Hour)
	if err != nil {
		t.Fatalf("issue pact bearer: %v", err)
	}
	return token
}

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
