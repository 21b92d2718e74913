package ports

import (
	"context"
	"errors"

	"github.com/Apurer/storefront-core/internal/domains/identity/domain"
)

// ErrStorageUnavailable signals the local-storage backend could not be reached.
var ErrStorageUnavailable = errors.New("local storage unavailable")

// LocalStorage persists small opaque values per client instance (namespace).
type LocalStorage interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Put(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
}

// GuestIdentity owns the anonymous session token.
type GuestIdentity interface {
	GetOrCreateToken(ctx context.Context) (string, error)
	Current(ctx context.Context) (string, bool, error)
	Clear(ctx context.Context) error
	State() domain.GuestState
}

// AuthListener reacts to a sign-in or sign-out. It may fire more than once per login.
type AuthListener func(ctx context.Context, change domain.AuthChange) error

// CredentialsProvider hands out the bearer credential for outgoing calls.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (string, bool)
}

// AuthState is the observable signed-in identity of this client instance.
type AuthState interface {
	CredentialsProvider
	SignIn(ctx context.Context, bearer string) error
	SignOut(ctx context.Context) error
	Current() domain.Principal
	Subscribe(listener AuthListener) (unsubscribe func())
}

// NoopLocalStorage keeps nothing. Tokens issued on top of it live only in memory.
var NoopLocalStorage LocalStorage = noopLocalStorage{}

type noopLocalStorage struct{}

func (noopLocalStorage) Get(context.Context, string, string) (string, bool, error) { return "", false, nil }
func (noopLocalStorage) Put(context.Context, string, string, string) error         { return nil }
func (noopLocalStorage) Delete(context.Context, string, string) error              { return nil }
