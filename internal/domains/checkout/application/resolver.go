package application

import (
	"context"
	"errors"

	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	"github.com/Apurer/storefront-core/internal/domains/checkout/ports"
)

// Resolver maps a candidate address onto an existing record or a newly persisted one.
type Resolver struct {
	book ports.AddressBook
}

func NewResolver(book ports.AddressBook) *Resolver {
	return &Resolver{book: book}
}

// ResolveOrCreate returns the id of the first existing address matching candidate.
// Without a match the candidate is created and the new record returned.
func (r *Resolver) ResolveOrCreate(ctx context.Context, candidate domain.Address, existing []domain.Address) (domain.Address, error) {
	for _, addr := range existing {
		if addr.ID != "" && addr.Matches(candidate) {
			return addr, nil
		}
	}
	if r == nil || r.book == nil {
		return domain.Address{}, errors.New("address resolver not configured")
	}
	candidate.ID = ""
	return r.book.CreateAddress(ctx, candidate)
}

// Existing lists the signed-in user's addresses. A failed fetch yields an empty
// set together with the error so callers can record it and carry on.
func (r *Resolver) Existing(ctx context.Context) ([]domain.Address, error) {
	if r == nil || r.book == nil {
		return nil, errors.New("address resolver not configured")
	}
	addrs, err := r.book.ListAddresses(ctx)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}
