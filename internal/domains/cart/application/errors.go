package application

import (
	"errors"

	"github.com/Apurer/storefront-core/internal/domains/cart/domain"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

// ErrUpdateInFlight rejects a quantity change while the previous one is unconfirmed.
var ErrUpdateInFlight = errors.New("a quantity update is already in flight")

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrInvalidQuantity) ||
		errors.Is(err, domain.ErrEmptyProductID) ||
		errors.Is(err, domain.ErrEmptyItemID) {
		return sharederrors.Invalid(err)
	}
	return err
}
