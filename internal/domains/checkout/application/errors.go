package application

import (
	"errors"

	"github.com/Apurer/storefront-core/internal/domains/checkout/domain"
	sharederrors "github.com/Apurer/storefront-core/internal/shared/errors"
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrUnknownPaymentMethod) {
		return sharederrors.Invalid(err)
	}
	return err
}
