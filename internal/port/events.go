package port

import (
	"context"

	"github.com/bookrow/storefront/internal/core/domain"
)

// EventPublisher announces confirmed orders to interested downstream
// consumers. Publishing is best effort; a failed publish never fails the
// checkout that produced it.
type EventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, order domain.Order) error
}
