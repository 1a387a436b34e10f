package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storekit/pos-checkout/internal/domain/cart"
)

// ErrEmptyCart is returned when checkout is attempted on an empty cart.
var ErrEmptyCart = errors.New("cart is empty")

// ExpiredProductError indicates a cart item's product has passed its expiry
// date.
type ExpiredProductError struct {
	Product string
}

func (e *ExpiredProductError) Error() string {
	return fmt.Sprintf("%s is expired", e.Product)
}

// Line is one receipt entry in cart order.
type Line struct {
	Name      string
	Quantity  int
	LineTotal decimal.Decimal
}

// Receipt is the structured result of a successful checkout. The pipeline
// returns it to the caller; presentation is the caller's responsibility.
type Receipt struct {
	ID          string
	Lines       []Line
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Total       decimal.Decimal
	CreatedAt   time.Time
}

// Notifier receives the shippable subset of a settled cart and reports the
// packing summary. It is a pure output collaborator; the pipeline consumes
// no return value beyond the error, which is logged rather than surfaced
// since settlement has already committed.
type Notifier interface {
	Ship(ctx context.Context, manifest []cart.Item) error
}
