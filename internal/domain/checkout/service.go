package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storekit/pos-checkout/internal/domain/cart"
	"github.com/storekit/pos-checkout/internal/domain/customer"
	"github.com/storekit/pos-checkout/internal/domain/product"
)

// DefaultShippingRatePerKg is the shipping rate applied when the config
// leaves it unset: 10 currency units per kilogram.
var DefaultShippingRatePerKg = decimal.NewFromInt(10)

// Config holds the tunable parameters of the checkout pipeline.
type Config struct {
	// ShippingRatePerKg is the per-kilogram shipping rate. Zero means
	// DefaultShippingRatePerKg.
	ShippingRatePerKg decimal.Decimal
}

// Service runs the checkout pipeline: validate everything, then commit
// stock and funds, then dispatch the shipment and produce the receipt.
type Service struct {
	rate     decimal.Decimal
	notifier Notifier

	// now is replaceable in tests to pin expiry evaluation.
	now func() time.Time
}

// NewService creates a checkout Service. notifier may be nil when no
// shipment reporting is wanted.
func NewService(cfg Config, notifier Notifier) *Service {
	rate := cfg.ShippingRatePerKg
	if rate.IsZero() {
		rate = DefaultShippingRatePerKg
	}
	return &Service{
		rate:     rate,
		notifier: notifier,
		now:      time.Now,
	}
}

// Checkout validates the cart against expiry, stock, and the customer's
// balance, and only then commits: every product's stock is reduced, the
// customer is debited for subtotal plus shipping, the shippable manifest is
// handed to the notifier, and a receipt is returned.
//
// Any validation failure returns one of ErrEmptyCart, *ExpiredProductError,
// *product.OutOfStockError, or *customer.InsufficientFundsError with the
// cart, catalog, and account entirely unmutated, so the caller may amend and
// retry.
func (s *Service) Checkout(ctx context.Context, cust *customer.Customer, crt *cart.Cart) (*Receipt, error) {
	if crt.IsEmpty() {
		return nil, ErrEmptyCart
	}

	// Validate every item before mutating anything, so a partially valid
	// cart causes no partial stock reduction. Quantities are aggregated per
	// product: duplicate entries for the same product must be jointly within
	// stock, or the later commits would fail after the earlier ones mutated.
	now := s.now()
	requested := make(map[*product.Product]int, len(crt.Items()))
	for _, item := range crt.Items() {
		p := item.Product
		if p.IsExpired(now) {
			return nil, &ExpiredProductError{Product: p.Name()}
		}
		requested[p] += item.Quantity
		if requested[p] > p.Stock() {
			return nil, &product.OutOfStockError{
				Product:   p.Name(),
				Requested: requested[p],
				Available: p.Stock(),
			}
		}
	}

	subtotal := crt.Subtotal()
	shippingFee := crt.ShippingFee(s.rate)
	total := subtotal.Add(shippingFee)

	if cust.Balance().LessThan(total) {
		return nil, &customer.InsufficientFundsError{
			Balance:  cust.Balance(),
			Required: total,
		}
	}

	// Commit. Validation above guarantees these cannot fail; a failure here
	// means a concurrent mutation slipped inside the transactional scope and
	// is a defect, not a user-facing condition.
	for _, item := range crt.Items() {
		if err := item.Product.ReduceStock(item.Quantity); err != nil {
			return nil, errors.Wrapf(err, "stock invariant violated for %s", item.Product.Name())
		}
	}
	if err := cust.Debit(total); err != nil {
		return nil, errors.Wrap(err, "balance invariant violated")
	}

	// Shipment is skipped, not an error, when nothing is shippable. A
	// notifier failure after settlement is logged and does not fail the
	// checkout.
	if manifest := crt.ShippableManifest(); len(manifest) > 0 && s.notifier != nil {
		if err := s.notifier.Ship(ctx, manifest); err != nil {
			zctx.From(ctx).Warn("Shipment notification failed", zap.Error(err))
		}
	}

	receipt := &Receipt{
		ID:          uuid.New().String(),
		Lines:       make([]Line, 0, len(crt.Items())),
		Subtotal:    subtotal,
		ShippingFee: shippingFee,
		Total:       total,
		CreatedAt:   now,
	}
	for _, item := range crt.Items() {
		receipt.Lines = append(receipt.Lines, Line{
			Name:      item.Product.Name(),
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}

	return receipt, nil
}
