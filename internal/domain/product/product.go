package product

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// OutOfStockError indicates a requested quantity exceeds the available stock.
// It is returned both by the cart's soft pre-check at add time and by the
// checkout pipeline's authoritative re-check.
type OutOfStockError struct {
	Product   string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("%s is out of stock: requested %d, available %d", e.Product, e.Requested, e.Available)
}

// Product is a catalog item with two independent optional capabilities:
// an expiry date (perishable goods) and a shipping weight (physical goods).
// A product carrying neither is purely digital. Capabilities are queried,
// never inspected through concrete types, so new combinations need no new
// variants.
type Product struct {
	id    string
	name  string
	price decimal.Decimal
	stock int

	expiry *time.Time
	weight *decimal.Decimal
}

// Option configures optional capabilities on a new Product.
type Option func(*Product)

// WithExpiry marks the product as perishable with the given expiry date.
func WithExpiry(t time.Time) Option {
	return func(p *Product) {
		p.expiry = &t
	}
}

// WithShippingWeight marks the product as physically shippable with the
// given per-unit weight in kilograms.
func WithShippingWeight(kg decimal.Decimal) Option {
	return func(p *Product) {
		p.weight = &kg
	}
}

// New creates a catalog product. Price and stock are expected to be
// non-negative; catalog construction owns that invariant.
func New(id, name string, price decimal.Decimal, stock int, opts ...Option) *Product {
	p := &Product{
		id:    id,
		name:  name,
		price: price,
		stock: stock,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns the catalog identifier.
func (p *Product) ID() string { return p.id }

// Name returns the display name.
func (p *Product) Name() string { return p.name }

// Price returns the unit price.
func (p *Product) Price() decimal.Decimal { return p.price }

// Stock returns the currently available quantity.
func (p *Product) Stock() int { return p.stock }

// IsExpired reports whether the product has passed its expiry date at the
// given instant. Products without the expiry capability never expire.
func (p *Product) IsExpired(now time.Time) bool {
	return p.expiry != nil && now.After(*p.expiry)
}

// ExpiresAt returns the expiry date and whether the expiry capability is
// present.
func (p *Product) ExpiresAt() (time.Time, bool) {
	if p.expiry == nil {
		return time.Time{}, false
	}
	return *p.expiry, true
}

// ShippingWeight returns the per-unit weight in kilograms and whether the
// shippable capability is present. Products without it contribute nothing
// to shipping fees or manifests.
func (p *Product) ShippingWeight() (decimal.Decimal, bool) {
	if p.weight == nil {
		return decimal.Decimal{}, false
	}
	return *p.weight, true
}

// ReduceStock decrements available stock by qty. It fails with
// *OutOfStockError when qty exceeds the current stock; stock is never
// driven negative.
func (p *Product) ReduceStock(qty int) error {
	if qty > p.stock {
		return &OutOfStockError{Product: p.name, Requested: qty, Available: p.stock}
	}
	p.stock -= qty
	return nil
}
