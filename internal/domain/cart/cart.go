package cart

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storekit/pos-checkout/internal/domain/product"
)

// ErrInvalidQuantity is returned when an item is added with a non-positive
// quantity.
var ErrInvalidQuantity = errors.New("quantity must be greater than 0")

// Item is a purchase intent: a reference to a catalog product and the
// requested quantity. Items reference products, they never own them.
type Item struct {
	Product  *product.Product
	Quantity int
}

// LineTotal returns unit price times quantity for this item.
func (i Item) LineTotal() decimal.Decimal {
	return i.Product.Price().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is an ordered, per-session collection of purchase intents. It is
// ephemeral: built up before checkout and discarded after.
type Cart struct {
	items []Item
}

// New creates an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem appends a purchase intent for qty units of p. The stock check here
// is a soft pre-check only; the checkout pipeline re-validates
// authoritatively since stock may change between add and checkout. Stock is
// not mutated.
func (c *Cart) AddItem(p *product.Product, qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > p.Stock() {
		return &product.OutOfStockError{Product: p.Name(), Requested: qty, Available: p.Stock()}
	}
	c.items = append(c.items, Item{Product: p, Quantity: qty})
	return nil
}

// Items returns the cart contents in insertion order.
func (c *Cart) Items() []Item {
	return c.items
}

// IsEmpty reports whether the cart holds no items.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Subtotal sums unit price times quantity over all items.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.items {
		sum = sum.Add(item.LineTotal())
	}
	return sum
}

// ShippingFee sums weight x quantity x ratePerKg over the items carrying the
// shippable capability. Items without it contribute zero.
func (c *Cart) ShippingFee(ratePerKg decimal.Decimal) decimal.Decimal {
	fee := decimal.Zero
	for _, item := range c.items {
		w, ok := item.Product.ShippingWeight()
		if !ok {
			continue
		}
		fee = fee.Add(w.Mul(decimal.NewFromInt(int64(item.Quantity))).Mul(ratePerKg))
	}
	return fee
}

// ShippableManifest returns the subset of items carrying the shippable
// capability, preserving cart insertion order. It feeds the shipment
// notifier.
func (c *Cart) ShippableManifest() []Item {
	var manifest []Item
	for _, item := range c.items {
		if _, ok := item.Product.ShippingWeight(); ok {
			manifest = append(manifest, item)
		}
	}
	return manifest
}
