// Package console renders shipment notices and checkout receipts for
// terminal output. It is presentation only: it consumes computed totals and
// item lists and never touches catalog or account state.
package console

import (
	"context"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storekit/pos-checkout/internal/domain/cart"
	"github.com/storekit/pos-checkout/internal/domain/checkout"
)

var thousand = decimal.NewFromInt(1000)

// ShipmentNotifier writes the packing summary for a shippable manifest.
type ShipmentNotifier struct {
	w io.Writer
}

// NewShipmentNotifier creates a notifier writing to w.
func NewShipmentNotifier(w io.Writer) *ShipmentNotifier {
	return &ShipmentNotifier{w: w}
}

// Ship prints one line per manifest entry with its packed weight in grams,
// rounded to the nearest whole gram, followed by the total package weight in
// kilograms to one decimal place.
func (n *ShipmentNotifier) Ship(_ context.Context, manifest []cart.Item) error {
	if _, err := fmt.Fprintf(n.w, "\n** Shipment notice **\n"); err != nil {
		return errors.Wrap(err, "write header")
	}

	totalKg := decimal.Zero
	for _, item := range manifest {
		unit, ok := item.Product.ShippingWeight()
		if !ok {
			continue
		}
		kg := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		totalKg = totalKg.Add(kg)

		grams := kg.Mul(thousand).Round(0)
		if _, err := fmt.Fprintf(n.w, "%dx %s\t%sg\n", item.Quantity, item.Product.Name(), grams); err != nil {
			return errors.Wrap(err, "write item")
		}
	}

	if _, err := fmt.Fprintf(n.w, "Total package weight %skg\n", totalKg.StringFixed(1)); err != nil {
		return errors.Wrap(err, "write total")
	}
	return nil
}

// WriteReceipt renders a checkout receipt: one line per item, then the
// subtotal, shipping, and amount totals.
func WriteReceipt(w io.Writer, r *checkout.Receipt) error {
	if _, err := fmt.Fprintf(w, "\n** Checkout receipt **\n"); err != nil {
		return errors.Wrap(err, "write header")
	}
	for _, line := range r.Lines {
		if _, err := fmt.Fprintf(w, "%dx %s\t%s\n", line.Quantity, line.Name, line.LineTotal); err != nil {
			return errors.Wrap(err, "write line")
		}
	}
	if _, err := fmt.Fprintf(w, "----------------------\nSubtotal\t%s\nShipping\t%s\nAmount\t%s\n",
		r.Subtotal, r.ShippingFee, r.Total); err != nil {
		return errors.Wrap(err, "write totals")
	}
	return nil
}
