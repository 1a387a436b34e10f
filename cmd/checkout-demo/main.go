// Command checkout-demo runs a single checkout against a catalog fixture and
// prints the shipment notice and receipt, reproducing the interactive flow
// offline:
//
//	checkout-demo -customer kerolos -item cheese:2 -item biscuits:1 -item scratch-card:1
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/go-faster/errors"

	"github.com/storekit/pos-checkout/db"
	"github.com/storekit/pos-checkout/internal/console"
	"github.com/storekit/pos-checkout/internal/domain/cart"
	"github.com/storekit/pos-checkout/internal/domain/checkout"
	"github.com/storekit/pos-checkout/internal/storage/memory"
)

// itemSpec is one parsed -item flag: a product ID and quantity.
type itemSpec struct {
	productID string
	quantity  int
}

// itemFlags collects repeated -item product:qty flags.
type itemFlags []itemSpec

func (f *itemFlags) String() string {
	parts := make([]string, len(*f))
	for i, s := range *f {
		parts[i] = fmt.Sprintf("%s:%d", s.productID, s.quantity)
	}
	return strings.Join(parts, ",")
}

func (f *itemFlags) Set(v string) error {
	id, qtyStr, ok := strings.Cut(v, ":")
	if !ok || id == "" {
		return errors.Errorf("want product:qty, got %q", v)
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return errors.Wrapf(err, "quantity in %q", v)
	}
	*f = append(*f, itemSpec{productID: id, quantity: qty})
	return nil
}

func main() {
	var (
		fixturePath string
		customerID  string
		items       itemFlags
	)

	flag.StringVar(&fixturePath, "fixture", "", "catalog fixture file (default: embedded seed)")
	flag.StringVar(&customerID, "customer", "kerolos", "customer ID to check out")
	flag.Var(&items, "item", "cart item as product:qty (repeatable)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, fixturePath, customerID, items); err != nil {
		slog.Error("checkout failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, fixturePath, customerID string, items itemFlags) error {
	var (
		store *memory.Store
		err   error
	)
	if fixturePath != "" {
		store, err = memory.LoadFixture(fixturePath)
	} else {
		store, err = memory.FromFixture(db.SeedCatalog)
	}
	if err != nil {
		return errors.Wrap(err, "load catalog fixture")
	}

	cust, err := store.Customer(customerID)
	if err != nil {
		return errors.Wrapf(err, "customer %s", customerID)
	}

	crt := cart.New()
	for _, spec := range items {
		p, err := store.Product(spec.productID)
		if err != nil {
			return errors.Wrapf(err, "product %s", spec.productID)
		}
		if err := crt.AddItem(p, spec.quantity); err != nil {
			return errors.Wrapf(err, "add %s", spec.productID)
		}
	}

	svc := checkout.NewService(checkout.Config{}, console.NewShipmentNotifier(os.Stdout))
	receipt, err := svc.Checkout(ctx, cust, crt)
	if err != nil {
		return err
	}

	if err := console.WriteReceipt(os.Stdout, receipt); err != nil {
		return errors.Wrap(err, "write receipt")
	}

	fmt.Printf("\nRemaining balance for %s: %s\n", cust.Name(), cust.Balance())
	return nil
}
