package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/pos-checkout/internal/domain/cart"
	"github.com/storekit/pos-checkout/internal/domain/customer"
	"github.com/storekit/pos-checkout/internal/domain/product"
)

// --- Mock notifier ---

type mockNotifier struct {
	manifest []cart.Item
	calls    int
	err      error
}

func (m *mockNotifier) Ship(_ context.Context, manifest []cart.Item) error {
	m.calls++
	m.manifest = manifest
	return m.err
}

// --- Helpers ---

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// seedCatalog builds the canonical catalog: two perishable shippables, one
// plain shippable, one digital.
func seedCatalog() (cheese, biscuits, tv, card *product.Product) {
	expiry := testNow.Add(24 * time.Hour)
	cheese = product.New("cheese", "Cheese", dec("100"), 10,
		product.WithExpiry(expiry),
		product.WithShippingWeight(dec("0.2")))
	biscuits = product.New("biscuits", "Biscuits", dec("150"), 5,
		product.WithExpiry(expiry),
		product.WithShippingWeight(dec("0.7")))
	tv = product.New("tv", "TV", dec("1000"), 3,
		product.WithShippingWeight(dec("10")))
	card = product.New("scratch-card", "Scratch Card", dec("50"), 100)
	return cheese, biscuits, tv, card
}

func newTestService(n Notifier) *Service {
	svc := NewService(Config{}, n)
	svc.now = func() time.Time { return testNow }
	return svc
}

func mustAdd(t *testing.T, c *cart.Cart, p *product.Product, qty int) {
	t.Helper()
	require.NoError(t, c.AddItem(p, qty))
}

// --- Tests ---

func TestCheckout_EmptyCart(t *testing.T) {
	svc := newTestService(&mockNotifier{})
	cust := customer.New("kerolos", "Kerolos", dec("2000"))

	_, err := svc.Checkout(context.Background(), cust, cart.New())
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.True(t, cust.Balance().Equal(dec("2000")))
}

func TestCheckout_Success(t *testing.T) {
	cheese, biscuits, _, card := seedCatalog()
	notifier := &mockNotifier{}
	svc := newTestService(notifier)
	cust := customer.New("kerolos", "Kerolos", dec("2000"))

	crt := cart.New()
	mustAdd(t, crt, cheese, 2)
	mustAdd(t, crt, biscuits, 1)
	mustAdd(t, crt, card, 1)

	receipt, err := svc.Checkout(context.Background(), cust, crt)
	require.NoError(t, err)

	// Pricing: subtotal 400, shipping (0.4 + 0.7) * 10 = 11, total 411.
	assert.True(t, receipt.Subtotal.Equal(dec("400")))
	assert.True(t, receipt.ShippingFee.Equal(dec("11")))
	assert.True(t, receipt.Total.Equal(dec("411")))
	assert.NotEmpty(t, receipt.ID)

	require.Len(t, receipt.Lines, 3)
	assert.Equal(t, "Cheese", receipt.Lines[0].Name)
	assert.Equal(t, 2, receipt.Lines[0].Quantity)
	assert.True(t, receipt.Lines[0].LineTotal.Equal(dec("200")))
	assert.Equal(t, "Biscuits", receipt.Lines[1].Name)
	assert.Equal(t, "Scratch Card", receipt.Lines[2].Name)

	// Settlement: stock reduced by exactly the requested quantities and the
	// balance debited by exactly the total.
	assert.Equal(t, 8, cheese.Stock())
	assert.Equal(t, 4, biscuits.Stock())
	assert.Equal(t, 99, card.Stock())
	assert.True(t, cust.Balance().Equal(dec("1589")))

	// Manifest holds only the shippable items, in cart order.
	require.Equal(t, 1, notifier.calls)
	require.Len(t, notifier.manifest, 2)
	assert.Equal(t, "Cheese", notifier.manifest[0].Product.Name())
	assert.Equal(t, "Biscuits", notifier.manifest[1].Product.Name())
}

func TestCheckout_InsufficientFunds(t *testing.T) {
	cheese, biscuits, tv, card := seedCatalog()
	notifier := &mockNotifier{}
	svc := newTestService(notifier)
	cust := customer.New("kerolos", "Kerolos", dec("1000"))

	crt := cart.New()
	mustAdd(t, crt, cheese, 2)
	mustAdd(t, crt, biscuits, 1)
	mustAdd(t, crt, card, 1)
	mustAdd(t, crt, tv, 1)

	_, err := svc.Checkout(context.Background(), cust, crt)

	// Subtotal 1400 + shipping 111 = 1511 > 1000.
	var insufErr *customer.InsufficientFundsError
	require.ErrorAs(t, err, &insufErr)
	assert.True(t, insufErr.Required.Equal(dec("1511")))
	assert.True(t, insufErr.Balance.Equal(dec("1000")))

	// Zero mutation on failure.
	assert.Equal(t, 10, cheese.Stock())
	assert.Equal(t, 5, biscuits.Stock())
	assert.Equal(t, 3, tv.Stock())
	assert.Equal(t, 100, card.Stock())
	assert.True(t, cust.Balance().Equal(dec("1000")))
	assert.Equal(t, 0, notifier.calls)
}

func TestCheckout_ExpiredProduct(t *testing.T) {
	cheese, biscuits, _, _ := seedCatalog()
	old := product.New("yogurt", "Yogurt", dec("20"), 8,
		product.WithExpiry(testNow.Add(-time.Hour)),
		product.WithShippingWeight(dec("0.5")))
	svc := newTestService(&mockNotifier{})
	cust := customer.New("kerolos", "Kerolos", dec("2000"))

	crt := cart.New()
	mustAdd(t, crt, cheese, 2)
	mustAdd(t, crt, old, 1)
	mustAdd(t, crt, biscuits, 1)

	_, err := svc.Checkout(context.Background(), cust, crt)

	var exp *ExpiredProductError
	require.ErrorAs(t, err, &exp)
	assert.Equal(t, "Yogurt", exp.Product)

	// Nothing moved, including items validated before the expired one.
	assert.Equal(t, 10, cheese.Stock())
	assert.Equal(t, 8, old.Stock())
	assert.Equal(t, 5, biscuits.Stock())
	assert.True(t, cust.Balance().Equal(dec("2000")))
}

func TestCheckout_OutOfStockAtCheckout(t *testing.T) {
	cheese, biscuits, _, _ := seedCatalog()
	svc := newTestService(&mockNotifier{})
	cust := customer.New("kerolos", "Kerolos", dec("5000"))

	crt := cart.New()
	mustAdd(t, crt, cheese, 2)
	mustAdd(t, crt, biscuits, 3)

	// Stock shrinks after the items were added; the authoritative re-check
	// at checkout must catch it.
	require.NoError(t, biscuits.ReduceStock(4))

	_, err := svc.Checkout(context.Background(), cust, crt)

	var oos *product.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "Biscuits", oos.Product)
	assert.Equal(t, 3, oos.Requested)
	assert.Equal(t, 1, oos.Available)

	assert.Equal(t, 10, cheese.Stock())
	assert.True(t, cust.Balance().Equal(dec("5000")))
}

func TestCheckout_DuplicateItemsJointlyOverStock(t *testing.T) {
	_, _, tv, _ := seedCatalog()
	svc := newTestService(&mockNotifier{})
	cust := customer.New("kerolos", "Kerolos", dec("10000"))

	// Two entries for the same product, each within stock on its own but
	// jointly above it.
	crt := cart.New()
	mustAdd(t, crt, tv, 2)
	mustAdd(t, crt, tv, 2)

	_, err := svc.Checkout(context.Background(), cust, crt)

	var oos *product.OutOfStockError
	require.ErrorAs(t, err, &oos)
	assert.Equal(t, "TV", oos.Product)
	assert.Equal(t, 4, oos.Requested)
	assert.Equal(t, 3, oos.Available)

	// Rejected before any mutation: no partial stock reduction, no debit.
	assert.Equal(t, 3, tv.Stock())
	assert.True(t, cust.Balance().Equal(dec("10000")))
}

func TestCheckout_DuplicateItemsWithinStock(t *testing.T) {
	_, _, tv, _ := seedCatalog()
	svc := newTestService(&mockNotifier{})
	cust := customer.New("kerolos", "Kerolos", dec("10000"))

	crt := cart.New()
	mustAdd(t, crt, tv, 2)
	mustAdd(t, crt, tv, 1)

	receipt, err := svc.Checkout(context.Background(), cust, crt)
	require.NoError(t, err)

	// 3000 + 30kg * 10 shipping.
	assert.True(t, receipt.Total.Equal(dec("3300")))
	assert.Equal(t, 0, tv.Stock())
	require.Len(t, receipt.Lines, 2)
	assert.Equal(t, 2, receipt.Lines[0].Quantity)
	assert.Equal(t, 1, receipt.Lines[1].Quantity)
}

func TestCheckout_DigitalOnlyCartSkipsShipment(t *testing.T) {
	_, _, _, card := seedCatalog()
	notifier := &mockNotifier{}
	svc := newTestService(notifier)
	cust := customer.New("kerolos", "Kerolos", dec("500"))

	crt := cart.New()
	mustAdd(t, crt, card, 2)

	receipt, err := svc.Checkout(context.Background(), cust, crt)
	require.NoError(t, err)

	assert.True(t, receipt.ShippingFee.IsZero())
	assert.True(t, receipt.Total.Equal(dec("100")))
	assert.Equal(t, 0, notifier.calls)
	assert.Equal(t, 98, card.Stock())
}

func TestCheckout_ExactBalanceSucceeds(t *testing.T) {
	_, _, tv, _ := seedCatalog()
	svc := newTestService(&mockNotifier{})
	// 1000 + 10kg * 10 = 1100 exactly.
	cust := customer.New("kerolos", "Kerolos", dec("1100"))

	crt := cart.New()
	mustAdd(t, crt, tv, 1)

	receipt, err := svc.Checkout(context.Background(), cust, crt)
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(dec("1100")))
	assert.True(t, cust.Balance().IsZero())
}

func TestCheckout_NotifierFailureDoesNotFailCheckout(t *testing.T) {
	cheese, _, _, _ := seedCatalog()
	notifier := &mockNotifier{err: errors.New("printer on fire")}
	svc := newTestService(notifier)
	cust := customer.New("kerolos", "Kerolos", dec("2000"))

	crt := cart.New()
	mustAdd(t, crt, cheese, 1)

	receipt, err := svc.Checkout(context.Background(), cust, crt)
	require.NoError(t, err)
	assert.True(t, receipt.Total.Equal(dec("102")))
	assert.Equal(t, 9, cheese.Stock())
}

func TestCheckout_CustomShippingRate(t *testing.T) {
	_, _, tv, _ := seedCatalog()
	svc := NewService(Config{ShippingRatePerKg: dec("2.5")}, nil)
	svc.now = func() time.Time { return testNow }
	cust := customer.New("kerolos", "Kerolos", dec("2000"))

	crt := cart.New()
	mustAdd(t, crt, tv, 1)

	receipt, err := svc.Checkout(context.Background(), cust, crt)
	require.NoError(t, err)
	assert.True(t, receipt.ShippingFee.Equal(dec("25")))
}
