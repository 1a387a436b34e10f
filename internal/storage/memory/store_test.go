package memory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storekit/pos-checkout/internal/domain/customer"
	"github.com/storekit/pos-checkout/internal/domain/product"
)

func TestStoreLookups(t *testing.T) {
	s := NewStore()
	s.AddProduct(product.New("tv", "TV", decimal.NewFromInt(1000), 3))
	s.AddProduct(product.New("cheese", "Cheese", decimal.NewFromInt(100), 10))
	s.AddCustomer(customer.New("kerolos", "Kerolos", decimal.NewFromInt(2000)))

	p, err := s.Product("tv")
	require.NoError(t, err)
	assert.Equal(t, "TV", p.Name())

	_, err = s.Product("nope")
	require.ErrorIs(t, err, product.ErrNotFound)

	c, err := s.Customer("kerolos")
	require.NoError(t, err)
	assert.Equal(t, "Kerolos", c.Name())

	_, err = s.Customer("nope")
	require.ErrorIs(t, err, customer.ErrNotFound)

	// Listing preserves insertion order.
	products := s.Products()
	require.Len(t, products, 2)
	assert.Equal(t, "tv", products[0].ID())
	assert.Equal(t, "cheese", products[1].ID())
}

func TestTxLookups(t *testing.T) {
	s := NewStore()
	s.AddProduct(product.New("tv", "TV", decimal.NewFromInt(1000), 3))
	s.AddCustomer(customer.New("kerolos", "Kerolos", decimal.NewFromInt(2000)))

	// Lookups inside the transaction must not re-acquire the store lock;
	// a timeout here means the handle deadlocked against Tx.
	done := make(chan error, 1)
	go func() {
		done <- s.Tx(func(tx *Tx) error {
			c, err := tx.Customer("kerolos")
			if err != nil {
				return err
			}
			p, err := tx.Product("tv")
			if err != nil {
				return err
			}
			if err := p.ReduceStock(1); err != nil {
				return err
			}
			return c.Debit(p.Price())
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Tx lookups deadlocked")
	}

	p, err := s.Product("tv")
	require.NoError(t, err)
	assert.Equal(t, 2, p.Stock())

	// Lookup failures surface through Tx unchanged.
	err = s.Tx(func(tx *Tx) error {
		_, err := tx.Product("missing")
		return err
	})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestFromFixture(t *testing.T) {
	data := []byte(`{
		"products": [
			{"id": "cheese", "name": "Cheese", "price": "100", "stock": 10, "weight_kg": "0.2", "expires_at": "2030-01-01T00:00:00Z"},
			{"id": "tv", "name": "TV", "price": "1000", "stock": 3, "weight_kg": "10"},
			{"id": "scratch-card", "name": "Scratch Card", "price": "50", "stock": 100}
		],
		"customers": [
			{"id": "kerolos", "name": "Kerolos", "balance": "2000"}
		]
	}`)

	s, err := FromFixture(data)
	require.NoError(t, err)

	cheese, err := s.Product("cheese")
	require.NoError(t, err)
	w, ok := cheese.ShippingWeight()
	require.True(t, ok)
	assert.True(t, w.Equal(decimal.RequireFromString("0.2")))
	_, ok = cheese.ExpiresAt()
	assert.True(t, ok)

	card, err := s.Product("scratch-card")
	require.NoError(t, err)
	_, ok = card.ShippingWeight()
	assert.False(t, ok)
	_, ok = card.ExpiresAt()
	assert.False(t, ok)

	c, err := s.Customer("kerolos")
	require.NoError(t, err)
	assert.True(t, c.Balance().Equal(decimal.NewFromInt(2000)))
}

func TestFromFixtureRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing id":       `{"products": [{"name": "X", "price": "1", "stock": 1}]}`,
		"negative stock":   `{"products": [{"id": "x", "name": "X", "price": "1", "stock": -1}]}`,
		"negative price":   `{"products": [{"id": "x", "name": "X", "price": "-1", "stock": 1}]}`,
		"negative weight":  `{"products": [{"id": "x", "name": "X", "price": "1", "stock": 1, "weight_kg": "-2"}]}`,
		"negative balance": `{"customers": [{"id": "c", "name": "C", "balance": "-5"}]}`,
		"malformed json":   `{`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromFixture([]byte(data))
			require.Error(t, err)
		})
	}
}
