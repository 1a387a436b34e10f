package memory

import (
	"encoding/json"
	"os"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/storekit/pos-checkout/internal/domain/customer"
	"github.com/storekit/pos-checkout/internal/domain/product"
)

// fixture is the on-disk catalog and customer seed format. Price, weight,
// and balance are decimal strings; expires_at is RFC 3339. The weight_kg and
// expires_at fields are optional and map to the product's two capabilities.
type fixture struct {
	Products  []productFixture  `json:"products"`
	Customers []customerFixture `json:"customers"`
}

type productFixture struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Stock     int              `json:"stock"`
	WeightKg  *decimal.Decimal `json:"weight_kg,omitempty"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`
}

type customerFixture struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
}

// FromFixture builds a store from a JSON fixture document.
func FromFixture(data []byte) (*Store, error) {
	var f fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode fixture")
	}

	s := NewStore()
	for _, pf := range f.Products {
		if pf.ID == "" || pf.Name == "" {
			return nil, errors.Errorf("product %q: id and name are required", pf.ID)
		}
		if pf.Price.IsNegative() || pf.Stock < 0 {
			return nil, errors.Errorf("product %q: price and stock must be non-negative", pf.ID)
		}

		var opts []product.Option
		if pf.ExpiresAt != nil {
			opts = append(opts, product.WithExpiry(*pf.ExpiresAt))
		}
		if pf.WeightKg != nil {
			if pf.WeightKg.IsNegative() {
				return nil, errors.Errorf("product %q: weight must be non-negative", pf.ID)
			}
			opts = append(opts, product.WithShippingWeight(*pf.WeightKg))
		}
		s.AddProduct(product.New(pf.ID, pf.Name, pf.Price, pf.Stock, opts...))
	}

	for _, cf := range f.Customers {
		if cf.ID == "" {
			return nil, errors.New("customer id is required")
		}
		if cf.Balance.IsNegative() {
			return nil, errors.Errorf("customer %q: balance must be non-negative", cf.ID)
		}
		s.AddCustomer(customer.New(cf.ID, cf.Name, cf.Balance))
	}

	return s, nil
}

// LoadFixture reads a fixture file from disk and builds a store from it.
func LoadFixture(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read fixture %s", path)
	}
	return FromFixture(data)
}
