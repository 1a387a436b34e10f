// Package memory provides the in-memory catalog and customer store backing
// the checkout service. State lives for the process lifetime only.
package memory

import (
	"sync"

	"github.com/storekit/pos-checkout/internal/domain/customer"
	"github.com/storekit/pos-checkout/internal/domain/product"
)

// Store holds the product catalog and customer accounts. Products keep their
// insertion order for listings and manifests.
type Store struct {
	mu        sync.Mutex
	order     []string
	products  map[string]*product.Product
	customers map[string]*customer.Customer
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		products:  make(map[string]*product.Product),
		customers: make(map[string]*customer.Customer),
	}
}

// AddProduct registers a catalog product. A product with the same ID is
// replaced but keeps its original listing position.
func (s *Store) AddProduct(p *product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[p.ID()]; !ok {
		s.order = append(s.order, p.ID())
	}
	s.products[p.ID()] = p
}

// AddCustomer registers a customer account.
func (s *Store) AddCustomer(c *customer.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID()] = c
}

// Product returns the product with the given ID.
func (s *Store) Product(id string) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productLocked(id)
}

// Products returns the catalog in insertion order.
func (s *Store) Products() []*product.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*product.Product, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.products[id])
	}
	return out
}

// Customer returns the customer with the given ID.
func (s *Store) Customer(id string) (*customer.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customerLocked(id)
}

// productLocked and customerLocked require s.mu to be held.

func (s *Store) productLocked(id string) (*product.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (s *Store) customerLocked(id string) (*customer.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	return c, nil
}

// Tx is the handle passed to a transaction function. Its lookups run without
// re-acquiring the store lock, which Tx already holds.
type Tx struct {
	s *Store
}

// Product returns the product with the given ID.
func (t *Tx) Product(id string) (*product.Product, error) {
	return t.s.productLocked(id)
}

// Customer returns the customer with the given ID.
func (t *Tx) Customer(id string) (*customer.Customer, error) {
	return t.s.customerLocked(id)
}

// Tx runs fn while holding an exclusive lock over the whole store. The
// checkout pipeline's validate-then-commit structure is only atomic when no
// concurrent checkout interleaves stock or balance access, so callers wrap
// the full pipeline in Tx and do all lookups through the handle.
func (s *Store) Tx(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}
