package customer

import (
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// InsufficientFundsError indicates a debit larger than the current balance.
type InsufficientFundsError struct {
	Balance  decimal.Decimal
	Required decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, need %s", e.Balance, e.Required)
}

// Customer holds an account balance that only debit operations may reduce.
type Customer struct {
	id      string
	name    string
	balance decimal.Decimal
}

// New creates a customer account with an opening balance.
func New(id, name string, balance decimal.Decimal) *Customer {
	return &Customer{id: id, name: name, balance: balance}
}

// ID returns the account identifier.
func (c *Customer) ID() string { return c.id }

// Name returns the customer's display name.
func (c *Customer) Name() string { return c.name }

// Balance returns the current account balance.
func (c *Customer) Balance() decimal.Decimal { return c.balance }

// Debit reduces the balance by amount. It fails with
// *InsufficientFundsError when amount exceeds the balance; there is no
// partial debit.
func (c *Customer) Debit(amount decimal.Decimal) error {
	if amount.GreaterThan(c.balance) {
		return &InsufficientFundsError{Balance: c.balance, Required: amount}
	}
	c.balance = c.balance.Sub(amount)
	return nil
}
