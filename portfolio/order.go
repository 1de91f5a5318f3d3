// Package portfolio implements the trading ledger: orders, filled
// transactions, per-instrument positions, and the portfolio that tracks
// cash and holdings through applied trades.
package portfolio

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidOrder     = errors.New("invalid order")
	ErrInvalidPosition  = errors.New("invalid position")
	ErrInvalidPortfolio = errors.New("invalid portfolio")
	ErrNotFound         = errors.New("instrument not found")
)

// MinQuantity is the smallest order size the ledger accepts. Anything
// smaller is economically meaningless noise.
const MinQuantity = 1e-4

// Order is an immutable trade request. Quantity is signed: positive
// buys, negative sells.
type Order struct {
	Stock    string
	Price    float64
	Quantity float64
}

// NewOrder validates and builds an Order.
func NewOrder(stock string, price, quantity float64) (Order, error) {
	if stock == "" {
		return Order{}, fmt.Errorf("%w: stock must not be empty", ErrInvalidOrder)
	}
	if price <= 0 {
		return Order{}, fmt.Errorf("%w: price must be positive, got %v", ErrInvalidOrder, price)
	}
	if math.Abs(quantity) < MinQuantity {
		return Order{}, fmt.Errorf("%w: quantity must not be zero, got %v", ErrInvalidOrder, quantity)
	}
	return Order{Stock: stock, Price: price, Quantity: quantity}, nil
}

// IsBuy reports whether the order adds shares.
func (o Order) IsBuy() bool { return o.Quantity > 0 }

// Side returns "BUY" or "SELL" for logging and journaling.
func (o Order) Side() string {
	if o.IsBuy() {
		return "BUY"
	}
	return "SELL"
}

// Transaction is a filled Order plus the fee the execution venue
// charged for it.
type Transaction struct {
	Order
	Fee float64
}

// NewTransaction validates and builds a Transaction from a filled order.
func NewTransaction(o Order, fee float64) (Transaction, error) {
	if fee < 0 {
		return Transaction{}, fmt.Errorf("%w: fee must not be negative, got %v", ErrInvalidOrder, fee)
	}
	return Transaction{Order: o, Fee: fee}, nil
}
