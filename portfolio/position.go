package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Positions with fewer shares than this are treated as flat when
// recomputing cost basis after a trade.
const flatShares = 1e-7

// Position is a per-instrument holding. CostPerShare is the
// volume-weighted average acquisition price of the current holding; it
// is meaningless while Shares is zero. Updates counts price updates
// received for the instrument, which the decision engine uses to gate
// on warmed-up price history.
type Position struct {
	stock        string
	price        float64
	shares       float64
	costPerShare float64
	updates      int
}

// NewPosition creates a position. Price must be positive.
func NewPosition(stock string, price, shares float64) (*Position, error) {
	if stock == "" {
		return nil, fmt.Errorf("%w: stock must not be empty", ErrInvalidPosition)
	}
	if price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive, got %v", ErrInvalidPosition, price)
	}
	return &Position{
		stock:        stock,
		price:        price,
		shares:       shares,
		costPerShare: price,
	}, nil
}

func (p *Position) Stock() string         { return p.stock }
func (p *Position) Price() float64        { return p.price }
func (p *Position) Shares() float64       { return p.shares }
func (p *Position) CostPerShare() float64 { return p.costPerShare }
func (p *Position) Updates() int          { return p.updates }

// SetPrice marks the instrument to a new observed price. Price updates
// never touch cost basis.
func (p *Position) SetPrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: price must be positive, got %v", ErrInvalidPosition, price)
	}
	p.price = price
	return nil
}

// AddTransaction applies a fill to the position. Buys fold the fill into
// the volume-weighted cost basis; sells only reduce the share count (no
// FIFO/LIFO lot tracking). The caller must already have clamped sell
// size: reducing shares below zero is an error. The position price is
// always left at the fill price.
func (p *Position) AddTransaction(txn Transaction) error {
	if txn.Stock != p.stock {
		return fmt.Errorf("%w: transaction stock %q does not match position %q",
			ErrInvalidPosition, txn.Stock, p.stock)
	}
	if p.shares+txn.Quantity < 0 {
		return fmt.Errorf("%w: cannot sell %v shares of %q, only %v held",
			ErrInvalidPosition, -txn.Quantity, p.stock, p.shares)
	}

	if txn.IsBuy() {
		totalCost := decimal.NewFromFloat(p.costPerShare).Mul(decimal.NewFromFloat(p.shares)).
			Add(decimal.NewFromFloat(txn.Price).Mul(decimal.NewFromFloat(txn.Quantity)))
		p.shares += txn.Quantity
		if p.shares > flatShares {
			p.costPerShare, _ = totalCost.Div(decimal.NewFromFloat(p.shares)).Float64()
		}
	} else {
		p.shares += txn.Quantity
	}

	p.price = txn.Price
	return nil
}

// GainOrLoss returns the unrealized fractional gain of the holding
// against its cost basis, or 0 when flat.
func (p *Position) GainOrLoss() float64 {
	if p.shares > 0 {
		return p.price/p.costPerShare - 1
	}
	return 0
}
