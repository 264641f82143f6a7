package ledger

import (
	"context"
	"sync/atomic"
)

// StaticPrice is a PriceSource with a fixed unit price that can be moved at
// runtime, e.g. by an operator following the network price.
type StaticPrice struct {
	price atomic.Uint64
}

// NewStaticPrice creates a StaticPrice.
func NewStaticPrice(price uint64) *StaticPrice {
	p := &StaticPrice{}
	p.price.Store(price)
	return p
}

// UnitPrice implements PriceSource.
func (p *StaticPrice) UnitPrice(context.Context) (uint64, error) {
	return p.price.Load(), nil
}

// Set replaces the unit price.
func (p *StaticPrice) Set(price uint64) {
	p.price.Store(price)
}
