package papertrade

import (
	"context"
	"fmt"
	"maps"
	"sync"
)

// PriceOracle returns the current unit price of an asset.
//
// Implementations return an error wrapping ErrPriceUnavailable when no usable
// price exists; a zero price is never a valid answer.
type PriceOracle interface {
	Price(ctx context.Context, symbol string) (Money, error)
}

// PriceFunc adapts a function to the PriceOracle interface.
type PriceFunc func(ctx context.Context, symbol string) (Money, error)

func (f PriceFunc) Price(ctx context.Context, symbol string) (Money, error) { return f(ctx, symbol) }

// Prices is an in-memory PriceOracle holding a fixed quote per symbol.
// It is safe for concurrent use.
type Prices struct {
	mu     sync.RWMutex
	quotes map[string]Money
}

// NewPrices returns a market with the given quotes.
func NewPrices(quotes map[string]Money) *Prices {
	p := &Prices{quotes: make(map[string]Money)}
	maps.Copy(p.quotes, quotes)
	return p
}

// Set updates the quote of symbol.
func (p *Prices) Set(symbol string, price Money) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes[symbol] = price
}

// Price returns the quote for symbol.
func (p *Prices) Price(_ context.Context, symbol string) (Money, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	price, ok := p.quotes[symbol]
	if !ok || !price.IsPositive() {
		return Money{}, fmt.Errorf("no quote for %q: %w", symbol, ErrPriceUnavailable)
	}
	return price, nil
}

// ZeroOnFailure wraps an oracle so that any failure reads as a zero price.
//
// This reproduces the historical behaviour where an unavailable price was
// silently treated as 0: buys succeed at no cost and valuations drop to zero.
// It exists for compatibility only and is off unless configured.
func ZeroOnFailure(o PriceOracle) PriceOracle {
	return PriceFunc(func(ctx context.Context, symbol string) (Money, error) {
		price, err := o.Price(ctx, symbol)
		if err != nil {
			return Money{}, nil
		}
		return price, nil
	})
}
