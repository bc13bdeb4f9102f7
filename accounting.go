package papertrade

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentQuotes bounds the number of price lookups issued in parallel
// while valuing a portfolio.
const maxConcurrentQuotes = 8

// AccountingSystem applies deposits and trades to a Ledger and derives
// valuation reports. It holds no portfolio state: the only side effects are
// the mutations of the Ledger passed in.
type AccountingSystem struct {
	Oracle PriceOracle
	Method CostBasisMethod
	Now    func() time.Time // defaults to time.Now
}

// NewAccountingSystem creates an accounting system pricing assets with oracle.
func NewAccountingSystem(oracle PriceOracle, method CostBasisMethod) *AccountingSystem {
	return &AccountingSystem{Oracle: oracle, Method: method, Now: time.Now}
}

func (as *AccountingSystem) now() time.Time {
	if as.Now == nil {
		return time.Now().UTC()
	}
	return as.Now().UTC()
}

// price fetches the unit price of symbol. Any oracle failure is reported as
// ErrPriceUnavailable.
func (as *AccountingSystem) price(ctx context.Context, symbol string) (Money, error) {
	p, err := as.Oracle.Price(ctx, symbol)
	if err != nil {
		return Money{}, fmt.Errorf("cannot price %s: %w: %w", symbol, ErrPriceUnavailable, err)
	}
	if p.IsNegative() {
		return Money{}, fmt.Errorf("cannot price %s, got negative price %s: %w", symbol, p.Decimal(), ErrPriceUnavailable)
	}
	return p, nil
}

// Price returns the current unit price of symbol.
func (as *AccountingSystem) Price(ctx context.Context, symbol string) (Money, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return Money{}, err
	}
	return as.price(ctx, symbol)
}

// Deposit adds amount of virtual cash to the ledger. Negative amounts are
// rejected; zero is a no-op.
func (as *AccountingSystem) Deposit(l *Ledger, amount Money) (DepositResult, error) {
	if err := l.ApplyDeposit(amount); err != nil {
		return DepositResult{}, err
	}
	return DepositResult{TotalAdded: l.TotalAdded(), AvailableCash: l.AvailableCash()}, nil
}

// Buy purchases quantity units of symbol at the current oracle price.
func (as *AccountingSystem) Buy(ctx context.Context, l *Ledger, symbol string, quantity Quantity) (Transaction, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return Transaction{}, err
	}
	if err := validateTradeQuantity(quantity); err != nil {
		return Transaction{}, err
	}

	unitPrice, err := as.price(ctx, symbol)
	if err != nil {
		return Transaction{}, err
	}
	return l.ApplyBuy(symbol, quantity, unitPrice, as.now())
}

// Sell sells quantity units of symbol at the current oracle price. Holdings
// are checked before the oracle is queried.
func (as *AccountingSystem) Sell(ctx context.Context, l *Ledger, symbol string, quantity Quantity) (Transaction, error) {
	symbol, err := NormalizeSymbol(symbol)
	if err != nil {
		return Transaction{}, err
	}
	if err := validateTradeQuantity(quantity); err != nil {
		return Transaction{}, err
	}
	if err := l.CanSell(symbol, quantity); err != nil {
		return Transaction{}, err
	}

	unitPrice, err := as.price(ctx, symbol)
	if err != nil {
		return Transaction{}, err
	}
	return l.ApplySell(symbol, quantity, unitPrice, as.now())
}

// ValueReport values every holding at the current oracle price. It reads the
// ledger only; prices are fetched concurrently, once per held symbol.
func (as *AccountingSystem) ValueReport(ctx context.Context, l *Ledger) (*ValueReport, error) {
	holdings := l.Holdings()

	prices := make([]Money, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentQuotes)
	for i, h := range holdings {
		g.Go(func() error {
			p, err := as.price(gctx, h.Symbol)
			if err != nil {
				return err
			}
			prices[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("cannot value portfolio %s: %w", l.ID(), err)
	}

	report := &ValueReport{
		PortfolioID:   l.ID(),
		Time:          as.now(),
		Method:        as.Method,
		TotalAdded:    l.TotalAdded(),
		AvailableCash: l.AvailableCash(),
		Assets:        make([]AssetValuation, 0, len(holdings)),
	}
	for i, h := range holdings {
		report.Assets = append(report.Assets, as.valueAsset(l, h, prices[i]))
	}

	report.TotalValue = report.AvailableCash.Add(report.MarketValue())
	report.AbsolutePerformance = report.TotalValue.Sub(report.TotalAdded)
	report.RelativePerformance = report.AbsolutePerformance.Ratio(report.TotalAdded)
	return report, nil
}

// valueAsset computes the valuation of a single holding at unitPrice.
func (as *AccountingSystem) valueAsset(l *Ledger, h Holding, unitPrice Money) AssetValuation {
	a := AssetValuation{
		Symbol:      h.Symbol,
		Quantity:    h.Quantity,
		Price:       unitPrice,
		MarketValue: unitPrice.Mul(h.Quantity),
	}

	switch as.Method {
	case AverageCost:
		a.AverageCost = l.purchased[h.Symbol].averageCost()
		a.InvestedAmount = a.AverageCost.Mul(h.Quantity)
	case FIFO:
		remaining := fifoLots(l.TransactionsOf(h.Symbol))
		a.InvestedAmount = remaining.cost()
		if q := remaining.quantity(); !q.IsZero() {
			a.AverageCost = a.InvestedAmount.Div(q)
		}
	default:
		panic(fmt.Sprintf("unsupported cost basis method %d", as.Method))
	}

	a.AbsolutePerformance = a.MarketValue.Sub(a.InvestedAmount)
	a.RelativePerformance = a.AbsolutePerformance.Ratio(a.InvestedAmount)
	return a
}
