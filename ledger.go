package papertrade

import (
	"errors"
	"fmt"
	"iter"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Ledger is the record of cash, holdings and trades of one portfolio.
//
// Every Apply method is all-or-nothing: on error the ledger is left exactly as
// it was. A Ledger is not safe for concurrent use; callers serialize access
// per portfolio.
type Ledger struct {
	id      string
	owner   string
	created time.Time

	totalAdded    Money // cumulative deposits, never decreases
	availableCash Money // spendable cash, never negative

	holdings     map[string]Quantity // strictly positive quantities only
	transactions []Transaction       // in execution order
	purchased    map[string]purchase
}

// NewLedger creates an empty ledger. An empty id is replaced by a new uuid.
func NewLedger(id, owner string, created time.Time) *Ledger {
	if id == "" {
		id = uuid.NewString()
	}
	return &Ledger{
		id:           id,
		owner:        owner,
		created:      created.UTC(),
		holdings:     make(map[string]Quantity),
		transactions: make([]Transaction, 0),
		purchased:    make(map[string]purchase),
	}
}

func (l *Ledger) ID() string           { return l.id }
func (l *Ledger) Owner() string        { return l.owner }
func (l *Ledger) Created() time.Time   { return l.created }
func (l *Ledger) TotalAdded() Money    { return l.totalAdded }
func (l *Ledger) AvailableCash() Money { return l.availableCash }

// Holding returns the holding for symbol, if any.
func (l *Ledger) Holding(symbol string) (Holding, bool) {
	q, ok := l.holdings[symbol]
	if !ok {
		return Holding{}, false
	}
	return Holding{Symbol: symbol, Quantity: q}, true
}

// Holdings returns all holdings sorted by symbol.
func (l *Ledger) Holdings() []Holding {
	res := make([]Holding, 0, len(l.holdings))
	for _, s := range slices.Sorted(maps.Keys(l.holdings)) {
		res = append(res, Holding{Symbol: s, Quantity: l.holdings[s]})
	}
	return res
}

// Transactions iterates over all transactions in execution order.
func (l *Ledger) Transactions() iter.Seq[Transaction] {
	return slices.Values(l.transactions)
}

// TransactionsOf iterates over the transactions of a single symbol.
func (l *Ledger) TransactionsOf(symbol string) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, tx := range l.transactions {
			if tx.Symbol != symbol {
				continue
			}
			if !yield(tx) {
				return
			}
		}
	}
}

// Len returns the number of transactions.
func (l *Ledger) Len() int { return len(l.transactions) }

// Purchased returns the total quantity and total cost of every buy recorded
// for symbol.
func (l *Ledger) Purchased(symbol string) (Quantity, Money) {
	p := l.purchased[symbol]
	return p.quantity, p.cost
}

// ApplyDeposit adds amount to both the cumulative deposits and the available
// cash. A zero amount is a no-op.
func (l *Ledger) ApplyDeposit(amount Money) error {
	if err := validateDepositAmount(amount); err != nil {
		return err
	}
	l.totalAdded = l.totalAdded.Add(amount)
	l.availableCash = l.availableCash.Add(amount)
	return nil
}

// ApplyBuy buys quantity units of symbol at price, paid from the available cash.
func (l *Ledger) ApplyBuy(symbol string, quantity Quantity, price Money, at time.Time) (Transaction, error) {
	if err := validateTrade(symbol, quantity, price); err != nil {
		return Transaction{}, err
	}
	cost := price.Mul(quantity)
	if cost.GreaterThan(l.availableCash) {
		return Transaction{}, fmt.Errorf("cannot buy %s %s for %s, cash balance is %s: %w", quantity, symbol, cost, l.availableCash, ErrInsufficientFunds)
	}

	tx := Transaction{ID: uuid.NewString(), Symbol: symbol, Quantity: quantity, Price: price, Time: at.UTC()}
	l.holdings[symbol] = l.holdings[symbol].Add(quantity)
	l.record(tx)
	l.availableCash = l.availableCash.Sub(cost)
	return tx, nil
}

// ApplySell sells quantity units of symbol at price, crediting the proceeds to
// the available cash. A holding reaching zero is removed.
func (l *Ledger) ApplySell(symbol string, quantity Quantity, price Money, at time.Time) (Transaction, error) {
	if err := validateTrade(symbol, quantity, price); err != nil {
		return Transaction{}, err
	}
	if err := l.CanSell(symbol, quantity); err != nil {
		return Transaction{}, err
	}

	tx := Transaction{ID: uuid.NewString(), Symbol: symbol, Quantity: quantity.Neg(), Price: price, Time: at.UTC()}
	remaining := l.holdings[symbol].Sub(quantity)
	if remaining.IsZero() {
		delete(l.holdings, symbol)
	} else {
		l.holdings[symbol] = remaining
	}
	l.record(tx)
	l.availableCash = l.availableCash.Add(price.Mul(quantity))
	return tx, nil
}

// CanSell checks that quantity units of symbol are held.
func (l *Ledger) CanSell(symbol string, quantity Quantity) error {
	held, ok := l.holdings[symbol]
	if !ok {
		return fmt.Errorf("cannot sell %s %s: %w", quantity, symbol, ErrNoHolding)
	}
	if quantity.GreaterThan(held) {
		return fmt.Errorf("cannot sell %s %s, only %s held: %w", quantity, symbol, held, ErrInsufficientQuantity)
	}
	return nil
}

// record appends tx and keeps the purchase accumulator in sync.
func (l *Ledger) record(tx Transaction) {
	l.transactions = append(l.transactions, tx)
	if tx.IsBuy() {
		p := l.purchased[tx.Symbol]
		l.purchased[tx.Symbol] = purchase{
			quantity: p.quantity.Add(tx.Quantity),
			cost:     p.cost.Add(tx.Amount()),
		}
	}
}

func validateTrade(symbol string, quantity Quantity, price Money) error {
	if s, err := NormalizeSymbol(symbol); err != nil {
		return err
	} else if s != symbol {
		return &ValidationError{Field: "symbol", Reason: fmt.Sprintf("%q is not normalized", symbol)}
	}
	if err := validateTradeQuantity(quantity); err != nil {
		return err
	}
	if price.IsNegative() {
		return &ValidationError{Field: "price", Reason: fmt.Sprintf("must not be negative, got %s", price.Decimal())}
	}
	return nil
}

// Clone returns a deep copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	return &Ledger{
		id:            l.id,
		owner:         l.owner,
		created:       l.created,
		totalAdded:    l.totalAdded,
		availableCash: l.availableCash,
		holdings:      maps.Clone(l.holdings),
		transactions:  slices.Clone(l.transactions),
		purchased:     maps.Clone(l.purchased),
	}
}

// Check verifies the ledger invariants and returns every violation found.
func (l *Ledger) Check() error {
	var errs error
	if l.availableCash.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("available cash is negative: %s", l.availableCash.Decimal()))
	}
	if l.totalAdded.IsNegative() {
		errs = errors.Join(errs, fmt.Errorf("total added is negative: %s", l.totalAdded.Decimal()))
	}

	sums := make(map[string]Quantity)
	for _, tx := range l.transactions {
		if tx.Quantity.IsZero() {
			errs = errors.Join(errs, fmt.Errorf("transaction %s has a zero quantity", tx.ID))
		}
		sums[tx.Symbol] = sums[tx.Symbol].Add(tx.Quantity)
	}
	for symbol, q := range l.holdings {
		if !q.IsPositive() {
			errs = errors.Join(errs, fmt.Errorf("holding %s has a non positive quantity %s", symbol, q))
		}
		if !sums[symbol].Equal(q) {
			errs = errors.Join(errs, fmt.Errorf("holding %s is %s but transactions sum to %s", symbol, q, sums[symbol]))
		}
	}
	for symbol, sum := range sums {
		if _, held := l.holdings[symbol]; !held && !sum.IsZero() {
			errs = errors.Join(errs, fmt.Errorf("no holding %s but transactions sum to %s", symbol, sum))
		}
	}
	return errs
}
