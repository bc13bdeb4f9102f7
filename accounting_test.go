package papertrade

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

var errOffline = errors.New("exchange offline")

// failingOracle returns errOffline for every symbol and counts the calls.
type failingOracle struct{ calls atomic.Int32 }

func (f *failingOracle) Price(context.Context, string) (Money, error) {
	f.calls.Add(1)
	return Money{}, errOffline
}

func TestAccountingSystem_Deposit(t *testing.T) {
	as, _ := newTestSystem(AverageCost, nil)
	l := NewLedger("", "alice", at)

	res, err := as.Deposit(l, USD(1000))
	if err != nil {
		t.Fatalf("Deposit() unexpected error: %v", err)
	}
	res, err = as.Deposit(l, USD(250.25))
	if err != nil {
		t.Fatalf("Deposit() unexpected error: %v", err)
	}
	if !res.TotalAdded.Equal(USD(1250.25)) || !res.AvailableCash.Equal(USD(1250.25)) {
		t.Errorf("Deposit() = %+v, want 1250.25 added and available", res)
	}

	if _, err := as.Deposit(l, USD(-5)); !IsValidationError(err) {
		t.Errorf("Deposit(-5) error = %v, want a ValidationError", err)
	}
	if !l.TotalAdded().Equal(USD(1250.25)) {
		t.Errorf("rejected deposit changed TotalAdded() to %s", l.TotalAdded().Decimal())
	}
}

func TestAccountingSystem_Buy(t *testing.T) {
	ctx := context.Background()
	as, _ := newTestSystem(AverageCost, map[string]float64{"BTC": 60})
	l := funded(t, 100)

	// lower case symbols are normalized
	tx, err := as.Buy(ctx, l, "btc", Q(1))
	if err != nil {
		t.Fatalf("Buy() unexpected error: %v", err)
	}
	if tx.Symbol != "BTC" || !tx.Price.Equal(USD(60)) || !tx.Quantity.Equal(Q(1)) {
		t.Errorf("Buy() = %+v, want 1 BTC at 60", tx)
	}
	if tx.Time.IsZero() || tx.Time.Location().String() != "UTC" {
		t.Errorf("Buy() time = %v, want a UTC instant", tx.Time)
	}
	if !l.AvailableCash().Equal(USD(40)) {
		t.Errorf("AvailableCash() = %s, want 40", l.AvailableCash().Decimal())
	}

	// availableCash=40, price=60: the second buy must fail and change nothing
	if _, err := as.Buy(ctx, l, "BTC", Q(1)); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Buy() error = %v, want %v", err, ErrInsufficientFunds)
	}
	if !l.AvailableCash().Equal(USD(40)) || l.Len() != 1 {
		t.Errorf("rejected buy modified the ledger")
	}
}

func TestAccountingSystem_Buy_Validation(t *testing.T) {
	oracle := &failingOracle{}
	as := NewAccountingSystem(oracle, AverageCost)
	l := funded(t, 100)
	ctx := context.Background()

	if _, err := as.Buy(ctx, l, "BTC", Q(0)); !IsValidationError(err) {
		t.Errorf("Buy(0) error = %v, want a ValidationError", err)
	}
	if _, err := as.Buy(ctx, l, "", Q(1)); !IsValidationError(err) {
		t.Errorf("Buy(\"\") error = %v, want a ValidationError", err)
	}
	if n := oracle.calls.Load(); n != 0 {
		t.Errorf("oracle called %d times for invalid input, want 0", n)
	}
}

func TestAccountingSystem_PriceUnavailable(t *testing.T) {
	ctx := context.Background()
	as := NewAccountingSystem(&failingOracle{}, AverageCost)
	l := funded(t, 100)

	_, err := as.Buy(ctx, l, "BTC", Q(1))
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("Buy() error = %v, want %v", err, ErrPriceUnavailable)
	}
	if !errors.Is(err, errOffline) {
		t.Errorf("Buy() error = %v, want the oracle cause to be wrapped", err)
	}
	if !l.AvailableCash().Equal(USD(100)) || l.Len() != 0 {
		t.Errorf("failed buy modified the ledger")
	}
}

func TestAccountingSystem_ZeroOnFailure(t *testing.T) {
	ctx := context.Background()
	as := NewAccountingSystem(ZeroOnFailure(&failingOracle{}), AverageCost)
	l := funded(t, 100)

	tx, err := as.Buy(ctx, l, "BTC", Q(3))
	if err != nil {
		t.Fatalf("Buy() unexpected error: %v", err)
	}
	if !tx.Price.IsZero() || !l.AvailableCash().Equal(USD(100)) {
		t.Errorf("Buy() at a zero price = %+v, cash %s", tx, l.AvailableCash().Decimal())
	}

	report, err := as.ValueReport(ctx, l)
	if err != nil {
		t.Fatalf("ValueReport() unexpected error: %v", err)
	}
	if !report.TotalValue.Equal(USD(100)) {
		t.Errorf("TotalValue = %s, want 100", report.TotalValue.Decimal())
	}
}

func TestAccountingSystem_Sell(t *testing.T) {
	ctx := context.Background()
	as, prices := newTestSystem(AverageCost, map[string]float64{"ETH": 10})
	l := funded(t, 100)
	if _, err := as.Buy(ctx, l, "ETH", Q(5)); err != nil {
		t.Fatalf("Buy() unexpected error: %v", err)
	}

	prices.Set("ETH", USD(20))
	tx, err := as.Sell(ctx, l, "eth", Q(2))
	if err != nil {
		t.Fatalf("Sell() unexpected error: %v", err)
	}
	if !tx.Quantity.Equal(Q(-2)) || !tx.Price.Equal(USD(20)) || tx.What() != CmdSell {
		t.Errorf("Sell() = %+v, want -2 ETH at 20", tx)
	}
	if !l.AvailableCash().Equal(USD(90)) {
		t.Errorf("AvailableCash() = %s, want 90", l.AvailableCash().Decimal())
	}

	if _, err := as.Sell(ctx, l, "ETH", Q(3)); err != nil {
		t.Fatalf("Sell() unexpected error: %v", err)
	}
	if _, ok := l.Holding("ETH"); ok {
		t.Error("Holding(ETH) should be removed after selling everything")
	}
}

func TestAccountingSystem_Sell_ChecksHoldingsFirst(t *testing.T) {
	ctx := context.Background()
	oracle := &failingOracle{}
	as := NewAccountingSystem(oracle, AverageCost)
	l := funded(t, 100)

	if _, err := as.Sell(ctx, l, "BTC", Q(1)); !errors.Is(err, ErrNoHolding) {
		t.Errorf("Sell() error = %v, want %v", err, ErrNoHolding)
	}
	if _, err := l.ApplyBuy("BTC", Q(1), USD(10), at); err != nil {
		t.Fatalf("ApplyBuy() unexpected error: %v", err)
	}
	if _, err := as.Sell(ctx, l, "BTC", Q(2)); !errors.Is(err, ErrInsufficientQuantity) {
		t.Errorf("Sell() error = %v, want %v", err, ErrInsufficientQuantity)
	}
	if n := oracle.calls.Load(); n != 0 {
		t.Errorf("oracle called %d times, want 0", n)
	}
}

func TestAccountingSystem_ValueReport(t *testing.T) {
	ctx := context.Background()
	// deposited 1000, bought 1 BTC at 100, BTC now at 150
	as, prices := newTestSystem(AverageCost, map[string]float64{"BTC": 100})
	l := funded(t, 1000)
	if _, err := as.Buy(ctx, l, "BTC", Q(1)); err != nil {
		t.Fatalf("Buy() unexpected error: %v", err)
	}
	prices.Set("BTC", USD(150))

	report, err := as.ValueReport(ctx, l)
	if err != nil {
		t.Fatalf("ValueReport() unexpected error: %v", err)
	}

	if !report.TotalAdded.Equal(USD(1000)) {
		t.Errorf("TotalAdded = %s, want 1000", report.TotalAdded.Decimal())
	}
	if !report.AvailableCash.Equal(USD(900)) {
		t.Errorf("AvailableCash = %s, want 900", report.AvailableCash.Decimal())
	}
	if !report.TotalValue.Equal(USD(1050)) {
		t.Errorf("TotalValue = %s, want 1050", report.TotalValue.Decimal())
	}
	if !report.AbsolutePerformance.Equal(USD(50)) {
		t.Errorf("AbsolutePerformance = %s, want 50", report.AbsolutePerformance.Decimal())
	}
	if !report.RelativePerformance.Equal(5) {
		t.Errorf("RelativePerformance = %v, want 5", report.RelativePerformance)
	}

	btc, ok := report.Asset("BTC")
	if !ok {
		t.Fatal("report has no BTC asset")
	}
	if !btc.MarketValue.Equal(USD(150)) || !btc.AverageCost.Equal(USD(100)) || !btc.InvestedAmount.Equal(USD(100)) {
		t.Errorf("BTC valuation = %+v", btc)
	}
	if !btc.AbsolutePerformance.Equal(USD(50)) || !btc.RelativePerformance.Equal(50) {
		t.Errorf("BTC performance = %s, %v, want 50, 50%%", btc.AbsolutePerformance.Decimal(), btc.RelativePerformance)
	}
}

func TestAccountingSystem_ValueReport_Empty(t *testing.T) {
	as, _ := newTestSystem(AverageCost, nil)
	l := NewLedger("", "alice", at)

	report, err := as.ValueReport(context.Background(), l)
	if err != nil {
		t.Fatalf("ValueReport() unexpected error: %v", err)
	}
	if !report.TotalValue.IsZero() || !report.AbsolutePerformance.IsZero() || report.RelativePerformance != 0 {
		t.Errorf("empty report = %+v, want zeros", report)
	}
	if len(report.Assets) != 0 {
		t.Errorf("empty report has %d assets", len(report.Assets))
	}
}

func TestAccountingSystem_ValueReport_PriceUnavailable(t *testing.T) {
	as, prices := newTestSystem(AverageCost, map[string]float64{"BTC": 10, "ETH": 10})
	l := funded(t, 100)
	for _, s := range []string{"BTC", "ETH"} {
		if _, err := as.Buy(context.Background(), l, s, Q(1)); err != nil {
			t.Fatalf("Buy(%s) unexpected error: %v", s, err)
		}
	}
	prices.Set("ETH", Money{})

	_, err := as.ValueReport(context.Background(), l)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("ValueReport() error = %v, want %v", err, ErrPriceUnavailable)
	}
}

func TestAccountingSystem_ValueReport_DoesNotMutate(t *testing.T) {
	as, _ := newTestSystem(AverageCost, map[string]float64{"BTC": 10})
	l := funded(t, 100)
	if _, err := as.Buy(context.Background(), l, "BTC", Q(2)); err != nil {
		t.Fatalf("Buy() unexpected error: %v", err)
	}
	before := l.Clone()

	if _, err := as.ValueReport(context.Background(), l); err != nil {
		t.Fatalf("ValueReport() unexpected error: %v", err)
	}
	if l.Len() != before.Len() || !l.AvailableCash().Equal(before.AvailableCash()) || !l.TotalAdded().Equal(before.TotalAdded()) {
		t.Error("ValueReport() modified the ledger")
	}
}

func TestAccountingSystem_CostBasis(t *testing.T) {
	// buy 1@100, buy 1@200, sell 1, then value at 300
	testCases := []struct {
		method       CostBasisMethod
		wantAverage  float64
		wantInvested float64
	}{
		{method: AverageCost, wantAverage: 150, wantInvested: 150},
		// FIFO consumed the 100 lot, the 200 lot remains
		{method: FIFO, wantAverage: 200, wantInvested: 200},
	}
	for _, tc := range testCases {
		t.Run(tc.method.String(), func(t *testing.T) {
			ctx := context.Background()
			as, prices := newTestSystem(tc.method, map[string]float64{"BTC": 100})
			l := funded(t, 1000)
			must(as.Buy(ctx, l, "BTC", Q(1)))
			prices.Set("BTC", USD(200))
			must(as.Buy(ctx, l, "BTC", Q(1)))
			must(as.Sell(ctx, l, "BTC", Q(1)))
			prices.Set("BTC", USD(300))

			report, err := as.ValueReport(ctx, l)
			if err != nil {
				t.Fatalf("ValueReport() unexpected error: %v", err)
			}
			btc, _ := report.Asset("BTC")
			if !btc.AverageCost.Equal(USD(tc.wantAverage)) {
				t.Errorf("AverageCost = %s, want %v", btc.AverageCost.Decimal(), tc.wantAverage)
			}
			if !btc.InvestedAmount.Equal(USD(tc.wantInvested)) {
				t.Errorf("InvestedAmount = %s, want %v", btc.InvestedAmount.Decimal(), tc.wantInvested)
			}
			if report.Method != tc.method {
				t.Errorf("report method = %v, want %v", report.Method, tc.method)
			}
		})
	}
}

func TestAccountingSystem_AverageCostAfterFullSell(t *testing.T) {
	// the average includes every buy ever made, even those of a closed position
	ctx := context.Background()
	as, prices := newTestSystem(AverageCost, map[string]float64{"SOL": 10})
	l := funded(t, 1000)
	must(as.Buy(ctx, l, "SOL", Q(2)))
	must(as.Sell(ctx, l, "SOL", Q(2)))
	prices.Set("SOL", USD(40))
	must(as.Buy(ctx, l, "SOL", Q(2)))

	report, err := as.ValueReport(ctx, l)
	if err != nil {
		t.Fatalf("ValueReport() unexpected error: %v", err)
	}
	sol, _ := report.Asset("SOL")
	if !sol.AverageCost.Equal(USD(25)) {
		t.Errorf("AverageCost = %s, want 25", sol.AverageCost.Decimal())
	}
	if !sol.InvestedAmount.Equal(USD(50)) {
		t.Errorf("InvestedAmount = %s, want 50", sol.InvestedAmount.Decimal())
	}
}


func TestAccountingSystem_Price(t *testing.T) {
	as, _ := newTestSystem(AverageCost, map[string]float64{"BTC": 42})
	p, err := as.Price(context.Background(), " btc")
	if err != nil {
		t.Fatalf("Price() unexpected error: %v", err)
	}
	if !p.Equal(USD(42)) {
		t.Errorf("Price(btc) = %s, want 42", p.Decimal())
	}
	if _, err := as.Price(context.Background(), "DOGE"); !errors.Is(err, ErrPriceUnavailable) {
		t.Errorf("Price(DOGE) error = %v, want %v", err, ErrPriceUnavailable)
	}
	if _, err := as.Price(context.Background(), "BTC/USDT"); !IsValidationError(err) {
		t.Errorf("Price(BTC/USDT) error = %v, want a ValidationError", err)
	}
}

func TestAccountingSystem_RoundTripRestoresCash(t *testing.T) {
	as, _ := newTestSystem(AverageCost, map[string]float64{"ETH": 1234.5678})
	l := funded(t, 10000)
	ctx := context.Background()

	must(as.Buy(ctx, l, "ETH", Q(3.25)))
	must(as.Sell(ctx, l, "ETH", Q(1)))
	must(as.Sell(ctx, l, "ETH", Q(2.25)))

	if !l.AvailableCash().Equal(USD(10000)) {
		t.Errorf("AvailableCash() = %s, want 10000", l.AvailableCash().Decimal())
	}
	if _, ok := l.Holding("ETH"); ok {
		t.Error("Holding(ETH) still present after selling everything")
	}
	checkInvariants(t, l)
}

func TestLedger_PurchasedMatchesTransactionScan(t *testing.T) {
	l := funded(t, 100000)
	trades := []struct {
		symbol   string
		quantity float64
		price    float64
	}{
		{"BTC", 0.5, 20000},
		{"ETH", 3, 1500},
		{"BTC", -0.2, 25000},
		{"BTC", 0.1, 18000.55},
		{"ETH", -3, 1600},
		{"ETH", 1.5, 1400},
	}
	for i, tr := range trades {
		var err error
		if tr.quantity > 0 {
			_, err = l.ApplyBuy(tr.symbol, Q(tr.quantity), USD(tr.price), at)
		} else {
			_, err = l.ApplySell(tr.symbol, Q(-tr.quantity), USD(tr.price), at)
		}
		if err != nil {
			t.Fatalf("trade %d: unexpected error: %v", i, err)
		}
	}

	for _, symbol := range []string{"BTC", "ETH"} {
		var quantity Quantity
		var cost Money
		for tx := range l.TransactionsOf(symbol) {
			if tx.IsBuy() {
				quantity = quantity.Add(tx.Quantity)
				cost = cost.Add(tx.Amount())
			}
		}
		q, c := l.Purchased(symbol)
		if !q.Equal(quantity) || !c.Equal(cost) {
			t.Errorf("Purchased(%s) = %s/%s, scan gives %s/%s", symbol, q, c.Decimal(), quantity, cost.Decimal())
		}
	}
}
