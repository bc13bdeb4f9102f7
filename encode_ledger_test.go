package papertrade

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestEncodeLedger(t *testing.T) {
	l := NewLedger("p1", "alice", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	if err := l.ApplyDeposit(USD(1000)); err != nil {
		t.Fatal(err)
	}
	buy := must(l.ApplyBuy("BTC", Q(1.5), USD(100), at))
	sell := must(l.ApplySell("BTC", Q(0.5), USD(120.25), at.Add(time.Hour)))

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() unexpected error: %v", err)
	}

	want := `{"command":"portfolio","id":"p1","owner":"alice","created":"2025-01-01T00:00:00Z","totalAdded":1000,"availableCash":910.125}
{"command":"holding","symbol":"BTC","quantity":1}
{"command":"buy","id":"` + buy.ID + `","time":"2025-02-01T10:00:00Z","symbol":"BTC","quantity":1.5,"price":100}
{"command":"sell","id":"` + sell.ID + `","time":"2025-02-01T11:00:00Z","symbol":"BTC","quantity":-0.5,"price":120.25}
`
	if got := buf.String(); got != want {
		t.Errorf("EncodeLedger() mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestDecodeLedger_RoundTrip(t *testing.T) {
	l := funded(t, 500)
	must(l.ApplyBuy("ETH", Q(2), USD(50), at))
	must(l.ApplyBuy("BTC", Q(0.01), USD(20000), at))
	must(l.ApplySell("ETH", Q(1), USD(60), at))
	must(l.ApplyBuy("ETH", Q(3), USD(40), at))

	var buf bytes.Buffer
	if err := EncodeLedger(&buf, l); err != nil {
		t.Fatalf("EncodeLedger() unexpected error: %v", err)
	}
	got, err := DecodeLedger(&buf)
	if err != nil {
		t.Fatalf("DecodeLedger() unexpected error: %v", err)
	}

	if got.ID() != l.ID() || got.Owner() != l.Owner() || !got.Created().Equal(l.Created()) {
		t.Errorf("decoded header = %s/%s/%v, want %s/%s/%v", got.ID(), got.Owner(), got.Created(), l.ID(), l.Owner(), l.Created())
	}
	if !got.TotalAdded().Equal(l.TotalAdded()) || !got.AvailableCash().Equal(l.AvailableCash()) {
		t.Errorf("decoded cash = %s/%s, want %s/%s", got.TotalAdded().Decimal(), got.AvailableCash().Decimal(), l.TotalAdded().Decimal(), l.AvailableCash().Decimal())
	}
	if got.Len() != l.Len() {
		t.Fatalf("decoded %d transactions, want %d", got.Len(), l.Len())
	}
	i := 0
	want := l.transactions
	for tx := range got.Transactions() {
		if !tx.Equal(want[i]) {
			t.Errorf("transaction %d = %+v, want %+v", i, tx, want[i])
		}
		i++
	}
	for _, symbol := range []string{"ETH", "BTC"} {
		gq, gc := got.Purchased(symbol)
		wq, wc := l.Purchased(symbol)
		if !gq.Equal(wq) || !gc.Equal(wc) {
			t.Errorf("Purchased(%s) = %s/%s, want %s/%s", symbol, gq, gc.Decimal(), wq, wc.Decimal())
		}
	}
}

func TestDecodeLedger_Errors(t *testing.T) {
	header := `{"command":"portfolio","id":"p1","created":"2025-01-01T00:00:00Z","totalAdded":100,"availableCash":90}`
	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "missing header", input: `{"command":"holding","symbol":"BTC","quantity":1}`},
		{name: "missing id", input: `{"command":"portfolio","totalAdded":0,"availableCash":0}`},
		{name: "duplicate header", input: header + "\n" + header},
		{name: "unknown command", input: header + "\n" + `{"command":"dividend"}`},
		{name: "malformed json", input: header + "\n" + `{"command":`},
		{
			name: "holding without transactions",
			input: header + "\n" +
				`{"command":"holding","symbol":"BTC","quantity":1}`,
		},
		{
			name: "buy with a negative quantity",
			input: header + "\n" +
				`{"command":"buy","id":"t1","time":"2025-02-01T10:00:00Z","symbol":"BTC","quantity":-1,"price":10}`,
		},
		{
			name: "duplicate holding",
			input: header + "\n" +
				`{"command":"holding","symbol":"BTC","quantity":1}` + "\n" +
				`{"command":"holding","symbol":"BTC","quantity":1}`,
		},
		{
			name:  "negative cash",
			input: `{"command":"portfolio","id":"p1","totalAdded":100,"availableCash":-1}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeLedger(strings.NewReader(tc.input)); err == nil {
				t.Error("DecodeLedger() expected an error, got nil")
			}
		})
	}
}

func TestDecodeLedger_SkipsBlankLines(t *testing.T) {
	input := `
{"command":"portfolio","id":"p1","created":"2025-01-01T00:00:00Z","totalAdded":100,"availableCash":90}

{"command":"holding","symbol":"BTC","quantity":1}
{"command":"buy","id":"t1","time":"2025-02-01T10:00:00Z","symbol":"BTC","quantity":1,"price":10}
`
	l, err := DecodeLedger(strings.NewReader(input))
	if err != nil {
		t.Fatalf("DecodeLedger() unexpected error: %v", err)
	}
	h, ok := l.Holding("BTC")
	if !ok || !h.Quantity.Equal(Q(1)) {
		t.Errorf("Holding(BTC) = %v, %v, want 1", h, ok)
	}
}
