package papertrade

import (
	"encoding/json"
	"time"
)

// CommandType is a typed string for identifying ledger records.
type CommandType string

// Command types used in the persisted ledger.
const (
	CmdPortfolio CommandType = "portfolio"
	CmdHolding   CommandType = "holding"
	CmdBuy       CommandType = "buy"
	CmdSell      CommandType = "sell"
)

// Transaction is the immutable record of one executed trade.
//
// Quantity is signed: positive for a buy, negative for a sell. Transactions
// are derived data; the ledger holdings are the authoritative balances.
type Transaction struct {
	ID       string    // ID is a unique identifier (uuid).
	Symbol   string    // Symbol is the traded asset, e.g. "BTC".
	Quantity Quantity  // Quantity is the signed number of units.
	Price    Money     // Price is the unit price at execution time.
	Time     time.Time // Time is the UTC execution instant.
}

// What returns the command type of the transaction.
func (t Transaction) What() CommandType {
	if t.Quantity.IsNegative() {
		return CmdSell
	}
	return CmdBuy
}

// IsBuy reports whether the transaction bought units.
func (t Transaction) IsBuy() bool { return t.Quantity.IsPositive() }

// Amount is the cash that moved: the cost of a buy or the proceeds of a sell.
// It is always non-negative.
func (t Transaction) Amount() Money { return t.Price.Mul(t.Quantity.Abs()) }

// Equal reports whether two transactions are identical.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Symbol == o.Symbol && t.Quantity.Equal(o.Quantity) &&
		t.Price.Equal(o.Price) && t.Time.Equal(o.Time)
}

// MarshalJSON writes the transaction with a stable field order.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("command", t.What())
	w.Append("id", t.ID)
	w.Append("time", t.Time.UTC().Format(time.RFC3339Nano))
	w.Append("symbol", t.Symbol)
	w.Append("quantity", t.Quantity)
	w.Append("price", t.Price)
	return w.MarshalJSON()
}

// UnmarshalJSON reads a transaction written by MarshalJSON.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var temp struct {
		ID       string    `json:"id"`
		Time     time.Time `json:"time"`
		Symbol   string    `json:"symbol"`
		Quantity Quantity  `json:"quantity"`
		Price    Money     `json:"price"`
	}
	if err := json.Unmarshal(data, &temp); err != nil {
		return err
	}
	*t = Transaction{
		ID:       temp.ID,
		Symbol:   temp.Symbol,
		Quantity: temp.Quantity,
		Price:    temp.Price,
		Time:     temp.Time.UTC(),
	}
	return nil
}
