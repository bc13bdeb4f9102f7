package papertrade

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// EncodeLedger writes the ledger as JSONL: a portfolio header line, one line
// per holding, then one line per transaction in execution order.
func EncodeLedger(w io.Writer, l *Ledger) error {
	var header jsonObjectWriter
	header.Append("command", CmdPortfolio)
	header.Append("id", l.id)
	header.Optional("owner", l.owner)
	header.Append("created", l.created.UTC().Format(time.RFC3339Nano))
	header.Append("totalAdded", l.totalAdded)
	header.Append("availableCash", l.availableCash)
	if err := writeLine(w, &header); err != nil {
		return err
	}

	for _, h := range l.Holdings() {
		var line jsonObjectWriter
		line.Append("command", CmdHolding)
		line.Append("symbol", h.Symbol)
		line.Append("quantity", h.Quantity)
		if err := writeLine(w, &line); err != nil {
			return err
		}
	}

	for _, tx := range l.transactions {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}

// EncodeTransaction writes a single transaction as a JSON line.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	b, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("cannot encode transaction %s: %w", tx.ID, err)
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func writeLine(w io.Writer, m json.Marshaler) error {
	b, err := m.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// DecodeLedger reads a ledger written by EncodeLedger. The decoded ledger is
// checked against its invariants before being returned.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var l *Ledger
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var identifier struct {
			Command CommandType `json:"command"`
		}
		if err := json.Unmarshal(lineBytes, &identifier); err != nil {
			return nil, fmt.Errorf("line %d: could not identify command: %w", lineNo, err)
		}

		if l == nil && identifier.Command != CmdPortfolio {
			return nil, fmt.Errorf("line %d: expected a %q header, got %q", lineNo, CmdPortfolio, identifier.Command)
		}

		switch identifier.Command {
		case CmdPortfolio:
			if l != nil {
				return nil, fmt.Errorf("line %d: duplicate %q header", lineNo, CmdPortfolio)
			}
			var temp struct {
				ID            string    `json:"id"`
				Owner         string    `json:"owner"`
				Created       time.Time `json:"created"`
				TotalAdded    Money     `json:"totalAdded"`
				AvailableCash Money     `json:"availableCash"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if temp.ID == "" {
				return nil, fmt.Errorf("line %d: portfolio id is missing", lineNo)
			}
			l = NewLedger(temp.ID, temp.Owner, temp.Created)
			l.totalAdded = temp.TotalAdded
			l.availableCash = temp.AvailableCash

		case CmdHolding:
			var temp struct {
				Symbol   string   `json:"symbol"`
				Quantity Quantity `json:"quantity"`
			}
			if err := json.Unmarshal(lineBytes, &temp); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if _, exists := l.holdings[temp.Symbol]; exists {
				return nil, fmt.Errorf("line %d: duplicate holding %s", lineNo, temp.Symbol)
			}
			l.holdings[temp.Symbol] = temp.Quantity

		case CmdBuy, CmdSell:
			var tx Transaction
			if err := json.Unmarshal(lineBytes, &tx); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if tx.What() != identifier.Command {
				return nil, fmt.Errorf("line %d: %s transaction has quantity %s", lineNo, identifier.Command, tx.Quantity)
			}
			l.record(tx)

		default:
			return nil, fmt.Errorf("line %d: unknown command %q", lineNo, identifier.Command)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if l == nil {
		return nil, errors.New("empty ledger: missing portfolio header")
	}
	if err := l.Check(); err != nil {
		return nil, fmt.Errorf("inconsistent ledger %s: %w", l.id, err)
	}
	return l, nil
}
