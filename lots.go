package papertrade

import "iter"

// lot represents a single purchase of an asset, used for FIFO cost basis.
type lot struct {
	Quantity Quantity
	Cost     Money // Total cost of the lot (quantity * price)
}

type lots []lot

// fifoLots replays the transactions of one symbol and returns the lots still
// held, oldest first.
func fifoLots(txs iter.Seq[Transaction]) lots {
	var held lots
	for tx := range txs {
		if tx.IsBuy() {
			held = append(held, lot{Quantity: tx.Quantity, Cost: tx.Amount()})
			continue
		}
		held = held.sell(tx.Quantity.Abs())
	}
	return held
}

// sell consumes quantityToSell from the oldest lots first.
func (l lots) sell(quantityToSell Quantity) lots {
	var remaining lots
	for _, current := range l {
		if quantityToSell.IsZero() {
			remaining = append(remaining, current)
			continue
		}
		if current.Quantity.GreaterThan(quantityToSell) {
			// Partial sale from this lot
			soldCost := current.Cost.Mul(quantityToSell).Div(current.Quantity)
			remaining = append(remaining, lot{
				Quantity: current.Quantity.Sub(quantityToSell),
				Cost:     current.Cost.Sub(soldCost),
			})
			quantityToSell = Quantity{}
		} else {
			quantityToSell = quantityToSell.Sub(current.Quantity)
		}
	}
	return remaining
}

// cost is the total cost of the remaining lots.
func (l lots) cost() Money {
	var total Money
	for _, current := range l {
		total = total.Add(current.Cost)
	}
	return total
}

// quantity is the total quantity of the remaining lots.
func (l lots) quantity() Quantity {
	var total Quantity
	for _, current := range l {
		total = total.Add(current.Quantity)
	}
	return total
}
