package papertrade

// Holding is the quantity currently owned of one asset.
type Holding struct {
	Symbol   string
	Quantity Quantity
}

// purchase accumulates every buy ever made for a symbol. Sells never touch it,
// so it survives a holding going back to zero.
type purchase struct {
	quantity Quantity
	cost     Money
}

// averageCost is the mean unit price paid, or zero when nothing was bought.
func (p purchase) averageCost() Money {
	if p.quantity.IsZero() {
		return Money{}
	}
	return p.cost.Div(p.quantity)
}
