package papertrade

import (
	"time"
)

// ValueReport is a point-in-time valuation of a portfolio.
type ValueReport struct {
	PortfolioID string          `json:"portfolioId"`
	Time        time.Time       `json:"time"`
	Method      CostBasisMethod `json:"costBasis"`

	TotalAdded    Money `json:"totalAdded"` // cumulative deposits
	AvailableCash Money `json:"availableCash"`
	TotalValue    Money `json:"totalValue"` // available cash plus the market value of every asset

	AbsolutePerformance Money   `json:"absolutePerformance"` // TotalValue - TotalAdded
	RelativePerformance Percent `json:"relativePerformance"` // AbsolutePerformance / TotalAdded

	Assets []AssetValuation `json:"assets"` // sorted by symbol
}

// AssetValuation values one holding at the current price.
type AssetValuation struct {
	Symbol      string   `json:"symbol"`
	Quantity    Quantity `json:"quantity"`
	Price       Money    `json:"price"`       // current unit price
	MarketValue Money    `json:"marketValue"` // Price * Quantity

	AverageCost    Money `json:"averageCost"`    // mean purchase price per unit
	InvestedAmount Money `json:"investedAmount"` // AverageCost * Quantity

	AbsolutePerformance Money   `json:"absolutePerformance"` // MarketValue - InvestedAmount
	RelativePerformance Percent `json:"relativePerformance"` // AbsolutePerformance / InvestedAmount
}

// MarketValue returns the sum of all asset market values.
func (r *ValueReport) MarketValue() Money {
	var total Money
	for _, a := range r.Assets {
		total = total.Add(a.MarketValue)
	}
	return total
}

// Asset returns the valuation of symbol, if held.
func (r *ValueReport) Asset(symbol string) (AssetValuation, bool) {
	for _, a := range r.Assets {
		if a.Symbol == symbol {
			return a, true
		}
	}
	return AssetValuation{}, false
}

// DepositResult holds the cash totals after a deposit.
type DepositResult struct {
	TotalAdded    Money `json:"totalAdded"`
	AvailableCash Money `json:"availableCash"`
}
