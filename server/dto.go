package server

import (
	"time"

	papertrade "github.com/etnz/papertrade"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type addMoneyRequest struct {
	Amount papertrade.Money `json:"amount"`
}

type addMoneyResponse struct {
	Message         string           `json:"message"`
	TotalAddedMoney papertrade.Money `json:"total_added_money"`
	AvailableMoney  papertrade.Money `json:"available_money"`
}

type tradeRequest struct {
	Symbol   string              `json:"symbol"`
	Quantity papertrade.Quantity `json:"quantity"`
}

type tradeResponse struct {
	Message     string              `json:"message"`
	Transaction transactionResponse `json:"transaction"`
}

type transactionResponse struct {
	ID       string              `json:"id"`
	Command  string              `json:"command"`
	Symbol   string              `json:"symbol"`
	Quantity papertrade.Quantity `json:"quantity"` // signed, negative for sells
	Price    papertrade.Money    `json:"price"`
	Amount   papertrade.Money    `json:"amount"`
	Time     time.Time           `json:"time"`
}

func newTransactionResponse(tx papertrade.Transaction) transactionResponse {
	return transactionResponse{
		ID:       tx.ID,
		Command:  string(tx.What()),
		Symbol:   tx.Symbol,
		Quantity: tx.Quantity,
		Price:    tx.Price,
		Amount:   tx.Amount(),
		Time:     tx.Time,
	}
}

type portfolioResponse struct {
	PortfolioID     string             `json:"portfolio_id"`
	Time            time.Time          `json:"time"`
	CostBasis       string             `json:"cost_basis"`
	TotalAddedMoney papertrade.Money   `json:"total_added_money"`
	AvailableMoney  papertrade.Money   `json:"available_money"`
	TotalValue      papertrade.Money   `json:"total_value"`
	PerformanceAbs  papertrade.Money   `json:"performance_abs"`
	PerformanceRel  papertrade.Percent `json:"performance_rel"`
	Assets          []assetResponse    `json:"assets"`
}

type assetResponse struct {
	Symbol           string              `json:"symbol"`
	Quantity         papertrade.Quantity `json:"quantity"`
	CurrentPrice     papertrade.Money    `json:"current_price"`
	TotalValue       papertrade.Money    `json:"total_value"`
	AvgPurchasePrice papertrade.Money    `json:"avg_purchase_price"`
	InvestedAmount   papertrade.Money    `json:"invested_amount"`
	PerformanceAbs   papertrade.Money    `json:"performance_abs"`
	PerformanceRel   papertrade.Percent  `json:"performance_rel"`
}

func newPortfolioResponse(r *papertrade.ValueReport) portfolioResponse {
	res := portfolioResponse{
		PortfolioID:     r.PortfolioID,
		Time:            r.Time,
		CostBasis:       r.Method.String(),
		TotalAddedMoney: r.TotalAdded,
		AvailableMoney:  r.AvailableCash,
		TotalValue:      r.TotalValue,
		PerformanceAbs:  r.AbsolutePerformance,
		PerformanceRel:  r.RelativePerformance,
		Assets:          make([]assetResponse, 0, len(r.Assets)),
	}
	for _, a := range r.Assets {
		res.Assets = append(res.Assets, assetResponse{
			Symbol:           a.Symbol,
			Quantity:         a.Quantity,
			CurrentPrice:     a.Price,
			TotalValue:       a.MarketValue,
			AvgPurchasePrice: a.AverageCost,
			InvestedAmount:   a.InvestedAmount,
			PerformanceAbs:   a.AbsolutePerformance,
			PerformanceRel:   a.RelativePerformance,
		})
	}
	return res
}
