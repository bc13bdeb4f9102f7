package server

import (
	"fmt"
	"mime"
	"net/http"

	"github.com/etnz/papertrade/renderer"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if _, err := s.svc.Register(r.Context(), req.Username, req.Password); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, messageResponse{Message: "Successfully created new user."})
}

// handleToken accepts the OAuth2 password form, or the same fields as JSON.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if !DecodeJSON(w, r, &req) {
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid form: "+err.Error(), "invalid_request")
			return
		}
		req.Username = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	}

	token, err := s.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleAddMoney(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req addMoneyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Deposit(r.Context(), u.PortfolioID, req.Amount)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, addMoneyResponse{
		Message:         "Successfully added money",
		TotalAddedMoney: res.TotalAdded,
		AvailableMoney:  res.AvailableCash,
	})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req tradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	tx, err := s.svc.Buy(r.Context(), u.PortfolioID, req.Symbol, req.Quantity)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tradeResponse{Message: "Asset successfully bought.", Transaction: newTransactionResponse(tx)})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	var req tradeRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	tx, err := s.svc.Sell(r.Context(), u.PortfolioID, req.Symbol, req.Quantity)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tradeResponse{Message: "Asset successfully sold.", Transaction: newTransactionResponse(tx)})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	report, err := s.svc.Report(r.Context(), u.PortfolioID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		WriteJSON(w, http.StatusOK, newPortfolioResponse(report))
	case "md", "markdown":
		writeText(w, "text/markdown; charset=utf-8", renderer.RenderReport(report))
	case "html":
		html, err := renderer.ToHTML(renderer.RenderReport(report))
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		writeText(w, "text/html; charset=utf-8", html)
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", format), "validation_error")
	}
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r.Context())
	txs, err := s.svc.Transactions(r.Context(), u.PortfolioID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		res := make([]transactionResponse, 0, len(txs))
		for _, tx := range txs {
			res = append(res, newTransactionResponse(tx))
		}
		WriteJSON(w, http.StatusOK, res)
	case "md", "markdown":
		writeText(w, "text/markdown; charset=utf-8", renderer.RenderTransactions(txs))
	default:
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q", format), "validation_error")
	}
}

func writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
