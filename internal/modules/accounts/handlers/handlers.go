// Package handlers provides HTTP handlers for account operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/rs/zerolog"
)

// Handler handles account HTTP requests
type Handler struct {
	banks      *accounts.BankRepository
	demats     *accounts.DematRepository
	cryptos    *accounts.CryptoRepository
	exchanges  *accounts.ExchangeRepository
	portfolios *portfolio.Repository
	log        zerolog.Logger
}

// NewHandler creates a new accounts handler
func NewHandler(
	banks *accounts.BankRepository,
	demats *accounts.DematRepository,
	cryptos *accounts.CryptoRepository,
	exchanges *accounts.ExchangeRepository,
	portfolios *portfolio.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		banks:      banks,
		demats:     demats,
		cryptos:    cryptos,
		exchanges:  exchanges,
		portfolios: portfolios,
		log:        log.With().Str("handler", "accounts").Logger(),
	}
}

// CreateBankAccountRequest represents a request to create a bank account
type CreateBankAccountRequest struct {
	PortfolioID   int64   `json:"portfolio_id"`
	BankName      string  `json:"bank_name"`
	AccountType   string  `json:"account_type"`
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
}

// CreateDematAccountRequest represents a request to create a demat account
type CreateDematAccountRequest struct {
	PortfolioID int64   `json:"portfolio_id"`
	BrokerName  string  `json:"broker_name"`
	AccountID   string  `json:"account_id"`
	CashBalance float64 `json:"cash_balance"`
	Currency    string  `json:"currency"`
}

// CreateCryptoAccountRequest represents a request to create a crypto account
type CreateCryptoAccountRequest struct {
	PortfolioID    int64   `json:"portfolio_id"`
	ExchangeName   string  `json:"exchange_name"`
	AccountID      string  `json:"account_id"`
	CashBalanceUSD float64 `json:"cash_balance_usd"`
}

// HandleListBank handles GET /api/accounts/bank
func (h *Handler) HandleListBank(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.banks.GetAllForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list bank accounts")
		http.Error(w, "Failed to list bank accounts", http.StatusInternalServerError)
		return
	}

	h.writeList(w, "accounts", list, len(list))
}

// HandleCreateBank handles POST /api/accounts/bank
func (h *Handler) HandleCreateBank(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BankName == "" || req.AccountType == "" || req.AccountNumber == "" {
		http.Error(w, "bank_name, account_type and account_number are required", http.StatusBadRequest)
		return
	}

	portfolioID, err := h.resolvePortfolio(userID, req.PortfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve portfolio")
		http.Error(w, "Failed to create bank account", http.StatusInternalServerError)
		return
	}

	id, err := h.banks.Create(domain.BankAccount{
		UserID:        userID,
		PortfolioID:   portfolioID,
		BankName:      req.BankName,
		AccountType:   req.AccountType,
		AccountNumber: req.AccountNumber,
		Balance:       req.Balance,
		Currency:      req.Currency,
		IsActive:      true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create bank account")
		http.Error(w, "Failed to create bank account", http.StatusInternalServerError)
		return
	}

	h.writeCreated(w, id)
}

// HandleListDemat handles GET /api/accounts/demat
func (h *Handler) HandleListDemat(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.demats.GetAllForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list demat accounts")
		http.Error(w, "Failed to list demat accounts", http.StatusInternalServerError)
		return
	}

	h.writeList(w, "accounts", list, len(list))
}

// HandleCreateDemat handles POST /api/accounts/demat
func (h *Handler) HandleCreateDemat(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateDematAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BrokerName == "" || req.AccountID == "" {
		http.Error(w, "broker_name and account_id are required", http.StatusBadRequest)
		return
	}

	portfolioID, err := h.resolvePortfolio(userID, req.PortfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve portfolio")
		http.Error(w, "Failed to create demat account", http.StatusInternalServerError)
		return
	}

	id, err := h.demats.Create(domain.DematAccount{
		UserID:      userID,
		PortfolioID: portfolioID,
		BrokerName:  req.BrokerName,
		AccountID:   req.AccountID,
		CashBalance: req.CashBalance,
		Currency:    req.Currency,
		IsActive:    true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create demat account")
		http.Error(w, "Failed to create demat account", http.StatusInternalServerError)
		return
	}

	h.writeCreated(w, id)
}

// HandleListCrypto handles GET /api/accounts/crypto
func (h *Handler) HandleListCrypto(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.cryptos.GetAllForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list crypto accounts")
		http.Error(w, "Failed to list crypto accounts", http.StatusInternalServerError)
		return
	}

	h.writeList(w, "accounts", list, len(list))
}

// HandleCreateCrypto handles POST /api/accounts/crypto
func (h *Handler) HandleCreateCrypto(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateCryptoAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ExchangeName == "" {
		http.Error(w, "exchange_name is required", http.StatusBadRequest)
		return
	}

	portfolioID, err := h.resolvePortfolio(userID, req.PortfolioID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to resolve portfolio")
		http.Error(w, "Failed to create crypto account", http.StatusInternalServerError)
		return
	}

	id, err := h.cryptos.Create(domain.CryptoAccount{
		UserID:         userID,
		PortfolioID:    portfolioID,
		ExchangeName:   req.ExchangeName,
		AccountID:      req.AccountID,
		CashBalanceUSD: req.CashBalanceUSD,
		IsActive:       true,
	}, h.exchanges)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create crypto account")
		http.Error(w, "Failed to create crypto account", http.StatusInternalServerError)
		return
	}

	h.writeCreated(w, id)
}

// HandleListExchanges handles GET /api/accounts/exchanges
func (h *Handler) HandleListExchanges(w http.ResponseWriter, r *http.Request) {
	list, err := h.exchanges.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list exchanges")
		http.Error(w, "Failed to list exchanges", http.StatusInternalServerError)
		return
	}

	h.writeList(w, "exchanges", list, len(list))
}

// resolvePortfolio validates an explicit portfolio id or falls back to the
// user's default portfolio.
func (h *Handler) resolvePortfolio(userID, portfolioID int64) (int64, error) {
	if portfolioID != 0 {
		return portfolioID, nil
	}
	return h.portfolios.EnsureDefault(userID)
}

func (h *Handler) writeList(w http.ResponseWriter, key string, list interface{}, count int) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			key:     list,
			"count": count,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) writeCreated(w http.ResponseWriter, id int64) {
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
