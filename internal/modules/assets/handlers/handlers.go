// Package handlers provides HTTP handlers for asset operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/assets"
	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles asset HTTP requests
type Handler struct {
	assets       *assets.AssetRepository
	transactions *assets.TransactionRepository
	holdings     *assets.HoldingRepository
	portfolios   *portfolio.Repository
	log          zerolog.Logger
}

// NewHandler creates a new assets handler
func NewHandler(
	assetRepo *assets.AssetRepository,
	transactions *assets.TransactionRepository,
	holdings *assets.HoldingRepository,
	portfolios *portfolio.Repository,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		assets:       assetRepo,
		transactions: transactions,
		holdings:     holdings,
		portfolios:   portfolios,
		log:          log.With().Str("handler", "assets").Logger(),
	}
}

// CreateAssetRequest represents a request to create an asset
type CreateAssetRequest struct {
	PortfolioID     int64   `json:"portfolio_id"`
	DematAccountID  *int64  `json:"demat_account_id"`
	CryptoAccountID *int64  `json:"crypto_account_id"`
	AssetType       string  `json:"asset_type"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"`
	AvgBuyPrice     float64 `json:"avg_buy_price"`
	TotalInvested   float64 `json:"total_invested"`
	CurrentValue    float64 `json:"current_value"`
	Currency        string  `json:"currency"`
	PurchaseDate    string  `json:"purchase_date"`
	Notes           string  `json:"notes"`
}

// CreateTransactionRequest represents a request to record an asset transaction
type CreateTransactionRequest struct {
	TransactionType string  `json:"transaction_type"`
	Quantity        float64 `json:"quantity"`
	PricePerUnit    float64 `json:"price_per_unit"`
	TotalAmount     float64 `json:"total_amount"`
	TransactionDate string  `json:"transaction_date"`
	Notes           string  `json:"notes"`
}

// CreateHoldingRequest represents a request to record a fund holding line
type CreateHoldingRequest struct {
	StockName         string  `json:"stock_name"`
	StockSymbol       string  `json:"stock_symbol"`
	HoldingPercentage float64 `json:"holding_percentage"`
	HoldingValue      float64 `json:"holding_value"`
}

// UpdateValueRequest represents a request to update an asset's current value
type UpdateValueRequest struct {
	CurrentValue float64 `json:"current_value"`
}

// HandleList handles GET /api/assets
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.assets.GetAllForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list assets")
		http.Error(w, "Failed to list assets", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"assets": list,
			"count":  len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreate handles POST /api/assets
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateAssetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.AssetType == "" {
		http.Error(w, "name and asset_type are required", http.StatusBadRequest)
		return
	}

	portfolioID := req.PortfolioID
	if portfolioID == 0 {
		portfolioID, err = h.portfolios.EnsureDefault(userID)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to resolve portfolio")
			http.Error(w, "Failed to create asset", http.StatusInternalServerError)
			return
		}
	}

	id, err := h.assets.Create(domain.Asset{
		UserID:          userID,
		PortfolioID:     portfolioID,
		DematAccountID:  req.DematAccountID,
		CryptoAccountID: req.CryptoAccountID,
		AssetType:       domain.AssetType(req.AssetType),
		Name:            req.Name,
		Symbol:          req.Symbol,
		Quantity:        req.Quantity,
		AvgBuyPrice:     req.AvgBuyPrice,
		TotalInvested:   req.TotalInvested,
		CurrentValue:    req.CurrentValue,
		Currency:        req.Currency,
		PurchaseDate:    req.PurchaseDate,
		Notes:           req.Notes,
		IsActive:        true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create asset")
		http.Error(w, "Failed to create asset", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleUpdateValue handles PUT /api/assets/{id}/value
func (h *Handler) HandleUpdateValue(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.ownedAsset(w, r)
	if !ok {
		return
	}

	var req UpdateValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.assets.UpdateCurrentValue(asset.ID, req.CurrentValue); err != nil {
		h.log.Error().Err(err).Int64("asset_id", asset.ID).Msg("Failed to update asset value")
		http.Error(w, "Failed to update asset value", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"id":            asset.ID,
			"current_value": req.CurrentValue,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListTransactions handles GET /api/assets/{id}/transactions
func (h *Handler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.ownedAsset(w, r)
	if !ok {
		return
	}

	list, err := h.transactions.GetByAsset(asset.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("asset_id", asset.ID).Msg("Failed to list transactions")
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"transactions": list,
			"count":        len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreateTransaction handles POST /api/assets/{id}/transactions
func (h *Handler) HandleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.ownedAsset(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TransactionType == "" || req.TransactionDate == "" {
		http.Error(w, "transaction_type and transaction_date are required", http.StatusBadRequest)
		return
	}

	id, err := h.transactions.Create(domain.Transaction{
		UserID:          asset.UserID,
		AssetID:         asset.ID,
		TransactionType: domain.TransactionType(req.TransactionType),
		Quantity:        req.Quantity,
		PricePerUnit:    req.PricePerUnit,
		TotalAmount:     req.TotalAmount,
		TransactionDate: req.TransactionDate,
		Notes:           req.Notes,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("asset_id", asset.ID).Msg("Failed to create transaction")
		http.Error(w, "Failed to create transaction", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListHoldings handles GET /api/assets/{id}/holdings
func (h *Handler) HandleListHoldings(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.ownedAsset(w, r)
	if !ok {
		return
	}

	list, err := h.holdings.GetByAsset(asset.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("asset_id", asset.ID).Msg("Failed to list holdings")
		http.Error(w, "Failed to list holdings", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"holdings": list,
			"count":    len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreateHolding handles POST /api/assets/{id}/holdings
func (h *Handler) HandleCreateHolding(w http.ResponseWriter, r *http.Request) {
	asset, ok := h.ownedAsset(w, r)
	if !ok {
		return
	}

	var req CreateHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.StockName == "" {
		http.Error(w, "stock_name is required", http.StatusBadRequest)
		return
	}

	id, err := h.holdings.Create(domain.MutualFundHolding{
		UserID:            asset.UserID,
		AssetID:           asset.ID,
		StockName:         req.StockName,
		StockSymbol:       req.StockSymbol,
		HoldingPercentage: req.HoldingPercentage,
		HoldingValue:      req.HoldingValue,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("asset_id", asset.ID).Msg("Failed to create holding")
		http.Error(w, "Failed to create holding", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// ownedAsset loads the {id} path asset and verifies the requester owns it.
// Writes the error response and returns ok=false when it does not resolve.
func (h *Handler) ownedAsset(w http.ResponseWriter, r *http.Request) (*domain.Asset, bool) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	assetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid asset id", http.StatusBadRequest)
		return nil, false
	}

	asset, err := h.assets.GetByID(assetID)
	if err != nil {
		h.log.Error().Err(err).Int64("asset_id", assetID).Msg("Failed to load asset")
		http.Error(w, "Failed to load asset", http.StatusInternalServerError)
		return nil, false
	}
	if asset == nil || asset.UserID != userID {
		http.Error(w, "Asset not found", http.StatusNotFound)
		return nil, false
	}

	return asset, true
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
