// Package handlers provides HTTP handlers for expense operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/expenses"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/rs/zerolog"
)

// Handler handles expense HTTP requests
type Handler struct {
	expenses   *expenses.ExpenseRepository
	categories *expenses.CategoryRepository
	log        zerolog.Logger
}

// NewHandler creates a new expenses handler
func NewHandler(expenseRepo *expenses.ExpenseRepository, categories *expenses.CategoryRepository, log zerolog.Logger) *Handler {
	return &Handler{
		expenses:   expenseRepo,
		categories: categories,
		log:        log.With().Str("handler", "expenses").Logger(),
	}
}

// CreateExpenseRequest represents a request to record an expense
type CreateExpenseRequest struct {
	BankAccountID   int64   `json:"bank_account_id"`
	CategoryID      *int64  `json:"category_id"`
	TransactionDate string  `json:"transaction_date"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	Merchant        string  `json:"merchant"`
	IsDebit         bool    `json:"is_debit"`
}

// CreateCategoryRequest represents a request to create a user category
type CreateCategoryRequest struct {
	Name     string `json:"name"`
	IsIncome bool   `json:"is_income"`
	ParentID *int64 `json:"parent_id"`
}

// HandleList handles GET /api/expenses with optional from/to date filters
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	var list []domain.Expense
	if from != "" && to != "" {
		list, err = h.expenses.GetByDateRange(userID, from, to)
	} else {
		list, err = h.expenses.GetAllForUser(userID)
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list expenses")
		http.Error(w, "Failed to list expenses", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"expenses": list,
			"count":    len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreate handles POST /api/expenses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.BankAccountID == 0 || req.TransactionDate == "" {
		http.Error(w, "bank_account_id and transaction_date are required", http.StatusBadRequest)
		return
	}

	id, err := h.expenses.Create(domain.Expense{
		UserID:          userID,
		BankAccountID:   req.BankAccountID,
		CategoryID:      req.CategoryID,
		TransactionDate: req.TransactionDate,
		Amount:          req.Amount,
		Description:     req.Description,
		Merchant:        req.Merchant,
		IsDebit:         req.IsDebit,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create expense")
		http.Error(w, "Failed to create expense", http.StatusInternalServerError)
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

// HandleListCategories handles GET /api/expenses/categories
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.categories.GetVisibleForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		http.Error(w, "Failed to list categories", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"categories": list,
			"count":      len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreateCategory handles POST /api/expenses/categories
func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	id, err := h.categories.Create(domain.ExpenseCategory{
		UserID:   &userID,
		Name:     req.Name,
		IsIncome: req.IsIncome,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create category")
		http.Error(w, "Failed to create category", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id":   id,
			"name": req.Name,
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
