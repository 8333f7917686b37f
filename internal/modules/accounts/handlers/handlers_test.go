package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/users"
	testingpkg "github.com/artha-io/artha/internal/testing"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*chi.Mux, *database.DB, func()) {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t)
	conn := db.Conn()
	log := zerolog.Nop()

	handler := NewHandler(
		accounts.NewBankRepository(conn, log),
		accounts.NewDematRepository(conn, log),
		accounts.NewCryptoRepository(conn, log),
		accounts.NewExchangeRepository(conn, log),
		portfolio.NewRepository(conn, log),
		log,
	)
	router := chi.NewRouter()
	handler.RegisterRoutes(router)
	return router, db, cleanup
}

func doJSON(t *testing.T, router *chi.Mux, method, path string, userID int64, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		req.Header.Set(users.UserIDHeader, fmt.Sprintf("%d", userID))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleCreateBank(t *testing.T) {
	router, db, cleanup := setupRouter(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "bank@example.com")

	w := doJSON(t, router, "POST", "/accounts/bank", userID,
		`{"bank_name": "HDFC", "account_type": "savings", "account_number": "XXXX1234", "balance": 50000}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Contains(t, response, "data")
	assert.Contains(t, response, "metadata")

	// No portfolio_id given: the account lands in the default portfolio.
	defaultID := testingpkg.DefaultPortfolioID(t, db, userID)
	var portfolioID int64
	err := db.QueryRow(`SELECT portfolio_id FROM bank_accounts WHERE user_id = ?`, userID).Scan(&portfolioID)
	require.NoError(t, err)
	assert.Equal(t, defaultID, portfolioID)
}

func TestHandleCreateBank_Validation(t *testing.T) {
	router, db, cleanup := setupRouter(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "bank@example.com")

	tests := []struct {
		name string
		body string
	}{
		{"missing bank name", `{"account_type": "savings", "account_number": "XXXX1234"}`},
		{"missing account type", `{"bank_name": "HDFC", "account_number": "XXXX1234"}`},
		{"missing account number", `{"bank_name": "HDFC", "account_type": "savings"}`},
		{"invalid json", `{"bank_name": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, "POST", "/accounts/bank", userID, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHandleListBank(t *testing.T) {
	router, db, cleanup := setupRouter(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "bank@example.com")
	otherID := testingpkg.CreateTestUser(t, db, "other@example.com")

	w := doJSON(t, router, "POST", "/accounts/bank", userID,
		`{"bank_name": "HDFC", "account_type": "savings", "account_number": "XXXX1234"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(t, router, "POST", "/accounts/bank", otherID,
		`{"bank_name": "SBI", "account_type": "current", "account_number": "XXXX9999"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "GET", "/accounts/bank", userID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data struct {
			Accounts []map[string]interface{} `json:"accounts"`
			Count    int                      `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Data.Count)
	require.Len(t, response.Data.Accounts, 1)
	assert.Equal(t, "HDFC", response.Data.Accounts[0]["bank_name"])
}

func TestHandleCreateCrypto_RegistersExchange(t *testing.T) {
	router, db, cleanup := setupRouter(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "crypto@example.com")

	w := doJSON(t, router, "POST", "/accounts/crypto", userID,
		`{"exchange_name": "Binance", "account_id": "bn-1", "cash_balance_usd": 150}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, "GET", "/accounts/exchanges", userID, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Binance")
}

func TestHandlers_RequireUserHeader(t *testing.T) {
	router, _, cleanup := setupRouter(t)
	defer cleanup()

	for _, path := range []string{"/accounts/bank", "/accounts/demat", "/accounts/crypto"} {
		w := doJSON(t, router, "GET", path, 0, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}
