// Package backup implements the export serializer and the restore/merge
// engine that move a user's complete dataset between database instances.
//
// Export flattens every entity a user owns into one versioned JSON document.
// Restore merges such a document into a destination user: records already
// present (by natural key) are reused, missing ones are created with their
// foreign keys remapped, and the whole merge runs inside one transaction so
// a failure never leaves a partially imported dataset behind. Restoring the
// same document twice is a no-op on the second pass.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CurrentExportVersion is the version stamped on newly exported documents.
const CurrentExportVersion = "2.2"

// SupportedVersions lists every document generation restore accepts,
// oldest first.
var SupportedVersions = []string{"1.0", "1.1", "2.0", "2.1", "2.2"}

var (
	// ErrMalformedDocument marks a payload that is not a parseable backup
	// document. Nothing has been written when it is returned.
	ErrMalformedDocument = errors.New("malformed backup document")

	// ErrUnsupportedVersion marks a document whose export_version is outside
	// the supported set. Nothing has been written when it is returned.
	ErrUnsupportedVersion = errors.New("unsupported export version")
)

// Document is the versioned contract exchanged between export and restore.
// Identifiers inside it are the source database's ids; restore translates
// them, so they carry meaning only relative to other records in the same
// document. Snapshot children travel nested under their parents because the
// pair is only meaningful together.
type Document struct {
	ExportVersion string `json:"export_version"`
	ExportedAt    string `json:"exported_at"`
	ExportedBy    string `json:"exported_by"`
	DocumentID    string `json:"document_id,omitempty"`

	Portfolios         []PortfolioRecord         `json:"portfolios"`
	BankAccounts       []BankAccountRecord       `json:"bank_accounts"`
	DematAccounts      []DematAccountRecord      `json:"demat_accounts"`
	CryptoAccounts     []CryptoAccountRecord     `json:"crypto_accounts"`
	Assets             []AssetRecord             `json:"assets"`
	ExpenseCategories  []ExpenseCategoryRecord   `json:"expense_categories"`
	Expenses           []ExpenseRecord           `json:"expenses"`
	Transactions       []TransactionRecord       `json:"transactions"`
	MutualFundHoldings []MutualFundHoldingRecord `json:"mutual_fund_holdings"`
	Alerts             []AlertRecord             `json:"alerts"`
	PortfolioSnapshots []PortfolioSnapshotRecord `json:"portfolio_snapshots"`
}

// PortfolioRecord is one portfolio as it appears in a backup document.
type PortfolioRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"is_default"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// BankAccountRecord is one bank account as it appears in a backup document.
type BankAccountRecord struct {
	ID            int64   `json:"id"`
	PortfolioID   int64   `json:"portfolio_id,omitempty"`
	BankName      string  `json:"bank_name"`
	AccountType   string  `json:"account_type"`
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency,omitempty"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// DematAccountRecord is one demat account as it appears in a backup document.
type DematAccountRecord struct {
	ID          int64   `json:"id"`
	PortfolioID int64   `json:"portfolio_id,omitempty"`
	BrokerName  string  `json:"broker_name"`
	AccountID   string  `json:"account_id"`
	CashBalance float64 `json:"cash_balance"`
	Currency    string  `json:"currency,omitempty"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at,omitempty"`
}

// CryptoAccountRecord is one crypto account as it appears in a backup
// document. The referenced exchange travels by name; restore recreates
// missing exchange catalog rows.
type CryptoAccountRecord struct {
	ID             int64   `json:"id"`
	PortfolioID    int64   `json:"portfolio_id,omitempty"`
	ExchangeName   string  `json:"exchange_name"`
	AccountID      string  `json:"account_id,omitempty"`
	CashBalanceUSD float64 `json:"cash_balance_usd"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

// ExpenseCategoryRecord is one expense category as it appears in a backup
// document. System categories are included so references resolve after
// restore, but they are never recreated at the destination.
type ExpenseCategoryRecord struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	IsSystem  bool   `json:"is_system"`
	IsIncome  bool   `json:"is_income"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// AssetRecord is one holding lot as it appears in a backup document.
type AssetRecord struct {
	ID              int64   `json:"id"`
	PortfolioID     int64   `json:"portfolio_id,omitempty"`
	DematAccountID  *int64  `json:"demat_account_id,omitempty"`
	CryptoAccountID *int64  `json:"crypto_account_id,omitempty"`
	AssetType       string  `json:"asset_type"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol,omitempty"`
	Quantity        float64 `json:"quantity"`
	AvgBuyPrice     float64 `json:"avg_buy_price"`
	TotalInvested   float64 `json:"total_invested"`
	CurrentValue    float64 `json:"current_value"`
	Currency        string  `json:"currency,omitempty"`
	PurchaseDate    string  `json:"purchase_date,omitempty"`
	Notes           string  `json:"notes,omitempty"`
	IsActive        bool    `json:"is_active"`
	CreatedAt       string  `json:"created_at,omitempty"`
	UpdatedAt       string  `json:"updated_at,omitempty"`
}

// TransactionRecord is one asset transaction as it appears in a backup
// document.
type TransactionRecord struct {
	ID              int64   `json:"id"`
	AssetID         int64   `json:"asset_id"`
	TransactionType string  `json:"transaction_type"`
	Quantity        float64 `json:"quantity"`
	PricePerUnit    float64 `json:"price_per_unit"`
	TotalAmount     float64 `json:"total_amount"`
	TransactionDate string  `json:"transaction_date"`
	Notes           string  `json:"notes,omitempty"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// MutualFundHoldingRecord is one fund breakdown line as it appears in a
// backup document.
type MutualFundHoldingRecord struct {
	ID                int64   `json:"id"`
	AssetID           int64   `json:"asset_id"`
	StockName         string  `json:"stock_name"`
	StockSymbol       string  `json:"stock_symbol,omitempty"`
	HoldingPercentage float64 `json:"holding_percentage"`
	HoldingValue      float64 `json:"holding_value"`
	CreatedAt         string  `json:"created_at,omitempty"`
}

// ExpenseRecord is one expense line as it appears in a backup document.
type ExpenseRecord struct {
	ID              int64   `json:"id"`
	BankAccountID   int64   `json:"bank_account_id"`
	CategoryID      *int64  `json:"category_id,omitempty"`
	TransactionDate string  `json:"transaction_date"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	Merchant        string  `json:"merchant,omitempty"`
	IsDebit         bool    `json:"is_debit"`
	CreatedAt       string  `json:"created_at,omitempty"`
}

// AlertRecord is one alert as it appears in a backup document.
type AlertRecord struct {
	ID        int64  `json:"id"`
	AssetID   *int64 `json:"asset_id,omitempty"`
	AlertType string `json:"alert_type"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	AlertDate string `json:"alert_date"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PortfolioSnapshotRecord is one daily snapshot with its per-position
// children embedded.
type PortfolioSnapshotRecord struct {
	ID             int64                 `json:"id"`
	SnapshotDate   string                `json:"snapshot_date"`
	TotalValue     float64               `json:"total_value"`
	TotalInvested  float64               `json:"total_invested"`
	BankBalance    float64               `json:"bank_balance"`
	DematCash      float64               `json:"demat_cash"`
	CryptoValue    float64               `json:"crypto_value"`
	CreatedAt      string                `json:"created_at,omitempty"`
	AssetSnapshots []AssetSnapshotRecord `json:"asset_snapshots"`
}

// AssetSnapshotRecord is one per-position snapshot line. Source is empty in
// documents older than 2.2 and is backfilled by the normalizer.
type AssetSnapshotRecord struct {
	ID            int64   `json:"id"`
	AssetID       *int64  `json:"asset_id,omitempty"`
	Source        string  `json:"source,omitempty"`
	AssetType     string  `json:"asset_type"`
	AssetName     string  `json:"asset_name"`
	InvestedValue float64 `json:"invested_value"`
	CurrentValue  float64 `json:"current_value"`
	CreatedAt     string  `json:"created_at,omitempty"`
}

// ParseDocument decodes raw JSON into a Document. Unknown top-level keys are
// tolerated so newer exporters stay readable; garbage is not.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	if doc.ExportVersion == "" {
		return nil, fmt.Errorf("%w: missing export_version", ErrMalformedDocument)
	}
	return &doc, nil
}
