// Package domain provides core domain models and types.
package domain

// AssetType classifies a holding.
type AssetType string

const (
	AssetTypeStock      AssetType = "stock"
	AssetTypeMutualFund AssetType = "mutual_fund"
	AssetTypeCrypto     AssetType = "crypto"
	AssetTypePPF        AssetType = "ppf"
	AssetTypeEPF        AssetType = "epf"
	AssetTypeNPS        AssetType = "nps"
	AssetTypeFD         AssetType = "fd"
	AssetTypeRD         AssetType = "rd"
	AssetTypeGold       AssetType = "gold"
	AssetTypeRealEstate AssetType = "real_estate"
	AssetTypeBond       AssetType = "bond"
	AssetTypeOther      AssetType = "other"
)

// TransactionType classifies an asset transaction.
type TransactionType string

const (
	TransactionTypeBuy        TransactionType = "buy"
	TransactionTypeSell       TransactionType = "sell"
	TransactionTypeDividend   TransactionType = "dividend"
	TransactionTypeInterest   TransactionType = "interest"
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// SnapshotSource classifies where an asset snapshot row came from.
// Snapshots cover both real assets and cash positions, so each row
// records whether it mirrors an Asset, a bank balance, or demat cash.
type SnapshotSource string

const (
	SnapshotSourceAsset       SnapshotSource = "asset"
	SnapshotSourceBankAccount SnapshotSource = "bank_account"
	SnapshotSourceDematCash   SnapshotSource = "demat_cash"
)

// AlertType classifies a user alert.
type AlertType string

const (
	AlertTypePriceTarget AlertType = "price_target"
	AlertTypeReminder    AlertType = "reminder"
	AlertTypeMaturity    AlertType = "maturity"
	AlertTypeSystem      AlertType = "system"
)

// User represents an account owner.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// Portfolio is a named grouping of accounts and assets.
// Every user has exactly one portfolio with IsDefault set.
type Portfolio struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"is_default"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at"`
}

// BankAccount is a bank or credit-card account.
type BankAccount struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	PortfolioID   int64   `json:"portfolio_id"`
	BankName      string  `json:"bank_name"`
	AccountType   string  `json:"account_type"`
	AccountNumber string  `json:"account_number"`
	Balance       float64 `json:"balance"`
	Currency      string  `json:"currency"`
	IsActive      bool    `json:"is_active"`
	CreatedAt     string  `json:"created_at"`
}

// DematAccount is a brokerage trading account.
type DematAccount struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	PortfolioID int64   `json:"portfolio_id"`
	BrokerName  string  `json:"broker_name"`
	AccountID   string  `json:"account_id"`
	CashBalance float64 `json:"cash_balance"`
	Currency    string  `json:"currency"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
}

// CryptoExchange is one entry in the global catalog of known exchanges.
// Not user-scoped.
type CryptoExchange struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

// CryptoAccount is an exchange or wallet account.
type CryptoAccount struct {
	ID             int64   `json:"id"`
	UserID         int64   `json:"user_id"`
	PortfolioID    int64   `json:"portfolio_id"`
	ExchangeName   string  `json:"exchange_name"`
	AccountID      string  `json:"account_id"`
	CashBalanceUSD float64 `json:"cash_balance_usd"`
	IsActive       bool    `json:"is_active"`
	CreatedAt      string  `json:"created_at"`
}

// ExpenseCategory is a classification bucket for expenses.
// System categories (IsSystem) are a fixed shared taxonomy with no owning
// user; user categories belong to one user and may nest via ParentID.
type ExpenseCategory struct {
	ID        int64  `json:"id"`
	UserID    *int64 `json:"user_id,omitempty"`
	Name      string `json:"name"`
	IsSystem  bool   `json:"is_system"`
	IsIncome  bool   `json:"is_income"`
	ParentID  *int64 `json:"parent_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// Asset is one holding lot. Multiple lots may legitimately share a name
// (repeated SIP installments of the same fund), distinguished by their
// invested amounts.
type Asset struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	PortfolioID     int64     `json:"portfolio_id"`
	DematAccountID  *int64    `json:"demat_account_id,omitempty"`
	CryptoAccountID *int64    `json:"crypto_account_id,omitempty"`
	AssetType       AssetType `json:"asset_type"`
	Name            string    `json:"name"`
	Symbol          string    `json:"symbol,omitempty"`
	Quantity        float64   `json:"quantity"`
	AvgBuyPrice     float64   `json:"avg_buy_price"`
	TotalInvested   float64   `json:"total_invested"`
	CurrentValue    float64   `json:"current_value"`
	Currency        string    `json:"currency"`
	PurchaseDate    string    `json:"purchase_date,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       string    `json:"created_at"`
	UpdatedAt       string    `json:"updated_at"`
}

// Transaction is one buy/sell/interest/dividend event on an Asset.
type Transaction struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	AssetID         int64           `json:"asset_id"`
	TransactionType TransactionType `json:"transaction_type"`
	Quantity        float64         `json:"quantity"`
	PricePerUnit    float64         `json:"price_per_unit"`
	TotalAmount     float64         `json:"total_amount"`
	TransactionDate string          `json:"transaction_date"`
	Notes           string          `json:"notes,omitempty"`
	CreatedAt       string          `json:"created_at"`
}

// MutualFundHolding is one stock-level line of a mutual fund Asset's
// underlying portfolio breakdown.
type MutualFundHolding struct {
	ID                int64   `json:"id"`
	UserID            int64   `json:"user_id"`
	AssetID           int64   `json:"asset_id"`
	StockName         string  `json:"stock_name"`
	StockSymbol       string  `json:"stock_symbol,omitempty"`
	HoldingPercentage float64 `json:"holding_percentage"`
	HoldingValue      float64 `json:"holding_value"`
	CreatedAt         string  `json:"created_at"`
}

// Expense is one bank-ledger line item. BankAccountID is required.
type Expense struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	BankAccountID   int64   `json:"bank_account_id"`
	CategoryID      *int64  `json:"category_id,omitempty"`
	TransactionDate string  `json:"transaction_date"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	Merchant        string  `json:"merchant,omitempty"`
	IsDebit         bool    `json:"is_debit"`
	CreatedAt       string  `json:"created_at"`
}

// Alert is a notification, optionally tied to an Asset.
type Alert struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	AssetID   *int64    `json:"asset_id,omitempty"`
	AlertType AlertType `json:"alert_type"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	AlertDate string    `json:"alert_date"`
	IsRead    bool      `json:"is_read"`
	CreatedAt string    `json:"created_at"`
}

// PortfolioSnapshot is a daily point-in-time total across a user's holdings.
type PortfolioSnapshot struct {
	ID            int64   `json:"id"`
	UserID        int64   `json:"user_id"`
	SnapshotDate  string  `json:"snapshot_date"`
	TotalValue    float64 `json:"total_value"`
	TotalInvested float64 `json:"total_invested"`
	BankBalance   float64 `json:"bank_balance"`
	DematCash     float64 `json:"demat_cash"`
	CryptoValue   float64 `json:"crypto_value"`
	CreatedAt     string  `json:"created_at"`
}

// AssetSnapshot is one per-position line of a PortfolioSnapshot.
type AssetSnapshot struct {
	ID            int64          `json:"id"`
	SnapshotID    int64          `json:"snapshot_id"`
	AssetID       *int64         `json:"asset_id,omitempty"`
	Source        SnapshotSource `json:"source"`
	AssetType     string         `json:"asset_type"`
	AssetName     string         `json:"asset_name"`
	InvestedValue float64        `json:"invested_value"`
	CurrentValue  float64        `json:"current_value"`
	CreatedAt     string         `json:"created_at"`
}
