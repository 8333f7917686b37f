package backup

import (
	"database/sql"
	"fmt"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// engine merges one normalized document into the destination user's data.
//
// Stages run in fixed dependency order so that by the time an entity type is
// processed, every foreign key it carries is already translatable through
// the id registry. The whole pipeline shares one transaction owned by the
// caller: reads and writes both go through it, a failure rolls back every
// stage, and the commit happens exactly once after the last stage.
//
// Per-record policy: a record whose natural key matches an existing row is
// skipped (the existing row is reused untouched); a record whose required
// parent never resolved is dropped and its siblings continue. Neither aborts
// the run.
type engine struct {
	tx     *sql.Tx
	userID int64
	doc    *Document
	repos  Repositories
	ids    *idRegistry
	stats  *RestoreStats
	log    zerolog.Logger
}

func (e *engine) run() error {
	defaultPortfolioID, err := e.repos.Portfolios.EnsureDefaultTx(e.tx, e.userID)
	if err != nil {
		return fmt.Errorf("failed to ensure default portfolio: %w", err)
	}
	e.ids = newIDRegistry(defaultPortfolioID)

	if err := e.mergePortfolios(); err != nil {
		return err
	}
	if err := e.mergeBankAccounts(); err != nil {
		return err
	}
	if err := e.mergeDematAccounts(); err != nil {
		return err
	}
	if err := e.mergeCryptoAccounts(); err != nil {
		return err
	}
	if err := e.mergeExpenseCategories(); err != nil {
		return err
	}
	if err := e.mergeAssets(); err != nil {
		return err
	}
	if err := e.mergeTransactions(); err != nil {
		return err
	}
	if err := e.mergeMutualFundHoldings(); err != nil {
		return err
	}
	if err := e.mergeExpenses(); err != nil {
		return err
	}
	if err := e.mergeAlerts(); err != nil {
		return err
	}
	return e.mergeSnapshots()
}

func (e *engine) mergePortfolios() error {
	index, err := e.loadPortfolioIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.Portfolios {
		key := portfolioKey(rec.Name)
		if id, ok := index[key]; ok {
			e.ids.portfolios.Put(rec.ID, id)
			e.stats.Portfolios.Skipped++
			continue
		}

		// The destination keeps its single default portfolio; imported
		// portfolios never arrive as default.
		id, err := e.repos.Portfolios.InsertTx(e.tx, domain.Portfolio{
			UserID:      e.userID,
			Name:        rec.Name,
			Description: rec.Description,
			IsDefault:   false,
			IsActive:    rec.IsActive,
			CreatedAt:   rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.ids.portfolios.Put(rec.ID, id)
		e.stats.Portfolios.Imported++
	}
	return nil
}

func (e *engine) mergeBankAccounts() error {
	index, err := e.loadBankAccountIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.BankAccounts {
		key := bankAccountKey(rec.BankName, rec.AccountType, rec.AccountNumber)
		if id, ok := index[key]; ok {
			e.ids.bankAccounts.Put(rec.ID, id)
			e.stats.BankAccounts.Skipped++
			continue
		}

		id, err := e.repos.Banks.InsertTx(e.tx, domain.BankAccount{
			UserID:        e.userID,
			PortfolioID:   e.ids.resolvePortfolio(rec.PortfolioID),
			BankName:      rec.BankName,
			AccountType:   rec.AccountType,
			AccountNumber: rec.AccountNumber,
			Balance:       rec.Balance,
			Currency:      rec.Currency,
			IsActive:      rec.IsActive,
			CreatedAt:     rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.ids.bankAccounts.Put(rec.ID, id)
		e.stats.BankAccounts.Imported++
	}
	return nil
}

func (e *engine) mergeDematAccounts() error {
	index, err := e.loadDematAccountIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.DematAccounts {
		key := dematAccountKey(rec.BrokerName, rec.AccountID)
		if id, ok := index[key]; ok {
			e.ids.dematAccounts.Put(rec.ID, id)
			e.stats.DematAccounts.Skipped++
			continue
		}

		id, err := e.repos.Demats.InsertTx(e.tx, domain.DematAccount{
			UserID:      e.userID,
			PortfolioID: e.ids.resolvePortfolio(rec.PortfolioID),
			BrokerName:  rec.BrokerName,
			AccountID:   rec.AccountID,
			CashBalance: rec.CashBalance,
			Currency:    rec.Currency,
			IsActive:    rec.IsActive,
			CreatedAt:   rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.ids.dematAccounts.Put(rec.ID, id)
		e.stats.DematAccounts.Imported++
	}
	return nil
}

func (e *engine) mergeCryptoAccounts() error {
	// Exchange catalog rows the incoming accounts reference must exist
	// before any account row lands.
	seen := make(map[string]bool)
	for _, rec := range e.doc.CryptoAccounts {
		if rec.ExchangeName == "" || seen[rec.ExchangeName] {
			continue
		}
		seen[rec.ExchangeName] = true
		if _, err := e.repos.Exchanges.EnsureTx(e.tx, rec.ExchangeName); err != nil {
			return err
		}
	}

	index, err := e.loadCryptoAccountIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.CryptoAccounts {
		key := cryptoAccountKey(rec.ExchangeName, rec.AccountID)
		if id, ok := index[key]; ok {
			e.ids.cryptoAccounts.Put(rec.ID, id)
			e.stats.CryptoAccounts.Skipped++
			continue
		}

		id, err := e.repos.Cryptos.InsertTx(e.tx, domain.CryptoAccount{
			UserID:         e.userID,
			PortfolioID:    e.ids.resolvePortfolio(rec.PortfolioID),
			ExchangeName:   rec.ExchangeName,
			AccountID:      rec.AccountID,
			CashBalanceUSD: rec.CashBalanceUSD,
			IsActive:       rec.IsActive,
			CreatedAt:      rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.ids.cryptoAccounts.Put(rec.ID, id)
		e.stats.CryptoAccounts.Imported++
	}
	return nil
}

// mergeExpenseCategories runs two passes. The first matches or creates every
// category without parent links, so the id map is complete; the second wires
// parent_id on the rows this run created. Matched rows are never mutated,
// and system categories are never created here: the destination's taxonomy
// is authoritative, unmatched system records are dropped.
func (e *engine) mergeExpenseCategories() error {
	systemIndex, userIndex, err := e.loadCategoryIndexes()
	if err != nil {
		return err
	}

	type createdCategory struct {
		destID         int64
		sourceParentID int64
	}
	var created []createdCategory

	for _, rec := range e.doc.ExpenseCategories {
		key := categoryKey(rec.Name)

		if rec.IsSystem {
			if id, ok := systemIndex[key]; ok {
				e.ids.categories.Put(rec.ID, id)
				e.stats.ExpenseCategories.Skipped++
			} else {
				e.stats.ExpenseCategories.Dropped++
				e.log.Debug().Str("name", rec.Name).Msg("Dropped unknown system category")
			}
			continue
		}

		if id, ok := userIndex[key]; ok {
			e.ids.categories.Put(rec.ID, id)
			e.stats.ExpenseCategories.Skipped++
			continue
		}

		ownerID := e.userID
		id, err := e.repos.Categories.InsertTx(e.tx, domain.ExpenseCategory{
			UserID:    &ownerID,
			Name:      rec.Name,
			IsIncome:  rec.IsIncome,
			CreatedAt: rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		userIndex[key] = id
		e.ids.categories.Put(rec.ID, id)
		e.stats.ExpenseCategories.Imported++

		if rec.ParentID != nil {
			created = append(created, createdCategory{destID: id, sourceParentID: *rec.ParentID})
		}
	}

	for _, c := range created {
		parentID, ok := e.ids.categories.Lookup(c.sourceParentID)
		if !ok {
			continue
		}
		if err := e.repos.Categories.UpdateParentTx(e.tx, c.destID, &parentID); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) mergeAssets() error {
	candidates, err := e.loadAssetCandidates()
	if err != nil {
		return err
	}
	matcher := newAssetMatcher(candidates)

	for _, rec := range e.doc.Assets {
		if id, ok := matcher.Match(rec.AssetType, rec.Name, rec.TotalInvested); ok {
			e.ids.assets.Put(rec.ID, id)
			e.stats.Assets.Skipped++
			continue
		}

		// Created lots stay out of the candidate pool: two source lots
		// sharing a name must become two destination rows.
		id, err := e.repos.Assets.InsertTx(e.tx, domain.Asset{
			UserID:          e.userID,
			PortfolioID:     e.ids.resolvePortfolio(rec.PortfolioID),
			DematAccountID:  resolveOptional(e.ids.dematAccounts, rec.DematAccountID),
			CryptoAccountID: resolveOptional(e.ids.cryptoAccounts, rec.CryptoAccountID),
			AssetType:       domain.AssetType(rec.AssetType),
			Name:            rec.Name,
			Symbol:          rec.Symbol,
			Quantity:        rec.Quantity,
			AvgBuyPrice:     rec.AvgBuyPrice,
			TotalInvested:   rec.TotalInvested,
			CurrentValue:    rec.CurrentValue,
			Currency:        rec.Currency,
			PurchaseDate:    rec.PurchaseDate,
			Notes:           rec.Notes,
			IsActive:        rec.IsActive,
			CreatedAt:       rec.CreatedAt,
			UpdatedAt:       rec.UpdatedAt,
		})
		if err != nil {
			return err
		}
		e.ids.assets.Put(rec.ID, id)
		e.stats.Assets.Imported++
	}
	return nil
}

func (e *engine) mergeTransactions() error {
	index, err := e.loadTransactionIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.Transactions {
		assetID, ok := e.ids.assets.Lookup(rec.AssetID)
		if !ok {
			e.stats.Transactions.Dropped++
			e.log.Debug().Int64("source_asset_id", rec.AssetID).
				Msg("Dropped transaction with unresolved asset")
			continue
		}

		key := transactionKey(assetID, rec.TransactionDate, rec.TotalAmount, rec.TransactionType)
		if _, ok := index[key]; ok {
			e.stats.Transactions.Skipped++
			continue
		}

		id, err := e.repos.Transactions.InsertTx(e.tx, domain.Transaction{
			UserID:          e.userID,
			AssetID:         assetID,
			TransactionType: domain.TransactionType(rec.TransactionType),
			Quantity:        rec.Quantity,
			PricePerUnit:    rec.PricePerUnit,
			TotalAmount:     rec.TotalAmount,
			TransactionDate: rec.TransactionDate,
			Notes:           rec.Notes,
			CreatedAt:       rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.stats.Transactions.Imported++
	}
	return nil
}

func (e *engine) mergeMutualFundHoldings() error {
	index, err := e.loadHoldingIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.MutualFundHoldings {
		assetID, ok := e.ids.assets.Lookup(rec.AssetID)
		if !ok {
			e.stats.MutualFundHoldings.Dropped++
			e.log.Debug().Int64("source_asset_id", rec.AssetID).
				Msg("Dropped mutual fund holding with unresolved asset")
			continue
		}

		key := holdingKey(assetID, rec.StockName, rec.StockSymbol)
		if _, ok := index[key]; ok {
			e.stats.MutualFundHoldings.Skipped++
			continue
		}

		id, err := e.repos.Holdings.InsertTx(e.tx, domain.MutualFundHolding{
			UserID:            e.userID,
			AssetID:           assetID,
			StockName:         rec.StockName,
			StockSymbol:       rec.StockSymbol,
			HoldingPercentage: rec.HoldingPercentage,
			HoldingValue:      rec.HoldingValue,
			CreatedAt:         rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.stats.MutualFundHoldings.Imported++
	}
	return nil
}

func (e *engine) mergeExpenses() error {
	index, err := e.loadExpenseIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.Expenses {
		// bank_account_id is NOT NULL at the destination, so an expense
		// whose account never resolved cannot be placed.
		bankAccountID, ok := e.ids.bankAccounts.Lookup(rec.BankAccountID)
		if !ok {
			e.stats.Expenses.Dropped++
			e.log.Debug().Int64("source_bank_account_id", rec.BankAccountID).
				Msg("Dropped expense with unresolved bank account")
			continue
		}

		key := expenseKey(bankAccountID, rec.TransactionDate, rec.Amount, rec.Description)
		if _, ok := index[key]; ok {
			e.stats.Expenses.Skipped++
			continue
		}

		id, err := e.repos.Expenses.InsertTx(e.tx, domain.Expense{
			UserID:          e.userID,
			BankAccountID:   bankAccountID,
			CategoryID:      resolveOptional(e.ids.categories, rec.CategoryID),
			TransactionDate: rec.TransactionDate,
			Amount:          rec.Amount,
			Description:     rec.Description,
			Merchant:        rec.Merchant,
			IsDebit:         rec.IsDebit,
			CreatedAt:       rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.stats.Expenses.Imported++
	}
	return nil
}

func (e *engine) mergeAlerts() error {
	index, err := e.loadAlertIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.Alerts {
		key := alertKey(rec.AlertType, rec.Title, rec.AlertDate)
		if _, ok := index[key]; ok {
			e.stats.Alerts.Skipped++
			continue
		}

		id, err := e.repos.Alerts.InsertTx(e.tx, domain.Alert{
			UserID:    e.userID,
			AssetID:   resolveOptional(e.ids.assets, rec.AssetID),
			AlertType: domain.AlertType(rec.AlertType),
			Title:     rec.Title,
			Message:   rec.Message,
			AlertDate: rec.AlertDate,
			IsRead:    rec.IsRead,
			CreatedAt: rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = id
		e.stats.Alerts.Imported++
	}
	return nil
}

// mergeSnapshots creates missing snapshots with all their position rows.
// When a snapshot date already exists at the destination, its incoming
// children are counted skipped wholesale; children are never grafted onto a
// pre-existing parent.
func (e *engine) mergeSnapshots() error {
	index, err := e.loadSnapshotIndex()
	if err != nil {
		return err
	}

	for _, rec := range e.doc.PortfolioSnapshots {
		key := snapshotKey(rec.SnapshotDate)
		if _, ok := index[key]; ok {
			e.stats.PortfolioSnapshots.Skipped++
			e.stats.AssetSnapshots.Skipped += len(rec.AssetSnapshots)
			continue
		}

		snapshotID, err := e.repos.Snapshots.InsertTx(e.tx, domain.PortfolioSnapshot{
			UserID:        e.userID,
			SnapshotDate:  rec.SnapshotDate,
			TotalValue:    rec.TotalValue,
			TotalInvested: rec.TotalInvested,
			BankBalance:   rec.BankBalance,
			DematCash:     rec.DematCash,
			CryptoValue:   rec.CryptoValue,
			CreatedAt:     rec.CreatedAt,
		})
		if err != nil {
			return err
		}
		index[key] = snapshotID
		e.stats.PortfolioSnapshots.Imported++

		for _, child := range rec.AssetSnapshots {
			_, err := e.repos.Snapshots.InsertAssetTx(e.tx, domain.AssetSnapshot{
				SnapshotID:    snapshotID,
				AssetID:       resolveOptional(e.ids.assets, child.AssetID),
				Source:        domain.SnapshotSource(child.Source),
				AssetType:     child.AssetType,
				AssetName:     child.AssetName,
				InvestedValue: child.InvestedValue,
				CurrentValue:  child.CurrentValue,
				CreatedAt:     child.CreatedAt,
			})
			if err != nil {
				return err
			}
			e.stats.AssetSnapshots.Imported++
		}
	}
	return nil
}

// Destination index loaders. All reads go through the engine transaction so
// rows created by earlier stages in this run are visible.

func (e *engine) loadPortfolioIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, name FROM portfolios WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index portfolios: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("failed to index portfolios: %w", err)
		}
		index[portfolioKey(name)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadBankAccountIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, bank_name, account_type, account_number
		FROM bank_accounts WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index bank accounts: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var bankName, accountType, accountNumber string
		if err := rows.Scan(&id, &bankName, &accountType, &accountNumber); err != nil {
			return nil, fmt.Errorf("failed to index bank accounts: %w", err)
		}
		index[bankAccountKey(bankName, accountType, accountNumber)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadDematAccountIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, broker_name, account_id
		FROM demat_accounts WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index demat accounts: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var brokerName, accountID string
		if err := rows.Scan(&id, &brokerName, &accountID); err != nil {
			return nil, fmt.Errorf("failed to index demat accounts: %w", err)
		}
		index[dematAccountKey(brokerName, accountID)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadCryptoAccountIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, exchange_name, account_id
		FROM crypto_accounts WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index crypto accounts: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var exchangeName, accountID string
		if err := rows.Scan(&id, &exchangeName, &accountID); err != nil {
			return nil, fmt.Errorf("failed to index crypto accounts: %w", err)
		}
		index[cryptoAccountKey(exchangeName, accountID)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadCategoryIndexes() (system, user map[string]int64, err error) {
	rows, err := e.tx.Query(`SELECT id, user_id, name FROM expense_categories
		WHERE user_id IS NULL OR user_id = ?`, e.userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to index expense categories: %w", err)
	}
	defer rows.Close()

	system = make(map[string]int64)
	user = make(map[string]int64)
	for rows.Next() {
		var id int64
		var ownerID sql.NullInt64
		var name string
		if err := rows.Scan(&id, &ownerID, &name); err != nil {
			return nil, nil, fmt.Errorf("failed to index expense categories: %w", err)
		}
		if ownerID.Valid {
			user[categoryKey(name)] = id
		} else {
			system[categoryKey(name)] = id
		}
	}
	return system, user, rows.Err()
}

func (e *engine) loadAssetCandidates() ([]assetCandidate, error) {
	rows, err := e.tx.Query(`SELECT id, asset_type, name, total_invested
		FROM assets WHERE user_id = ? ORDER BY id`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index assets: %w", err)
	}
	defer rows.Close()

	var candidates []assetCandidate
	for rows.Next() {
		var c assetCandidate
		if err := rows.Scan(&c.id, &c.assetType, &c.name, &c.totalInvested); err != nil {
			return nil, fmt.Errorf("failed to index assets: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (e *engine) loadTransactionIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, asset_id, transaction_date, total_amount, transaction_type
		FROM transactions WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index transactions: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id, assetID int64
		var date, transactionType string
		var totalAmount float64
		if err := rows.Scan(&id, &assetID, &date, &totalAmount, &transactionType); err != nil {
			return nil, fmt.Errorf("failed to index transactions: %w", err)
		}
		index[transactionKey(assetID, date, totalAmount, transactionType)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadHoldingIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, asset_id, stock_name, stock_symbol
		FROM mutual_fund_holdings WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index mutual fund holdings: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id, assetID int64
		var stockName, stockSymbol string
		if err := rows.Scan(&id, &assetID, &stockName, &stockSymbol); err != nil {
			return nil, fmt.Errorf("failed to index mutual fund holdings: %w", err)
		}
		index[holdingKey(assetID, stockName, stockSymbol)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadExpenseIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, bank_account_id, transaction_date, amount, description
		FROM expenses WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index expenses: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id, bankAccountID int64
		var date, description string
		var amount float64
		if err := rows.Scan(&id, &bankAccountID, &date, &amount, &description); err != nil {
			return nil, fmt.Errorf("failed to index expenses: %w", err)
		}
		index[expenseKey(bankAccountID, date, amount, description)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadAlertIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, alert_type, title, alert_date
		FROM alerts WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index alerts: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var alertType, title, alertDate string
		if err := rows.Scan(&id, &alertType, &title, &alertDate); err != nil {
			return nil, fmt.Errorf("failed to index alerts: %w", err)
		}
		index[alertKey(alertType, title, alertDate)] = id
	}
	return index, rows.Err()
}

func (e *engine) loadSnapshotIndex() (map[string]int64, error) {
	rows, err := e.tx.Query(`SELECT id, snapshot_date FROM portfolio_snapshots
		WHERE user_id = ?`, e.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to index snapshots: %w", err)
	}
	defer rows.Close()

	index := make(map[string]int64)
	for rows.Next() {
		var id int64
		var date string
		if err := rows.Scan(&id, &date); err != nil {
			return nil, fmt.Errorf("failed to index snapshots: %w", err)
		}
		index[snapshotKey(date)] = id
	}
	return index, rows.Err()
}
