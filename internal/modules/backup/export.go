package backup

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Export flattens everything the user owns into a current-version document,
// plus the global system expense categories so category references stay
// resolvable wherever the document is restored. Export only reads.
func (s *Service) Export(userID int64) (*Document, error) {
	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	doc := &Document{
		ExportVersion:      CurrentExportVersion,
		ExportedAt:         time.Now().UTC().Format(time.RFC3339),
		ExportedBy:         user.Email,
		DocumentID:         uuid.NewString(),
		Portfolios:         []PortfolioRecord{},
		BankAccounts:       []BankAccountRecord{},
		DematAccounts:      []DematAccountRecord{},
		CryptoAccounts:     []CryptoAccountRecord{},
		Assets:             []AssetRecord{},
		ExpenseCategories:  []ExpenseCategoryRecord{},
		Expenses:           []ExpenseRecord{},
		Transactions:       []TransactionRecord{},
		MutualFundHoldings: []MutualFundHoldingRecord{},
		Alerts:             []AlertRecord{},
		PortfolioSnapshots: []PortfolioSnapshotRecord{},
	}

	portfolios, err := s.repos.Portfolios.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		doc.Portfolios = append(doc.Portfolios, PortfolioRecord{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			IsDefault:   p.IsDefault,
			IsActive:    p.IsActive,
			CreatedAt:   p.CreatedAt,
		})
	}

	bankAccounts, err := s.repos.Banks.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, b := range bankAccounts {
		doc.BankAccounts = append(doc.BankAccounts, BankAccountRecord{
			ID:            b.ID,
			PortfolioID:   b.PortfolioID,
			BankName:      b.BankName,
			AccountType:   b.AccountType,
			AccountNumber: b.AccountNumber,
			Balance:       b.Balance,
			Currency:      b.Currency,
			IsActive:      b.IsActive,
			CreatedAt:     b.CreatedAt,
		})
	}

	dematAccounts, err := s.repos.Demats.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, d := range dematAccounts {
		doc.DematAccounts = append(doc.DematAccounts, DematAccountRecord{
			ID:          d.ID,
			PortfolioID: d.PortfolioID,
			BrokerName:  d.BrokerName,
			AccountID:   d.AccountID,
			CashBalance: d.CashBalance,
			Currency:    d.Currency,
			IsActive:    d.IsActive,
			CreatedAt:   d.CreatedAt,
		})
	}

	cryptoAccounts, err := s.repos.Cryptos.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, c := range cryptoAccounts {
		doc.CryptoAccounts = append(doc.CryptoAccounts, CryptoAccountRecord{
			ID:             c.ID,
			PortfolioID:    c.PortfolioID,
			ExchangeName:   c.ExchangeName,
			AccountID:      c.AccountID,
			CashBalanceUSD: c.CashBalanceUSD,
			IsActive:       c.IsActive,
			CreatedAt:      c.CreatedAt,
		})
	}

	systemCategories, err := s.repos.Categories.GetSystem()
	if err != nil {
		return nil, err
	}
	userCategories, err := s.repos.Categories.GetForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, c := range append(systemCategories, userCategories...) {
		doc.ExpenseCategories = append(doc.ExpenseCategories, ExpenseCategoryRecord{
			ID:        c.ID,
			Name:      c.Name,
			IsSystem:  c.IsSystem,
			IsIncome:  c.IsIncome,
			ParentID:  c.ParentID,
			CreatedAt: c.CreatedAt,
		})
	}

	userAssets, err := s.repos.Assets.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, a := range userAssets {
		doc.Assets = append(doc.Assets, AssetRecord{
			ID:              a.ID,
			PortfolioID:     a.PortfolioID,
			DematAccountID:  a.DematAccountID,
			CryptoAccountID: a.CryptoAccountID,
			AssetType:       string(a.AssetType),
			Name:            a.Name,
			Symbol:          a.Symbol,
			Quantity:        a.Quantity,
			AvgBuyPrice:     a.AvgBuyPrice,
			TotalInvested:   a.TotalInvested,
			CurrentValue:    a.CurrentValue,
			Currency:        a.Currency,
			PurchaseDate:    a.PurchaseDate,
			Notes:           a.Notes,
			IsActive:        a.IsActive,
			CreatedAt:       a.CreatedAt,
			UpdatedAt:       a.UpdatedAt,
		})
	}

	transactions, err := s.repos.Transactions.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, t := range transactions {
		doc.Transactions = append(doc.Transactions, TransactionRecord{
			ID:              t.ID,
			AssetID:         t.AssetID,
			TransactionType: string(t.TransactionType),
			Quantity:        t.Quantity,
			PricePerUnit:    t.PricePerUnit,
			TotalAmount:     t.TotalAmount,
			TransactionDate: t.TransactionDate,
			Notes:           t.Notes,
			CreatedAt:       t.CreatedAt,
		})
	}

	holdings, err := s.repos.Holdings.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, h := range holdings {
		doc.MutualFundHoldings = append(doc.MutualFundHoldings, MutualFundHoldingRecord{
			ID:                h.ID,
			AssetID:           h.AssetID,
			StockName:         h.StockName,
			StockSymbol:       h.StockSymbol,
			HoldingPercentage: h.HoldingPercentage,
			HoldingValue:      h.HoldingValue,
			CreatedAt:         h.CreatedAt,
		})
	}

	userExpenses, err := s.repos.Expenses.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, ex := range userExpenses {
		doc.Expenses = append(doc.Expenses, ExpenseRecord{
			ID:              ex.ID,
			BankAccountID:   ex.BankAccountID,
			CategoryID:      ex.CategoryID,
			TransactionDate: ex.TransactionDate,
			Amount:          ex.Amount,
			Description:     ex.Description,
			Merchant:        ex.Merchant,
			IsDebit:         ex.IsDebit,
			CreatedAt:       ex.CreatedAt,
		})
	}

	userAlerts, err := s.repos.Alerts.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, a := range userAlerts {
		doc.Alerts = append(doc.Alerts, AlertRecord{
			ID:        a.ID,
			AssetID:   a.AssetID,
			AlertType: string(a.AlertType),
			Title:     a.Title,
			Message:   a.Message,
			AlertDate: a.AlertDate,
			IsRead:    a.IsRead,
			CreatedAt: a.CreatedAt,
		})
	}

	snapshots, err := s.repos.Snapshots.GetAllForUser(userID)
	if err != nil {
		return nil, err
	}
	for _, snap := range snapshots {
		children, err := s.repos.Snapshots.GetAssetSnapshots(snap.ID)
		if err != nil {
			return nil, err
		}

		rec := PortfolioSnapshotRecord{
			ID:             snap.ID,
			SnapshotDate:   snap.SnapshotDate,
			TotalValue:     snap.TotalValue,
			TotalInvested:  snap.TotalInvested,
			BankBalance:    snap.BankBalance,
			DematCash:      snap.DematCash,
			CryptoValue:    snap.CryptoValue,
			CreatedAt:      snap.CreatedAt,
			AssetSnapshots: []AssetSnapshotRecord{},
		}
		for _, child := range children {
			rec.AssetSnapshots = append(rec.AssetSnapshots, AssetSnapshotRecord{
				ID:            child.ID,
				AssetID:       child.AssetID,
				Source:        string(child.Source),
				AssetType:     child.AssetType,
				AssetName:     child.AssetName,
				InvestedValue: child.InvestedValue,
				CurrentValue:  child.CurrentValue,
				CreatedAt:     child.CreatedAt,
			})
		}
		doc.PortfolioSnapshots = append(doc.PortfolioSnapshots, rec)
	}

	s.log.Info().Int64("user_id", userID).
		Int("portfolios", len(doc.Portfolios)).
		Int("assets", len(doc.Assets)).
		Int("expenses", len(doc.Expenses)).
		Int("snapshots", len(doc.PortfolioSnapshots)).
		Msg("Export built")

	return doc, nil
}

// ExportJSON renders the user's export as indented JSON along with a
// timestamped download filename.
func (s *Service) ExportJSON(userID int64) ([]byte, string, error) {
	doc, err := s.Export(userID)
	if err != nil {
		return nil, "", err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode document: %w", err)
	}

	filename := fmt.Sprintf("artha-backup-%s.json", time.Now().UTC().Format("2006-01-02-150405"))
	return data, filename, nil
}
