package backup

// EntityStats counts what happened to one entity type during a restore.
// Imported records were created, skipped records matched rows already at the
// destination, and dropped records could not be placed at all: their parent
// reference never resolved, or they name a system category the destination
// does not have. Skipped and dropped are kept apart so genuine data loss is
// visible in the report.
type EntityStats struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Dropped  int `json:"dropped"`
}

// RestoreStats aggregates per-entity counts for one restore run. Callers see
// it only after the surrounding transaction committed, never a partial
// state.
type RestoreStats struct {
	Portfolios         EntityStats `json:"portfolios"`
	BankAccounts       EntityStats `json:"bank_accounts"`
	DematAccounts      EntityStats `json:"demat_accounts"`
	CryptoAccounts     EntityStats `json:"crypto_accounts"`
	ExpenseCategories  EntityStats `json:"expense_categories"`
	Assets             EntityStats `json:"assets"`
	Transactions       EntityStats `json:"transactions"`
	MutualFundHoldings EntityStats `json:"mutual_fund_holdings"`
	Expenses           EntityStats `json:"expenses"`
	Alerts             EntityStats `json:"alerts"`
	PortfolioSnapshots EntityStats `json:"portfolio_snapshots"`
	AssetSnapshots     EntityStats `json:"asset_snapshots"`
}

// Total sums the counts across every entity type.
func (s *RestoreStats) Total() EntityStats {
	var total EntityStats
	for _, e := range []EntityStats{
		s.Portfolios, s.BankAccounts, s.DematAccounts, s.CryptoAccounts,
		s.ExpenseCategories, s.Assets, s.Transactions, s.MutualFundHoldings,
		s.Expenses, s.Alerts, s.PortfolioSnapshots, s.AssetSnapshots,
	} {
		total.Imported += e.Imported
		total.Skipped += e.Skipped
		total.Dropped += e.Dropped
	}
	return total
}
