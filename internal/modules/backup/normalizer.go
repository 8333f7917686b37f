package backup

import (
	"fmt"
	"strings"

	"github.com/artha-io/artha/internal/domain"
)

// Legacy asset_type sentinels used before snapshot rows carried an explicit
// source classification.
const (
	legacySourceBank  = "bank_account"
	legacySourceDemat = "demat_cash"
)

// Normalize validates a document's declared version and backfills fields
// that older document generations did not carry, so the merge engine only
// ever sees the current shape. It must run before any database access and
// returns ErrUnsupportedVersion without touching the document otherwise.
//
// Generation differences handled here:
//   - pre-2.0 documents predate portfolios; their portfolios array is empty
//     and account/asset portfolio references are zero, which the merge
//     resolves to the destination's default portfolio
//   - pre-1.1 documents carry no crypto_accounts
//   - pre-2.1 documents carry no mutual_fund_holdings or alerts, and their
//     expense categories lack is_income (defaults to false)
//   - pre-2.2 asset snapshots lack source, inferred from the legacy
//     asset_type sentinels
func Normalize(doc *Document) error {
	if !versionSupported(doc.ExportVersion) {
		return fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedVersion, doc.ExportVersion, strings.Join(SupportedVersions, ", "))
	}

	if doc.Portfolios == nil {
		doc.Portfolios = []PortfolioRecord{}
	}
	if doc.BankAccounts == nil {
		doc.BankAccounts = []BankAccountRecord{}
	}
	if doc.DematAccounts == nil {
		doc.DematAccounts = []DematAccountRecord{}
	}
	if doc.CryptoAccounts == nil {
		doc.CryptoAccounts = []CryptoAccountRecord{}
	}
	if doc.Assets == nil {
		doc.Assets = []AssetRecord{}
	}
	if doc.ExpenseCategories == nil {
		doc.ExpenseCategories = []ExpenseCategoryRecord{}
	}
	if doc.Expenses == nil {
		doc.Expenses = []ExpenseRecord{}
	}
	if doc.Transactions == nil {
		doc.Transactions = []TransactionRecord{}
	}
	if doc.MutualFundHoldings == nil {
		doc.MutualFundHoldings = []MutualFundHoldingRecord{}
	}
	if doc.Alerts == nil {
		doc.Alerts = []AlertRecord{}
	}
	if doc.PortfolioSnapshots == nil {
		doc.PortfolioSnapshots = []PortfolioSnapshotRecord{}
	}

	for i := range doc.PortfolioSnapshots {
		snap := &doc.PortfolioSnapshots[i]
		if snap.AssetSnapshots == nil {
			snap.AssetSnapshots = []AssetSnapshotRecord{}
		}
		for j := range snap.AssetSnapshots {
			as := &snap.AssetSnapshots[j]
			if as.Source == "" {
				as.Source = inferSnapshotSource(as.AssetType)
			}
		}
	}

	return nil
}

func versionSupported(version string) bool {
	for _, v := range SupportedVersions {
		if v == version {
			return true
		}
	}
	return false
}

// inferSnapshotSource classifies a legacy snapshot row by its asset_type
// string. Sentinel comparison ignores case and surrounding/internal spaces
// because old exporters were inconsistent about both.
func inferSnapshotSource(assetType string) string {
	key := strings.ToLower(strings.TrimSpace(assetType))
	key = strings.ReplaceAll(key, " ", "_")
	switch key {
	case legacySourceBank:
		return string(domain.SnapshotSourceBankAccount)
	case legacySourceDemat:
		return string(domain.SnapshotSourceDematCash)
	default:
		return string(domain.SnapshotSourceAsset)
	}
}
