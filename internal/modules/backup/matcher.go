package backup

import (
	"math"
	"strconv"
	"strings"
)

// investedTolerance is how far apart two total_invested values may sit while
// still denoting the same lot.
const investedTolerance = 0.01

// naturalKey joins key parts with a separator that cannot appear in the
// underlying values, so composite keys never collide on concatenation.
func naturalKey(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// amountKey renders a float the same way whether it came from the database
// or from a parsed document, so exact amounts compare as strings.
func amountKey(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func idKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func portfolioKey(name string) string {
	return name
}

func bankAccountKey(bankName, accountType, accountNumber string) string {
	return naturalKey(bankName, accountType, accountNumber)
}

func dematAccountKey(brokerName, accountID string) string {
	return naturalKey(brokerName, accountID)
}

func cryptoAccountKey(exchangeName, accountID string) string {
	return naturalKey(exchangeName, accountID)
}

func categoryKey(name string) string {
	return name
}

// transactionKey identifies a transaction by its resolved destination asset,
// date, amount and type.
func transactionKey(assetID int64, date string, totalAmount float64, transactionType string) string {
	return naturalKey(idKey(assetID), date, amountKey(totalAmount), transactionType)
}

func holdingKey(assetID int64, stockName, stockSymbol string) string {
	return naturalKey(idKey(assetID), stockName, stockSymbol)
}

func expenseKey(bankAccountID int64, date string, amount float64, description string) string {
	return naturalKey(idKey(bankAccountID), date, amountKey(amount), description)
}

func alertKey(alertType, title, alertDate string) string {
	return naturalKey(alertType, title, alertDate)
}

func snapshotKey(snapshotDate string) string {
	return snapshotDate
}

// assetCandidate is one destination asset available for matching.
type assetCandidate struct {
	id            int64
	assetType     string
	name          string
	totalInvested float64
}

// assetMatcher resolves incoming asset records against destination rows.
//
// Assets cannot be matched on (type, name) alone: repeated purchases of the
// same instrument are distinct lots sharing a name. The matcher therefore
// tracks which destination rows earlier records in this run already claimed,
// and prefers the unclaimed row whose total_invested is closest in tolerance
// to the incoming record, falling back to the first unclaimed name match.
// N distinct source lots can never collapse into fewer destination rows.
type assetMatcher struct {
	candidates []assetCandidate
	consumed   map[int64]bool
}

func newAssetMatcher(candidates []assetCandidate) *assetMatcher {
	return &assetMatcher{
		candidates: candidates,
		consumed:   make(map[int64]bool),
	}
}

// Match claims and returns the destination asset for one incoming record,
// or reports false when no unconsumed row shares its (type, name).
func (m *assetMatcher) Match(assetType, name string, totalInvested float64) (int64, bool) {
	var fallbackID int64
	haveFallback := false

	for _, c := range m.candidates {
		if m.consumed[c.id] || c.assetType != assetType || c.name != name {
			continue
		}
		if math.Abs(c.totalInvested-totalInvested) <= investedTolerance {
			m.consumed[c.id] = true
			return c.id, true
		}
		if !haveFallback {
			fallbackID = c.id
			haveFallback = true
		}
	}

	if haveFallback {
		m.consumed[fallbackID] = true
		return fallbackID, true
	}
	return 0, false
}
