package expenses

import (
	"testing"

	"github.com/artha-io/artha/internal/domain"
	testingpkg "github.com/artha-io/artha/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryRepository_VisibilitySplit(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	repo := NewCategoryRepository(db.Conn(), zerolog.Nop())
	userID := testingpkg.CreateTestUser(t, db, "cat@example.com")
	otherID := testingpkg.CreateTestUser(t, db, "other@example.com")

	_, err := repo.Create(domain.ExpenseCategory{UserID: &userID, Name: "Side Projects"})
	require.NoError(t, err)
	_, err = repo.Create(domain.ExpenseCategory{UserID: &otherID, Name: "Not Yours"})
	require.NoError(t, err)

	system, err := repo.GetSystem()
	require.NoError(t, err)
	require.NotEmpty(t, system)
	for _, c := range system {
		assert.True(t, c.IsSystem)
		assert.Nil(t, c.UserID)
	}

	own, err := repo.GetForUser(userID)
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Side Projects", own[0].Name)

	visible, err := repo.GetVisibleForUser(userID)
	require.NoError(t, err)
	assert.Len(t, visible, len(system)+1)

	// System taxonomy sorts ahead of user categories.
	assert.True(t, visible[0].IsSystem)
	names := make(map[string]bool, len(visible))
	for _, c := range visible {
		names[c.Name] = true
	}
	assert.True(t, names["Side Projects"])
	assert.False(t, names["Not Yours"])
}

func TestCategoryRepository_CreateRequiresOwner(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	repo := NewCategoryRepository(db.Conn(), zerolog.Nop())

	_, err := repo.Create(domain.ExpenseCategory{Name: "Ownerless"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user id")
}

func TestExpenseRepository_DateRangeIsInclusive(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	log := zerolog.Nop()
	categories := NewCategoryRepository(db.Conn(), log)
	repo := NewExpenseRepository(db.Conn(), log)
	userID := testingpkg.CreateTestUser(t, db, "spend@example.com")
	portfolioID := testingpkg.DefaultPortfolioID(t, db, userID)

	var bankID int64
	res, err := db.Exec(`
		INSERT INTO bank_accounts (user_id, portfolio_id, bank_name, account_type, account_number, balance, currency, is_active, created_at)
		VALUES (?, ?, 'HDFC', 'savings', 'XXXX1234', 50000, 'INR', 1, '2025-01-01T00:00:00Z')`,
		userID, portfolioID)
	require.NoError(t, err)
	bankID, err = res.LastInsertId()
	require.NoError(t, err)

	categoryID, err := categories.Create(domain.ExpenseCategory{UserID: &userID, Name: "Coffee"})
	require.NoError(t, err)

	for _, day := range []string{"2025-03-31", "2025-04-01", "2025-04-30", "2025-05-01"} {
		_, err := repo.Create(domain.Expense{
			UserID: userID, BankAccountID: bankID, CategoryID: &categoryID,
			TransactionDate: day, Amount: 180, Description: "Flat white", IsDebit: true,
		})
		require.NoError(t, err)
	}

	april, err := repo.GetByDateRange(userID, "2025-04-01", "2025-04-30")
	require.NoError(t, err)
	require.Len(t, april, 2)
	assert.Equal(t, "2025-04-01", april[0].TransactionDate)
	assert.Equal(t, "2025-04-30", april[1].TransactionDate)

	all, err := repo.GetAllForUser(userID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}
