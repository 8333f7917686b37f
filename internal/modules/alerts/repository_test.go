package alerts

import (
	"testing"

	"github.com/artha-io/artha/internal/domain"
	testingpkg "github.com/artha-io/artha/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateAndList(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := testingpkg.CreateTestUser(t, db, "alerts@example.com")
	otherID := testingpkg.CreateTestUser(t, db, "other@example.com")

	_, err := repo.Create(domain.Alert{
		UserID: userID, AlertType: domain.AlertTypeReminder,
		Title: "Review SIP", AlertDate: "2025-04-01",
	})
	require.NoError(t, err)
	_, err = repo.Create(domain.Alert{
		UserID: userID, AlertType: domain.AlertTypePriceTarget,
		Title: "TCS above 3700", AlertDate: "2025-04-15",
	})
	require.NoError(t, err)
	_, err = repo.Create(domain.Alert{
		UserID: otherID, AlertType: domain.AlertTypeReminder,
		Title: "Not yours", AlertDate: "2025-04-20",
	})
	require.NoError(t, err)

	list, err := repo.GetAllForUser(userID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Newest first.
	assert.Equal(t, "TCS above 3700", list[0].Title)
	assert.Equal(t, "Review SIP", list[1].Title)
	assert.False(t, list[0].IsRead)
}

func TestRepository_MarkRead(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())
	userID := testingpkg.CreateTestUser(t, db, "alerts@example.com")

	id, err := repo.Create(domain.Alert{
		UserID: userID, AlertType: domain.AlertTypeReminder,
		Title: "Review SIP", AlertDate: "2025-04-01",
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkRead(id))

	list, err := repo.GetAllForUser(userID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
}

func TestRepository_MarkReadMissingAlert(t *testing.T) {
	db, cleanup := testingpkg.NewTestDB(t)
	defer cleanup()

	repo := NewRepository(db.Conn(), zerolog.Nop())

	err := repo.MarkRead(999)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
