package baskets

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquifer-fi/aquifer/internal/database"
	"github.com/aquifer-fi/aquifer/internal/domain"
)

// newTestRepo spins up real sqlite databases in a temp dir, migrated and
// ready, so repository tests exercise the actual SQL.
func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()

	dir := t.TempDir()

	basketsDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "baskets.db"),
		Profile: database.ProfileStandard,
		Name:    "baskets",
	})
	require.NoError(t, err)
	t.Cleanup(func() { basketsDB.Close() })
	require.NoError(t, basketsDB.Migrate())

	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(dir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	require.NoError(t, err)
	t.Cleanup(func() { ledgerDB.Close() })
	require.NoError(t, ledgerDB.Migrate())

	return NewSQLRepository(basketsDB.Conn(), ledgerDB.Conn(), zerolog.Nop())
}

func testCommit(t *testing.T, repo *SQLRepository, basketID, assetID string, amount, score float64) (*Basket, Assignment) {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Second)
	b := &Basket{
		ID:                basketID,
		Tier:              domain.TierLow,
		Status:            StatusOpen,
		TotalValue:        amount,
		AvailableToInvest: InvestableFraction * amount,
		SumValue:          amount,
		SumValueScore:     score * amount,
		BlendedRiskScore:  score,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m := Member{BasketID: basketID, AssetID: assetID, Amount: amount, Score: score, AddedAt: now}
	a := Assignment{
		AssetID: assetID, BasketID: basketID, Tier: domain.TierLow,
		ScoreAtAssignment: score, BlendedAtAssign: score, CreatedAt: now,
	}
	require.NoError(t, repo.CommitAssignment(b, m, a))
	return b, a
}

func TestSQLRepositoryRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	testCommit(t, repo, "basket-1", "asset-1", 25_000, 88)

	b, err := repo.GetBasket("basket-1")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, domain.TierLow, b.Tier)
	assert.Equal(t, StatusOpen, b.Status)
	assert.Equal(t, 25_000.0, b.TotalValue)
	assert.InDelta(t, 88.0, b.BlendedRiskScore, 1e-9)
	assert.Equal(t, []string{"asset-1"}, b.MemberAssetIDs)

	members, err := repo.ListMembers("basket-1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "asset-1", members[0].AssetID)
	assert.Equal(t, 25_000.0, members[0].Amount)

	got, err := repo.GetAssignment("asset-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "basket-1", got.BasketID)
	assert.Equal(t, domain.TierLow, got.Tier)
	assert.InDelta(t, 88.0, got.ScoreAtAssignment, 1e-9)
}

func TestSQLRepositoryGetMissing(t *testing.T) {
	repo := newTestRepo(t)

	b, err := repo.GetBasket("nope")
	require.NoError(t, err)
	assert.Nil(t, b)

	a, err := repo.GetAssignment("nope")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestSQLRepositoryLoadOpenBasketsExcludesClosed(t *testing.T) {
	repo := newTestRepo(t)

	testCommit(t, repo, "basket-open", "asset-1", 10_000, 90)
	closed, _ := testCommit(t, repo, "basket-closed", "asset-2", 10_000, 85)

	closed.Status = StatusAtCapacity
	m := Member{BasketID: closed.ID, AssetID: "asset-3", Amount: 5_000, Score: 85, Position: 1, AddedAt: time.Now()}
	a := Assignment{AssetID: "asset-3", BasketID: closed.ID, Tier: domain.TierLow, ScoreAtAssignment: 85, BlendedAtAssign: 85, CreatedAt: time.Now()}
	require.NoError(t, repo.CommitAssignment(closed, m, a))

	open, err := repo.LoadOpenBaskets()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "basket-open", open[0].ID)

	all, err := repo.ListBaskets()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLRepositoryDuplicateAssetIsConflict(t *testing.T) {
	repo := newTestRepo(t)

	b, _ := testCommit(t, repo, "basket-1", "asset-1", 10_000, 90)

	// Same asset again, even into another basket, must be rejected
	other := *b
	other.ID = "basket-2"
	m := Member{BasketID: "basket-2", AssetID: "asset-1", Amount: 10_000, Score: 90, AddedAt: time.Now()}
	a := Assignment{AssetID: "asset-1", BasketID: "basket-2", Tier: domain.TierLow, ScoreAtAssignment: 90, BlendedAtAssign: 90, CreatedAt: time.Now()}

	err := repo.CommitAssignment(&other, m, a)
	require.ErrorIs(t, err, domain.ErrAllocationConflict)

	// The rejected transaction must not have left the basket row behind
	ghost, err := repo.GetBasket("basket-2")
	require.NoError(t, err)
	assert.Nil(t, ghost)
}

func TestSQLRepositoryRepairsMissingLedgerRow(t *testing.T) {
	repo := newTestRepo(t)

	testCommit(t, repo, "basket-1", "asset-1", 10_000, 90)

	// Simulate a crash between the basket commit and the ledger append
	_, err := repo.ledgerDB.Exec(`DELETE FROM basket_assignments WHERE asset_id = ?`, "asset-1")
	require.NoError(t, err)

	got, err := repo.GetAssignment("asset-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "basket-1", got.BasketID)
	assert.Equal(t, domain.TierLow, got.Tier)

	// The repair re-appended the ledger row
	var count int
	require.NoError(t, repo.ledgerDB.QueryRow(
		`SELECT COUNT(*) FROM basket_assignments WHERE asset_id = ?`, "asset-1").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLRepositoryUpdateAggregates(t *testing.T) {
	repo := newTestRepo(t)

	b, _ := testCommit(t, repo, "basket-1", "asset-1", 10_000, 90)

	b.SumValue = 40_000
	b.SumValueScore = 82.5 * 40_000
	b.BlendedRiskScore = 82.5
	require.NoError(t, repo.UpdateAggregates(b))

	got, err := repo.GetBasket("basket-1")
	require.NoError(t, err)
	assert.InDelta(t, 82.5, got.BlendedRiskScore, 1e-9)
	assert.InDelta(t, 40_000.0, got.SumValue, 1e-9)
}

func TestSQLRepositorySnapshots(t *testing.T) {
	repo := newTestRepo(t)

	testCommit(t, repo, "basket-1", "asset-1", 10_000, 90)

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.AppendSnapshot(Snapshot{
		BasketID: "basket-1", TotalValue: 10_000, ExpectedYield: 5.1, CreatedAt: now,
	}))
	require.NoError(t, repo.AppendSnapshot(Snapshot{
		BasketID: "basket-1", TotalValue: 22_000, ExpectedYield: 5.4, CreatedAt: now.Add(time.Hour),
	}))

	snapshots, err := repo.ListSnapshots("basket-1")
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, 10_000.0, snapshots[0].TotalValue)
	assert.Equal(t, 22_000.0, snapshots[1].TotalValue)
}

func TestAllocatorOverSQLRepository(t *testing.T) {
	repo := newTestRepo(t)
	alloc := newTestAllocator(t, repo)

	first, err := alloc.Assign(assessmentWithSafety(88), 10_000, "asset-1")
	require.NoError(t, err)
	second, err := alloc.Assign(assessmentWithSafety(92), 30_000, "asset-2")
	require.NoError(t, err)
	require.Equal(t, first.BasketID, second.BasketID)

	// Duplicate through the full stack resolves to the stored assignment
	dup, err := alloc.Assign(assessmentWithSafety(88), 10_000, "asset-1")
	require.NoError(t, err)
	assert.Equal(t, first.BasketID, dup.BasketID)

	// A restarted allocator sees the same open state
	reloaded := newTestAllocator(t, repo)
	third, err := reloaded.Assign(assessmentWithSafety(90), 5_000, "asset-3")
	require.NoError(t, err)
	assert.Equal(t, first.BasketID, third.BasketID)

	b, err := reloaded.Basket(first.BasketID)
	require.NoError(t, err)
	assert.Len(t, b.MemberAssetIDs, 3)
	assert.Equal(t, 45_000.0, b.TotalValue)
}
