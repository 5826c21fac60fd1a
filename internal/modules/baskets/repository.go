package baskets

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aquifer-fi/aquifer/internal/domain"
)

// SQLRepository persists basket state in baskets.db and the append-only
// assignment ledger in ledger.db.
//
// Commit order matters: the basket update and member insert happen in one
// baskets.db transaction, and the ledger entry is appended only after that
// transaction commits. A crash between the two leaves a committed basket with
// a missing ledger row, which the idempotent retry repairs; it can never
// leave a dangling assignment pointing at an uncommitted basket.
type SQLRepository struct {
	basketsDB *sql.DB
	ledgerDB  *sql.DB
	log       zerolog.Logger
}

// NewSQLRepository creates a new basket repository
func NewSQLRepository(basketsDB, ledgerDB *sql.DB, log zerolog.Logger) *SQLRepository {
	return &SQLRepository{
		basketsDB: basketsDB,
		ledgerDB:  ledgerDB,
		log:       log.With().Str("repository", "baskets").Logger(),
	}
}

// LoadOpenBaskets returns all open baskets with their member IDs
func (r *SQLRepository) LoadOpenBaskets() ([]*Basket, error) {
	return r.queryBaskets("WHERE status = 'open'")
}

// ListBaskets returns all baskets
func (r *SQLRepository) ListBaskets() ([]*Basket, error) {
	return r.queryBaskets("")
}

// GetBasket returns one basket by ID, nil when not found
func (r *SQLRepository) GetBasket(id string) (*Basket, error) {
	baskets, err := r.queryBaskets("WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(baskets) == 0 {
		return nil, nil
	}
	return baskets[0], nil
}

func (r *SQLRepository) queryBaskets(where string, args ...any) ([]*Basket, error) {
	query := fmt.Sprintf(`
		SELECT id, tier, status, total_value, available_to_invest,
		       sum_value, sum_value_score, blended_risk_score,
		       created_at, updated_at
		FROM baskets %s
		ORDER BY created_at`, where)

	rows, err := r.basketsDB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query baskets: %w", err)
	}
	defer rows.Close()

	var baskets []*Basket
	for rows.Next() {
		b := &Basket{}
		var tier, status string
		if err := rows.Scan(&b.ID, &tier, &status, &b.TotalValue, &b.AvailableToInvest,
			&b.SumValue, &b.SumValueScore, &b.BlendedRiskScore,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan basket: %w", err)
		}
		b.Tier = domain.Tier(tier)
		b.Status = Status(status)
		baskets = append(baskets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating baskets: %w", err)
	}

	for _, b := range baskets {
		members, err := r.ListMembers(b.ID)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			b.MemberAssetIDs = append(b.MemberAssetIDs, m.AssetID)
		}
	}

	return baskets, nil
}

// ListMembers returns a basket's members in insertion order
func (r *SQLRepository) ListMembers(basketID string) ([]Member, error) {
	rows, err := r.basketsDB.Query(`
		SELECT basket_id, asset_id, amount, score, position, added_at
		FROM basket_members
		WHERE basket_id = ?
		ORDER BY position`, basketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.BasketID, &m.AssetID, &m.Amount, &m.Score, &m.Position, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetAssignment returns the ledger entry for an asset, nil when none exists
func (r *SQLRepository) GetAssignment(assetID string) (*Assignment, error) {
	row := r.ledgerDB.QueryRow(`
		SELECT asset_id, basket_id, tier, score_at_assignment,
		       blended_score_at_assignment, created_at
		FROM basket_assignments
		WHERE asset_id = ?`, assetID)

	var a Assignment
	var tier string
	err := row.Scan(&a.AssetID, &a.BasketID, &tier, &a.ScoreAtAssignment, &a.BlendedAtAssign, &a.CreatedAt)
	if err == sql.ErrNoRows {
		// The ledger row is appended after the basket transaction; repair the
		// gap from the member row if a crash separated the two.
		return r.assignmentFromMember(assetID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment: %w", err)
	}
	a.Tier = domain.Tier(tier)
	return &a, nil
}

// assignmentFromMember reconstructs an assignment for an asset whose basket
// commit succeeded but whose ledger append did not, and re-appends it.
func (r *SQLRepository) assignmentFromMember(assetID string) (*Assignment, error) {
	row := r.basketsDB.QueryRow(`
		SELECT m.asset_id, m.basket_id, b.tier, m.score, b.blended_risk_score, m.added_at
		FROM basket_members m
		JOIN baskets b ON b.id = m.basket_id
		WHERE m.asset_id = ?`, assetID)

	var a Assignment
	var tier string
	err := row.Scan(&a.AssetID, &a.BasketID, &tier, &a.ScoreAtAssignment, &a.BlendedAtAssign, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query member for assignment repair: %w", err)
	}
	a.Tier = domain.Tier(tier)

	if appendErr := r.appendAssignment(a); appendErr != nil {
		r.log.Warn().Err(appendErr).Str("asset_id", assetID).Msg("Failed to repair ledger entry")
	} else {
		r.log.Info().Str("asset_id", assetID).Msg("Repaired missing ledger entry from member row")
	}
	return &a, nil
}

// CommitAssignment atomically applies a basket update plus member insert,
// then appends the ledger entry. A duplicate asset surfaces as
// domain.ErrAllocationConflict.
func (r *SQLRepository) CommitAssignment(b *Basket, m Member, a Assignment) error {
	tx, err := r.basketsDB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO baskets (id, tier, status, total_value, available_to_invest,
		                     sum_value, sum_value_score, blended_risk_score,
		                     created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			total_value = excluded.total_value,
			available_to_invest = excluded.available_to_invest,
			sum_value = excluded.sum_value,
			sum_value_score = excluded.sum_value_score,
			blended_risk_score = excluded.blended_risk_score,
			updated_at = excluded.updated_at`,
		b.ID, string(b.Tier), string(b.Status), b.TotalValue, b.AvailableToInvest,
		b.SumValue, b.SumValueScore, b.BlendedRiskScore, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert basket: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO basket_members (basket_id, asset_id, amount, score, position, added_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.BasketID, m.AssetID, m.Amount, m.Score, m.Position, m.AddedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAllocationConflict
		}
		return fmt.Errorf("failed to insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit basket transaction: %w", err)
	}

	return r.appendAssignment(a)
}

func (r *SQLRepository) appendAssignment(a Assignment) error {
	_, err := r.ledgerDB.Exec(`
		INSERT OR IGNORE INTO basket_assignments
			(asset_id, basket_id, tier, score_at_assignment, blended_score_at_assignment, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		a.AssetID, a.BasketID, string(a.Tier), a.ScoreAtAssignment, a.BlendedAtAssign, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append assignment: %w", err)
	}
	return nil
}

// UpdateAggregates persists re-derived aggregate columns for a basket
func (r *SQLRepository) UpdateAggregates(b *Basket) error {
	_, err := r.basketsDB.Exec(`
		UPDATE baskets
		SET sum_value = ?, sum_value_score = ?, blended_risk_score = ?, updated_at = ?
		WHERE id = ?`,
		b.SumValue, b.SumValueScore, b.BlendedRiskScore, time.Now(), b.ID)
	if err != nil {
		return fmt.Errorf("failed to update aggregates: %w", err)
	}
	return nil
}

// AppendSnapshot records a point-in-time performance snapshot
func (r *SQLRepository) AppendSnapshot(s Snapshot) error {
	_, err := r.basketsDB.Exec(`
		INSERT INTO basket_snapshots (basket_id, total_value, expected_yield, created_at)
		VALUES (?, ?, ?, ?)`,
		s.BasketID, s.TotalValue, s.ExpectedYield, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns a basket's snapshots, oldest first
func (r *SQLRepository) ListSnapshots(basketID string) ([]Snapshot, error) {
	rows, err := r.basketsDB.Query(`
		SELECT basket_id, total_value, expected_yield, created_at
		FROM basket_snapshots
		WHERE basket_id = ?
		ORDER BY created_at`, basketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var s Snapshot
		if err := rows.Scan(&s.BasketID, &s.TotalValue, &s.ExpectedYield, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// isUniqueViolation reports whether an error is a sqlite UNIQUE constraint
// failure
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
