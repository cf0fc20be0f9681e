package repository

import (
	"context"
	"fmt"

	"cagnotte/database"
	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"

	"github.com/google/uuid"
)

// ParticipationRepository implements participation data access on PostgreSQL
type ParticipationRepository struct {
	q Queryable
}

// NewParticipationRepository creates a participation repository running on the pool
func NewParticipationRepository(db *database.DB) *ParticipationRepository {
	return &ParticipationRepository{q: db.Pool}
}

// NewParticipationRepositoryWithTx creates a participation repository bound to a transaction
func NewParticipationRepositoryWithTx(tx Queryable) interfaces.ParticipationRepository {
	return &ParticipationRepository{q: tx}
}

// CreateIfOpen inserts the participation only while the pot is open and its
// deadline lies after the participation's timestamp. A personal pot refuses
// its own creator. The pot row is locked so a concurrent resolution cannot
// interleave between the check and the insert.
func (r *ParticipationRepository) CreateIfOpen(ctx context.Context, participation *entities.Participation) (bool, error) {
	query := `
		WITH open_pot AS (
			SELECT id FROM pots
			WHERE id = $2
				AND status = 'open'
				AND deadline > $5
				AND NOT (usage_type = 'personal' AND creator_id = $3)
			FOR SHARE
		)
		INSERT INTO participations (id, pot_id, user_id, contribution_amount, created_at)
		SELECT $1, open_pot.id, $3, $4, $5
		FROM open_pot
	`

	tag, err := r.q.Exec(ctx, query,
		participation.ID,
		participation.PotID,
		participation.UserID,
		participation.ContributionAmount,
		participation.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record participation: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListByPot returns the pot's participations in insertion order. Each row is
// one ballot.
func (r *ParticipationRepository) ListByPot(ctx context.Context, potID uuid.UUID) ([]*entities.Participation, error) {
	query := `
		SELECT id, pot_id, user_id, contribution_amount, created_at
		FROM participations
		WHERE pot_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.q.Query(ctx, query, potID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participations: %w", err)
	}
	defer rows.Close()

	participations := make([]*entities.Participation, 0)
	for rows.Next() {
		var p entities.Participation
		if err := rows.Scan(&p.ID, &p.PotID, &p.UserID, &p.ContributionAmount, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participation: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		participations = append(participations, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participations: %w", err)
	}

	return participations, nil
}

// CountByPot counts the pot's participations
func (r *ParticipationRepository) CountByPot(ctx context.Context, potID uuid.UUID) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM participations WHERE pot_id = $1`, potID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return count, nil
}

// CountByPots counts participations for several pots at once. Pots without
// participations are absent from the map.
func (r *ParticipationRepository) CountByPots(ctx context.Context, potIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	counts := make(map[uuid.UUID]int, len(potIDs))
	if len(potIDs) == 0 {
		return counts, nil
	}

	query := `
		SELECT pot_id, COUNT(*)
		FROM participations
		WHERE pot_id = ANY($1::uuid[])
		GROUP BY pot_id
	`

	ids := make([]string, 0, len(potIDs))
	for _, id := range potIDs {
		ids = append(ids, id.String())
	}

	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count participations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var potID uuid.UUID
		var count int
		if err := rows.Scan(&potID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan participation count: %w", err)
		}
		counts[potID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participation counts: %w", err)
	}

	return counts, nil
}
