package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cagnotte/database"
	"cagnotte/domain"
	"cagnotte/domain/entities"
	"cagnotte/domain/interfaces"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

const potColumns = `
	id, creator_id, title, purpose, description, entry_price, usage_type,
	is_public, access_token, deadline, status, winner_id, created_at
`

// PotRepository implements pot data access on PostgreSQL
type PotRepository struct {
	q Queryable
}

// NewPotRepository creates a pot repository running on the pool
func NewPotRepository(db *database.DB) *PotRepository {
	return &PotRepository{q: db.Pool}
}

// NewPotRepositoryWithTx creates a pot repository bound to a transaction
func NewPotRepositoryWithTx(tx Queryable) interfaces.PotRepository {
	return &PotRepository{q: tx}
}

// Create inserts a new pot. The caller supplies the ID and timestamps.
func (r *PotRepository) Create(ctx context.Context, pot *entities.Pot) error {
	query := `
		INSERT INTO pots (
			id, creator_id, title, purpose, description, entry_price, usage_type,
			is_public, access_token, deadline, status, winner_id, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.q.Exec(ctx, query,
		pot.ID,
		pot.CreatorID,
		pot.Title,
		pot.Purpose,
		pot.Description,
		pot.EntryPrice,
		pot.UsageType,
		pot.IsPublic,
		pot.AccessToken,
		pot.Deadline,
		pot.Status,
		pot.WinnerID,
		pot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pot: %w", err)
	}

	return nil
}

// GetByID retrieves a pot by its ID
func (r *PotRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Pot, error) {
	query := `SELECT ` + potColumns + ` FROM pots WHERE id = $1`

	pot, err := scanPot(r.q.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return pot, nil
}

// CompleteIfOpen marks the pot completed with its winner in a single
// conditional update
func (r *PotRepository) CompleteIfOpen(ctx context.Context, id uuid.UUID, winnerID uuid.UUID) (bool, error) {
	query := `
		UPDATE pots
		SET status = 'completed', winner_id = $2
		WHERE id = $1 AND status = 'open'
	`

	tag, err := r.q.Exec(ctx, query, id, winnerID)
	if err != nil {
		return false, fmt.Errorf("failed to complete pot: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MakePublicIfPrivate flips a private pot to public and drops its token
func (r *PotRepository) MakePublicIfPrivate(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE pots
		SET is_public = TRUE, access_token = NULL
		WHERE id = $1 AND is_public = FALSE
	`

	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to make pot public: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Query lists pots matching filter
func (r *PotRepository) Query(ctx context.Context, filter entities.PotFilter) ([]*entities.Pot, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.CreatorID != nil {
		conditions = append(conditions, "creator_id = "+arg(*filter.CreatorID))
	}
	if filter.VisibleTo != nil {
		conditions = append(conditions, "(is_public OR creator_id = "+arg(*filter.VisibleTo)+")")
	}
	if filter.OnlyPublic {
		conditions = append(conditions, "is_public")
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = "+arg(*filter.Status))
	}
	if filter.DeadlineAfter != nil {
		conditions = append(conditions, "deadline > "+arg(*filter.DeadlineAfter))
	}
	if filter.DeadlineAtOrBefore != nil {
		conditions = append(conditions, "deadline <= "+arg(*filter.DeadlineAtOrBefore))
	}

	query := `SELECT ` + potColumns + ` FROM pots`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch filter.Order {
	case entities.OrderDeadlineAsc:
		query += " ORDER BY deadline ASC, id"
	default:
		query += " ORDER BY created_at DESC, id"
	}

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pots: %w", err)
	}
	defer rows.Close()

	var pots []*entities.Pot
	for rows.Next() {
		pot, err := scanPot(rows)
		if err != nil {
			return nil, err
		}
		pots = append(pots, pot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pots: %w", err)
	}

	return pots, nil
}

// scanPot reads one pot row and rejects rows that break the pot invariants
func scanPot(row pgx.Row) (*entities.Pot, error) {
	var pot entities.Pot
	err := row.Scan(
		&pot.ID,
		&pot.CreatorID,
		&pot.Title,
		&pot.Purpose,
		&pot.Description,
		&pot.EntryPrice,
		&pot.UsageType,
		&pot.IsPublic,
		&pot.AccessToken,
		&pot.Deadline,
		&pot.Status,
		&pot.WinnerID,
		&pot.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pot: %w", err)
	}

	pot.Deadline = pot.Deadline.UTC()
	pot.CreatedAt = pot.CreatedAt.UTC()

	if err := pot.Validate(); err != nil {
		log.WithFields(log.Fields{
			"pot_id": pot.ID,
			"error":  err,
		}).Error("Stored pot violates invariants")
		return nil, domain.ErrDataIntegrity.WithError(err)
	}

	return &pot, nil
}
