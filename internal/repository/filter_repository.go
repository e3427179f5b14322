package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/errors"
)

const filterColumns = `id, name, pool_ids, worker_ids, statuses, created_by, is_active, created_at, updated_at`

// FilterRepository handles CRUD and resolution reads for call_filters.
type FilterRepository struct {
	db *database.DB
}

// NewFilterRepository creates a new FilterRepository.
func NewFilterRepository(db *database.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

// Create inserts a new filter.
func (r *FilterRepository) Create(ctx context.Context, filter *CallFilter) error {
	query := `
		INSERT INTO call_filters (name, pool_ids, worker_ids, statuses, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, updated_at
	`

	return r.db.QueryRow(ctx, query,
		filter.Name,
		filter.PoolIDs,
		filter.WorkerIDs,
		statusesToDB(filter.Statuses),
		filter.CreatedBy,
	).Scan(&filter.ID, &filter.IsActive, &filter.CreatedAt, &filter.UpdatedAt)
}

// Update persists changes to an existing filter.
func (r *FilterRepository) Update(ctx context.Context, filter *CallFilter) error {
	query := `
		UPDATE call_filters
		SET name = $2, pool_ids = $3, worker_ids = $4, statuses = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(ctx, query,
		filter.ID,
		filter.Name,
		filter.PoolIDs,
		filter.WorkerIDs,
		statusesToDB(filter.Statuses),
	).Scan(&filter.UpdatedAt)

	if err == pgx.ErrNoRows {
		return errors.NotFound("filter", fmt.Sprint(filter.ID))
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to update filter")
	}
	return nil
}

// Toggle flips a filter's active flag. Deactivation takes effect for the
// very next claim attempt: resolution always reads current rows.
func (r *FilterRepository) Toggle(ctx context.Context, id int64, active bool) (*CallFilter, error) {
	query := fmt.Sprintf(`
		UPDATE call_filters
		SET is_active = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, filterColumns)

	filter, err := scanFilter(r.db.QueryRow(ctx, query, id, active))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("filter", fmt.Sprint(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to toggle filter")
	}
	return filter, nil
}

// Delete removes a filter permanently.
func (r *FilterRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM call_filters WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to delete filter")
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("filter", fmt.Sprint(id))
	}
	return nil
}

// GetByID retrieves an active filter by primary key.
func (r *FilterRepository) GetByID(ctx context.Context, id int64) (*CallFilter, error) {
	query := fmt.Sprintf("SELECT %s FROM call_filters WHERE id = $1 AND is_active = TRUE", filterColumns)

	filter, err := scanFilter(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("filter", fmt.Sprint(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get filter")
	}
	return filter, nil
}

// GetActiveForWorker resolves the filter that governs a worker's claims.
// When several active filters target the same worker the newest one wins;
// returns (nil, nil) when no active filter matches.
func (r *FilterRepository) GetActiveForWorker(ctx context.Context, workerID int64) (*CallFilter, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM call_filters
		WHERE is_active = TRUE
		  AND (worker_ids IS NULL OR $1 = ANY(worker_ids))
		ORDER BY created_at DESC
		LIMIT 1
	`, filterColumns)

	filter, err := scanFilter(r.db.QueryRow(ctx, query, workerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to resolve active filter")
	}
	return filter, nil
}

// List returns all filters, active first, newest first within each group.
func (r *FilterRepository) List(ctx context.Context) ([]*CallFilter, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM call_filters
		ORDER BY is_active DESC, created_at DESC
	`, filterColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list filters")
	}
	defer rows.Close()

	filters := make([]*CallFilter, 0)
	for rows.Next() {
		filter, err := scanFilter(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan filter")
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

// ── scan helpers ─────────────────────────────────────────────────────────────

func statusesToDB(statuses []Status) []string {
	if statuses == nil {
		return nil
	}
	return statusStrings(statuses)
}

func scanFilter(sc clientScanner) (*CallFilter, error) {
	filter := &CallFilter{}
	var statuses []string

	err := sc.Scan(
		&filter.ID,
		&filter.Name,
		&filter.PoolIDs,
		&filter.WorkerIDs,
		&statuses,
		&filter.CreatedBy,
		&filter.IsActive,
		&filter.CreatedAt,
		&filter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if statuses != nil {
		filter.Statuses = make([]Status, 0, len(statuses))
		for _, s := range statuses {
			filter.Statuses = append(filter.Statuses, Status(s))
		}
	}
	return filter, nil
}
