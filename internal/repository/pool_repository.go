package repository

import (
	"context"

	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/errors"
)

// PoolRepository handles the pool registry (imported client datasets).
type PoolRepository struct {
	db *database.DB
}

// NewPoolRepository creates a new PoolRepository.
func NewPoolRepository(db *database.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

// Create registers a pool.
func (r *PoolRepository) Create(ctx context.Context, pool *Pool) error {
	query := `
		INSERT INTO pools (name, is_wiki)
		VALUES ($1, $2)
		RETURNING id, is_active, created_at
	`
	err := r.db.QueryRow(ctx, query, pool.Name, pool.IsWiki).
		Scan(&pool.ID, &pool.IsActive, &pool.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create pool")
	}
	return nil
}

// List returns every pool, newest first.
func (r *PoolRepository) List(ctx context.Context) ([]*Pool, error) {
	query := `
		SELECT id, name, is_wiki, is_active, created_at
		FROM pools
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list pools")
	}
	defer rows.Close()

	pools := make([]*Pool, 0)
	for rows.Next() {
		pool := &Pool{}
		if err := rows.Scan(&pool.ID, &pool.Name, &pool.IsWiki, &pool.IsActive, &pool.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan pool")
		}
		pools = append(pools, pool)
	}
	return pools, nil
}

// ExistingIDs returns which of the given pool ids exist.
func (r *PoolRepository) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return r.selectIDs(ctx, "SELECT id FROM pools WHERE id = ANY($1::bigint[])", ids)
}

// WikiIDs returns the subset of the given pool ids that are wiki pools.
func (r *PoolRepository) WikiIDs(ctx context.Context, ids []int64) ([]int64, error) {
	return r.selectIDs(ctx, "SELECT id FROM pools WHERE id = ANY($1::bigint[]) AND is_wiki = TRUE", ids)
}

func (r *PoolRepository) selectIDs(ctx context.Context, query string, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to select pool ids")
	}
	defer rows.Close()

	out := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan pool id")
		}
		out = append(out, id)
	}
	return out, nil
}
