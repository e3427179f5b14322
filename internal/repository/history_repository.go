package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/errors"
)

// HistoryRepository appends and reads the immutable call history ledger.
// Transition appends happen inside the ClientRepository transactions; this
// repository covers standalone appends, the audit reads and the
// administrative purge. The purge deletes audit rows only and never
// touches client ownership or status, so in-flight assignments are
// unaffected by it.
type HistoryRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *database.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts one ledger entry.
func (r *HistoryRepository) Append(ctx context.Context, entry *HistoryEntry) error {
	query := `
		INSERT INTO call_history (client_id, worker_id, call_status, notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, occurred_at
	`

	err := r.db.QueryRow(ctx, query,
		entry.ClientID,
		entry.WorkerID,
		string(entry.Status),
		entry.Notes,
	).Scan(&entry.ID, &entry.OccurredAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append history entry")
	}
	return nil
}

// ListByClient returns a client's history, newest first.
func (r *HistoryRepository) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*HistoryEntry, error) {
	query := `
		SELECT id, client_id, worker_id, call_status, notes, occurred_at
		FROM call_history
		WHERE client_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryEntries(ctx, query, clientID, limit, offset)
}

// ListByWorker returns a worker's history, newest first, optionally
// restricted to one status.
func (r *HistoryRepository) ListByWorker(ctx context.Context, workerID int64, status *Status, limit, offset int) ([]*HistoryEntry, error) {
	query := `
		SELECT id, client_id, worker_id, call_status, notes, occurred_at
		FROM call_history
		WHERE worker_id = $1
	`
	args := []any{workerID}

	if status != nil {
		args = append(args, string(*status))
		query += fmt.Sprintf(" AND call_status = $%d", len(args))
	}

	args = append(args, limit, offset)
	query += fmt.Sprintf(" ORDER BY occurred_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return r.queryEntries(ctx, query, args...)
}

// LastTransfer returns the most recent transfer entry for a client, or
// (nil, nil) when the client was never transferred.
func (r *HistoryRepository) LastTransfer(ctx context.Context, clientID int64) (*HistoryEntry, error) {
	query := `
		SELECT id, client_id, worker_id, call_status, notes, occurred_at
		FROM call_history
		WHERE client_id = $1 AND call_status = $2
		ORDER BY occurred_at DESC
		LIMIT 1
	`

	entry, err := scanHistoryEntry(r.db.QueryRow(ctx, query, clientID, string(StatusTransfer)))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get last transfer")
	}
	return entry, nil
}

// ── Purge ────────────────────────────────────────────────────────────────────

// PurgeKind selects the purge window.
type PurgeKind string

const (
	PurgeDay    PurgeKind = "day"
	PurgePeriod PurgeKind = "period"
	PurgeAll    PurgeKind = "all"
)

// PurgeScope bounds an administrative history purge by occurrence time.
type PurgeScope struct {
	Kind  PurgeKind
	Day   time.Time // PurgeDay
	Start time.Time // PurgePeriod
	End   time.Time // PurgePeriod
}

// Purge bulk-deletes ledger rows in the given window and returns the
// number of rows removed.
func (r *HistoryRepository) Purge(ctx context.Context, scope PurgeScope) (int64, error) {
	var (
		query string
		args  []any
	)

	switch scope.Kind {
	case PurgeDay:
		query = "DELETE FROM call_history WHERE DATE(occurred_at) = DATE($1)"
		args = []any{scope.Day}
	case PurgePeriod:
		query = "DELETE FROM call_history WHERE occurred_at::date BETWEEN DATE($1) AND DATE($2)"
		args = []any{scope.Start, scope.End}
	case PurgeAll:
		query = "DELETE FROM call_history"
	default:
		return 0, errors.InvalidInput("scope", "must be day, period or all")
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to purge history")
	}
	return tag.RowsAffected(), nil
}

// ── scan helpers ─────────────────────────────────────────────────────────────

func scanHistoryEntry(sc clientScanner) (*HistoryEntry, error) {
	entry := &HistoryEntry{}
	var status string

	err := sc.Scan(
		&entry.ID,
		&entry.ClientID,
		&entry.WorkerID,
		&status,
		&entry.Notes,
		&entry.OccurredAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Status = Status(status)
	return entry, nil
}

func (r *HistoryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*HistoryEntry, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list history")
	}
	defer rows.Close()

	entries := make([]*HistoryEntry, 0)
	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan history entry")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
