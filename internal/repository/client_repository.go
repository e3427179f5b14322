package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/errors"
)

// clientColumns is the canonical SELECT / RETURNING column list.
const clientColumns = `id, pool_id, is_wiki, assigned_to, call_status, return_priority,
	       callback_at, callback_notes,
	       transferred_to, transferred_notes, transferred_at,
	       full_name, company_name, phone, email, region,
	       is_active, created_at, updated_at`

// ClientRepository handles client (work item) data operations, including
// the atomic claim and every status transition. Each mutating method is a
// single transaction: at most one clients row update plus append-only
// inserts, acquired in that order, so no lock-ordering cycle is possible.
type ClientRepository struct {
	db *database.DB
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(db *database.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// ── Claim ────────────────────────────────────────────────────────────────────

// ClaimNext selects one eligible row with FOR UPDATE SKIP LOCKED and
// conditionally takes ownership of it. Returns (nil, nil) when no row is
// eligible: concurrent claimers skip each other's locked candidates
// instead of serializing, so two simultaneous callers never receive the
// same client. A zero-row conditional update is treated as "no item", not
// an error.
func (r *ClientRepository) ClaimNext(ctx context.Context, spec ClaimSpec) (*Client, error) {
	where, args := buildClaimWhere(spec)

	orderBy := "return_priority DESC, created_at ASC"
	if spec.Order == OrderRecency {
		orderBy = "return_priority DESC, updated_at DESC, created_at ASC"
	}

	selectSQL := fmt.Sprintf(`
		SELECT id
		FROM clients
		WHERE %s
		ORDER BY %s
		FOR UPDATE SKIP LOCKED
		LIMIT 1
	`, where, orderBy)

	var claimed *Client
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		var candidateID int64
		err := tx.QueryRow(ctx, selectSQL, args...).Scan(&candidateID)
		if err == pgx.ErrNoRows {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to select claim candidate")
		}

		owners := spec.Owners
		if len(owners) == 0 {
			owners = []int64{spec.WorkerID}
		}

		updateSQL := fmt.Sprintf(`
			UPDATE clients
			SET assigned_to = COALESCE(assigned_to, $1), updated_at = NOW()
			WHERE id = $2 AND (assigned_to IS NULL OR assigned_to = ANY($3::bigint[]))
			RETURNING %s
		`, clientColumns)

		client, err := scanClient(tx.QueryRow(ctx, updateSQL, spec.WorkerID, candidateID, owners))
		if err == pgx.ErrNoRows {
			// A race slipped a claim in despite the row lock; defensive.
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to claim client")
		}
		claimed = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// buildClaimWhere translates a ClaimSpec into a WHERE clause. The
// StatusNew→NULL expansion already happened in the resolver; this is a
// mechanical translation.
func buildClaimWhere(spec ClaimSpec) (string, []any) {
	conds := []string{"is_active = TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(spec.PoolIDs) > 0 {
		conds = append(conds, fmt.Sprintf("pool_id = ANY(%s::bigint[])", arg(spec.PoolIDs)))
	}
	if spec.WikiOnly {
		conds = append(conds, "is_wiki = TRUE")
	}

	if !spec.AnyStatus {
		var parts []string
		if spec.IncludeNew {
			parts = append(parts, "call_status IS NULL")
		}
		if len(spec.Statuses) > 0 {
			parts = append(parts, fmt.Sprintf("call_status = ANY(%s::varchar[])", arg(statusStrings(spec.Statuses))))
		}
		if len(parts) > 0 {
			conds = append(conds, "("+strings.Join(parts, " OR ")+")")
		}
	}

	owners := spec.Owners
	if len(owners) == 0 {
		owners = []int64{spec.WorkerID}
	}
	conds = append(conds, fmt.Sprintf("(assigned_to IS NULL OR assigned_to = ANY(%s::bigint[]))", arg(owners)))

	// History exclusion applies to re-offers only: a worker's own claimed
	// rows stay claimable even after that worker has contacted them.
	if spec.ExcludeContactedBy != nil {
		p := arg(*spec.ExcludeContactedBy)
		conds = append(conds, fmt.Sprintf(`(assigned_to = %s OR NOT EXISTS (
			SELECT 1 FROM call_history ch
			WHERE ch.client_id = clients.id AND ch.worker_id = %s
		))`, p, p))
	}

	return strings.Join(conds, " AND "), args
}

func statusStrings(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// ── Reads ────────────────────────────────────────────────────────────────────

// GetByID retrieves a client by primary key.
func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*Client, error) {
	query := fmt.Sprintf("SELECT %s FROM clients WHERE id = $1", clientColumns)

	client, err := scanClient(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("client", fmt.Sprint(id))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get client")
	}
	return client, nil
}

// ListByAssignee returns the clients currently owned by a worker, newest
// first, optionally restricted to one status.
func (r *ClientRepository) ListByAssignee(ctx context.Context, workerID int64, status *Status) ([]*Client, error) {
	query := fmt.Sprintf("SELECT %s FROM clients WHERE assigned_to = $1", clientColumns)
	args := []any{workerID}

	if status != nil {
		if *status == StatusNew {
			query += " AND call_status IS NULL"
		} else {
			query += " AND call_status = $2"
			args = append(args, string(*status))
		}
	}
	query += " ORDER BY created_at DESC"

	return r.queryClients(ctx, query, args...)
}

// ListByStatus returns clients in a given status. With includeUnowned
// (privileged view) unassigned clients are included alongside the
// worker's own.
func (r *ClientRepository) ListByStatus(ctx context.Context, workerID int64, status Status, includeUnowned bool) ([]*Client, error) {
	owner := "assigned_to = $1"
	if includeUnowned {
		owner = "(assigned_to = $1 OR assigned_to IS NULL)"
	}

	statusCond := "call_status = $2"
	args := []any{workerID, string(status)}
	if status == StatusNew {
		statusCond = "call_status IS NULL"
		args = args[:1]
	}

	query := fmt.Sprintf("SELECT %s FROM clients WHERE %s AND %s ORDER BY updated_at DESC",
		clientColumns, owner, statusCond)

	return r.queryClients(ctx, query, args...)
}

// ── Status transitions ───────────────────────────────────────────────────────
//
// Every transition below follows the same compare-and-conditionally-write
// pattern as the claim: the UPDATE is guarded by
// (assigned_to IS NULL OR assigned_to = caller) unless the caller is
// privileged, and a zero-row result is an ownership conflict. The history
// append rides in the same transaction.

// UpdateStatus applies a simple outcome status.
func (r *ClientRepository) UpdateStatus(ctx context.Context, clientID, workerID int64, status Status, notes *string, privileged bool) (*Client, error) {
	var updated *Client
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE clients
			SET call_status = $1,
			    assigned_to = COALESCE(assigned_to, $3),
			    updated_at = NOW()
			WHERE id = $2%s
			RETURNING %s
		`, ownershipGuard(privileged, "$3"), clientColumns)

		client, err := scanClient(tx.QueryRow(ctx, query, statusToDB(status), clientID, workerID))
		if err == pgx.ErrNoRows {
			return errors.Conflict("client is already claimed by another worker")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to update client status")
		}

		if err := appendHistoryTx(ctx, tx, clientID, &workerID, status, notes); err != nil {
			return err
		}
		if err := addNoteTx(ctx, tx, clientID, &workerID, notes); err != nil {
			return err
		}
		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetCallback schedules a callback. The callback timestamp is validated in
// the service layer before any mutation.
func (r *ClientRepository) SetCallback(ctx context.Context, clientID, workerID int64, callbackAt time.Time, notes *string, privileged bool) (*Client, error) {
	var updated *Client
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE clients
			SET call_status = $1,
			    callback_at = $2,
			    callback_notes = $3,
			    assigned_to = COALESCE(assigned_to, $5),
			    updated_at = NOW()
			WHERE id = $4%s
			RETURNING %s
		`, ownershipGuard(privileged, "$5"), clientColumns)

		client, err := scanClient(tx.QueryRow(ctx, query,
			statusToDB(StatusCallback), callbackAt, notes, clientID, workerID))
		if err == pgx.ErrNoRows {
			return errors.Conflict("client is already claimed by another worker")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to set callback")
		}

		if err := appendHistoryTx(ctx, tx, clientID, &workerID, StatusCallback, notes); err != nil {
			return err
		}
		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Transfer reassigns a client to another worker unconditionally. Transfer
// is the one operation whose purpose is to override ownership, so it
// carries no ownership guard. History is authored by the transferring
// worker.
func (r *ClientRepository) Transfer(ctx context.Context, clientID, fromWorkerID, toWorkerID int64, notes *string) (*Client, error) {
	var updated *Client
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE clients
			SET assigned_to = $1,
			    call_status = $2,
			    transferred_to = $1,
			    transferred_notes = $3,
			    transferred_at = NOW(),
			    updated_at = NOW()
			WHERE id = $4
			RETURNING %s
		`, clientColumns)

		client, err := scanClient(tx.QueryRow(ctx, query,
			toWorkerID, statusToDB(StatusTransfer), notes, clientID))
		if err == pgx.ErrNoRows {
			return errors.NotFound("client", fmt.Sprint(clientID))
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to transfer client")
		}

		if err := appendHistoryTx(ctx, tx, clientID, &fromWorkerID, StatusTransfer, notes); err != nil {
			return err
		}
		if err := addNoteTx(ctx, tx, clientID, &fromWorkerID, notes); err != nil {
			return err
		}
		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ReturnToWork re-queues a client: all lifecycle payload is cleared and
// the priority flag is raised so the next claim offers it first. This is
// the only operation that moves a client backward in the lifecycle.
func (r *ClientRepository) ReturnToWork(ctx context.Context, clientID, workerID int64, privileged bool) (*Client, error) {
	var updated *Client
	err := r.db.InTransaction(ctx, func(tx pgx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE clients
			SET call_status = NULL,
			    callback_at = NULL,
			    callback_notes = NULL,
			    transferred_to = NULL,
			    transferred_notes = NULL,
			    return_priority = TRUE,
			    assigned_to = COALESCE(assigned_to, $2),
			    updated_at = NOW()
			WHERE id = $1%s
			RETURNING %s
		`, ownershipGuard(privileged, "$2"), clientColumns)

		client, err := scanClient(tx.QueryRow(ctx, query, clientID, workerID))
		if err == pgx.ErrNoRows {
			return errors.Conflict("client is already claimed by another worker")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to return client to work")
		}

		returned := "returned to work"
		if err := appendHistoryTx(ctx, tx, clientID, &workerID, StatusNew, &returned); err != nil {
			return err
		}
		updated = client
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ClearProfileSection clears one section's fields and resets the status,
// touching neither ownership nor history.
func (r *ClientRepository) ClearProfileSection(ctx context.Context, clientID int64, section ProfileSection) (*Client, error) {
	var reset string
	switch section {
	case SectionCallback:
		reset = "callback_at = NULL, callback_notes = NULL, call_status = NULL"
	case SectionTransfer:
		reset = "transferred_to = NULL, transferred_notes = NULL, call_status = NULL"
	default:
		return nil, errors.InvalidInput("section", "must be callback or transfer")
	}

	query := fmt.Sprintf(`
		UPDATE clients
		SET %s, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, reset, clientColumns)

	client, err := scanClient(r.db.QueryRow(ctx, query, clientID))
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("client", fmt.Sprint(clientID))
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to clear profile section")
	}
	return client, nil
}

// ownershipGuard returns the conditional-write clause for non-privileged
// callers. workerParam is the placeholder already bound to the caller id.
func ownershipGuard(privileged bool, workerParam string) string {
	if privileged {
		return ""
	}
	return fmt.Sprintf(" AND (assigned_to IS NULL OR assigned_to = %s)", workerParam)
}

// ── Shared transactional inserts ─────────────────────────────────────────────

func appendHistoryTx(ctx context.Context, tx pgx.Tx, clientID int64, workerID *int64, status Status, notes *string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO call_history (client_id, worker_id, call_status, notes)
		VALUES ($1, $2, $3, $4)
	`, clientID, workerID, string(status), notes)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to append call history")
	}
	return nil
}

func addNoteTx(ctx context.Context, tx pgx.Tx, clientID int64, workerID *int64, notes *string) error {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO client_notes (client_id, worker_id, note_text)
		VALUES ($1, $2, $3)
	`, clientID, workerID, strings.TrimSpace(*notes))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to add client note")
	}
	return nil
}

// ── scan helpers ─────────────────────────────────────────────────────────────

type clientScanner interface {
	Scan(dest ...any) error
}

func scanClient(sc clientScanner) (*Client, error) {
	client := &Client{}
	var status *string

	err := sc.Scan(
		&client.ID,
		&client.PoolID,
		&client.IsWiki,
		&client.AssignedTo,
		&status,
		&client.ReturnPriority,
		&client.CallbackAt,
		&client.CallbackNotes,
		&client.TransferredTo,
		&client.TransferredNotes,
		&client.TransferredAt,
		&client.FullName,
		&client.CompanyName,
		&client.Phone,
		&client.Email,
		&client.Region,
		&client.IsActive,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	client.Status = statusFromDB(status)
	return client, nil
}

func (r *ClientRepository) queryClients(ctx context.Context, query string, args ...any) ([]*Client, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list clients")
	}
	defer rows.Close()

	clients := make([]*Client, 0)
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan client")
		}
		clients = append(clients, client)
	}
	return clients, nil
}
