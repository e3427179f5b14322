package service

import (
	"context"
	"time"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// historyStore is the slice of HistoryRepository the audit path needs.
type historyStore interface {
	ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*repository.HistoryEntry, error)
	ListByWorker(ctx context.Context, workerID int64, status *repository.Status, limit, offset int) ([]*repository.HistoryEntry, error)
	LastTransfer(ctx context.Context, clientID int64) (*repository.HistoryEntry, error)
	Purge(ctx context.Context, scope repository.PurgeScope) (int64, error)
}

// noteStore reads free-form client notes.
type noteStore interface {
	ListByClient(ctx context.Context, clientID int64) ([]*repository.Note, error)
}

// HistoryService exposes the call history ledger and its administrative
// purge. The ledger is append-only; nothing here ever edits an entry.
type HistoryService struct {
	history historyStore
	notes   noteStore
	log     *logger.Logger
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(history historyStore, notes noteStore, log *logger.Logger) *HistoryService {
	return &HistoryService{history: history, notes: notes, log: log}
}

// ListByClient returns a client's history, newest first.
func (s *HistoryService) ListByClient(ctx context.Context, clientID int64, limit, offset int) ([]*repository.HistoryEntry, error) {
	limit, offset = clampPage(limit, offset)
	return s.history.ListByClient(ctx, clientID, limit, offset)
}

// ListByWorker returns a worker's history, newest first, optionally
// restricted to one status.
func (s *HistoryService) ListByWorker(ctx context.Context, workerID int64, status *repository.Status, limit, offset int) ([]*repository.HistoryEntry, error) {
	limit, offset = clampPage(limit, offset)
	return s.history.ListByWorker(ctx, workerID, status, limit, offset)
}

// LastTransfer returns the most recent transfer entry for a client, or
// (nil, nil) when the client was never transferred.
func (s *HistoryService) LastTransfer(ctx context.Context, clientID int64) (*repository.HistoryEntry, error) {
	return s.history.LastTransfer(ctx, clientID)
}

// ListNotes returns a client's free-form notes, newest first.
func (s *HistoryService) ListNotes(ctx context.Context, clientID int64) ([]*repository.Note, error) {
	return s.notes.ListByClient(ctx, clientID)
}

// Purge bulk-deletes ledger rows in the given window. Only privileged
// callers reach this; the handler enforces the role.
func (s *HistoryService) Purge(ctx context.Context, scope repository.PurgeScope) (int64, error) {
	if err := validatePurgeScope(scope); err != nil {
		return 0, err
	}

	removed, err := s.history.Purge(ctx, scope)
	if err != nil {
		return 0, err
	}

	s.log.Info().
		Str("kind", string(scope.Kind)).
		Int64("removed", removed).
		Msg("Call history purged")
	return removed, nil
}

func validatePurgeScope(scope repository.PurgeScope) error {
	switch scope.Kind {
	case repository.PurgeDay:
		if scope.Day.IsZero() {
			return errors.InvalidInput("day", "a day is required")
		}
	case repository.PurgePeriod:
		if scope.Start.IsZero() || scope.End.IsZero() {
			return errors.InvalidInput("period", "a start and end day are required")
		}
		if scope.End.Before(scope.Start) {
			return errors.InvalidInput("period", "end must not precede start")
		}
	case repository.PurgeAll:
	default:
		return errors.InvalidInput("kind", "must be day, period or all")
	}
	return nil
}

// ParsePurgeScope builds a purge scope from request parameters. Dates
// use the YYYY-MM-DD form.
func ParsePurgeScope(kind, day, start, end string) (repository.PurgeScope, error) {
	scope := repository.PurgeScope{Kind: repository.PurgeKind(kind)}

	parse := func(field, v string) (time.Time, error) {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return time.Time{}, errors.InvalidInput(field, "must be a YYYY-MM-DD date")
		}
		return t, nil
	}

	var err error
	switch scope.Kind {
	case repository.PurgeDay:
		if day == "" {
			return scope, errors.InvalidInput("day", "a day is required")
		}
		if scope.Day, err = parse("day", day); err != nil {
			return scope, err
		}
	case repository.PurgePeriod:
		if start == "" || end == "" {
			return scope, errors.InvalidInput("period", "a start and end day are required")
		}
		if scope.Start, err = parse("start", start); err != nil {
			return scope, err
		}
		if scope.End, err = parse("end", end); err != nil {
			return scope, err
		}
	case repository.PurgeAll:
	default:
		return scope, errors.InvalidInput("kind", "must be day, period or all")
	}
	return scope, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
