package service

import (
	"context"
	"strings"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

// clientReader is the slice of ClientRepository the read path needs.
type clientReader interface {
	GetByID(ctx context.Context, id int64) (*repository.Client, error)
	ListByAssignee(ctx context.Context, workerID int64, status *repository.Status) ([]*repository.Client, error)
	ListByStatus(ctx context.Context, workerID int64, status repository.Status, includeUnowned bool) ([]*repository.Client, error)
}

// noteWriter appends standalone notes.
type noteWriter interface {
	Add(ctx context.Context, note *repository.Note) error
}

// ClientService serves the worker-facing client views: the personal
// work queue, per-status listings and standalone notes.
type ClientService struct {
	clients clientReader
	notes   noteWriter
	log     *logger.Logger
}

// NewClientService creates a new ClientService.
func NewClientService(clients clientReader, notes noteWriter, log *logger.Logger) *ClientService {
	return &ClientService{clients: clients, notes: notes, log: log}
}

// Get returns one client.
func (s *ClientService) Get(ctx context.Context, id int64) (*repository.Client, error) {
	return s.clients.GetByID(ctx, id)
}

// MyClients returns the clients currently assigned to a worker,
// optionally restricted to one status.
func (s *ClientService) MyClients(ctx context.Context, workerID int64, status *repository.Status) ([]*repository.Client, error) {
	return s.clients.ListByAssignee(ctx, workerID, status)
}

// ByStatus returns the worker's view of one status bucket. Callback and
// transfer buckets include rows assigned to the worker only; privileged
// callers additionally see unowned rows.
func (s *ClientService) ByStatus(ctx context.Context, workerID int64, role Role, status repository.Status) ([]*repository.Client, error) {
	if status == "" {
		return nil, errors.InvalidInput("status", "a call status is required")
	}
	return s.clients.ListByStatus(ctx, workerID, status, role == RolePrivileged)
}

// AddNote appends a free-form note to a client without touching its
// status or ownership.
func (s *ClientService) AddNote(ctx context.Context, clientID, workerID int64, text string) (*repository.Note, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.InvalidInput("note", "a note text is required")
	}

	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	note := &repository.Note{
		ClientID: clientID,
		WorkerID: &workerID,
		Text:     text,
	}
	if err := s.notes.Add(ctx, note); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("client_id", clientID).
		Int64("worker_id", workerID).
		Msg("Note added")
	return note, nil
}
