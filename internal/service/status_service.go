package service

import (
	"context"
	"time"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

// clientMutator is the slice of ClientRepository the transition path needs.
type clientMutator interface {
	GetByID(ctx context.Context, id int64) (*repository.Client, error)
	UpdateStatus(ctx context.Context, clientID, workerID int64, status repository.Status, notes *string, privileged bool) (*repository.Client, error)
	SetCallback(ctx context.Context, clientID, workerID int64, callbackAt time.Time, notes *string, privileged bool) (*repository.Client, error)
	Transfer(ctx context.Context, clientID, fromWorkerID, toWorkerID int64, notes *string) (*repository.Client, error)
	ReturnToWork(ctx context.Context, clientID, workerID int64, privileged bool) (*repository.Client, error)
	ClearProfileSection(ctx context.Context, clientID int64, section repository.ProfileSection) (*repository.Client, error)
}

// identityClient resolves worker identities from the identity service.
type identityClient interface {
	// GetWorkerRole returns the role and active flag for a worker.
	GetWorkerRole(ctx context.Context, workerID int64) (role string, active bool, err error)
}

// transferNotifier delivers the "you were handed a client" signal.
// Implementations are fire-and-forget: they never return an error and
// never interrupt the transfer.
type transferNotifier interface {
	PublishTransfer(ctx context.Context, clientID, fromWorkerID, toWorkerID int64, clientLabel string)
}

// StatusService validates and applies status transitions on claimed
// clients. Every mutating operation except Transfer and
// ClearProfileSection is ownership-guarded by the repository's
// conditional update; a zero-row update surfaces as a conflict, never a
// silent success.
type StatusService struct {
	clients  clientMutator
	registry *StatusRegistry
	identity identityClient
	notifier transferNotifier
	log      *logger.Logger
}

// NewStatusService creates a new StatusService.
func NewStatusService(clients clientMutator, registry *StatusRegistry, identity identityClient, notifier transferNotifier, log *logger.Logger) *StatusService {
	return &StatusService{
		clients:  clients,
		registry: registry,
		identity: identity,
		notifier: notifier,
		log:      log,
	}
}

// SetSimpleStatus applies one of the registered simple outcome statuses.
func (s *StatusService) SetSimpleStatus(ctx context.Context, clientID, workerID int64, role Role, status repository.Status, notes *string) (*repository.Client, error) {
	switch status {
	case "", repository.StatusNew:
		return nil, errors.InvalidInput("status", "a call status is required")
	case repository.StatusCallback, repository.StatusTransfer:
		return nil, errors.InvalidInput("status", "callback and transfer have dedicated operations")
	}
	if !s.registry.IsAllowed(ctx, status) {
		return nil, errors.InvalidInput("status", "unknown call status")
	}

	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	client, err := s.clients.UpdateStatus(ctx, clientID, workerID, status, notes, role == RolePrivileged)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("client_id", clientID).
		Int64("worker_id", workerID).
		Str("status", string(status)).
		Msg("Client status updated")
	return client, nil
}

// ScheduleCallback marks a client for a later call at the given time.
func (s *StatusService) ScheduleCallback(ctx context.Context, clientID, workerID int64, role Role, callbackAt time.Time, notes *string) (*repository.Client, error) {
	if callbackAt.IsZero() {
		return nil, errors.InvalidInput("callback_at", "a callback time is required")
	}

	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	client, err := s.clients.SetCallback(ctx, clientID, workerID, callbackAt, notes, role == RolePrivileged)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("client_id", clientID).
		Int64("worker_id", workerID).
		Time("callback_at", callbackAt).
		Msg("Callback scheduled")
	return client, nil
}

// Transfer hands a client to another worker. Unlike the other
// transitions, transfer deliberately overrides current ownership. The
// notification toward the target is best-effort and never rolls the
// transfer back.
func (s *StatusService) Transfer(ctx context.Context, clientID, fromWorkerID, toWorkerID int64, notes *string) (*repository.Client, error) {
	if toWorkerID <= 0 {
		return nil, errors.InvalidInput("to_worker_id", "a target worker is required")
	}

	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	targetRole, active, err := s.identity.GetWorkerRole(ctx, toWorkerID)
	if err != nil {
		return nil, err
	}
	if Role(targetRole) != RoleStandard || !active {
		return nil, errors.InvalidInput("to_worker_id", "target must be an active manager")
	}

	client, err := s.clients.Transfer(ctx, clientID, fromWorkerID, toWorkerID, notes)
	if err != nil {
		return nil, err
	}

	s.notifier.PublishTransfer(ctx, clientID, fromWorkerID, toWorkerID, clientLabel(client))

	s.log.Info().
		Int64("client_id", clientID).
		Int64("from_worker_id", fromWorkerID).
		Int64("to_worker_id", toWorkerID).
		Msg("Client transferred")
	return client, nil
}

// ReturnToWork re-queues a client with elevated priority.
func (s *StatusService) ReturnToWork(ctx context.Context, clientID, workerID int64, role Role) (*repository.Client, error) {
	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return nil, err
	}

	client, err := s.clients.ReturnToWork(ctx, clientID, workerID, role == RolePrivileged)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("client_id", clientID).
		Int64("worker_id", workerID).
		Msg("Client returned to work")
	return client, nil
}

// ClearProfileSection dismisses a stale callback or transfer entry from a
// worker's view without re-queuing the client.
func (s *StatusService) ClearProfileSection(ctx context.Context, clientID int64, section repository.ProfileSection) (*repository.Client, error) {
	if section != repository.SectionCallback && section != repository.SectionTransfer {
		return nil, errors.InvalidInput("section", "must be callback or transfer")
	}
	return s.clients.ClearProfileSection(ctx, clientID, section)
}

// clientLabel is the display name used in transfer notifications.
func clientLabel(c *repository.Client) string {
	if c.FullName != nil && *c.FullName != "" {
		return *c.FullName
	}
	if c.CompanyName != nil && *c.CompanyName != "" {
		return *c.CompanyName
	}
	return ""
}
