package service

import (
	"context"

	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

// clientClaimer is the slice of ClientRepository the assignment path needs.
type clientClaimer interface {
	ClaimNext(ctx context.Context, spec repository.ClaimSpec) (*repository.Client, error)
}

// filterResolver resolves eligibility filters.
type filterResolver interface {
	GetActiveForWorker(ctx context.Context, workerID int64) (*repository.CallFilter, error)
	GetByID(ctx context.Context, id int64) (*repository.CallFilter, error)
}

// poolReader answers wiki-pool membership questions.
type poolReader interface {
	WikiIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// EmptyReason explains an empty claim result. Empty results are normal
// outcomes, never errors; callers use the reason for user messaging.
type EmptyReason string

const (
	ReasonNoEligibleClients EmptyReason = "no_eligible_clients"
	ReasonNoActiveFilter    EmptyReason = "no_active_filter"
	ReasonNoWikiPools       EmptyReason = "no_wiki_pools_in_filter"
)

// ClaimResult is the outcome of one claim attempt. Client is nil when
// nothing was claimed, with Reason set.
type ClaimResult struct {
	Client *repository.Client
	Reason EmptyReason
}

// AssignmentService hands out the next eligible client to a requesting
// worker. Mutual exclusion is enforced by the repository's skip-locked
// claim transaction; this layer resolves which predicate applies.
type AssignmentService struct {
	clients clientClaimer
	filters filterResolver
	pools   poolReader
	log     *logger.Logger
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(clients clientClaimer, filters filterResolver, pools poolReader, log *logger.Logger) *AssignmentService {
	return &AssignmentService{clients: clients, filters: filters, pools: pools, log: log}
}

// ClaimNext claims the next eligible client for a worker. Privileged
// workers draw from the full unowned-or-self-owned pool; standard workers
// require an active matching filter and get a defined empty result when
// none is configured.
func (s *AssignmentService) ClaimNext(ctx context.Context, workerID int64, role Role) (*ClaimResult, error) {
	var spec repository.ClaimSpec

	if role == RolePrivileged {
		spec = privilegedSpec(workerID)
	} else {
		filter, err := s.filters.GetActiveForWorker(ctx, workerID)
		if err != nil {
			return nil, err
		}
		if filter == nil {
			return &ClaimResult{Reason: ReasonNoActiveFilter}, nil
		}
		spec = standardSpec(filter, workerID)
	}

	return s.claim(ctx, workerID, spec)
}

// ClaimNextForFilter claims against an explicitly chosen filter. Rows
// pre-claimed by any worker the filter targets remain eligible.
func (s *AssignmentService) ClaimNextForFilter(ctx context.Context, filterID, workerID int64, role Role) (*ClaimResult, error) {
	filter, err := s.filters.GetByID(ctx, filterID)
	if err != nil {
		return nil, err
	}
	return s.claim(ctx, workerID, filterSpec(filter, workerID))
}

// ClaimNextWiki claims the next eligible wiki-pool client. A standard
// worker's filter pools are intersected with wiki pools; a filter with no
// wiki pools is a defined empty result.
func (s *AssignmentService) ClaimNextWiki(ctx context.Context, workerID int64, role Role) (*ClaimResult, error) {
	if role == RolePrivileged {
		return s.claim(ctx, workerID, wikiSpec(workerID, nil, nil, true))
	}

	filter, err := s.filters.GetActiveForWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return &ClaimResult{Reason: ReasonNoActiveFilter}, nil
	}

	wikiPools, err := s.pools.WikiIDs(ctx, filter.PoolIDs)
	if err != nil {
		return nil, err
	}
	if len(wikiPools) == 0 {
		return &ClaimResult{Reason: ReasonNoWikiPools}, nil
	}

	return s.claim(ctx, workerID, wikiSpec(workerID, wikiPools, filter.Statuses, false))
}

func (s *AssignmentService) claim(ctx context.Context, workerID int64, spec repository.ClaimSpec) (*ClaimResult, error) {
	client, err := s.clients.ClaimNext(ctx, spec)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return &ClaimResult{Reason: ReasonNoEligibleClients}, nil
	}

	s.log.Info().
		Int64("client_id", client.ID).
		Int64("worker_id", workerID).
		Int64("pool_id", client.PoolID).
		Bool("return_priority", client.ReturnPriority).
		Msg("Client claimed")

	return &ClaimResult{Client: client}, nil
}
