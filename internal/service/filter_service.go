package service

import (
	"context"
	"fmt"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

// filterStore is the slice of FilterRepository the filter CRUD path needs.
type filterStore interface {
	Create(ctx context.Context, filter *repository.CallFilter) error
	Update(ctx context.Context, filter *repository.CallFilter) error
	Toggle(ctx context.Context, id int64, active bool) (*repository.CallFilter, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*repository.CallFilter, error)
	List(ctx context.Context) ([]*repository.CallFilter, error)
}

// clientCounter counts clients for the filter workload columns.
type clientCounter interface {
	CountClients(ctx context.Context, spec repository.CountSpec) (int64, error)
}

// poolChecker verifies pool references against the registry.
type poolChecker interface {
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// FilterWithStats is a filter decorated with its workload counters.
type FilterWithStats struct {
	*repository.CallFilter
	Total     int64 `json:"total_clients"`
	Remaining int64 `json:"remaining_clients"`
	Processed int64 `json:"processed_clients"`
}

// FilterService manages claim filters and their workload reporting.
type FilterService struct {
	filters filterStore
	clients clientCounter
	pools   poolChecker
	log     *logger.Logger
}

// NewFilterService creates a new FilterService.
func NewFilterService(filters filterStore, clients clientCounter, pools poolChecker, log *logger.Logger) *FilterService {
	return &FilterService{
		filters: filters,
		clients: clients,
		pools:   pools,
		log:     log,
	}
}

// Create validates and persists a new filter. New filters are active
// immediately; a worker matched by one starts claiming under it on the
// next attempt.
func (s *FilterService) Create(ctx context.Context, filter *repository.CallFilter) error {
	if err := s.validate(ctx, filter); err != nil {
		return err
	}
	if err := s.filters.Create(ctx, filter); err != nil {
		return err
	}

	s.log.Info().
		Int64("filter_id", filter.ID).
		Str("name", filter.Name).
		Msg("Filter created")
	return nil
}

// Update replaces a filter's definition.
func (s *FilterService) Update(ctx context.Context, filter *repository.CallFilter) error {
	if filter.ID <= 0 {
		return errors.InvalidInput("id", "a filter id is required")
	}
	if err := s.validate(ctx, filter); err != nil {
		return err
	}
	return s.filters.Update(ctx, filter)
}

// Toggle activates or deactivates a filter.
func (s *FilterService) Toggle(ctx context.Context, id int64, active bool) (*repository.CallFilter, error) {
	filter, err := s.filters.Toggle(ctx, id, active)
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("filter_id", id).
		Bool("active", active).
		Msg("Filter toggled")
	return filter, nil
}

// Delete removes a filter permanently.
func (s *FilterService) Delete(ctx context.Context, id int64) error {
	return s.filters.Delete(ctx, id)
}

// Get returns one active filter.
func (s *FilterService) Get(ctx context.Context, id int64) (*repository.CallFilter, error) {
	return s.filters.GetByID(ctx, id)
}

// List returns all filters with their workload counters. Remaining is
// the count of clients the filter still matches, total is the count
// ignoring the status restriction, and processed is the difference.
func (s *FilterService) List(ctx context.Context) ([]*FilterWithStats, error) {
	filters, err := s.filters.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*FilterWithStats, 0, len(filters))
	for _, filter := range filters {
		anyStatus, includeNew, concrete := expandStatuses(filter.Statuses)

		total, err := s.clients.CountClients(ctx, repository.CountSpec{
			PoolIDs:   filter.PoolIDs,
			AnyStatus: true,
		})
		if err != nil {
			return nil, err
		}

		remaining := total
		if !anyStatus {
			remaining, err = s.clients.CountClients(ctx, repository.CountSpec{
				PoolIDs:    filter.PoolIDs,
				IncludeNew: includeNew,
				Statuses:   concrete,
			})
			if err != nil {
				return nil, err
			}
		}

		out = append(out, &FilterWithStats{
			CallFilter: filter,
			Total:      total,
			Remaining:  remaining,
			Processed:  total - remaining,
		})
	}
	return out, nil
}

// validate checks a filter definition against the pool registry.
func (s *FilterService) validate(ctx context.Context, filter *repository.CallFilter) error {
	if filter.Name == "" {
		return errors.InvalidInput("name", "a filter name is required")
	}
	if len(filter.PoolIDs) == 0 {
		return errors.InvalidInput("pool_ids", "at least one pool is required")
	}

	existing, err := s.pools.ExistingIDs(ctx, filter.PoolIDs)
	if err != nil {
		return err
	}
	known := make(map[int64]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	for _, id := range filter.PoolIDs {
		if !known[id] {
			return errors.InvalidInput("pool_ids", fmt.Sprintf("unknown pool %d", id))
		}
	}
	return nil
}
