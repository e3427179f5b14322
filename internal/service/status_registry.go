package service

import (
	"context"
	"sync"
	"time"

	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

// defaultSimpleStatuses is the fallback outcome set when no status
// buttons are configured or the table is unreadable.
var defaultSimpleStatuses = []repository.Status{
	repository.StatusNoAnswer,
	repository.StatusVoicemail,
	repository.StatusWrongTarget,
	repository.StatusCutOff,
	repository.StatusWrongPerson,
	repository.StatusClosed,
}

// statusButtonSource reads the configured status buttons.
type statusButtonSource interface {
	ListActive(ctx context.Context) ([]*repository.StatusButton, error)
}

// StatusRegistry is the registry of valid simple-outcome status values.
// Values come from configuration (the status_buttons table) and are
// cached for a bounded TTL so administrative changes take effect within
// one cache window.
type StatusRegistry struct {
	source statusButtonSource
	ttl    time.Duration
	log    *logger.Logger

	mu        sync.RWMutex
	cached    []repository.Status
	fetchedAt time.Time
}

// NewStatusRegistry creates a registry backed by the given source.
func NewStatusRegistry(source statusButtonSource, ttl time.Duration, log *logger.Logger) *StatusRegistry {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StatusRegistry{source: source, ttl: ttl, log: log}
}

// Allowed returns the current set of valid simple statuses.
func (r *StatusRegistry) Allowed(ctx context.Context) []repository.Status {
	r.mu.RLock()
	if r.cached != nil && time.Since(r.fetchedAt) < r.ttl {
		statuses := r.cached
		r.mu.RUnlock()
		return statuses
	}
	r.mu.RUnlock()

	return r.refresh(ctx)
}

// IsAllowed reports whether s is a registered simple status.
func (r *StatusRegistry) IsAllowed(ctx context.Context, s repository.Status) bool {
	for _, allowed := range r.Allowed(ctx) {
		if allowed == s {
			return true
		}
	}
	return false
}

func (r *StatusRegistry) refresh(ctx context.Context) []repository.Status {
	buttons, err := r.source.ListActive(ctx)

	statuses := make([]repository.Status, 0, len(buttons))
	for _, b := range buttons {
		if b.Value != "" {
			statuses = append(statuses, b.Value)
		}
	}

	if err != nil || len(statuses) == 0 {
		if err != nil {
			r.log.Warn().Err(err).Msg("status registry: falling back to defaults")
		}
		statuses = defaultSimpleStatuses
	}

	r.mu.Lock()
	r.cached = statuses
	r.fetchedAt = time.Now()
	r.mu.Unlock()

	return statuses
}
