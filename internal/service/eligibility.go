package service

import (
	"github.com/callhub/be-dispatch/internal/repository"
)

// Role is the caller's access level, supplied by the identity provider.
type Role string

const (
	// RolePrivileged bypasses the filter requirement and ownership checks.
	RolePrivileged Role = "admin"
	// RoleStandard requires an active matching filter to claim.
	RoleStandard Role = "manager"
)

// expandStatuses turns a filter's status set into the predicate form.
// A nil or empty set means "no status restriction", explicitly, so an
// empty set never accidentally matches nothing. The StatusNew sentinel is
// expanded to the NULL branch here and only here.
func expandStatuses(statuses []repository.Status) (anyStatus, includeNew bool, concrete []repository.Status) {
	if len(statuses) == 0 {
		return true, false, nil
	}
	for _, s := range statuses {
		if s == repository.StatusNew {
			includeNew = true
			continue
		}
		concrete = append(concrete, s)
	}
	return false, includeNew, concrete
}

// privilegedSpec builds the claim predicate for a privileged worker with
// no filter: unowned or self-owned rows that are new or not yet reached,
// priority-flagged first, then oldest.
func privilegedSpec(workerID int64) repository.ClaimSpec {
	return repository.ClaimSpec{
		WorkerID:   workerID,
		IncludeNew: true,
		Statuses:   []repository.Status{repository.StatusNoAnswer},
		Owners:     []int64{workerID},
		Order:      repository.OrderFresh,
	}
}

// standardSpec builds the claim predicate from a worker's resolved filter:
// the filter's pools and statuses, unowned or self-owned rows, minus rows
// the worker already has history for (self-owned rows exempt), with
// recency-aware ordering.
func standardSpec(filter *repository.CallFilter, workerID int64) repository.ClaimSpec {
	anyStatus, includeNew, concrete := expandStatuses(filter.Statuses)
	return repository.ClaimSpec{
		WorkerID:           workerID,
		PoolIDs:            filter.PoolIDs,
		AnyStatus:          anyStatus,
		IncludeNew:         includeNew,
		Statuses:           concrete,
		Owners:             []int64{workerID},
		ExcludeContactedBy: &workerID,
		Order:              repository.OrderRecency,
	}
}

// filterSpec is the explicit-filter variant of standardSpec: rows
// pre-claimed by any worker the filter targets stay eligible, not just
// the caller's own.
func filterSpec(filter *repository.CallFilter, workerID int64) repository.ClaimSpec {
	spec := standardSpec(filter, workerID)
	if len(filter.WorkerIDs) > 0 {
		spec.Owners = filter.WorkerIDs
	}
	return spec
}

// wikiSpec restricts a claim to wiki-pool rows. poolIDs is the filter's
// pool set already intersected with wiki pools; nil for privileged
// workers (unrestricted).
func wikiSpec(workerID int64, poolIDs []int64, statuses []repository.Status, privileged bool) repository.ClaimSpec {
	var spec repository.ClaimSpec
	if privileged && len(statuses) == 0 {
		spec = privilegedSpec(workerID)
	} else {
		anyStatus, includeNew, concrete := expandStatuses(statuses)
		spec = repository.ClaimSpec{
			WorkerID:   workerID,
			AnyStatus:  anyStatus,
			IncludeNew: includeNew,
			Statuses:   concrete,
			Owners:     []int64{workerID},
		}
	}
	spec.PoolIDs = poolIDs
	spec.WikiOnly = true
	spec.ExcludeContactedBy = &workerID
	spec.Order = repository.OrderRecency
	return spec
}
