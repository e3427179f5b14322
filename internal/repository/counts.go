package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/callhub/be-dispatch/internal/errors"
)

// CountSpec describes a client count for the filter workload counters.
type CountSpec struct {
	PoolIDs    []int64
	AnyStatus  bool
	IncludeNew bool
	Statuses   []Status
	Wiki       *bool // nil = both pool kinds
}

// CountClients counts active clients matching the spec.
func (r *ClientRepository) CountClients(ctx context.Context, spec CountSpec) (int64, error) {
	conds := []string{"is_active = TRUE"}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(spec.PoolIDs) > 0 {
		conds = append(conds, fmt.Sprintf("pool_id = ANY(%s::bigint[])", arg(spec.PoolIDs)))
	}
	if spec.Wiki != nil {
		if *spec.Wiki {
			conds = append(conds, "is_wiki = TRUE")
		} else {
			conds = append(conds, "is_wiki = FALSE")
		}
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

	query := "SELECT COUNT(*) FROM clients WHERE " + strings.Join(conds, " AND ")

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternal, "failed to count clients")
	}
	return count, nil
}
