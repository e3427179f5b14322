package repository

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuildClaimWhere(t *testing.T) {
	worker := int64(7)

	tests := []struct {
		name         string
		spec         ClaimSpec
		wantContains []string
		wantAbsent   []string
		wantArgs     []any
	}{
		{
			name: "minimal spec guards activity and ownership",
			spec: ClaimSpec{WorkerID: 7, AnyStatus: true},
			wantContains: []string{
				"is_active = TRUE",
				"(assigned_to IS NULL OR assigned_to = ANY($1::bigint[]))",
			},
			wantAbsent: []string{"call_status", "pool_id", "is_wiki"},
			wantArgs:   []any{[]int64{7}},
		},
		{
			name: "pool restriction",
			spec: ClaimSpec{WorkerID: 7, AnyStatus: true, PoolIDs: []int64{1, 2}},
			wantContains: []string{
				"pool_id = ANY($1::bigint[])",
			},
			wantArgs: []any{[]int64{1, 2}, []int64{7}},
		},
		{
			name: "new and concrete statuses combine with OR",
			spec: ClaimSpec{WorkerID: 7, IncludeNew: true, Statuses: []Status{StatusNoAnswer}},
			wantContains: []string{
				"(call_status IS NULL OR call_status = ANY($1::varchar[]))",
			},
			wantArgs: []any{[]string{"no-answer"}, []int64{7}},
		},
		{
			name: "explicit owners replace the caller",
			spec: ClaimSpec{WorkerID: 7, AnyStatus: true, Owners: []int64{4, 5}},
			wantContains: []string{
				"assigned_to = ANY($1::bigint[])",
			},
			wantArgs: []any{[]int64{4, 5}},
		},
		{
			name: "history exclusion exempts self-owned rows",
			spec: ClaimSpec{WorkerID: 7, AnyStatus: true, ExcludeContactedBy: &worker},
			wantContains: []string{
				"(assigned_to = $2 OR NOT EXISTS (",
				"ch.worker_id = $2",
			},
			wantArgs: []any{[]int64{7}, int64(7)},
		},
		{
			name:         "wiki restriction",
			spec:         ClaimSpec{WorkerID: 7, AnyStatus: true, WikiOnly: true},
			wantContains: []string{"is_wiki = TRUE"},
			wantArgs:     []any{[]int64{7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildClaimWhere(tt.spec)

			for _, frag := range tt.wantContains {
				if !strings.Contains(where, frag) {
					t.Errorf("predicate %q\nmissing fragment %q", where, frag)
				}
			}
			for _, frag := range tt.wantAbsent {
				if strings.Contains(where, frag) {
					t.Errorf("predicate %q\nshould not contain %q", where, frag)
				}
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestOwnershipGuard(t *testing.T) {
	if got := ownershipGuard(true, "$2"); got != "" {
		t.Errorf("privileged guard = %q, want empty", got)
	}

	want := " AND (assigned_to IS NULL OR assigned_to = $2)"
	if got := ownershipGuard(false, "$2"); got != want {
		t.Errorf("guard = %q, want %q", got, want)
	}
}

func TestStatusDBMapping(t *testing.T) {
	if statusToDB(StatusNew) != nil {
		t.Error("the new sentinel must map to NULL")
	}
	if statusToDB("") != nil {
		t.Error("the zero value must map to NULL")
	}
	if v := statusToDB(StatusNoAnswer); v == nil || *v != "no-answer" {
		t.Errorf("statusToDB(no-answer) = %v, want the literal value", v)
	}

	if statusFromDB(nil) != StatusNew {
		t.Error("NULL must map back to the new sentinel")
	}
	v := "callback"
	if statusFromDB(&v) != StatusCallback {
		t.Errorf("statusFromDB(callback) = %v", statusFromDB(&v))
	}
}
