package service

import (
	"reflect"
	"testing"

	"github.com/callhub/be-dispatch/internal/repository"
)

func TestExpandStatuses(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []repository.Status
		wantAny      bool
		wantNew      bool
		wantConcrete []repository.Status
	}{
		{
			name:     "nil means no restriction",
			statuses: nil,
			wantAny:  true,
		},
		{
			name:     "empty means no restriction",
			statuses: []repository.Status{},
			wantAny:  true,
		},
		{
			name:         "new expands to the null branch",
			statuses:     []repository.Status{repository.StatusNew},
			wantNew:      true,
			wantConcrete: nil,
		},
		{
			name:         "mixed set splits sentinel from concrete",
			statuses:     []repository.Status{repository.StatusNew, repository.StatusNoAnswer, repository.StatusVoicemail},
			wantNew:      true,
			wantConcrete: []repository.Status{repository.StatusNoAnswer, repository.StatusVoicemail},
		},
		{
			name:         "concrete only",
			statuses:     []repository.Status{repository.StatusCallback},
			wantConcrete: []repository.Status{repository.StatusCallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anyStatus, includeNew, concrete := expandStatuses(tt.statuses)
			if anyStatus != tt.wantAny {
				t.Errorf("anyStatus = %v, want %v", anyStatus, tt.wantAny)
			}
			if includeNew != tt.wantNew {
				t.Errorf("includeNew = %v, want %v", includeNew, tt.wantNew)
			}
			if !reflect.DeepEqual(concrete, tt.wantConcrete) {
				t.Errorf("concrete = %v, want %v", concrete, tt.wantConcrete)
			}
		})
	}
}

func TestPrivilegedSpec(t *testing.T) {
	spec := privilegedSpec(7)

	if !spec.IncludeNew {
		t.Error("privileged claims must include unworked rows")
	}
	if !reflect.DeepEqual(spec.Statuses, []repository.Status{repository.StatusNoAnswer}) {
		t.Errorf("Statuses = %v, want [no-answer]", spec.Statuses)
	}
	if !reflect.DeepEqual(spec.Owners, []int64{7}) {
		t.Errorf("Owners = %v, want [7]", spec.Owners)
	}
	if spec.ExcludeContactedBy != nil {
		t.Error("privileged claims must not apply the history exclusion")
	}
	if spec.Order != repository.OrderFresh {
		t.Errorf("Order = %v, want OrderFresh", spec.Order)
	}
}

func TestStandardSpec(t *testing.T) {
	filter := &repository.CallFilter{
		PoolIDs:  []int64{1, 2},
		Statuses: []repository.Status{repository.StatusNew, repository.StatusNoAnswer},
	}
	spec := standardSpec(filter, 9)

	if !reflect.DeepEqual(spec.PoolIDs, []int64{1, 2}) {
		t.Errorf("PoolIDs = %v, want filter pools", spec.PoolIDs)
	}
	if spec.AnyStatus {
		t.Error("a restricted filter must not produce AnyStatus")
	}
	if !spec.IncludeNew {
		t.Error("the new sentinel must map to IncludeNew")
	}
	if !reflect.DeepEqual(spec.Owners, []int64{9}) {
		t.Errorf("Owners = %v, want the caller only", spec.Owners)
	}
	if spec.ExcludeContactedBy == nil || *spec.ExcludeContactedBy != 9 {
		t.Error("standard claims must exclude previously contacted rows")
	}
	if spec.Order != repository.OrderRecency {
		t.Errorf("Order = %v, want OrderRecency", spec.Order)
	}
}

func TestFilterSpecOwners(t *testing.T) {
	t.Run("targeted filter widens owners to its workers", func(t *testing.T) {
		filter := &repository.CallFilter{
			PoolIDs:   []int64{3},
			WorkerIDs: []int64{4, 5},
		}
		spec := filterSpec(filter, 4)
		if !reflect.DeepEqual(spec.Owners, []int64{4, 5}) {
			t.Errorf("Owners = %v, want the filter's workers", spec.Owners)
		}
	})

	t.Run("untargeted filter keeps the caller as owner", func(t *testing.T) {
		filter := &repository.CallFilter{PoolIDs: []int64{3}}
		spec := filterSpec(filter, 4)
		if !reflect.DeepEqual(spec.Owners, []int64{4}) {
			t.Errorf("Owners = %v, want [4]", spec.Owners)
		}
	})
}

func TestWikiSpec(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		spec := wikiSpec(6, []int64{10}, []repository.Status{repository.StatusNoAnswer}, false)

		if !spec.WikiOnly {
			t.Error("wiki claims must set WikiOnly")
		}
		if !reflect.DeepEqual(spec.PoolIDs, []int64{10}) {
			t.Errorf("PoolIDs = %v, want the intersected wiki pools", spec.PoolIDs)
		}
		if spec.ExcludeContactedBy == nil || *spec.ExcludeContactedBy != 6 {
			t.Error("wiki claims must exclude previously contacted rows")
		}
	})

	t.Run("privileged is unrestricted by pools", func(t *testing.T) {
		spec := wikiSpec(6, nil, nil, true)

		if !spec.WikiOnly {
			t.Error("wiki claims must set WikiOnly")
		}
		if len(spec.PoolIDs) != 0 {
			t.Errorf("PoolIDs = %v, want unrestricted", spec.PoolIDs)
		}
		if !spec.IncludeNew {
			t.Error("privileged wiki claims must include unworked rows")
		}
	})
}
