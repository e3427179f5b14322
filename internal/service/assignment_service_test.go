package service

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/logger"
	"github.com/callhub/be-dispatch/internal/repository"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Environment: "test", ServiceName: "test"})
}

type fakeClaimer struct {
	spec   repository.ClaimSpec
	called bool
	client *repository.Client
	err    error
}

func (f *fakeClaimer) ClaimNext(_ context.Context, spec repository.ClaimSpec) (*repository.Client, error) {
	f.called = true
	f.spec = spec
	return f.client, f.err
}

type fakeFilters struct {
	active *repository.CallFilter
	byID   map[int64]*repository.CallFilter
}

func (f *fakeFilters) GetActiveForWorker(_ context.Context, _ int64) (*repository.CallFilter, error) {
	return f.active, nil
}

func (f *fakeFilters) GetByID(_ context.Context, id int64) (*repository.CallFilter, error) {
	if filter, ok := f.byID[id]; ok {
		return filter, nil
	}
	return nil, errors.NotFound("filter", fmt.Sprint(id))
}

type fakePools struct {
	wiki []int64
}

func (f *fakePools) WikiIDs(_ context.Context, _ []int64) ([]int64, error) {
	return f.wiki, nil
}

func TestClaimNextStandardWithoutFilter(t *testing.T) {
	claimer := &fakeClaimer{}
	svc := NewAssignmentService(claimer, &fakeFilters{}, &fakePools{}, testLogger())

	result, err := svc.ClaimNext(context.Background(), 5, RoleStandard)
	if err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if result.Client != nil {
		t.Error("expected an empty result")
	}
	if result.Reason != ReasonNoActiveFilter {
		t.Errorf("Reason = %v, want %v", result.Reason, ReasonNoActiveFilter)
	}
	if claimer.called {
		t.Error("no claim should be attempted without a filter")
	}
}

func TestClaimNextStandardUsesFilter(t *testing.T) {
	filter := &repository.CallFilter{
		ID:       1,
		PoolIDs:  []int64{2, 3},
		Statuses: []repository.Status{repository.StatusNoAnswer},
	}
	claimed := &repository.Client{ID: 11, PoolID: 2}
	claimer := &fakeClaimer{client: claimed}
	svc := NewAssignmentService(claimer, &fakeFilters{active: filter}, &fakePools{}, testLogger())

	result, err := svc.ClaimNext(context.Background(), 5, RoleStandard)
	if err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if result.Client != claimed {
		t.Fatalf("Client = %v, want the claimed row", result.Client)
	}
	if !reflect.DeepEqual(claimer.spec.PoolIDs, filter.PoolIDs) {
		t.Errorf("spec.PoolIDs = %v, want the filter's pools", claimer.spec.PoolIDs)
	}
	if claimer.spec.ExcludeContactedBy == nil || *claimer.spec.ExcludeContactedBy != 5 {
		t.Error("standard claims must carry the history exclusion")
	}
}

func TestClaimNextPrivileged(t *testing.T) {
	claimer := &fakeClaimer{client: &repository.Client{ID: 1}}
	svc := NewAssignmentService(claimer, &fakeFilters{}, &fakePools{}, testLogger())

	if _, err := svc.ClaimNext(context.Background(), 8, RolePrivileged); err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if !claimer.spec.IncludeNew {
		t.Error("privileged claims must include unworked rows")
	}
	if claimer.spec.Order != repository.OrderFresh {
		t.Errorf("Order = %v, want OrderFresh", claimer.spec.Order)
	}
}

func TestClaimNextEmptyPool(t *testing.T) {
	claimer := &fakeClaimer{} // returns (nil, nil)
	svc := NewAssignmentService(claimer, &fakeFilters{}, &fakePools{}, testLogger())

	result, err := svc.ClaimNext(context.Background(), 8, RolePrivileged)
	if err != nil {
		t.Fatalf("ClaimNext() error = %v", err)
	}
	if result.Client != nil || result.Reason != ReasonNoEligibleClients {
		t.Errorf("got (%v, %v), want empty result with %v", result.Client, result.Reason, ReasonNoEligibleClients)
	}
}

func TestClaimNextForFilterUnknown(t *testing.T) {
	svc := NewAssignmentService(&fakeClaimer{}, &fakeFilters{}, &fakePools{}, testLogger())

	_, err := svc.ClaimNextForFilter(context.Background(), 99, 5, RoleStandard)
	if !errors.IsCode(err, errors.ErrCodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestClaimNextWiki(t *testing.T) {
	filter := &repository.CallFilter{ID: 1, PoolIDs: []int64{2, 3}}

	t.Run("no wiki pools in filter", func(t *testing.T) {
		claimer := &fakeClaimer{}
		svc := NewAssignmentService(claimer, &fakeFilters{active: filter}, &fakePools{}, testLogger())

		result, err := svc.ClaimNextWiki(context.Background(), 5, RoleStandard)
		if err != nil {
			t.Fatalf("ClaimNextWiki() error = %v", err)
		}
		if result.Reason != ReasonNoWikiPools {
			t.Errorf("Reason = %v, want %v", result.Reason, ReasonNoWikiPools)
		}
		if claimer.called {
			t.Error("no claim should be attempted without wiki pools")
		}
	})

	t.Run("intersects filter pools with wiki pools", func(t *testing.T) {
		claimer := &fakeClaimer{client: &repository.Client{ID: 2, IsWiki: true}}
		svc := NewAssignmentService(claimer, &fakeFilters{active: filter}, &fakePools{wiki: []int64{3}}, testLogger())

		result, err := svc.ClaimNextWiki(context.Background(), 5, RoleStandard)
		if err != nil {
			t.Fatalf("ClaimNextWiki() error = %v", err)
		}
		if result.Client == nil {
			t.Fatal("expected a claimed client")
		}
		if !claimer.spec.WikiOnly {
			t.Error("wiki claims must set WikiOnly")
		}
		if !reflect.DeepEqual(claimer.spec.PoolIDs, []int64{3}) {
			t.Errorf("spec.PoolIDs = %v, want [3]", claimer.spec.PoolIDs)
		}
	})
}
