package service

import (
	"context"
	"testing"
	"time"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/repository"
)

type fakeHistoryStore struct {
	limit  int
	offset int
	purged *repository.PurgeScope
}

func (f *fakeHistoryStore) ListByClient(_ context.Context, _ int64, limit, offset int) ([]*repository.HistoryEntry, error) {
	f.limit, f.offset = limit, offset
	return nil, nil
}

func (f *fakeHistoryStore) ListByWorker(_ context.Context, _ int64, _ *repository.Status, limit, offset int) ([]*repository.HistoryEntry, error) {
	f.limit, f.offset = limit, offset
	return nil, nil
}

func (f *fakeHistoryStore) LastTransfer(_ context.Context, _ int64) (*repository.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeHistoryStore) Purge(_ context.Context, scope repository.PurgeScope) (int64, error) {
	f.purged = &scope
	return 3, nil
}

type fakeNoteStore struct{}

func (fakeNoteStore) ListByClient(_ context.Context, _ int64) ([]*repository.Note, error) {
	return nil, nil
}

func TestHistoryListClampsPaging(t *testing.T) {
	store := &fakeHistoryStore{}
	svc := NewHistoryService(store, fakeNoteStore{}, testLogger())

	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, defaultHistoryLimit, 0},
		{"negative offset", 10, -5, 10, 0},
		{"oversized limit", 10000, 20, maxHistoryLimit, 20},
		{"passthrough", 25, 50, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ListByClient(context.Background(), 1, tt.limit, tt.offset); err != nil {
				t.Fatalf("ListByClient() error = %v", err)
			}
			if store.limit != tt.wantLimit || store.offset != tt.wantOffset {
				t.Errorf("paging = (%d, %d), want (%d, %d)", store.limit, store.offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestParsePurgeScope(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		day     string
		start   string
		end     string
		wantErr bool
	}{
		{name: "all", kind: "all"},
		{name: "day", kind: "day", day: "2026-08-01"},
		{name: "period", kind: "period", start: "2026-08-01", end: "2026-08-15"},
		{name: "unknown kind", kind: "week", wantErr: true},
		{name: "day missing date", kind: "day", wantErr: true},
		{name: "day malformed", kind: "day", day: "01.08.2026", wantErr: true},
		{name: "period missing end", kind: "period", start: "2026-08-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := ParsePurgeScope(tt.kind, tt.day, tt.start, tt.end)
			if tt.wantErr {
				if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
					t.Errorf("error = %v, want INVALID_INPUT", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePurgeScope() error = %v", err)
			}
			if scope.Kind != repository.PurgeKind(tt.kind) {
				t.Errorf("Kind = %v, want %v", scope.Kind, tt.kind)
			}
		})
	}
}

func TestPurgeValidatesScope(t *testing.T) {
	store := &fakeHistoryStore{}
	svc := NewHistoryService(store, fakeNoteStore{}, testLogger())

	t.Run("inverted period", func(t *testing.T) {
		_, err := svc.Purge(context.Background(), repository.PurgeScope{
			Kind:  repository.PurgePeriod,
			Start: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		})
		if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("error = %v, want INVALID_INPUT", err)
		}
		if store.purged != nil {
			t.Error("a rejected scope must not reach the repository")
		}
	})

	t.Run("all", func(t *testing.T) {
		removed, err := svc.Purge(context.Background(), repository.PurgeScope{Kind: repository.PurgeAll})
		if err != nil {
			t.Fatalf("Purge() error = %v", err)
		}
		if removed != 3 {
			t.Errorf("removed = %d, want 3", removed)
		}
		if store.purged == nil || store.purged.Kind != repository.PurgeAll {
			t.Error("the validated scope must reach the repository")
		}
	})
}
