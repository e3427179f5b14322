package service

import (
	"context"
	"testing"

	"github.com/callhub/be-dispatch/internal/errors"
	"github.com/callhub/be-dispatch/internal/repository"
)

type fakeClientReader struct {
	client *repository.Client
}

func (f *fakeClientReader) GetByID(_ context.Context, _ int64) (*repository.Client, error) {
	if f.client == nil {
		return nil, errors.NotFound("client", "missing")
	}
	return f.client, nil
}

func (f *fakeClientReader) ListByAssignee(_ context.Context, _ int64, _ *repository.Status) ([]*repository.Client, error) {
	return nil, nil
}

func (f *fakeClientReader) ListByStatus(_ context.Context, _ int64, _ repository.Status, _ bool) ([]*repository.Client, error) {
	return nil, nil
}

type fakeNoteWriter struct {
	added *repository.Note
}

func (f *fakeNoteWriter) Add(_ context.Context, note *repository.Note) error {
	f.added = note
	note.ID = 1
	return nil
}

func TestAddNote(t *testing.T) {
	t.Run("trims and persists", func(t *testing.T) {
		notes := &fakeNoteWriter{}
		svc := NewClientService(&fakeClientReader{client: &repository.Client{ID: 3}}, notes, testLogger())

		note, err := svc.AddNote(context.Background(), 3, 5, "  spoke to assistant  ")
		if err != nil {
			t.Fatalf("AddNote() error = %v", err)
		}
		if note.Text != "spoke to assistant" {
			t.Errorf("Text = %q, want it trimmed", note.Text)
		}
		if note.WorkerID == nil || *note.WorkerID != 5 {
			t.Errorf("WorkerID = %v, want the authoring worker", note.WorkerID)
		}
		if notes.added == nil {
			t.Error("the note must be persisted")
		}
	})

	t.Run("rejects blank text", func(t *testing.T) {
		notes := &fakeNoteWriter{}
		svc := NewClientService(&fakeClientReader{client: &repository.Client{ID: 3}}, notes, testLogger())

		_, err := svc.AddNote(context.Background(), 3, 5, "   ")
		if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
			t.Errorf("error = %v, want INVALID_INPUT", err)
		}
		if notes.added != nil {
			t.Error("a rejected note must not be persisted")
		}
	})

	t.Run("unknown client", func(t *testing.T) {
		svc := NewClientService(&fakeClientReader{}, &fakeNoteWriter{}, testLogger())

		_, err := svc.AddNote(context.Background(), 3, 5, "text")
		if !errors.IsCode(err, errors.ErrCodeNotFound) {
			t.Errorf("error = %v, want NOT_FOUND", err)
		}
	})
}

func TestByStatusRequiresStatus(t *testing.T) {
	svc := NewClientService(&fakeClientReader{}, &fakeNoteWriter{}, testLogger())

	_, err := svc.ByStatus(context.Background(), 5, RoleStandard, "")
	if !errors.IsCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}
