package repository

import (
	"context"

	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/errors"
)

// NoteRepository reads and adds free-form client notes. Transition notes
// are inserted inside the ClientRepository transactions.
type NoteRepository struct {
	db *database.DB
}

// NewNoteRepository creates a new NoteRepository.
func NewNoteRepository(db *database.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Add inserts a standalone note.
func (r *NoteRepository) Add(ctx context.Context, note *Note) error {
	query := `
		INSERT INTO client_notes (client_id, worker_id, note_text)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, note.ClientID, note.WorkerID, note.Text).
		Scan(&note.ID, &note.CreatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to add note")
	}
	return nil
}

// ListByClient returns a client's notes, newest first.
func (r *NoteRepository) ListByClient(ctx context.Context, clientID int64) ([]*Note, error) {
	query := `
		SELECT id, client_id, worker_id, note_text, created_at
		FROM client_notes
		WHERE client_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, clientID)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list notes")
	}
	defer rows.Close()

	notes := make([]*Note, 0)
	for rows.Next() {
		note := &Note{}
		if err := rows.Scan(&note.ID, &note.ClientID, &note.WorkerID, &note.Text, &note.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan note")
		}
		notes = append(notes, note)
	}
	return notes, nil
}
