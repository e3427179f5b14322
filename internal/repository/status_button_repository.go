package repository

import (
	"context"

	"github.com/callhub/be-dispatch/internal/database"
	"github.com/callhub/be-dispatch/internal/errors"
)

// StatusButtonRepository reads the configured simple-outcome statuses.
type StatusButtonRepository struct {
	db *database.DB
}

// NewStatusButtonRepository creates a new StatusButtonRepository.
func NewStatusButtonRepository(db *database.DB) *StatusButtonRepository {
	return &StatusButtonRepository{db: db}
}

// ListActive returns the active status buttons in display order.
func (r *StatusButtonRepository) ListActive(ctx context.Context) ([]*StatusButton, error) {
	query := `
		SELECT id, status_value, label, sort_order, is_active
		FROM status_buttons
		WHERE is_active = TRUE
		ORDER BY sort_order ASC, status_value ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list status buttons")
	}
	defer rows.Close()

	buttons := make([]*StatusButton, 0)
	for rows.Next() {
		btn := &StatusButton{}
		var value string
		if err := rows.Scan(&btn.ID, &value, &btn.Label, &btn.SortOrder, &btn.IsActive); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan status button")
		}
		btn.Value = Status(value)
		buttons = append(buttons, btn)
	}
	return buttons, nil
}
