package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"go-jobalert-scheduler/pkg/audit"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DispatchEventRepository handles persistence of audit events to dispatch_events
type DispatchEventRepository struct {
	db *pgxpool.Pool
}

func NewDispatchEventRepository(db *pgxpool.Pool) *DispatchEventRepository {
	return &DispatchEventRepository{db: db}
}

// PersistEvent inserts one audit event
func (r *DispatchEventRepository) PersistEvent(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO dispatch_events (
			event_type, service, environment, level,
			subject_type, subject_value, run_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	detailsJSON := []byte("null")
	if len(event.Details) > 0 {
		detailsJSON, _ = json.Marshal(event.Details)
	}

	var runID interface{}
	if event.RunID != "" {
		runID = event.RunID
	}

	_, err := r.db.Exec(ctx, query,
		string(event.Event),
		event.Service,
		event.Environment,
		event.Level,
		event.SubjectType,
		event.SubjectValue,
		runID,
		detailsJSON,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to persist dispatch event: %w", err)
	}
	return nil
}

// CreatePersistFunc adapts the repository for audit.Logger.SetPersistFunc
func (r *DispatchEventRepository) CreatePersistFunc() func(context.Context, audit.Event) error {
	return r.PersistEvent
}
