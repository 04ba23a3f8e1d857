package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.DocumentHistory) error {
	if history.Timestamp.IsZero() {
		history.Timestamp = time.Now()
	}

	query := `
		INSERT INTO document_history (
			document_id, actor, previous_state, new_state,
			action_type, action_data, changed, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		history.DocumentID,
		history.Actor,
		history.PreviousState,
		history.NewState,
		history.ActionType,
		history.ActionData,
		history.Changed,
		history.Timestamp,
	)
	if err != nil {
		r.logger.Error("Failed to create history record", zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// GetByDocumentID retrieves all history records for a document in insertion order
func (r *HistoryRepository) GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.DocumentHistory, error) {
	query := `
		SELECT id, document_id, actor, previous_state, new_state,
			action_type, action_data, changed, timestamp
		FROM document_history
		WHERE document_id = ?
		ORDER BY id ASC
	`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, documentID)
	if err != nil {
		r.logger.Error("Failed to get history by document ID", zap.Int64("document_id", documentID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.DocumentHistory
	for rows.Next() {
		var record entity.DocumentHistory
		err := rows.Scan(
			&record.ID,
			&record.DocumentID,
			&record.Actor,
			&record.PreviousState,
			&record.NewState,
			&record.ActionType,
			&record.ActionData,
			&record.Changed,
			&record.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
