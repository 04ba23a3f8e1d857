package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/workflow"
	"github.com/garyjia/post-review/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// DocumentRepository implements port.DocumentRepository
type DocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *sql.DB, logger *zap.Logger) port.DocumentRepository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

const documentColumns = `id, title, state, content, created_at, updated_at`

// Create inserts a new document and sets its ID
func (r *DocumentRepository) Create(ctx context.Context, doc *entity.Document) error {
	now := time.Now()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = doc.CreatedAt
	}

	query := `
		INSERT INTO documents (title, state, content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		doc.Title,
		doc.State().String(),
		doc.RawContent(),
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create document", zap.Error(err))
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	doc.ID = id
	return nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`

	doc, err := scanDocument(sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", port.ErrDocumentNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get document by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return doc, nil
}

// UpdateState stores a new review state
func (r *DocumentRepository) UpdateState(ctx context.Context, id int64, state workflow.State) error {
	if !state.IsValid() {
		return &workflow.StateError{Value: string(state)}
	}

	query := `UPDATE documents SET state = ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, state.String(), time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update state", zap.Int64("id", id), zap.String("state", state.String()), zap.Error(err))
		return fmt.Errorf("failed to update state: %w", err)
	}

	return requireRow(result, id)
}

// AppendText concatenates text onto the stored content
func (r *DocumentRepository) AppendText(ctx context.Context, id int64, text string) error {
	query := `UPDATE documents SET content = content || ?, updated_at = ? WHERE id = ?`

	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query, text, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to append text", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to append text: %w", err)
	}

	return requireRow(result, id)
}

// List retrieves documents with pagination, newest first
func (r *DocumentRepository) List(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := sqlite.ExecutorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list documents", zap.Error(err))
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*entity.Document, error) {
	var (
		id        int64
		title     string
		state     string
		content   string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&id, &title, &state, &content, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	doc, err := entity.RestoreDocument(workflow.State(state), content)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	doc.Title = title
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt
	return doc, nil
}

func requireRow(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", port.ErrDocumentNotFound, id)
	}
	return nil
}

// Verify interface compliance
var _ port.DocumentRepository = (*DocumentRepository)(nil)
