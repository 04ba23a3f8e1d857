package port

import (
	"context"
	"errors"

	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/workflow"
)

// ErrDocumentNotFound is returned when no document has the requested ID
var ErrDocumentNotFound = errors.New("document not found")

// DocumentRepository defines persistence operations for Document
type DocumentRepository interface {
	// Create stores a new document and assigns its ID
	Create(ctx context.Context, doc *entity.Document) error

	// GetByID loads a document; returns ErrDocumentNotFound when absent
	GetByID(ctx context.Context, id int64) (*entity.Document, error)

	// UpdateState replaces the stored review state
	UpdateState(ctx context.Context, id int64, state workflow.State) error

	// AppendText appends to the stored content without rewriting it
	AppendText(ctx context.Context, id int64, text string) error

	// List returns documents newest first
	List(ctx context.Context, limit, offset int) ([]*entity.Document, error)
}

// HistoryRepository defines persistence operations for DocumentHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.DocumentHistory) error
	GetByDocumentID(ctx context.Context, documentID int64) ([]*entity.DocumentHistory, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
