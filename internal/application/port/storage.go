package port

import (
	"io"

	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/workflow"
)

// HistoryExporter writes a document's audit trail in a downloadable format
type HistoryExporter interface {
	ContentType() string
	Extension() string
	Export(w io.Writer, doc *entity.Document, history []*entity.DocumentHistory) error
}

// DefinitionRenderer renders the workflow transition table
type DefinitionRenderer interface {
	ContentType() string
	Render(w io.Writer, def workflow.Definition) error
}
