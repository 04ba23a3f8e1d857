package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/garyjia/post-review/internal/application/dispatcher"
	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/application/workflow"
	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/event"
	domainwf "github.com/garyjia/post-review/internal/domain/workflow"
	"github.com/garyjia/post-review/pkg/utils"
)

// MaxTitleLength bounds document titles, counted in runes
const MaxTitleLength = 200

// ErrInvalidInput is returned when caller-supplied fields fail validation
var ErrInvalidInput = errors.New("invalid input")

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DocumentService manages documents and their review lifecycle
type DocumentService interface {
	Create(ctx context.Context, title, actor string) (*entity.Document, error)
	Get(ctx context.Context, id int64) (*entity.Document, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Document, error)
	AddText(ctx context.Context, id int64, text, actor string) (*entity.Document, error)
	RequestReview(ctx context.Context, id int64, actor string) (*workflow.TransitionResult, error)
	Approve(ctx context.Context, id int64, actor string) (*workflow.TransitionResult, error)
	Content(ctx context.Context, id int64) (string, error)
	History(ctx context.Context, id int64) ([]*entity.DocumentHistory, error)
}

type documentServiceImpl struct {
	documentRepo port.DocumentRepository
	historyRepo  port.HistoryRepository
	txManager    port.TransactionManager
	engine       workflow.ReviewEngine
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewDocumentService creates a new DocumentService. The dispatcher may be nil.
func NewDocumentService(
	documentRepo port.DocumentRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	engine workflow.ReviewEngine,
	disp dispatcher.Dispatcher,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		documentRepo: documentRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		engine:       engine,
		dispatcher:   disp,
		logger:       logger,
	}
}

// Create stores a new empty draft
func (s *documentServiceImpl) Create(ctx context.Context, title, actor string) (*entity.Document, error) {
	title = utils.SanitizeString(title)
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, fmt.Errorf("%w: title longer than %d characters", ErrInvalidInput, MaxTitleLength)
	}
	actor = actorOrSystem(actor)

	doc := entity.NewDocument()
	doc.Title = title
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.documentRepo.Create(txCtx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}

		history := &entity.DocumentHistory{
			DocumentID: doc.ID,
			Actor:      actor,
			NewState:   doc.State().String(),
			ActionType: entity.ActionCreate,
			ActionData: title,
			Changed:    true,
			Timestamp:  doc.CreatedAt,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create document", "error", err)
		return nil, err
	}

	s.publish(ctx, event.TypeDocumentCreated, doc.ID, map[string]interface{}{
		event.KeyTitle:    title,
		event.KeyActor:    actor,
		event.KeyNewState: doc.State().String(),
	})

	s.logger.Info("Document created", "id", doc.ID, "title", title)
	return doc, nil
}

// Get loads a document by ID
func (s *documentServiceImpl) Get(ctx context.Context, id int64) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, port.ErrDocumentNotFound) {
			s.logger.Error("Failed to get document", "error", err, "id", id)
		}
		return nil, err
	}
	return doc, nil
}

// List returns documents newest first
func (s *documentServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Document, error) {
	docs, err := s.documentRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err)
		return nil, err
	}
	return docs, nil
}

// AddText appends text in any review state, published included.
func (s *documentServiceImpl) AddText(ctx context.Context, id int64, text, actor string) (*entity.Document, error) {
	actor = actorOrSystem(actor)

	var doc *entity.Document
	err := s.engine.Serialize(id, func() error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			var err error
			doc, err = s.documentRepo.GetByID(txCtx, id)
			if err != nil {
				return err
			}

			doc.AddText(text)
			if err := s.documentRepo.AppendText(txCtx, id, text); err != nil {
				return fmt.Errorf("append text: %w", err)
			}

			history := &entity.DocumentHistory{
				DocumentID:    id,
				Actor:         actor,
				PreviousState: doc.State().String(),
				NewState:      doc.State().String(),
				ActionType:    entity.ActionTextAdded,
				ActionData:    fmt.Sprintf("%d bytes", len(text)),
				Timestamp:     time.Now(),
			}
			if err := s.historyRepo.Create(txCtx, history); err != nil {
				return fmt.Errorf("create history: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		if !errors.Is(err, port.ErrDocumentNotFound) {
			s.logger.Error("Failed to add text", "error", err, "id", id)
		}
		return nil, err
	}

	s.publish(ctx, event.TypeTextAdded, id, map[string]interface{}{
		event.KeyActor:      actor,
		event.KeyBytesAdded: len(text),
		event.KeyNewState:   doc.State().String(),
	})

	return doc, nil
}

// RequestReview asks for a review of the document
func (s *documentServiceImpl) RequestReview(ctx context.Context, id int64, actor string) (*workflow.TransitionResult, error) {
	return s.transition(ctx, id, domainwf.TriggerRequestReview, actor)
}

// Approve approves the document under review
func (s *documentServiceImpl) Approve(ctx context.Context, id int64, actor string) (*workflow.TransitionResult, error) {
	return s.transition(ctx, id, domainwf.TriggerApprove, actor)
}

func (s *documentServiceImpl) transition(ctx context.Context, id int64, trigger domainwf.Trigger, actor string) (*workflow.TransitionResult, error) {
	result, err := s.engine.Apply(ctx, id, trigger, actorOrSystem(actor))
	if err != nil {
		if !errors.Is(err, port.ErrDocumentNotFound) && !errors.Is(err, domainwf.ErrInvalidTransition) {
			s.logger.Error("Transition failed", "error", err, "id", id, "trigger", trigger)
		}
		return nil, err
	}

	if result.Changed {
		s.logger.Info("Document state changed",
			"id", id,
			"trigger", trigger,
			"previous_state", result.PreviousState,
			"new_state", result.NewState,
		)
	}
	return result, nil
}

// Content returns what a reader may see in the document's current state
func (s *documentServiceImpl) Content(ctx context.Context, id int64) (string, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return doc.Content(), nil
}

// History returns the audit trail of a document, oldest first
func (s *documentServiceImpl) History(ctx context.Context, id int64) ([]*entity.DocumentHistory, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	records, err := s.historyRepo.GetByDocumentID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "id", id)
		return nil, err
	}
	return records, nil
}

func (s *documentServiceImpl) publish(ctx context.Context, t event.Type, id int64, payload map[string]interface{}) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(t, id, payload))
}

func actorOrSystem(actor string) string {
	actor = utils.SanitizeString(actor)
	if actor == "" {
		return entity.ActorSystem
	}
	return actor
}
