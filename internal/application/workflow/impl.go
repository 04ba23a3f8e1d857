package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/post-review/internal/application/dispatcher"
	"github.com/garyjia/post-review/internal/application/port"
	"github.com/garyjia/post-review/internal/domain/entity"
	"github.com/garyjia/post-review/internal/domain/event"
	domainwf "github.com/garyjia/post-review/internal/domain/workflow"
)

// engineImpl is the concrete implementation of ReviewEngine
type engineImpl struct {
	documentRepo port.DocumentRepository
	historyRepo  port.HistoryRepository
	txManager    port.TransactionManager
	dispatcher   dispatcher.Dispatcher

	strict bool
	locks  *lockTable
}

// EngineOption configures the review engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithCacheExpiry sets how long idle per-document locks are kept
func WithCacheExpiry(expiry time.Duration) EngineOption {
	return func(e *engineImpl) {
		e.locks.expiry = expiry
	}
}

// WithStrictTransitions makes triggers that leave the state unchanged fail
// with domainwf.ErrInvalidTransition instead of being recorded as no-ops.
func WithStrictTransitions(strict bool) EngineOption {
	return func(e *engineImpl) {
		e.strict = strict
	}
}

// NewEngine creates a new review engine
func NewEngine(
	documentRepo port.DocumentRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) ReviewEngine {
	e := &engineImpl{
		documentRepo: documentRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		locks:        newLockTable(30 * time.Minute),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *engineImpl) Serialize(documentID int64, fn func() error) error {
	release := e.locks.acquire(documentID)
	defer release()
	return fn()
}

func (e *engineImpl) PruneLocks() int {
	return e.locks.prune()
}

func (e *engineImpl) Apply(ctx context.Context, documentID int64, trigger domainwf.Trigger, actor string) (*TransitionResult, error) {
	if !trigger.IsValid() {
		return nil, fmt.Errorf("%w: %q", domainwf.ErrInvalidTrigger, trigger)
	}
	if actor == "" {
		actor = entity.ActorSystem
	}

	var result *TransitionResult
	err := e.Serialize(documentID, func() error {
		return e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			doc, err := e.documentRepo.GetByID(txCtx, documentID)
			if err != nil {
				return err
			}

			previous := doc.State()
			changed := doc.Apply(trigger)
			if !changed && e.strict {
				return &domainwf.TransitionError{State: previous, Trigger: trigger}
			}

			if changed {
				if err := e.documentRepo.UpdateState(txCtx, documentID, doc.State()); err != nil {
					return fmt.Errorf("failed to update document state: %w", err)
				}
			}

			history := &entity.DocumentHistory{
				DocumentID:    documentID,
				Actor:         actor,
				PreviousState: previous.String(),
				NewState:      doc.State().String(),
				ActionType:    trigger.String(),
				Changed:       changed,
				Timestamp:     time.Now(),
			}
			if err := e.historyRepo.Create(txCtx, history); err != nil {
				return fmt.Errorf("failed to create history record: %w", err)
			}

			result = &TransitionResult{
				DocumentID:    documentID,
				Trigger:       trigger,
				PreviousState: previous,
				NewState:      doc.State(),
				Changed:       changed,
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, result, actor)
	return result, nil
}

func (e *engineImpl) CurrentState(ctx context.Context, documentID int64) (domainwf.State, error) {
	doc, err := e.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	return doc.State(), nil
}

func (e *engineImpl) emit(ctx context.Context, r *TransitionResult, actor string) {
	if e.dispatcher == nil {
		return
	}

	payload := map[string]interface{}{
		event.KeyPreviousState: r.PreviousState.String(),
		event.KeyNewState:      r.NewState.String(),
		event.KeyTrigger:       r.Trigger.String(),
		event.KeyActor:         actor,
		event.KeyChanged:       r.Changed,
	}

	if !r.Changed {
		e.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeTransitionIgnored, r.DocumentID, payload))
		return
	}

	changed := event.NewEvent(event.TypeStatusChanged, r.DocumentID, payload)
	e.dispatcher.DispatchAsync(ctx, changed)

	if r.NewState == domainwf.StatePublished {
		e.dispatcher.DispatchAsync(ctx, event.NewEventWithCorrelation(
			event.TypeDocumentPublished, r.DocumentID, payload, changed.CorrelationID))
	}
}
