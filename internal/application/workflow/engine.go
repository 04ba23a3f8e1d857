package workflow

import (
	"context"

	domainwf "github.com/garyjia/post-review/internal/domain/workflow"
)

// TransitionResult describes the outcome of one trigger applied to a document
type TransitionResult struct {
	DocumentID    int64            `json:"document_id"`
	Trigger       domainwf.Trigger `json:"trigger"`
	PreviousState domainwf.State   `json:"previous_state"`
	NewState      domainwf.State   `json:"new_state"`
	Changed       bool             `json:"changed"`
}

// ReviewEngine drives stored documents through the review workflow
type ReviewEngine interface {
	// Apply fires the trigger on a document, persisting the state and a history entry.
	// Triggers without an edge are recorded as unchanged and do not fail unless
	// the engine runs with strict transitions.
	Apply(ctx context.Context, documentID int64, trigger domainwf.Trigger, actor string) (*TransitionResult, error)

	// CurrentState returns the stored state of a document
	CurrentState(ctx context.Context, documentID int64) (domainwf.State, error)

	// Serialize runs fn while holding the document's lock
	Serialize(documentID int64, fn func() error) error

	// PruneLocks drops per-document locks idle longer than the cache expiry
	// and returns how many were removed
	PruneLocks() int
}
