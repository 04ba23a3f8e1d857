package entity

import (
	"strings"
	"time"

	"github.com/garyjia/post-review/internal/domain/workflow"
)

// Document is a piece of text moving through the review workflow.
//
// Content is append-only. What a reader sees depends only on the current
// state: nothing until the document is published, everything afterwards.
// A Document is not safe for concurrent use.
type Document struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	machine *workflow.Machine
	content strings.Builder
}

// NewDocument returns an empty draft
func NewDocument() *Document {
	machine, _ := workflow.NewMachine(workflow.InitialState)
	return &Document{machine: machine}
}

// RestoreDocument rebuilds a document from stored state and content
func RestoreDocument(state workflow.State, content string) (*Document, error) {
	machine, err := workflow.NewMachine(state)
	if err != nil {
		return nil, err
	}
	d := &Document{machine: machine}
	d.content.WriteString(content)
	return d, nil
}

// AddText appends text in any state, including after publication.
func (d *Document) AddText(text string) {
	d.content.WriteString(text)
}

// RequestReview moves a draft into review; in other states it does nothing.
func (d *Document) RequestReview() {
	d.machine.Fire(workflow.TriggerRequestReview)
}

// Approve publishes a document under review; in other states it does nothing.
func (d *Document) Approve() {
	d.machine.Fire(workflow.TriggerApprove)
}

// Apply fires an arbitrary trigger and reports whether the state changed
func (d *Document) Apply(trigger workflow.Trigger) bool {
	_, changed := d.machine.Fire(trigger)
	return changed
}

// PermittedTriggers lists the triggers that would move the document forward
func (d *Document) PermittedTriggers() []workflow.Trigger {
	return d.machine.PermittedTriggers()
}

// Content returns the text visible in the current state
func (d *Document) Content() string {
	return workflow.VisibleContent(d.machine.State(), d.content.String())
}

// State returns the current review state
func (d *Document) State() workflow.State {
	return d.machine.State()
}

// RawContent returns the full buffer regardless of state. Storage only.
func (d *Document) RawContent() string {
	return d.content.String()
}

// Len returns the number of bytes accumulated so far
func (d *Document) Len() int {
	return d.content.Len()
}
