package workflow

// State represents a review state in the document lifecycle
type State string

const (
	StateDraft         State = "DRAFT"
	StatePendingReview State = "PENDING_REVIEW"
	StatePublished     State = "PUBLISHED"
)

// InitialState is the state every new document starts in
const InitialState = StateDraft

var validStates = map[State]bool{
	StateDraft:         true,
	StatePendingReview: true,
	StatePublished:     true,
}

// States returns all review states in lifecycle order
func States() []State {
	return []State{StateDraft, StatePendingReview, StatePublished}
}

// IsTerminal returns true if no trigger can move the state any further
func (s State) IsTerminal() bool {
	return s == StatePublished
}

// IsVisible returns true if document content may be shown in this state
func (s State) IsVisible() bool {
	return s == StatePublished
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a valid review state
func (s State) IsValid() bool {
	return validStates[s]
}

// ParseState converts a stored value into a State
func ParseState(value string) (State, error) {
	s := State(value)
	if !s.IsValid() {
		return "", &StateError{Value: value}
	}
	return s, nil
}
