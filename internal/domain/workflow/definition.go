package workflow

// Transition returns the state reached by firing trigger from state.
// Every pair has a defined result; pairs without an edge return state unchanged.
// Unknown states and triggers are also returned unchanged.
func Transition(state State, trigger Trigger) State {
	switch state {
	case StateDraft:
		if trigger == TriggerRequestReview {
			return StatePendingReview
		}
	case StatePendingReview:
		if trigger == TriggerApprove {
			return StatePublished
		}
	}
	return state
}

// VisibleContent returns the portion of content that state allows a reader to see
func VisibleContent(state State, content string) string {
	if state.IsVisible() {
		return content
	}
	return ""
}

// Edge is one row of the transition table
type Edge struct {
	From    State   `json:"from" yaml:"from"`
	Trigger Trigger `json:"trigger" yaml:"trigger"`
	To      State   `json:"to" yaml:"to"`
}

// IsIdentity returns true if the edge leaves the state unchanged
func (e Edge) IsIdentity() bool {
	return e.From == e.To
}

// Definition describes the whole review workflow as data
type Definition struct {
	Initial State   `json:"initial" yaml:"initial"`
	States  []State `json:"states" yaml:"states"`
	Edges   []Edge  `json:"edges" yaml:"edges"`
}

// Describe enumerates the transition table, including identity edges
func Describe() Definition {
	def := Definition{
		Initial: InitialState,
		States:  States(),
	}
	for _, s := range States() {
		for _, t := range Triggers() {
			def.Edges = append(def.Edges, Edge{From: s, Trigger: t, To: Transition(s, t)})
		}
	}
	return def
}
