package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePendingReview, false},
		{StatePublished, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"pending review", StatePendingReview, true},
		{"published", StatePublished, true},
		{"invalid state", State("ARCHIVED"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseState(t *testing.T) {
	s, err := ParseState("PENDING_REVIEW")
	if err != nil {
		t.Fatalf("ParseState() failed: %v", err)
	}
	if s != StatePendingReview {
		t.Errorf("ParseState() = %v, want %v", s, StatePendingReview)
	}

	_, err = ParseState("draft")
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("ParseState(lowercase) error = %v, want %v", err, ErrInvalidState)
	}
}

func TestTrigger_IsValid(t *testing.T) {
	if !TriggerRequestReview.IsValid() || !TriggerApprove.IsValid() {
		t.Error("known triggers should be valid")
	}
	if Trigger("REJECT").IsValid() {
		t.Error("REJECT should not be a valid trigger")
	}
	if got := TriggerApprove.String(); got != "APPROVE" {
		t.Errorf("Trigger.String() = %v, want %v", got, "APPROVE")
	}
}

func TestTransition_Table(t *testing.T) {
	tests := []struct {
		from    State
		trigger Trigger
		want    State
	}{
		{StateDraft, TriggerRequestReview, StatePendingReview},
		{StateDraft, TriggerApprove, StateDraft},
		{StatePendingReview, TriggerRequestReview, StatePendingReview},
		{StatePendingReview, TriggerApprove, StatePublished},
		{StatePublished, TriggerRequestReview, StatePublished},
		{StatePublished, TriggerApprove, StatePublished},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.trigger), func(t *testing.T) {
			if got := Transition(tt.from, tt.trigger); got != tt.want {
				t.Errorf("Transition(%v, %v) = %v, want %v", tt.from, tt.trigger, got, tt.want)
			}
		})
	}
}

func TestTransition_UnknownInputsAreIdentity(t *testing.T) {
	if got := Transition(StateDraft, Trigger("PUBLISH")); got != StateDraft {
		t.Errorf("unknown trigger moved state to %v", got)
	}
	if got := Transition(State("ARCHIVED"), TriggerApprove); got != State("ARCHIVED") {
		t.Errorf("unknown state moved to %v", got)
	}
}

func TestVisibleContent(t *testing.T) {
	const text = "hello"
	tests := []struct {
		state State
		want  string
	}{
		{StateDraft, ""},
		{StatePendingReview, ""},
		{StatePublished, text},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := VisibleContent(tt.state, text); got != tt.want {
				t.Errorf("VisibleContent() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewMachine_RejectsInvalidState(t *testing.T) {
	_, err := NewMachine(State("INVALID"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("NewMachine() error = %v, want %v", err, ErrInvalidState)
	}
}

func TestMachine_Fire(t *testing.T) {
	machine, err := NewMachine(InitialState)
	if err != nil {
		t.Fatalf("NewMachine() failed: %v", err)
	}

	if s, changed := machine.Fire(TriggerApprove); changed || s != StateDraft {
		t.Errorf("Fire(APPROVE) from draft = (%v, %v), want (%v, false)", s, changed, StateDraft)
	}

	if s, changed := machine.Fire(TriggerRequestReview); !changed || s != StatePendingReview {
		t.Errorf("Fire(REQUEST_REVIEW) = (%v, %v), want (%v, true)", s, changed, StatePendingReview)
	}

	if s, changed := machine.Fire(TriggerRequestReview); changed || s != StatePendingReview {
		t.Errorf("second Fire(REQUEST_REVIEW) = (%v, %v), want (%v, false)", s, changed, StatePendingReview)
	}

	if s, changed := machine.Fire(TriggerApprove); !changed || s != StatePublished {
		t.Errorf("Fire(APPROVE) = (%v, %v), want (%v, true)", s, changed, StatePublished)
	}

	for _, trigger := range Triggers() {
		if s, changed := machine.Fire(trigger); changed || s != StatePublished {
			t.Errorf("Fire(%v) after publish = (%v, %v), want (%v, false)", trigger, s, changed, StatePublished)
		}
	}
}

func TestMachine_PermittedTriggers(t *testing.T) {
	tests := []struct {
		state State
		want  []Trigger
	}{
		{StateDraft, []Trigger{TriggerRequestReview}},
		{StatePendingReview, []Trigger{TriggerApprove}},
		{StatePublished, []Trigger{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			machine, err := NewMachine(tt.state)
			if err != nil {
				t.Fatalf("NewMachine() failed: %v", err)
			}
			got := machine.PermittedTriggers()
			if len(got) != len(tt.want) {
				t.Fatalf("PermittedTriggers() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("PermittedTriggers()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestMachine_ApproveOnlyNeverPublishes(t *testing.T) {
	machine, _ := NewMachine(InitialState)
	for i := 0; i < 10; i++ {
		machine.Fire(TriggerApprove)
	}
	if machine.State() != StateDraft {
		t.Errorf("State after approve-only = %v, want %v", machine.State(), StateDraft)
	}
}

func TestDescribe(t *testing.T) {
	def := Describe()

	if def.Initial != StateDraft {
		t.Errorf("Initial = %v, want %v", def.Initial, StateDraft)
	}
	if len(def.Edges) != len(States())*len(Triggers()) {
		t.Fatalf("Edges = %d, want %d", len(def.Edges), len(States())*len(Triggers()))
	}

	changing := 0
	for _, e := range def.Edges {
		if e.To != Transition(e.From, e.Trigger) {
			t.Errorf("edge %v disagrees with Transition()", e)
		}
		if !e.IsIdentity() {
			changing++
		}
	}
	if changing != 2 {
		t.Errorf("changing edges = %d, want 2", changing)
	}
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{State: StatePublished, Trigger: TriggerApprove}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("TransitionError should unwrap to %v", ErrInvalidTransition)
	}
	want := "invalid state transition: trigger APPROVE from state PUBLISHED"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
