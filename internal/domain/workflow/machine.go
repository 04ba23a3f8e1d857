package workflow

// Machine tracks the current review state of one document.
// The zero value is not usable; create machines with NewMachine.
type Machine struct {
	current State
}

// NewMachine creates a machine positioned at the given state
func NewMachine(initial State) (*Machine, error) {
	if !initial.IsValid() {
		return nil, &StateError{Value: string(initial)}
	}
	return &Machine{current: initial}, nil
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanChange returns true if firing the trigger would move the machine to a different state
func (m *Machine) CanChange(trigger Trigger) bool {
	return Transition(m.current, trigger) != m.current
}

// Fire applies the trigger and reports whether the state changed.
// Firing never fails; triggers without an edge leave the state as it was.
func (m *Machine) Fire(trigger Trigger) (State, bool) {
	next := Transition(m.current, trigger)
	changed := next != m.current
	m.current = next
	return next, changed
}

// PermittedTriggers returns the triggers that would change the current state
func (m *Machine) PermittedTriggers() []Trigger {
	triggers := make([]Trigger, 0, len(Triggers()))
	for _, t := range Triggers() {
		if m.CanChange(t) {
			triggers = append(triggers, t)
		}
	}
	return triggers
}
