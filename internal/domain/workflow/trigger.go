package workflow

// Trigger represents a caller request that may cause a state transition
type Trigger string

const (
	TriggerRequestReview Trigger = "REQUEST_REVIEW"
	TriggerApprove       Trigger = "APPROVE"
)

// Triggers returns every trigger the workflow understands
func Triggers() []Trigger {
	return []Trigger{TriggerRequestReview, TriggerApprove}
}

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// IsValid returns true if the trigger is known to the workflow
func (t Trigger) IsValid() bool {
	switch t {
	case TriggerRequestReview, TriggerApprove:
		return true
	default:
		return false
	}
}
