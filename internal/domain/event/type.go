package event

// Type identifies the type of domain event
type Type string

const (
	TypeDocumentCreated   Type = "document.created"
	TypeTextAdded         Type = "document.text_added"
	TypeStatusChanged     Type = "document.status_changed"
	TypeDocumentPublished Type = "document.published"
	TypeTransitionIgnored Type = "document.transition_ignored"
)

// Types returns every defined event type
func Types() []Type {
	return []Type{
		TypeDocumentCreated,
		TypeTextAdded,
		TypeStatusChanged,
		TypeDocumentPublished,
		TypeTransitionIgnored,
	}
}

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeDocumentCreated,
		TypeTextAdded,
		TypeStatusChanged,
		TypeDocumentPublished,
		TypeTransitionIgnored:
		return true
	default:
		return false
	}
}
