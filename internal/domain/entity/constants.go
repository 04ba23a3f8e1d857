package entity

// Action type constants for DocumentHistory
const (
	ActionCreate        = "CREATE"
	ActionTextAdded     = "TEXT_ADDED"
	ActionRequestReview = "REQUEST_REVIEW"
	ActionApprove       = "APPROVE"
)

// Default actor recorded when a caller does not identify itself
const ActorSystem = "system"
