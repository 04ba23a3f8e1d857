package entity

import "time"

// DocumentHistory is one entry in the audit trail of a document.
// Ignored transition requests are recorded too, with Changed set to false.
type DocumentHistory struct {
	ID            int64     `json:"id"`
	DocumentID    int64     `json:"document_id"`
	Actor         string    `json:"actor"`
	PreviousState string    `json:"previous_state"`
	NewState      string    `json:"new_state"`
	ActionType    string    `json:"action_type"`
	ActionData    string    `json:"action_data"`
	Changed       bool      `json:"changed"`
	Timestamp     time.Time `json:"timestamp"`
}
