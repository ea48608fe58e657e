// Package audit defines the journal written alongside every state change.
package audit

import "context"

// Actions recorded in the journal.
const (
	ActionRegister = "register"
	ActionModify   = "modify"
	ActionReset    = "reset"
	ActionSuspend  = "suspend"
	ActionResume   = "resume"
	ActionOpen     = "open"
)

// Entry is one journal row. Payload is serialized by the recorder.
type Entry struct {
	EntityType string
	EntityID   string
	Action     string
	Payload    any
}

// Recorder persists journal entries inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}
