// Package events defines the integration events emitted by the registration core.
// Events are stored in the transactional outbox and relayed to Kafka by the worker.
package events

import "context"

// Event types.
const (
	TypeWeighingRegistered       = "weighing.registered"
	TypeWeighingReset            = "weighing.reset"
	TypeOperationSuspension      = "operation.suspension_changed"
	TypeMultiOperationProcessed  = "operation.multi_operation_opened"
)

// Aggregate types.
const (
	AggregateOperation = "operation"
)

// Event is a domain fact to be published once its transaction commits.
type Event struct {
	AggregateType string
	AggregateID   string
	Type          string
	Payload       any
}

// Publisher stores events inside the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
