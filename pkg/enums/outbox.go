package enums

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventOrderCreated OutboxEventType = "order.created"
	EventOrderPaid    OutboxEventType = "order.paid"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder OutboxAggregateType = "order"
)

// OutboxDLQErrorReason classifies why an outbox row landed in the DLQ.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)
