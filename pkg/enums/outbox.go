package enums

// OutboxAggregateType identifies the entity an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregatePurchase OutboxAggregateType = "purchase"
	AggregateListing  OutboxAggregateType = "listing"
)

var aggregateTypes = []OutboxAggregateType{AggregateOrder, AggregatePurchase, AggregateListing}

func (a OutboxAggregateType) IsValid() bool { return known(aggregateTypes, a) }

func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	return parse(aggregateTypes, value, "aggregate type")
}

// OutboxEventType names a domain event written to the outbox. The value is
// also the Pub/Sub event_type attribute.
type OutboxEventType string

const (
	EventOrderCreated              OutboxEventType = "order_created"
	EventOrderStatusChanged        OutboxEventType = "order_status_changed"
	EventPurchaseRecorded          OutboxEventType = "purchase_recorded"
	EventPaymentVerificationFailed OutboxEventType = "payment_verification_failed"
	EventListingDeleted            OutboxEventType = "listing_deleted"
)

var outboxEventTypes = []OutboxEventType{
	EventOrderCreated,
	EventOrderStatusChanged,
	EventPurchaseRecorded,
	EventPaymentVerificationFailed,
	EventListingDeleted,
}

func (e OutboxEventType) IsValid() bool { return known(outboxEventTypes, e) }

func ParseOutboxEventType(value string) (OutboxEventType, error) {
	return parse(outboxEventTypes, value, "event type")
}

// OutboxDLQErrorReason records why the publisher gave up on an event.
type OutboxDLQErrorReason string

const (
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	return known([]OutboxDLQErrorReason{OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable}, r)
}
