package enums

// AnalyticsEventType is the subset of outbox events the analytics worker
// writes to BigQuery. listing_deleted is not forwarded.
type AnalyticsEventType string

const (
	AnalyticsEventOrderCreated              = AnalyticsEventType(EventOrderCreated)
	AnalyticsEventOrderStatusChanged        = AnalyticsEventType(EventOrderStatusChanged)
	AnalyticsEventPurchaseRecorded          = AnalyticsEventType(EventPurchaseRecorded)
	AnalyticsEventPaymentVerificationFailed = AnalyticsEventType(EventPaymentVerificationFailed)
)

var analyticsEventTypes = []AnalyticsEventType{
	AnalyticsEventOrderCreated,
	AnalyticsEventOrderStatusChanged,
	AnalyticsEventPurchaseRecorded,
	AnalyticsEventPaymentVerificationFailed,
}

func (a AnalyticsEventType) IsValid() bool { return known(analyticsEventTypes, a) }

func ParseAnalyticsEventType(value string) (AnalyticsEventType, error) {
	return parse(analyticsEventTypes, value, "analytics event type")
}
