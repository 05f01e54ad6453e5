package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
)

// MarketplaceEventRow mirrors the marketplace_events table. Columns that do
// not apply to an event type stay NULL.
type MarketplaceEventRow struct {
	EventID       string
	EventType     string
	AggregateType string
	AggregateID   string
	OccurredAt    time.Time
	ListingID     bigquery.NullString
	OrderID       bigquery.NullString
	BuyerEmail    bigquery.NullString
	AmountMinor   bigquery.NullInt64
	Currency      bigquery.NullString
	Status        bigquery.NullString
	Reason        bigquery.NullString
	Payload       string
	IngestedAt    bigquery.NullTimestamp
}

var _ bigquery.ValueSaver = MarketplaceEventRow{}

// Save implements bigquery.ValueSaver with EventID as the insert id.
func (r MarketplaceEventRow) Save() (map[string]bigquery.Value, string, error) {
	return map[string]bigquery.Value{
		"event_id":       r.EventID,
		"event_type":     r.EventType,
		"aggregate_type": r.AggregateType,
		"aggregate_id":   r.AggregateID,
		"occurred_at":    r.OccurredAt,
		"listing_id":     r.ListingID,
		"order_id":       r.OrderID,
		"buyer_email":    r.BuyerEmail,
		"amount_minor":   r.AmountMinor,
		"currency":       r.Currency,
		"status":         r.Status,
		"reason":         r.Reason,
		"payload":        r.Payload,
		"ingested_at":    r.IngestedAt,
	}, r.EventID, nil
}
