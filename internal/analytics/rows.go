// Package analytics turns marketplace outbox events into warehouse rows.
package analytics

import (
	"errors"
	"fmt"
	"time"

	cbigquery "cloud.google.com/go/bigquery"

	pkgbigquery "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/bigquery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/payloads"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/registry"
)

// ErrUnsupportedPayload marks events the warehouse has no columns for.
var ErrUnsupportedPayload = errors.New("unsupported analytics payload")

// BuildRow flattens a decoded event. The raw envelope data is kept in the
// payload column so nothing is lost when a field has no dedicated column.
func BuildRow(event *registry.ResolvedEvent, aggregateID string, ingestedAt time.Time) (pkgbigquery.MarketplaceEventRow, error) {
	if event == nil {
		return pkgbigquery.MarketplaceEventRow{}, errors.New("event required")
	}
	row := pkgbigquery.MarketplaceEventRow{
		EventID:       event.Envelope.EventID,
		EventType:     string(event.Descriptor.EventType),
		AggregateType: string(event.Descriptor.AggregateType),
		AggregateID:   aggregateID,
		OccurredAt:    event.Envelope.OccurredAt.UTC(),
		Payload:       string(event.Envelope.Data),
		IngestedAt:    cbigquery.NullTimestamp{Timestamp: ingestedAt.UTC(), Valid: true},
	}
	if event.Envelope.Actor != nil && event.Envelope.Actor.Email != "" {
		row.BuyerEmail = nullString(event.Envelope.Actor.Email)
	}

	switch p := event.Payload.(type) {
	case *payloads.OrderCreatedEvent:
		row.OrderID = nullString(p.OrderID.String())
		row.AmountMinor = nullInt(p.AmountMinor)
		row.Currency = nullString(string(p.Currency))
		if p.ListingID != nil {
			row.ListingID = nullString(p.ListingID.String())
		}
		if p.BuyerEmail != nil {
			row.BuyerEmail = nullString(*p.BuyerEmail)
		}
	case *payloads.OrderStatusChangedEvent:
		row.OrderID = nullString(p.OrderID.String())
		row.Status = nullString(string(p.To))
		row.Reason = nullString(p.Source)
	case *payloads.PurchaseRecordedEvent:
		row.OrderID = nullString(p.OrderID.String())
		row.ListingID = nullString(p.ListingID.String())
		row.BuyerEmail = nullString(p.BuyerEmail)
		row.AmountMinor = nullInt(p.AmountMinor)
		row.Currency = nullString(string(p.Currency))
	case *payloads.PaymentVerificationFailedEvent:
		row.ListingID = nullString(p.ListingID.String())
		row.BuyerEmail = nullString(p.BuyerEmail)
		row.Reason = nullString(p.Reason)
		row.AmountMinor = nullInt(p.ExpectedMinor)
		if p.OrderID != nil {
			row.OrderID = nullString(p.OrderID.String())
		}
	case *payloads.ListingDeletedEvent:
		row.ListingID = nullString(p.ListingID.String())
	default:
		return pkgbigquery.MarketplaceEventRow{}, fmt.Errorf("%w: %T", ErrUnsupportedPayload, event.Payload)
	}
	if row.EventID == "" {
		return pkgbigquery.MarketplaceEventRow{}, errors.New("event id missing")
	}
	return row, nil
}

func nullString(v string) cbigquery.NullString {
	return cbigquery.NullString{StringVal: v, Valid: v != ""}
}

func nullInt(v int64) cbigquery.NullInt64 {
	return cbigquery.NullInt64{Int64: v, Valid: true}
}
