package analytics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/payloads"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/registry"
)

func resolved(eventType enums.OutboxEventType, aggregate enums.OutboxAggregateType, payload any) *registry.ResolvedEvent {
	data, _ := json.Marshal(payload)
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{EventType: eventType, AggregateType: aggregate},
		Envelope: outbox.PayloadEnvelope{
			Version:    outbox.CurrentVersion,
			EventID:    "evt-1",
			OccurredAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("IST", 19800)),
			Data:       data,
		},
		Payload: payload,
	}
}

func TestBuildRowVerificationFailure(t *testing.T) {
	listingID := uuid.New()
	ingested := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := resolved(enums.EventPaymentVerificationFailed, enums.AggregateListing, &payloads.PaymentVerificationFailedEvent{
		ListingID:     listingID,
		BuyerEmail:    "asha@example.com",
		PaymentID:     "pay_1",
		Reason:        "amount_mismatch",
		ExpectedMinor: 44910,
	})

	row, err := BuildRow(event, listingID.String(), ingested)
	require.NoError(t, err)
	require.Equal(t, "payment_verification_failed", row.EventType)
	require.Equal(t, "amount_mismatch", row.Reason.StringVal)
	require.Equal(t, listingID.String(), row.ListingID.StringVal)
	require.False(t, row.OrderID.Valid)
	require.Equal(t, time.UTC, row.OccurredAt.Location())
	require.JSONEq(t, string(event.Envelope.Data), row.Payload)
	require.Equal(t, ingested, row.IngestedAt.Timestamp)
}

func TestBuildRowOrderStatusChanged(t *testing.T) {
	orderID := uuid.New()
	event := resolved(enums.EventOrderStatusChanged, enums.AggregateOrder, &payloads.OrderStatusChangedEvent{
		OrderID: orderID,
		From:    enums.OrderStatusCreated,
		To:      enums.OrderStatusPaid,
		Source:  "webhook",
	})

	row, err := BuildRow(event, orderID.String(), time.Now())
	require.NoError(t, err)
	require.Equal(t, "paid", row.Status.StringVal)
	require.Equal(t, "webhook", row.Reason.StringVal)
	require.False(t, row.AmountMinor.Valid)
}

func TestBuildRowRejectsUnknownPayload(t *testing.T) {
	event := resolved(enums.EventOrderCreated, enums.AggregateOrder, &struct{}{})
	_, err := BuildRow(event, "x", time.Now())
	require.ErrorIs(t, err, ErrUnsupportedPayload)
}
