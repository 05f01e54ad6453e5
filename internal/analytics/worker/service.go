package worker

import (
	"context"
	"errors"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"go.uber.org/multierr"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/analytics"
	pkgbigquery "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/bigquery"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/registry"
)

const consumerName = "analytics"

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type eventDecoder interface {
	Decode(eventType enums.OutboxEventType, body []byte) (*registry.ResolvedEvent, error)
}

type rowWriter interface {
	Write(ctx context.Context, rows ...pkgbigquery.MarketplaceEventRow) error
}

type deliveryGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, id string) (bool, error)
	Release(ctx context.Context, consumer, id string) error
}

type ServiceParams struct {
	Subscription receiver
	Registry     eventDecoder
	Writer       rowWriter
	Idempotency  deliveryGuard
	Logger       *logger.Logger
}

// Service copies analytics-topic events into the warehouse, at most once
// per event id within the idempotency TTL.
type Service struct {
	subscription receiver
	registry     eventDecoder
	writer       rowWriter
	guard        deliveryGuard
	logg         *logger.Logger
	now          func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Subscription == nil:
		return nil, errors.New("analytics subscription is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.Writer == nil:
		return nil, errors.New("bigquery writer is required")
	case params.Idempotency == nil:
		return nil, errors.New("idempotency manager is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	}
	return &Service{
		subscription: params.Subscription,
		registry:     params.Registry,
		writer:       params.Writer,
		guard:        params.Idempotency,
		logg:         params.Logger,
		now:          time.Now,
	}, nil
}

// Run blocks receiving messages until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	return s.subscription.Receive(ctx, func(msgCtx context.Context, msg *gcppubsub.Message) {
		if s.process(msgCtx, msg) == outcomeRetry {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type outcome int

const (
	outcomeDone outcome = iota
	outcomeSkipped
	outcomeRetry
)

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) outcome {
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"message_id":   msg.ID,
		"event_type":   attr("event_type"),
		"aggregate_id": attr("aggregate_id"),
	})

	eventType, err := enums.ParseAnalyticsEventType(attr("event_type"))
	if err != nil {
		s.logg.Debug(logCtx, "not an analytics event; acking")
		return outcomeSkipped
	}

	resolved, err := s.registry.Decode(enums.OutboxEventType(eventType), msg.Data)
	if err != nil {
		// Registry errors are all NonRetryable: the body will never decode.
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "undecodable analytics event dropped")
		return outcomeSkipped
	}

	eventID := resolved.Envelope.EventID
	if eventID == "" {
		eventID = attr("event_id")
	}
	if eventID == "" {
		s.logg.Warn(logCtx, "analytics event without id dropped")
		return outcomeSkipped
	}
	resolved.Envelope.EventID = eventID
	logCtx = s.logg.WithField(logCtx, "event_id", eventID)

	row, err := analytics.BuildRow(resolved, attr("aggregate_id"), s.now())
	if err != nil {
		s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "analytics row build failed")
		return outcomeSkipped
	}

	seen, err := s.guard.CheckAndMarkProcessed(logCtx, consumerName, eventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return outcomeRetry
	}
	if seen {
		s.logg.Info(logCtx, "analytics event already stored")
		return outcomeSkipped
	}

	if err := s.writer.Write(logCtx, row); err != nil {
		if relErr := s.guard.Release(logCtx, consumerName, eventID); relErr != nil {
			err = multierr.Append(err, relErr)
		}
		s.logg.Error(logCtx, "analytics insert failed", err)
		return outcomeRetry
	}

	s.logg.Info(logCtx, "analytics event stored")
	return outcomeDone
}
