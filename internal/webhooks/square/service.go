package squarewebhook

import (
	"context"

	"go.uber.org/multierr"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
)

// consumerName scopes webhook dedupe keys in Redis.
const consumerName = "square-webhook"

// SourceWebhook tags order transitions driven by Square deliveries.
const SourceWebhook = "webhook"

// Outcome describes what happened to one delivery.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type signatureVerifier interface {
	VerifySignature(body []byte, signature string) error
}

type paymentReconciler interface {
	ReconcilePayment(ctx context.Context, payment square.GatewayPayment, source string) (*models.Order, error)
}

type deliveryGuard interface {
	CheckAndMarkProcessed(ctx context.Context, consumer, id string) (bool, error)
	Release(ctx context.Context, consumer, id string) error
}

type ServiceParams struct {
	Verifier    signatureVerifier
	Orders      paymentReconciler
	Idempotency deliveryGuard
	Logger      *logger.Logger
}

type Service struct {
	verifier signatureVerifier
	orders   paymentReconciler
	guard    deliveryGuard
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Verifier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "signature verifier required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order reconciler required")
	}
	if params.Idempotency == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		verifier: params.Verifier,
		orders:   params.Orders,
		guard:    params.Idempotency,
		logg:     params.Logger,
	}, nil
}

// Handle verifies and applies one Square delivery. Failures that Square
// should retry release the dedupe claim so the redelivery is processed.
func (s *Service) Handle(ctx context.Context, body []byte, signature string) (Outcome, error) {
	if err := s.verifier.VerifySignature(body, signature); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid webhook signature")
	}
	event, err := square.ParseWebhookEvent(body)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook payload")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"event_id":   event.EventID,
		"event_type": event.Type,
	})

	seen, err := s.guard.CheckAndMarkProcessed(ctx, consumerName, event.EventID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook idempotency check")
	}
	if seen {
		s.logg.Info(ctx, "duplicate square webhook skipped")
		return OutcomeDuplicate, nil
	}

	if !event.IsPaymentEvent() {
		return OutcomeIgnored, nil
	}
	payment, err := event.Payment()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment event")
	}
	if payment.OrderID == "" {
		s.logg.Warn(ctx, "payment event without order id ignored")
		return OutcomeIgnored, nil
	}

	order, err := s.orders.ReconcilePayment(ctx, *payment, SourceWebhook)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			// Payments for orders this service never opened.
			s.logg.Warn(s.logg.WithField(ctx, "gateway_order_id", payment.OrderID), "payment for unknown order ignored")
			return OutcomeIgnored, nil
		}
		if releaseErr := s.guard.Release(ctx, consumerName, event.EventID); releaseErr != nil {
			err = multierr.Append(err, releaseErr)
		}
		return "", err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"status":   order.Status.String(),
	}), "square payment reconciled")
	return OutcomeProcessed, nil
}
