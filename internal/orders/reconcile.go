package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/payloads"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
)

// Reconciliation sources recorded on order_status_changed events.
const (
	SourceWebhook  = "webhook"
	SourceVerify   = "verify"
	SourcePurchase = "purchase"
	SourceExpiry   = "expiry"
)

// VerifyPayment pulls the payment from the gateway, applies it to its order
// and returns the result.
func (s *service) VerifyPayment(ctx context.Context, paymentID string) (*OrderDTO, error) {
	order, err := s.confirm(ctx, paymentID, SourceVerify)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

// ConfirmPayment returns the order funded by paymentID. Orders already marked
// paid are served from the ledger; anything else is refreshed from the gateway
// first. The client's view of the payment is never trusted.
func (s *service) ConfirmPayment(ctx context.Context, paymentID string) (*models.Order, error) {
	return s.confirm(ctx, paymentID, SourcePurchase)
}

func (s *service) confirm(ctx context.Context, paymentID, source string) (*models.Order, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}
	order, err := s.repo.FindByGatewayPaymentID(ctx, paymentID)
	switch {
	case err == nil && order.Status == enums.OrderStatusPaid:
		return order, nil
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by payment")
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.NotFound("payment")
		}
		return nil, err
	}
	return s.ReconcilePayment(ctx, *payment, source)
}

// ReconcilePayment applies a gateway payment to the order it belongs to.
// Completed payments of the exact order amount mark it paid; failed or
// canceled payments mark it failed. Every transition emits
// order_status_changed in the same transaction. Paid orders never move.
func (s *service) ReconcilePayment(ctx context.Context, payment square.GatewayPayment, source string) (*models.Order, error) {
	if strings.TrimSpace(payment.OrderID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment is not attached to an order")
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"payment_id":       payment.ID,
		"gateway_order_id": payment.OrderID,
		"payment_status":   payment.Status,
		"source":           source,
	})

	var result *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindByGatewayOrderIDForUpdate(ctx, payment.OrderID)
		if err != nil {
			return err
		}
		result = order

		next, ok := s.targetStatus(ctx, order, payment)
		if !ok || !order.Status.CanTransitionTo(next) {
			return nil
		}
		at := s.now().UTC()
		update := StatusUpdate{Status: next, At: at}
		if next == enums.OrderStatusPaid {
			paymentID := payment.ID
			update.GatewayPaymentID = &paymentID
		}
		changed, err := txRepo.UpdateStatus(ctx, order.ID, order.Status, update)
		if err != nil || !changed {
			return err
		}
		if err := s.emitStatusChanged(ctx, tx, order, update, source); err != nil {
			return err
		}
		result, err = txRepo.FindByID(ctx, order.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("order")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reconcile order")
	}
	return result, nil
}

func (s *service) targetStatus(ctx context.Context, order *models.Order, payment square.GatewayPayment) (enums.OrderStatus, bool) {
	switch {
	case payment.Completed():
		if payment.AmountMinor != order.AmountMinor || !strings.EqualFold(payment.Currency, order.Currency.String()) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"order_amount":   order.AmountMinor,
				"payment_amount": payment.AmountMinor,
			}), "completed payment does not match order amount")
			return "", false
		}
		return enums.OrderStatusPaid, true
	case payment.Terminal():
		return enums.OrderStatusFailed, true
	default:
		return "", false
	}
}

func (s *service) emitStatusChanged(ctx context.Context, tx *gorm.DB, order *models.Order, update StatusUpdate, source string) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:          order.ID,
			GatewayOrderID:   order.GatewayOrderID,
			GatewayPaymentID: update.GatewayPaymentID,
			From:             order.Status,
			To:               update.Status,
			Source:           source,
			ChangedAt:        update.At,
		},
	})
}

// ExpireStale fails created orders older than cutoff. It returns how many
// orders moved; per-order failures are combined into the returned error.
func (s *service) ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	stale, err := s.repo.ListStaleCreated(ctx, cutoff, limit)
	if err != nil {
		return 0, err
	}
	var (
		expired int
		errs    error
	)
	for i := range stale {
		order := stale[i]
		var changed bool
		err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
			update := StatusUpdate{Status: enums.OrderStatusFailed, At: s.now().UTC()}
			ok, err := s.repo.WithTx(tx).UpdateStatus(ctx, order.ID, enums.OrderStatusCreated, update)
			if err != nil || !ok {
				return err
			}
			changed = true
			return s.emitStatusChanged(ctx, tx, &order, update, SourceExpiry)
		})
		switch {
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
		case changed:
			expired++
		}
	}
	return expired, errs
}
