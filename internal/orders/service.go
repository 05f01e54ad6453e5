package orders

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/config"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/payloads"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/square"
)

const (
	maxReceiptLength = 40
	defaultItemName  = "Project purchase"

	idempotencyConstraint = "orders_idempotency_key_key"
	receiptConstraint     = "orders_receipt_key"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type listingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

// Service is the order ledger: it opens gateway orders and reconciles their
// status from gateway payments.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error)
	VerifyPayment(ctx context.Context, paymentID string) (*OrderDTO, error)
	ConfirmPayment(ctx context.Context, paymentID string) (*models.Order, error)
	ReconcilePayment(ctx context.Context, payment square.GatewayPayment, source string) (*models.Order, error)
	ExpireStale(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// ServiceParams bundles the order ledger dependencies.
type ServiceParams struct {
	Repo     Repository
	DB       txRunner
	Gateway  square.Gateway
	Listings listingReader
	Outbox   outbox.Emitter
	Logger   *logger.Logger
	Metrics  *metrics.MarketplaceMetrics
	Payments config.PaymentsConfig
	Now      func() time.Time
	Sleep    func(ctx context.Context, d time.Duration) error
}

type service struct {
	repo     Repository
	db       txRunner
	gateway  square.Gateway
	listings listingReader
	outbox   outbox.Emitter
	logg     *logger.Logger
	metrics  *metrics.MarketplaceMetrics
	payments config.PaymentsConfig
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway is required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("listing reader is required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	sleep := params.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	return &service{
		repo:     params.Repo,
		db:       params.DB,
		gateway:  params.Gateway,
		listings: params.Listings,
		outbox:   params.Outbox,
		logg:     params.Logger,
		metrics:  params.Metrics,
		payments: params.Payments,
		now:      now,
		sleep:    sleep,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	currency, minor, err := s.resolveAmount(input)
	if err != nil {
		return nil, err
	}

	itemName := defaultItemName
	if input.ListingID != nil {
		listing, err := s.checkListingPrice(ctx, *input.ListingID, currency, minor)
		if err != nil {
			return nil, err
		}
		itemName = listing.Title
	}

	buyer := strings.ToLower(strings.TrimSpace(input.BuyerEmail))
	key := uuid.NewString()
	if clientKey := strings.TrimSpace(input.IdempotencyKey); clientKey != "" {
		key = scopedIdempotencyKey(buyer, clientKey)
		existing, err := s.repo.FindByIdempotencyKey(ctx, key)
		switch {
		case err == nil:
			return replay(existing, currency, minor)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order by idempotency key")
		}
	}

	now := s.now().UTC()
	receipt := strings.TrimSpace(input.Receipt)
	if receipt == "" {
		receipt = fmt.Sprintf("receipt_order_%d", now.UnixMilli())
	}
	if len(receipt) > maxReceiptLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").
			WithDetails(map[string]string{"receipt": fmt.Sprintf("must be at most %d characters", maxReceiptLength)})
	}

	ctx = s.logg.WithFields(ctx, map[string]any{"receipt": receipt, "currency": currency.String()})
	gatewayOrder, attempts, err := s.createWithRetry(ctx, square.OrderCreateParams{
		ReferenceID:    receipt,
		ItemName:       itemName,
		AmountMinor:    minor,
		Currency:       currency.String(),
		IdempotencyKey: key,
	})
	if err != nil {
		s.metrics.OrderCreated(currency.String(), attempts, false)
		s.logg.Error(ctx, "gateway order creation failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreation, err, "payment order could not be created")
	}

	order := &models.Order{
		GatewayOrderID: gatewayOrder.ID,
		IdempotencyKey: key,
		AmountMinor:    minor,
		Currency:       currency,
		Receipt:        receipt,
		Status:         enums.OrderStatusCreated,
		ListingID:      input.ListingID,
	}
	if buyer != "" {
		order.BuyerEmail = &buyer
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         input.Actor,
			Data: payloads.OrderCreatedEvent{
				OrderID:        order.ID,
				GatewayOrderID: order.GatewayOrderID,
				Receipt:        order.Receipt,
				AmountMinor:    order.AmountMinor,
				Currency:       order.Currency,
				ListingID:      order.ListingID,
				BuyerEmail:     order.BuyerEmail,
				Attempts:       attempts,
			},
		})
	})
	if err != nil {
		switch {
		case db.IsUniqueViolation(err, idempotencyConstraint) || db.IsUniqueViolation(err, "orders.idempotency_key"):
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, key)
			if findErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, findErr, "load concurrent order")
			}
			return replay(existing, currency, minor)
		case db.IsUniqueViolation(err, receiptConstraint) || db.IsUniqueViolation(err, "orders.receipt"):
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "receipt already used")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
	}

	s.metrics.OrderCreated(currency.String(), attempts, true)
	s.logg.Info(s.logg.WithField(ctx, "order_id", order.ID.String()), "order created")
	return NewOrderDTO(order), nil
}

// scopedIdempotencyKey binds a client key to its buyer so two buyers reusing
// a key never share an order. The digest keeps it within Square's key length.
func scopedIdempotencyKey(buyer, clientKey string) string {
	if buyer == "" {
		return clientKey
	}
	sum := sha256.Sum256([]byte(buyer + "\x00" + clientKey))
	return "ik_" + hex.EncodeToString(sum[:16])
}

func (s *service) resolveAmount(input CreateOrderInput) (enums.Currency, int64, error) {
	raw := strings.TrimSpace(input.Currency)
	if raw == "" {
		raw = s.payments.DefaultCurrency
	}
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order").
			WithDetails(map[string]string{"currency": "is not supported"})
	}
	if !input.Amount.IsPositive() {
		return "", 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid order").
			WithDetails(map[string]string{"amount": "must be greater than 0"})
	}
	minor, err := money.ToMinorUnits(input.Amount, currency)
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order").
			WithDetails(map[string]string{"amount": err.Error()})
	}
	return currency, minor, nil
}

// checkListingPrice rejects amounts that differ from the listing's discounted
// price so a mismatched order cannot reach the purchase step.
func (s *service) checkListingPrice(ctx context.Context, listingID uuid.UUID, currency enums.Currency, minor int64) (*models.Listing, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("listing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	price, err := money.DiscountedPrice(listing.Price, listing.DiscountPercentage, listing.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute listing price")
	}
	expected, err := money.ToMinorUnits(price, listing.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute listing price")
	}
	if listing.Currency != currency || expected != minor {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match listing price").
			WithDetails(map[string]string{
				"amount":   money.Number(price, listing.Currency).String(),
				"currency": listing.Currency.String(),
			})
	}
	return listing, nil
}

func (s *service) createWithRetry(ctx context.Context, params square.OrderCreateParams) (*square.GatewayOrder, int, error) {
	maxAttempts := s.payments.CreateOrderMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	backoff := s.payments.CreateOrderBackoff
	for attempt := 1; ; attempt++ {
		order, err := s.gateway.CreateOrder(ctx, params)
		if err == nil {
			return order, attempt, nil
		}
		if attempt >= maxAttempts || !retryable(err) {
			return nil, attempt, err
		}
		wait := backoff << (attempt - 1)
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"attempt":  attempt,
			"retry_in": wait.String(),
			"error":    err.Error(),
		}), "gateway order creation failed; retrying")
		if err := s.sleep(ctx, wait); err != nil {
			return nil, attempt, err
		}
	}
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return pkgerrors.IsRetryable(err) || pkgerrors.IsCode(err, pkgerrors.CodeRateLimit)
}

// replay answers a repeated idempotency key. Reusing a key for a different
// amount is a client bug, not a replay.
func replay(existing *models.Order, currency enums.Currency, minor int64) (*OrderDTO, error) {
	if existing.AmountMinor != minor || existing.Currency != currency {
		return nil, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different amount")
	}
	return NewOrderDTO(existing), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
