package purchases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/mappings"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/orders"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/metrics"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/payloads"
)

// Reasons attached to payment verification failures.
const (
	ReasonPaymentNotFound = "payment_not_found"
	ReasonPaymentNotPaid  = "payment_not_paid"
	ReasonAmountMismatch  = "amount_mismatch"
	ReasonCurrency        = "currency_mismatch"
	ReasonListingMismatch = "order_listing_mismatch"
	ReasonBuyerMismatch   = "order_buyer_mismatch"
	ReasonPaymentConsumed = "payment_already_used"
)

var errOrderNotConsumable = errors.New("order is not consumable")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// paymentConfirmer resolves a gateway payment id to its reconciled order.
type paymentConfirmer interface {
	ConfirmPayment(ctx context.Context, paymentID string) (*models.Order, error)
}

// ServiceParams bundles the purchase recorder dependencies.
type ServiceParams struct {
	Repo     *Repository
	Listings *catalog.Repository
	Mappings *mappings.Repository
	Orders   orders.Repository
	Payments paymentConfirmer
	DB       txRunner
	Outbox   outbox.Emitter
	Logger   *logger.Logger
	Metrics  *metrics.MarketplaceMetrics
	Now      func() time.Time
}

// Service records purchases and serves a buyer's purchase history.
type Service interface {
	Store(ctx context.Context, input StoreInput) (*StoreResult, error)
	ListByEmail(ctx context.Context, email string) ([]PurchaseDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
}

type service struct {
	repo     *Repository
	listings *catalog.Repository
	mappings *mappings.Repository
	orders   orders.Repository
	payments paymentConfirmer
	db       txRunner
	outbox   outbox.Emitter
	logg     *logger.Logger
	metrics  *metrics.MarketplaceMetrics
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("purchases repository is required")
	case params.Listings == nil:
		return nil, fmt.Errorf("catalog repository is required")
	case params.Mappings == nil:
		return nil, fmt.Errorf("mappings repository is required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders repository is required")
	case params.Payments == nil:
		return nil, fmt.Errorf("payment confirmer is required")
	case params.DB == nil:
		return nil, fmt.Errorf("transaction runner is required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter is required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		listings: params.Listings,
		mappings: params.Mappings,
		orders:   params.Orders,
		payments: params.Payments,
		db:       params.DB,
		outbox:   params.Outbox,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// Store records a purchase for a verified, unconsumed payment. The checks
// run in a fixed order: listing, mapping, price, then payment. Purchase
// insert, order consumption and the sold-count increment commit together.
func (s *service) Store(ctx context.Context, input StoreInput) (*StoreResult, error) {
	input, err := normalizeStoreInput(input)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"listing_id": input.ListingID.String(),
		"payment_id": input.PaymentID,
	})

	listing, err := s.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, notFoundOr(err, "listing")
	}
	mapping, err := s.mappings.FindByListingID(ctx, listing.ID)
	if err != nil {
		return nil, notFoundOr(err, "mapping")
	}
	price, err := money.DiscountedPrice(listing.Price, listing.DiscountPercentage, listing.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute price")
	}
	expectedMinor, err := money.ToMinorUnits(price, listing.Currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "compute price")
	}

	if existing, err := s.repo.FindByTriple(ctx, input.Email, listing.ID, input.PaymentID); err == nil {
		return s.replay(ctx, existing), nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load purchase")
	}

	order, err := s.payments.ConfirmPayment(ctx, input.PaymentID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, s.reject(ctx, input, listing, nil, ReasonPaymentNotFound, expectedMinor)
		}
		return nil, err
	}
	if reason := verifyOrder(order, listing, input.Email, expectedMinor); reason != "" {
		if reason == ReasonPaymentConsumed {
			// An identical request may have committed since the first lookup.
			if existing, err := s.repo.FindByTriple(ctx, input.Email, listing.ID, input.PaymentID); err == nil {
				return s.replay(ctx, existing), nil
			}
		}
		return nil, s.reject(ctx, input, listing, order, reason, expectedMinor)
	}

	purchase := &models.Purchase{
		ID:            uuid.New(),
		BuyerUsername: input.Username,
		BuyerEmail:    input.Email,
		ListingID:     listing.ID,
		ListingTitle:  listing.Title,
		PricePaid:     price,
		Currency:      listing.Currency,
		DriveURL:      mapping.DriveURL,
		PaymentID:     input.PaymentID,
		OrderID:       order.ID,
	}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.record(ctx, tx, purchase, order, input.Actor, expectedMinor)
	})
	if err != nil {
		return s.resolveStoreError(ctx, err, input, listing, order, expectedMinor)
	}

	s.metrics.PurchaseRecorded(listing.Currency.String(), false)
	s.logg.Info(s.logg.WithField(ctx, "purchase_id", purchase.ID.String()), "purchase recorded")
	return newStoreResult(purchase, false), nil
}

func (s *service) record(ctx context.Context, tx *gorm.DB, purchase *models.Purchase, order *models.Order, actor *outbox.ActorRef, amountMinor int64) error {
	if err := s.repo.WithTx(tx).Create(ctx, purchase); err != nil {
		return err
	}
	consumed, err := s.orders.WithTx(tx).Consume(ctx, order.ID, purchase.ID, s.now().UTC())
	if err != nil {
		return err
	}
	if !consumed {
		return errOrderNotConsumable
	}
	if _, err := s.listings.WithTx(tx).IncrementSoldCount(ctx, purchase.ListingID); err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPurchaseRecorded,
		AggregateType: enums.AggregatePurchase,
		AggregateID:   purchase.ID,
		Actor:         actor,
		Data: payloads.PurchaseRecordedEvent{
			PurchaseID:   purchase.ID,
			OrderID:      order.ID,
			ListingID:    purchase.ListingID,
			ListingTitle: purchase.ListingTitle,
			BuyerEmail:   purchase.BuyerEmail,
			PaymentID:    purchase.PaymentID,
			PricePaid:    purchase.PricePaid.StringFixed(purchase.Currency.MinorUnitExponent()),
			AmountMinor:  amountMinor,
			Currency:     purchase.Currency,
		},
	})
}

// resolveStoreError sorts out a failed purchase transaction. A concurrent
// identical request that won the race is a replay; any other writer that
// already spent the payment makes this request a verification failure.
func (s *service) resolveStoreError(ctx context.Context, err error, input StoreInput, listing *models.Listing, order *models.Order, expectedMinor int64) (*StoreResult, error) {
	lost := errors.Is(err, errOrderNotConsumable) ||
		db.IsUniqueViolation(err, tripleConstraint) ||
		db.IsUniqueViolation(err, paymentConstraint) ||
		db.IsUniqueViolation(err, "purchases.payment_id")
	if !lost {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store purchase")
	}
	if existing, findErr := s.repo.FindByTriple(ctx, input.Email, listing.ID, input.PaymentID); findErr == nil {
		return s.replay(ctx, existing), nil
	}
	return nil, s.reject(ctx, input, listing, order, ReasonPaymentConsumed, expectedMinor)
}

func (s *service) replay(ctx context.Context, existing *models.Purchase) *StoreResult {
	s.metrics.PurchaseRecorded(existing.Currency.String(), true)
	s.logg.Info(s.logg.WithField(ctx, "purchase_id", existing.ID.String()), "purchase replayed")
	return newStoreResult(existing, true)
}

// verifyOrder checks the order funds this buyer's purchase of this listing.
func verifyOrder(order *models.Order, listing *models.Listing, buyerEmail string, expectedMinor int64) string {
	switch {
	case order.Status != enums.OrderStatusPaid:
		return ReasonPaymentNotPaid
	case order.BuyerEmail != nil && !strings.EqualFold(*order.BuyerEmail, buyerEmail):
		return ReasonBuyerMismatch
	case order.ListingID != nil && *order.ListingID != listing.ID:
		return ReasonListingMismatch
	case order.Currency != listing.Currency:
		return ReasonCurrency
	case order.AmountMinor != expectedMinor:
		return ReasonAmountMismatch
	case order.IsConsumed():
		return ReasonPaymentConsumed
	}
	return ""
}

// reject records the failed verification as an audit event and returns the
// error handed to the buyer. The audit write is best effort.
func (s *service) reject(ctx context.Context, input StoreInput, listing *models.Listing, order *models.Order, reason string, expectedMinor int64) error {
	s.metrics.VerificationFailed(reason)
	event := payloads.PaymentVerificationFailedEvent{
		ListingID:     listing.ID,
		BuyerEmail:    input.Email,
		PaymentID:     input.PaymentID,
		Reason:        reason,
		ExpectedMinor: expectedMinor,
	}
	if order != nil {
		event.OrderID = &order.ID
		actual := order.AmountMinor
		event.ActualMinor = &actual
	}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentVerificationFailed,
			AggregateType: enums.AggregateListing,
			AggregateID:   listing.ID,
			Actor:         input.Actor,
			Data:          event,
		})
	})
	if err != nil {
		s.logg.Error(ctx, "failed to record payment verification failure", err)
	}
	s.logg.Warn(s.logg.WithField(ctx, "reason", reason), "payment verification failed")
	return pkgerrors.New(pkgerrors.CodePaymentVerification, "payment could not be verified").
		WithDetails(map[string]string{"reason": reason})
}

func (s *service) ListByEmail(ctx context.Context, email string) ([]PurchaseDTO, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	rows, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list purchases")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ListingID)
	}
	listings, err := s.listings.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve purchased listings")
	}
	out := make([]PurchaseDTO, 0, len(rows))
	for _, p := range rows {
		var current *models.Listing
		if l, ok := listings[p.ListingID]; ok {
			current = &l
		}
		out = append(out, newPurchaseDTO(p, current))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "purchase")
	}
	return purchase, nil
}

func normalizeStoreInput(in StoreInput) (StoreInput, error) {
	in.Email = normalizeEmail(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.PaymentID = strings.TrimSpace(in.PaymentID)

	details := map[string]string{}
	if in.Email == "" {
		details["email"] = "is required"
	}
	if in.ListingID == uuid.Nil {
		details["projectId"] = "is required"
	}
	if in.PaymentID == "" {
		details["paymentId"] = "is required"
	}
	if len(details) > 0 {
		return in, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase").WithDetails(details)
	}
	if in.Username == "" {
		in.Username, _, _ = strings.Cut(in.Email, "@")
	}
	return in, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func notFoundOr(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(resource)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+resource)
}
