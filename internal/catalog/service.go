package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	dbtypes "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/types"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/money"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/outbox/payloads"
)

var hundred = decimal.NewFromInt(100)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo            *Repository
	DB              txRunner
	Outbox          outbox.Emitter
	Logger          *logger.Logger
	DefaultCurrency enums.Currency
}

// Service manages catalog listings. Mutations are admin only; the router
// enforces that before calls reach here.
type Service interface {
	List(ctx context.Context, filter ListFilter) ([]ListingDTO, error)
	Get(ctx context.Context, id uuid.UUID) (ListingDTO, error)
	Create(ctx context.Context, input ListingInput) (ListingDTO, error)
	Replace(ctx context.Context, id uuid.UUID, input ListingInput) (ListingDTO, error)
	Patch(ctx context.Context, id uuid.UUID, patch ListingPatch) (ListingDTO, error)
	Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error
}

type service struct {
	repo            *Repository
	db              txRunner
	outbox          outbox.Emitter
	logg            *logger.Logger
	defaultCurrency enums.Currency
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox emitter is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	currency := params.DefaultCurrency
	if !currency.IsValid() {
		currency = enums.CurrencyINR
	}
	return &service{
		repo:            params.Repo,
		db:              params.DB,
		outbox:          params.Outbox,
		logg:            params.Logger,
		defaultCurrency: currency,
	}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]ListingDTO, error) {
	listings, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list listings")
	}
	out := make([]ListingDTO, 0, len(listings))
	for _, l := range listings {
		out = append(out, NewListingDTO(l))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (ListingDTO, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return ListingDTO{}, err
	}
	return NewListingDTO(*listing), nil
}

func (s *service) Create(ctx context.Context, input ListingInput) (ListingDTO, error) {
	listing := &models.Listing{}
	s.apply(listing, input)
	if len(listing.Images) == 0 {
		listing.Images = dbtypes.StringList{PlaceholderImage}
	}
	if err := validateListing(listing); err != nil {
		return ListingDTO{}, err
	}
	if err := s.repo.Create(ctx, listing); err != nil {
		return ListingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create listing")
	}
	s.logg.Info(s.logg.WithField(ctx, "listing_id", listing.ID.String()), "listing created")
	return NewListingDTO(*listing), nil
}

func (s *service) Replace(ctx context.Context, id uuid.UUID, input ListingInput) (ListingDTO, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return ListingDTO{}, err
	}
	s.apply(listing, input)
	return s.save(ctx, listing)
}

func (s *service) Patch(ctx context.Context, id uuid.UUID, patch ListingPatch) (ListingDTO, error) {
	listing, err := s.load(ctx, id)
	if err != nil {
		return ListingDTO{}, err
	}
	if patch.Title != nil {
		listing.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.ShortDescription != nil {
		listing.ShortDescription = strings.TrimSpace(*patch.ShortDescription)
	}
	if patch.Description != nil {
		listing.Description = *patch.Description
	}
	if patch.Price != nil {
		listing.Price = *patch.Price
	}
	if patch.Currency != nil {
		listing.Currency = *patch.Currency
	}
	if patch.DiscountPercentage != nil {
		listing.DiscountPercentage = *patch.DiscountPercentage
	}
	if patch.TechStack != nil {
		listing.TechStack = normalizeTags(*patch.TechStack)
	}
	if patch.Domain != nil {
		listing.Domain = strings.TrimSpace(*patch.Domain)
	}
	if patch.Images != nil {
		listing.Images = normalizeList(*patch.Images)
	}
	if patch.Videos != nil {
		listing.Videos = normalizeList(*patch.Videos)
	}
	if patch.Featured != nil {
		listing.Featured = *patch.Featured
	}
	return s.save(ctx, listing)
}

// Delete removes the listing, its mapping and its wishlist entries in one
// transaction and records a listing_deleted event. A listing that has been
// sold is refused with a conflict.
func (s *service) Delete(ctx context.Context, id uuid.UUID, actor *outbox.ActorRef) error {
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		listing, err := txRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		sold, err := txRepo.CountPurchases(ctx, id)
		if err != nil {
			return err
		}
		if sold > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "listing has purchases and cannot be deleted")
		}
		mappingRemoved, wishlistRemoved, err := txRepo.DeleteCascade(ctx, id)
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventListingDeleted,
			AggregateType: enums.AggregateListing,
			AggregateID:   id,
			Actor:         actor,
			Data: payloads.ListingDeletedEvent{
				ListingID:              id,
				Title:                  listing.Title,
				MappingRemoved:         mappingRemoved,
				WishlistEntriesRemoved: wishlistRemoved,
				DeletedAt:              time.Now().UTC(),
			},
		})
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.NotFound("listing")
	case pkgerrors.As(err) != nil:
		return err
	default:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete listing")
	}
	s.logg.Info(s.logg.WithField(ctx, "listing_id", id.String()), "listing deleted")
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Listing, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	listing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("listing")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return listing, nil
}

func (s *service) save(ctx context.Context, listing *models.Listing) (ListingDTO, error) {
	if err := validateListing(listing); err != nil {
		return ListingDTO{}, err
	}
	if err := s.repo.Save(ctx, listing); err != nil {
		return ListingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update listing")
	}
	return NewListingDTO(*listing), nil
}

func (s *service) apply(listing *models.Listing, input ListingInput) {
	currency := input.Currency
	if currency == "" {
		currency = s.defaultCurrency
	}
	listing.Title = strings.TrimSpace(input.Title)
	listing.ShortDescription = strings.TrimSpace(input.ShortDescription)
	listing.Description = input.Description
	listing.Price = input.Price
	listing.Currency = currency
	listing.DiscountPercentage = input.DiscountPercentage
	listing.TechStack = normalizeTags(input.TechStack)
	listing.Domain = strings.TrimSpace(input.Domain)
	listing.Images = normalizeList(input.Images)
	listing.Videos = normalizeList(input.Videos)
	listing.Featured = input.Featured
}

func validateListing(l *models.Listing) error {
	details := map[string]string{}
	if l.Title == "" {
		details["title"] = "is required"
	}
	if l.Domain == "" {
		details["domain"] = "is required"
	}
	if !l.Currency.IsValid() {
		details["currency"] = "is not supported"
	}
	if !l.Price.IsPositive() {
		details["price"] = "must be greater than 0"
	} else if l.Currency.IsValid() {
		if _, err := money.ToMinorUnits(l.Price, l.Currency); err != nil {
			details["price"] = err.Error()
		}
	}
	switch {
	case l.DiscountPercentage.IsNegative() || l.DiscountPercentage.GreaterThan(hundred):
		details["discountPercentage"] = "must be between 0 and 100"
	case details["price"] == "" && l.Currency.IsValid():
		// every listing must be purchasable, so the discount may not erase the price
		if final, err := money.DiscountedPrice(l.Price, l.DiscountPercentage, l.Currency); err != nil || !final.IsPositive() {
			details["discountPercentage"] = "leaves nothing to charge"
		}
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid listing").WithDetails(details)
	}
	return nil
}

// normalizeTags trims, drops blanks and removes case-insensitive duplicates
// while keeping first-seen order.
func normalizeTags(values []string) dbtypes.StringList {
	seen := make(map[string]struct{}, len(values))
	out := make(dbtypes.StringList, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func normalizeList(values []string) dbtypes.StringList {
	out := make(dbtypes.StringList, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
