package wishlist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// Toggle outcomes.
const (
	StatusAdded   = "added"
	StatusRemoved = "removed"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ToggleResult is the response of POST /api/wishlist/toggle.
type ToggleResult struct {
	Status string `json:"status"`
}

type ServiceParams struct {
	Repo     *Repository
	Listings *catalog.Repository
	DB       txRunner
	Logger   *logger.Logger
	Now      func() time.Time
}

// Service flips and lists a buyer's favorites.
type Service interface {
	Toggle(ctx context.Context, email string, listingID uuid.UUID) (ToggleResult, error)
	List(ctx context.Context, email string) ([]catalog.ListingDTO, error)
}

type service struct {
	repo     *Repository
	listings *catalog.Repository
	db       txRunner
	logg     *logger.Logger
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("wishlist repository is required")
	}
	if params.Listings == nil {
		return nil, fmt.Errorf("catalog repository is required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:     params.Repo,
		listings: params.Listings,
		db:       params.DB,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// Toggle removes the entry if present and inserts it otherwise. The listing
// row lock serializes toggles for the same listing, and the conditional
// delete plus insert-or-ignore never leaves two entries behind.
func (s *service) Toggle(ctx context.Context, email string, listingID uuid.UUID) (ToggleResult, error) {
	email = normalizeEmail(email)
	details := map[string]string{}
	if email == "" {
		details["email"] = "is required"
	}
	if listingID == uuid.Nil {
		details["projectId"] = "is required"
	}
	if len(details) > 0 {
		return ToggleResult{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid wishlist toggle").WithDetails(details)
	}

	var result ToggleResult
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.listings.WithTx(tx).FindByIDForUpdate(ctx, listingID); err != nil {
			return err
		}
		txRepo := s.repo.WithTx(tx)
		removed, err := txRepo.Remove(ctx, email, listingID)
		if err != nil {
			return err
		}
		if removed {
			result.Status = StatusRemoved
			return nil
		}
		if _, err := txRepo.Add(ctx, email, listingID, s.now().UTC()); err != nil {
			return err
		}
		result.Status = StatusAdded
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ToggleResult{}, pkgerrors.NotFound("listing")
		}
		return ToggleResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "toggle wishlist")
	}
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"listing_id": listingID.String(),
		"status":     result.Status,
	}), "wishlist toggled")
	return result, nil
}

// List returns the favorited listings. Entries of deleted listings are gone
// with the listing.
func (s *service) List(ctx context.Context, email string) ([]catalog.ListingDTO, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	listings, err := s.repo.ListListings(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}
	out := make([]catalog.ListingDTO, 0, len(listings))
	for _, l := range listings {
		out = append(out, catalog.NewListingDTO(l))
	}
	return out, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
