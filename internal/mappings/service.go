package mappings

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/db/models"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

const listingUniqueConstraint = "entitlement_mappings_listing_id_key"

// MappingDTO is the API shape of a mapping. ProjectTitle is read from the
// listing on every request so renames show up immediately.
type MappingDTO struct {
	ID           uuid.UUID `json:"id"`
	ListingID    uuid.UUID `json:"projectId"`
	ProjectTitle string    `json:"projectTitle"`
	DriveURL     string    `json:"driveUrl"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MappingInput is the body of create and update.
type MappingInput struct {
	ListingID uuid.UUID
	DriveURL  string
}

type listingReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Listing, error)
}

type ServiceParams struct {
	Repo     *Repository
	Listings listingReader
	Logger   *logger.Logger
}

// Service manages listing to delivery folder mappings.
type Service interface {
	List(ctx context.Context) ([]MappingDTO, error)
	Get(ctx context.Context, id uuid.UUID) (MappingDTO, error)
	Create(ctx context.Context, input MappingInput) (MappingDTO, error)
	Update(ctx context.Context, id uuid.UUID, input MappingInput) (MappingDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     *Repository
	listings listingReader
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "mapping repo is required")
	}
	if params.Listings == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing reader is required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "logger is required")
	}
	return &service{repo: params.Repo, listings: params.Listings, logg: params.Logger}, nil
}

var _ listingReader = (*catalog.Repository)(nil)

func (s *service) List(ctx context.Context) ([]MappingDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list mappings")
	}
	out := make([]MappingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDTO(row))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (MappingDTO, error) {
	row, err := s.repo.FindRowByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MappingDTO{}, pkgerrors.NotFound("mapping")
		}
		return MappingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mapping")
	}
	return toDTO(*row), nil
}

func (s *service) Create(ctx context.Context, input MappingInput) (MappingDTO, error) {
	driveURL, err := s.validate(ctx, input)
	if err != nil {
		return MappingDTO{}, err
	}
	mapping := &models.EntitlementMapping{ListingID: input.ListingID, DriveURL: driveURL}
	if err := s.repo.Create(ctx, mapping); err != nil {
		return MappingDTO{}, mapWriteError(err, "create mapping")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"mapping_id": mapping.ID.String(),
		"listing_id": mapping.ListingID.String(),
	}), "mapping created")
	return s.Get(ctx, mapping.ID)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input MappingInput) (MappingDTO, error) {
	mapping, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MappingDTO{}, pkgerrors.NotFound("mapping")
		}
		return MappingDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load mapping")
	}
	driveURL, err := s.validate(ctx, input)
	if err != nil {
		return MappingDTO{}, err
	}
	mapping.ListingID = input.ListingID
	mapping.DriveURL = driveURL
	if err := s.repo.Update(ctx, mapping); err != nil {
		return MappingDTO{}, mapWriteError(err, "update mapping")
	}
	return s.Get(ctx, mapping.ID)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete mapping")
	}
	if !deleted {
		return pkgerrors.NotFound("mapping")
	}
	return nil
}

// validate checks the url and that the listing exists.
func (s *service) validate(ctx context.Context, input MappingInput) (string, error) {
	if input.ListingID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid mapping").
			WithDetails(map[string]string{"projectId": "is required"})
	}
	driveURL := strings.TrimSpace(input.DriveURL)
	if !isHTTPURL(driveURL) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid mapping").
			WithDetails(map[string]string{"driveUrl": "must be an http(s) url"})
	}
	if _, err := s.listings.FindByID(ctx, input.ListingID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.NotFound("listing")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load listing")
	}
	return driveURL, nil
}

func mapWriteError(err error, msg string) error {
	if db.IsUniqueViolation(err, listingUniqueConstraint) || db.IsUniqueViolation(err, "entitlement_mappings.listing_id") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "listing already has a mapping")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

func toDTO(row mappingRow) MappingDTO {
	return MappingDTO{
		ID:           row.ID,
		ListingID:    row.ListingID,
		ProjectTitle: row.ListingTitle,
		DriveURL:     row.DriveURL,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
