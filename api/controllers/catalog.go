package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/validators"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/catalog"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/enums"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

const maxSearchLength = 100

// listingRequest is the full listing document. Replace uses it too, so
// server-owned fields such as soldCount are accepted and ignored.
type listingRequest struct {
	Title              string           `json:"title"`
	ShortDescription   string           `json:"shortDescription"`
	Description        string           `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	Currency           string           `json:"currency"`
	DiscountPercentage decimal.Decimal  `json:"discountPercentage"`
	TechStack          []string         `json:"techStack"`
	Domain             string           `json:"domain"`
	Images             []string         `json:"images"`
	Videos             []string         `json:"videos"`
	Featured           bool             `json:"featured"`
}

func (r listingRequest) toInput() (catalog.ListingInput, error) {
	if r.Price == nil {
		return catalog.ListingInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid listing").
			WithDetails(map[string]string{"price": "is required"})
	}
	currency, err := parseOptionalCurrency(r.Currency)
	if err != nil {
		return catalog.ListingInput{}, err
	}
	return catalog.ListingInput{
		Title:              r.Title,
		ShortDescription:   r.ShortDescription,
		Description:        r.Description,
		Price:              *r.Price,
		Currency:           currency,
		DiscountPercentage: r.DiscountPercentage,
		TechStack:          r.TechStack,
		Domain:             r.Domain,
		Images:             r.Images,
		Videos:             r.Videos,
		Featured:           r.Featured,
	}, nil
}

type listingPatchRequest struct {
	Title              *string          `json:"title"`
	ShortDescription   *string          `json:"shortDescription"`
	Description        *string          `json:"description"`
	Price              *decimal.Decimal `json:"price"`
	Currency           *string          `json:"currency"`
	DiscountPercentage *decimal.Decimal `json:"discountPercentage"`
	TechStack          *[]string        `json:"techStack"`
	Domain             *string          `json:"domain"`
	Images             *[]string        `json:"images"`
	Videos             *[]string        `json:"videos"`
	Featured           *bool            `json:"featured"`
}

func (r listingPatchRequest) toPatch() (catalog.ListingPatch, error) {
	patch := catalog.ListingPatch{
		Title:              r.Title,
		ShortDescription:   r.ShortDescription,
		Description:        r.Description,
		Price:              r.Price,
		DiscountPercentage: r.DiscountPercentage,
		TechStack:          r.TechStack,
		Domain:             r.Domain,
		Images:             r.Images,
		Videos:             r.Videos,
		Featured:           r.Featured,
	}
	if r.Currency != nil {
		currency, err := enums.ParseCurrency(strings.TrimSpace(*r.Currency))
		if err != nil {
			return catalog.ListingPatch{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
		}
		patch.Currency = &currency
	}
	return patch, nil
}

func parseOptionalCurrency(raw string) (enums.Currency, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	currency, err := enums.ParseCurrency(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	return currency, nil
}

// ListProjects returns the catalog, optionally filtered.
func ListProjects(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		featured, err := validators.ParseQueryBool(r, "featured")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query := r.URL.Query()
		filter := catalog.ListFilter{
			Domain:    validators.SanitizeString(query.Get("domain"), maxSearchLength),
			Featured:  featured,
			Query:     validators.SanitizeString(query.Get("q"), maxSearchLength),
			TechStack: validators.SanitizeString(query.Get("techStack"), maxSearchLength),
		}

		listings, err := svc.List(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listings)
	}
}

func GetProject(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listing, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func CreateProject(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload listingRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, listing)
	}
}

// ReplaceProject handles PUT: every editable field is overwritten.
func ReplaceProject(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload listingRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Replace(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

// PatchProject handles PATCH: only the fields present in the body change.
func PatchProject(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload listingPatchRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		patch, err := payload.toPatch()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		listing, err := svc.Patch(r.Context(), id, patch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, listing)
	}
}

func DeleteProject(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id, actorFromRequest(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Project deleted")
	}
}
