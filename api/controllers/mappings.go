package controllers

import (
	"net/http"
	"strings"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/validators"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/mappings"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// mappingRequest accepts the delivery url as "url" or "driveUrl".
type mappingRequest struct {
	ProjectID string `json:"projectId" validate:"required"`
	URL       string `json:"url"`
	DriveURL  string `json:"driveUrl"`
}

func (m mappingRequest) toInput() (mappings.MappingInput, error) {
	listingID, err := parseUUIDField("projectId", m.ProjectID)
	if err != nil {
		return mappings.MappingInput{}, err
	}
	url := strings.TrimSpace(m.URL)
	if url == "" {
		url = strings.TrimSpace(m.DriveURL)
	}
	return mappings.MappingInput{ListingID: listingID, DriveURL: url}, nil
}

func ListMappings(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}
		list, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetMapping(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mapping, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapping)
	}
}

func CreateMapping(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}

		var payload mappingRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mapping, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, mapping)
	}
}

func UpdateMapping(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload mappingRequest
		if err := validators.DecodeJSONBodyLenient(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mapping, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapping)
	}
}

func DeleteMapping(svc mappings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "mapping service unavailable"))
			return
		}
		id, err := validators.ParseURLParamUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, "Mapping deleted")
	}
}
