package controllers

import (
	"net/http"

	"github.com/MedamoniSharan/Project-Bazzar-Deploy/api/responses"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/internal/relay"
	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
)

// multipartOverhead leaves room for boundaries and text fields on top of the
// attachment budget before the body reader is cut off.
const multipartOverhead = 1 << 20

// SendEmail relays the custom-project contact form to the operations inbox.
func SendEmail(svc relay.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "relay service unavailable"))
			return
		}

		limits := svc.Limits()
		if limits.MaxTotalBytes > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, limits.MaxTotalBytes+multipartOverhead)
		}

		form, err := relay.ReadContactForm(r, limits)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Send(r.Context(), form)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
