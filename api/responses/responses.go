package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/logger"
	"github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/types"
)

// WriteSuccess writes data as the bare JSON body; the storefront reads
// arrays and objects directly.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// WriteMessage acknowledges an action with {"message": msg}.
func WriteMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, types.MessageResponse{Message: msg})
}

// callerCorrectable lists codes whose own message is safe to show; every
// other code answers with its public message.
var callerCorrectable = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:          true,
	pkgerrors.CodeForbidden:           true,
	pkgerrors.CodeUnauthorized:        true,
	pkgerrors.CodeNotFound:            true,
	pkgerrors.CodeConflict:            true,
	pkgerrors.CodeStateConflict:       true,
	pkgerrors.CodeIdempotency:         true,
	pkgerrors.CodeRateLimit:           true,
	pkgerrors.CodeTooLarge:            true,
	pkgerrors.CodePaymentVerification: true,
}

// WriteError maps err onto the error envelope and logs it once.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		logFailure(ctx, logg, err, meta.HTTPStatus)
	}
	writeJSON(w, meta.HTTPStatus, envelopeFor(typed, meta))
}

func envelopeFor(typed *pkgerrors.Error, meta pkgerrors.Metadata) types.ErrorEnvelope {
	apiErr := types.APIError{
		Code:      string(typed.Code()),
		Message:   meta.PublicMessage,
		Retryable: meta.Retryable,
	}
	if msg := typed.Message(); msg != "" && callerCorrectable[typed.Code()] {
		apiErr.Message = msg
	}
	if meta.DetailsAllowed {
		apiErr.Details = typed.Details()
	}
	return types.ErrorEnvelope{Error: apiErr}
}

// logFailure logs server faults at error level and caller mistakes at warn.
func logFailure(ctx context.Context, logg *logger.Logger, err error, status int) {
	fields := pkgerrors.Dump(err).LogFields()
	fields["http_status"] = status
	ctx = logg.WithFields(ctx, fields)
	if status < http.StatusInternalServerError {
		logg.Warn(ctx, "request.rejected")
		return
	}
	logg.Error(ctx, "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The status line is already out; an encode failure here only means the
	// client went away.
	_ = json.NewEncoder(w).Encode(payload)
}
