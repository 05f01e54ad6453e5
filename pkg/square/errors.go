package square

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqcore "github.com/square/square-go-sdk/core"

	pkgerrors "github.com/MedamoniSharan/Project-Bazzar-Deploy/pkg/errors"
)

var errSDKMissing = errors.New("square client not initialized")

// mapError converts an SDK failure into a pkg/errors code. Credential and
// permission failures belong to the merchant account, never to the buyer,
// so they surface as dependency errors rather than 401/403.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	msg := "square " + op + " failed"
	var apiErr *sqcore.APIError
	if !errors.As(err, &apiErr) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
	code := codeForStatus(apiErr.StatusCode)
	for _, detail := range apiErrors(apiErr) {
		switch {
		case detail.Code == sq.ErrorCodeIdempotencyKeyReused:
			return pkgerrors.Wrap(pkgerrors.CodeIdempotency, err, msg)
		case detail.Category == sq.ErrorCategoryAuthenticationError:
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "square rejected merchant credentials")
		case detail.Category == sq.ErrorCategoryPaymentMethodError:
			return pkgerrors.Wrap(pkgerrors.CodePaymentVerification, err, msg)
		}
	}
	return pkgerrors.Wrap(code, err, msg)
}

// apiErrors decodes the {"errors":[...]} body carried by an APIError.
func apiErrors(apiErr *sqcore.APIError) []*sq.Error {
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var body struct {
		Errors []*sq.Error `json:"errors"`
	}
	if json.Unmarshal([]byte(raw), &body) != nil {
		return nil
	}
	out := body.Errors[:0]
	for _, e := range body.Errors {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return pkgerrors.CodeDependency
	case status == http.StatusPaymentRequired:
		return pkgerrors.CodePaymentVerification
	case status == http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case status == http.StatusConflict:
		return pkgerrors.CodeConflict
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status == http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	case status >= 400 && status < 500:
		return pkgerrors.CodeValidation
	default:
		return pkgerrors.CodeDependency
	}
}
