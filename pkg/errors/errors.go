package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeTooLarge      Code = "PAYLOAD_TOO_LARGE"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Marketplace specific failure kinds.
	CodePaymentVerification Code = "PAYMENT_VERIFICATION_FAILED"
	CodeOrderCreation       Code = "ORDER_CREATION_FAILED"
	CodeRelay               Code = "RELAY_FAILED"
)

// Metadata is how a Code surfaces over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	retryable      = true
	final          = false
	withDetails    = true
	withoutDetails = false
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, final, "validation failed", withDetails},
	CodeUnauthorized:  {http.StatusUnauthorized, final, "authentication required", withoutDetails},
	CodeForbidden:     {http.StatusForbidden, final, "access denied", withoutDetails},
	CodeNotFound:      {http.StatusNotFound, final, "resource not found", withDetails},
	CodeConflict:      {http.StatusConflict, final, "conflict detected", withoutDetails},
	CodeStateConflict: {http.StatusUnprocessableEntity, final, "state transition disallowed", withDetails},
	CodeIdempotency:   {http.StatusConflict, final, "idempotency key reused", withDetails},
	CodeRateLimit:     {http.StatusTooManyRequests, final, "rate limit exceeded", withoutDetails},
	CodeTooLarge:      {http.StatusRequestEntityTooLarge, final, "request body too large", withDetails},
	CodeInternal:      {http.StatusInternalServerError, retryable, "internal server error", withoutDetails},
	CodeDependency:    {http.StatusServiceUnavailable, retryable, "dependency unavailable", withDetails},

	CodePaymentVerification: {http.StatusPaymentRequired, final, "payment could not be verified", withDetails},
	CodeOrderCreation:       {http.StatusInternalServerError, retryable, "payment order could not be created", withoutDetails},
	CodeRelay:               {http.StatusInternalServerError, retryable, "message could not be delivered", withoutDetails},
}

// MetadataFor falls back to CodeInternal for codes it does not know.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed error every layer returns. The zero value and a nil
// *Error both read as CodeInternal.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil || e.code == "" {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.message == "":
		return string(e.code)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// NotFound reports a missing entity by name, e.g. NotFound("listing").
func NotFound(resource string) *Error {
	return New(CodeNotFound, resource+" not found").WithDetails(map[string]string{"resource": resource})
}

// IsCode reports whether any typed error in the chain carries code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// IsRetryable reports whether callers may retry the operation that produced err.
// Untyped errors are treated as unexpected and therefore retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if typed := As(err); typed != nil {
		return MetadataFor(typed.Code()).Retryable
	}
	return true
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
