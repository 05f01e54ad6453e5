package types

// APIError is the body of every non-2xx JSON response.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// MessageResponse is used by endpoints that only acknowledge an action.
type MessageResponse struct {
	Message string `json:"message"`
}
