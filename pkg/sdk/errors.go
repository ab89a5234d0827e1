package memberscout

import "fmt"

// Error codes returned by the API. Match against APIError.Code.
const (
	CodeBadRequest            = "bad_request"
	CodeValidationFailed      = "validation_failed"
	CodeUnauthorized          = "unauthorized"
	CodeRetrievalUnavailable  = "retrieval_unavailable"
	CodeExtractionUnavailable = "extraction_unavailable"
	CodeInternalError         = "internal_error"
)

// APIError is a non-2xx response from the service.
// Use errors.As() to check.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("memberscout: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Code == CodeRetrievalUnavailable || e.Code == CodeExtractionUnavailable
}
