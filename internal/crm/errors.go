package crm

import "fmt"

// ErrorKind classifies a stage-history API failure. Every kind is non-fatal
// to an ingestion run; the batcher records the failure per entity and moves on.
type ErrorKind string

const (
	ErrorKindAuth        ErrorKind = "auth"
	ErrorKindNotFound    ErrorKind = "not_found"
	ErrorKindRateLimited ErrorKind = "rate_limited"
	ErrorKindTransient   ErrorKind = "transient"
)

// APIError is a classified failure from the CRM stage-history API.
type APIError struct {
	Kind       ErrorKind
	EntityID   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("crm %s error for entity %s (status %d): %s", e.Kind, e.EntityID, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("crm %s error for entity %s: %s", e.Kind, e.EntityID, e.Message)
}

// classifyStatus maps an HTTP status to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401 || status == 403:
		return ErrorKindAuth
	case status == 404:
		return ErrorKindNotFound
	case status == 429:
		return ErrorKindRateLimited
	default:
		return ErrorKindTransient
	}
}
