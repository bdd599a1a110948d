package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the request body exceeds the
	// configured size limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// POS synchronization error codes
const (
	// ErrCodeIntegrationDisabled is used when the tenant has no enabled
	// configuration for the requested POS provider
	ErrCodeIntegrationDisabled = "ERR_INTEGRATION_DISABLED"
	// ErrCodeProviderUnavailable is used when the upstream POS API is
	// unreachable or failing
	ErrCodeProviderUnavailable = "ERR_PROVIDER_UNAVAILABLE"
	// ErrCodeProviderRateLimited is used when the upstream POS API throttles us
	ErrCodeProviderRateLimited = "ERR_PROVIDER_RATE_LIMITED"
	// ErrCodeSyncInProgress is used when a sync pass is already running
	// for the same tenant and provider
	ErrCodeSyncInProgress = "ERR_SYNC_IN_PROGRESS"
)

// Ledger posting error codes
const (
	// ErrCodeNothingToPost is used when no unposted sales match the
	// requested business date and scope
	ErrCodeNothingToPost = "ERR_NOTHING_TO_POST"
	// ErrCodeAlreadyPosted is used when a posting already exists for the
	// requested date and scope
	ErrCodeAlreadyPosted = "ERR_ALREADY_POSTED"
	// ErrCodeInvalidBusinessDate is used when the business date is not a
	// valid YYYY-MM-DD calendar date
	ErrCodeInvalidBusinessDate = "ERR_INVALID_BUSINESS_DATE"
	// ErrCodeUnbalancedPosting is used when a posting fails the
	// debit/credit balance check
	ErrCodeUnbalancedPosting = "ERR_UNBALANCED_POSTING"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// POS synchronization errors
	ErrCodeIntegrationDisabled: http.StatusServiceUnavailable,
	ErrCodeProviderUnavailable: http.StatusBadGateway,
	ErrCodeProviderRateLimited: http.StatusTooManyRequests,
	ErrCodeSyncInProgress:      http.StatusConflict,

	// Ledger posting errors
	ErrCodeNothingToPost:       http.StatusUnprocessableEntity,
	ErrCodeAlreadyPosted:       http.StatusConflict,
	ErrCodeInvalidBusinessDate: http.StatusBadRequest,
	ErrCodeUnbalancedPosting:   http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps short domain error codes to the
// standardized wire format
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,
	"INTEGRATION_DISABLED":  ErrCodeIntegrationDisabled,
	"NOTHING_TO_POST":       ErrCodeNothingToPost,
	"ALREADY_POSTED":        ErrCodeAlreadyPosted,
	"INVALID_BUSINESS_DATE": ErrCodeInvalidBusinessDate,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
