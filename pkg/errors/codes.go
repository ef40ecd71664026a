package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes follow the "<MODULE>_<NNN>" convention so that the module prefix can
// be recovered with ModuleForCode.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used by the generic factories.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("")
	CodeOK           = ErrorCode("OK")
)

// Planner Module Error Codes
//
// PLN_001..PLN_004 are configuration errors surfaced before planning starts.
// PLN_005 is an internal-invariant violation (region graph inconsistent with
// the decomposition) and always indicates a bug.
const (
	ErrCodeNoRegions            ErrorCode = "PLN_001"
	ErrCodeRegionsDisconnected  ErrorCode = "PLN_002"
	ErrCodeUnsupportedGoal      ErrorCode = "PLN_003"
	ErrCodeInvalidPlannerConfig ErrorCode = "PLN_004"
	ErrCodeMissingAdjacency     ErrorCode = "PLN_005"
	ErrCodePlannerNotSetup      ErrorCode = "PLN_006"
	ErrCodeInvalidState         ErrorCode = "PLN_007"
)

// Scenario Module Error Codes
const (
	ErrCodeScenarioInvalid     ErrorCode = "SCN_001"
	ErrCodeStartInvalid        ErrorCode = "SCN_002"
	ErrCodeGoalInvalid         ErrorCode = "SCN_003"
	ErrCodeScenarioUnsupported ErrorCode = "SCN_004"
)

// Run Module Error Codes
const (
	ErrCodeRunNotFound      ErrorCode = "RUN_001"
	ErrCodeRunPersistFailed ErrorCode = "RUN_002"
	ErrCodeRunPublishFailed ErrorCode = "RUN_003"
	ErrCodeRunArchiveFailed ErrorCode = "RUN_004"
	ErrCodeRunExportFailed  ErrorCode = "RUN_005"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeNoRegions:            http.StatusUnprocessableEntity,
	ErrCodeRegionsDisconnected:  http.StatusUnprocessableEntity,
	ErrCodeUnsupportedGoal:      http.StatusUnprocessableEntity,
	ErrCodeInvalidPlannerConfig: http.StatusBadRequest,
	ErrCodeMissingAdjacency:     http.StatusInternalServerError,
	ErrCodePlannerNotSetup:      http.StatusInternalServerError,
	ErrCodeInvalidState:         http.StatusBadRequest,

	ErrCodeScenarioInvalid:     http.StatusBadRequest,
	ErrCodeStartInvalid:        http.StatusUnprocessableEntity,
	ErrCodeGoalInvalid:         http.StatusUnprocessableEntity,
	ErrCodeScenarioUnsupported: http.StatusBadRequest,

	ErrCodeRunNotFound:      http.StatusNotFound,
	ErrCodeRunPersistFailed: http.StatusInternalServerError,
	ErrCodeRunPublishFailed: http.StatusInternalServerError,
	ErrCodeRunArchiveFailed: http.StatusInternalServerError,
	ErrCodeRunExportFailed:  http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeNoRegions:            "decomposition has no regions",
	ErrCodeRegionsDisconnected:  "start and goal regions are not connected",
	ErrCodeUnsupportedGoal:      "goal must be a single goal state",
	ErrCodeInvalidPlannerConfig: "invalid planner configuration",
	ErrCodeMissingAdjacency:     "regions are not adjacent",
	ErrCodePlannerNotSetup:      "planner has not been set up",
	ErrCodeInvalidState:         "state is outside the state space",

	ErrCodeScenarioInvalid:     "invalid scenario",
	ErrCodeStartInvalid:        "start state is invalid",
	ErrCodeGoalInvalid:         "goal state is invalid",
	ErrCodeScenarioUnsupported: "unsupported scenario",

	ErrCodeRunNotFound:      "planning run not found",
	ErrCodeRunPersistFailed: "failed to persist planning run",
	ErrCodeRunPublishFailed: "failed to publish planning run event",
	ErrCodeRunArchiveFailed: "failed to archive planning run report",
	ErrCodeRunExportFailed:  "failed to export region graph",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
