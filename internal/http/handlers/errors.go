// Package handlers defines HTTP-layer error codes used across all endpoints.
//
// Codes are lowercase snake_case and stable: clients branch on them, humans
// read the accompanying message. Generic codes mirror HTTP status semantics;
// the domain-specific ones cover engine operations whose failure a status
// code alone cannot convey.
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// Domain-specific:
	ErrCodeCreateFailed      = "create_failed"
	ErrCodeMatchFailed       = "match_failed"
	ErrCodeDispatchFailed    = "dispatch_failed"
	ErrCodeRecalcFailed      = "recalc_failed"
	ErrCodeArchiveFailed     = "archive_failed"
	ErrCodeAggregateFailed   = "aggregate_failed"
	ErrCodeMaintenanceFailed = "maintenance_failed"
)
