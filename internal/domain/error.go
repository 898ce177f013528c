package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Order issuing
	ErrMemberNotFound     = errors.New("member not found")
	ErrPlanNotFound       = errors.New("membership plan not found or inactive")
	ErrProductNotFound    = errors.New("product not found")
	ErrInvalidAmount      = errors.New("amount must be a positive number")
	ErrInvalidPaymentType = errors.New("invalid payment type")
	ErrInvalidStatus      = errors.New("invalid payment status")

	// Verification / cancellation
	ErrOrderNotFound      = errors.New("order not found")
	ErrAlreadyCompleted   = errors.New("payment already completed")
	ErrForbidden          = errors.New("forbidden")
	ErrVerificationFailed = errors.New("payment verification failed")
	ErrCancelNotAllowed   = errors.New("order not found, already completed, or not yours")

	// Lifecycle
	ErrInvalidTransition     = errors.New("illegal payment status transition")
	ErrEffectsAlreadyApplied = errors.New("payment effects already applied")

	// Rate limiting
	ErrRateLimited = errors.New("too many requests")
)
