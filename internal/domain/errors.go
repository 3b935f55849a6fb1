package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrAssetNotFound      = errors.New("asset not found")
	ErrRequestNotFound    = errors.New("decomposition request not found")
	ErrSparePartNotFound  = errors.New("spare part not found")
	ErrAlreadyExecuted    = errors.New("decomposition request already executed")
	ErrNoItemsToDecompose = errors.New("decomposition request has no items to decompose")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrPartNotPending     = errors.New("spare part is not pending")
	ErrPartNotAvailable   = errors.New("spare part is not available")
)

// ValidationError is returned when caller input is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// InvalidAssetStateError is returned when an asset is not eligible for decomposition.
type InvalidAssetStateError struct {
	AssetID string
	Status  AssetStatus
	Reason  string
}

func (e *InvalidAssetStateError) Error() string {
	return fmt.Sprintf("asset %q cannot be decomposed: %s", e.AssetID, e.Reason)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Event   Event
	Current string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("event %q is not valid from state %q", e.Event, e.Current)
}

// ExecutionError wraps a failure inside the execution transaction: either
// one item (Item) or a step outside item consolidation (Step, such as
// retiring the asset or recording the event). The whole execution has been
// rolled back when it is returned.
type ExecutionError struct {
	RequestID string
	Step      string
	Item      int
	Err       error
}

func (e *ExecutionError) Error() string {
	if e.Step != "" {
		return fmt.Sprintf("executing request %q: %s: %v", e.RequestID, e.Step, e.Err)
	}
	return fmt.Sprintf("executing request %q: item %d: %v", e.RequestID, e.Item, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ErrorKind is the stable, caller-facing classification of an error.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindNotFound           ErrorKind = "not_found"
	KindPermissionDenied   ErrorKind = "permission_denied"
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindAlreadyExecuted    ErrorKind = "already_executed"
	KindInvalidAssetState  ErrorKind = "invalid_asset_state"
	KindInvalidTransition  ErrorKind = "invalid_transition"
	KindNoItems            ErrorKind = "no_items"
	KindTransactionFailure ErrorKind = "transaction_failure"
	KindInternal           ErrorKind = "internal"
)

// KindOf classifies err. Failures inside an execution that are not business
// rule violations are reported as KindTransactionFailure.
func KindOf(err error) ErrorKind {
	var (
		validation *ValidationError
		assetState *InvalidAssetStateError
		transition *TransitionError
		execution  *ExecutionError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.Is(err, ErrUnauthenticated):
		return KindUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return KindPermissionDenied
	case errors.Is(err, ErrAlreadyExecuted):
		return KindAlreadyExecuted
	case errors.As(err, &assetState):
		return KindInvalidAssetState
	case errors.Is(err, ErrNoItemsToDecompose):
		return KindNoItems
	case errors.As(err, &execution):
		return KindTransactionFailure
	case errors.Is(err, ErrAssetNotFound), errors.Is(err, ErrRequestNotFound), errors.Is(err, ErrSparePartNotFound):
		return KindNotFound
	case errors.As(err, &transition):
		return KindInvalidTransition
	}
	return KindInternal
}
