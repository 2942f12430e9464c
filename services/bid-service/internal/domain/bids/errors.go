package bids

import "errors"

// Not-found errors
var (
	ErrBidNotFound          = errors.New("bid not found")
	ErrCounterOfferNotFound = errors.New("counter offer not found")
	ErrMilestoneNotFound    = errors.New("milestone not found")
	ErrProjectNotFound      = errors.New("project not found")
)

// Authorization and state errors
var (
	ErrForbidden         = errors.New("actor is not authorized for this operation")
	ErrInvalidState      = errors.New("operation not permitted in current bid state")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrValidation        = errors.New("invalid bid input")
)

// Conflict errors
var (
	ErrDuplicateBid      = errors.New("an active bid for this project already exists")
	ErrDuplicateFeedback = errors.New("feedback already submitted for this side")
	ErrVersionConflict   = errors.New("bid was modified concurrently, reload and retry")
)

// ErrProjectUnavailable marks a remote project lookup that failed for reasons
// other than a clean not-found. The HTTP layer collapses it to not-found since
// the two are not reliably distinguishable from the remote call's shape.
var ErrProjectUnavailable = errors.New("project service unavailable")
