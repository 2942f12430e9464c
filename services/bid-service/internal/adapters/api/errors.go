package api

import (
	"errors"
	"net/http"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

// mapError translates domain sentinels to HTTP status codes. The project
// service being unreachable reads as the project not existing; callers
// cannot act on the distinction and retrying is the client's job either way.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, bids.ErrValidation):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, bids.ErrInvalidState), errors.Is(err, bids.ErrInvalidTransition):
		return http.StatusBadRequest, "operation not allowed in the current state"
	case errors.Is(err, bids.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, bids.ErrBidNotFound):
		return http.StatusNotFound, "bid not found"
	case errors.Is(err, bids.ErrCounterOfferNotFound):
		return http.StatusNotFound, "counter offer not found"
	case errors.Is(err, bids.ErrMilestoneNotFound):
		return http.StatusNotFound, "milestone not found"
	case errors.Is(err, bids.ErrProjectNotFound), errors.Is(err, bids.ErrProjectUnavailable):
		return http.StatusNotFound, "project not found"
	case errors.Is(err, bids.ErrDuplicateBid):
		return http.StatusConflict, "an active bid already exists for this project"
	case errors.Is(err, bids.ErrDuplicateFeedback):
		return http.StatusConflict, "feedback has already been submitted"
	case errors.Is(err, bids.ErrVersionConflict):
		return http.StatusConflict, "the bid was modified concurrently, retry"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
