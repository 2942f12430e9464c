package bids

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListOptions controls pagination and ordering for bid listings.
type ListOptions struct {
	Page  int
	Limit int
	// Sort is a whitelisted column: "created_at" or "amount".
	Sort string
	// Order is "asc" or "desc". Newest-first is the default.
	Order string
}

// Normalize fills defaults and clamps out-of-range values.
func (o ListOptions) Normalize() ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.Limit < 1 || o.Limit > 100 {
		o.Limit = 10
	}
	if o.Sort != "amount" {
		o.Sort = "created_at"
	}
	if o.Order != "asc" {
		o.Order = "desc"
	}
	return o
}

// Offset returns the row offset for the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.Limit
}

// BidRepository is the durable store for bid aggregates.
type BidRepository interface {
	// Insert persists a new bid. A second active bid for the same
	// (project, freelancer) pair fails with ErrDuplicateBid; the store's
	// uniqueness constraint, not the caller's pre-check, enforces the
	// invariant under concurrency.
	Insert(ctx context.Context, bid *Bid) error

	// GetByID returns the aggregate or ErrBidNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*Bid, error)

	// ListByProject returns active bids for a project plus the total count.
	ListByProject(ctx context.Context, projectID uuid.UUID, opts ListOptions) ([]*Bid, int64, error)

	// ListByFreelancer returns a freelancer's active bids, optionally
	// filtered by status, plus the total count.
	ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, status Status, opts ListOptions) ([]*Bid, int64, error)

	// Update writes the aggregate conditioned on bid.Version matching the
	// stored row and bumps the version. A mismatch fails with
	// ErrVersionConflict and leaves the row untouched.
	Update(ctx context.Context, bid *Bid) error

	// ListAwardPending returns accepted, active bids whose remote award
	// mutation has not been confirmed yet.
	ListAwardPending(ctx context.Context, limit int) ([]*Bid, error)

	// MarkAwardSynced records that the remote project reflects the award.
	// Deliberately outside the version fence: it never races a lifecycle
	// transition because accepted is terminal.
	MarkAwardSynced(ctx context.Context, id uuid.UUID, at time.Time) error
}

// ProjectGateway fetches authorization-relevant facts from the project
// service and requests remote mutations. Every call may time out or fail;
// lookups surface ErrProjectNotFound or ErrProjectUnavailable.
type ProjectGateway interface {
	GetProject(ctx context.Context, projectID uuid.UUID) (*Project, error)

	// MarkAwarded asks the project service to set the project in-progress
	// and record the winning freelancer.
	MarkAwarded(ctx context.Context, projectID, freelancerID uuid.UUID) error

	// IncrementBidCount bumps the project's displayed bid counter.
	IncrementBidCount(ctx context.Context, projectID uuid.UUID) error
}

// Notification is an asynchronous signal delivered to one user.
type Notification struct {
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Type        string    `json:"type"`
	ProjectID   uuid.UUID `json:"project_id"`
	BidID       uuid.UUID `json:"bid_id"`
	MilestoneID uuid.UUID `json:"milestone_id,omitempty"`
}

// Notifier dispatches a notification. No delivery guarantee; failures are
// logged by the caller and never escalated.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// BidCache is an optional read-through cache for the bid-by-id path.
// Implementations swallow their own errors; a failure is a miss.
type BidCache interface {
	Get(ctx context.Context, id uuid.UUID) (*Bid, bool)
	Set(ctx context.Context, bid *Bid)
	Delete(ctx context.Context, id uuid.UUID)
}
