package bids

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	minProposalLen = 20
	maxProposalLen = 2000

	defaultSideEffectTimeout = 5 * time.Second
)

// Service is the bid lifecycle engine. It enforces the state machine and
// authorization rules and orchestrates the best-effort side effects around
// each transition. Request-scoped and stateless between requests; all
// durable state lives in the repository.
type Service struct {
	repo     BidRepository
	gateway  ProjectGateway
	notifier Notifier
	cache    BidCache // optional, nil disables caching
	logger   *slog.Logger

	sideEffectTimeout time.Duration

	// sideEffects tracks in-flight dispatch goroutines so tests and
	// shutdown can drain them.
	sideEffects sync.WaitGroup
}

// Wait blocks until all dispatched side effects have finished.
func (s *Service) Wait() {
	s.sideEffects.Wait()
}

// NewService creates the lifecycle engine. cache may be nil.
func NewService(repo BidRepository, gateway ProjectGateway, notifier Notifier, cache BidCache, logger *slog.Logger) *Service {
	return &Service{
		repo:              repo,
		gateway:           gateway,
		notifier:          notifier,
		cache:             cache,
		logger:            logger,
		sideEffectTimeout: defaultSideEffectTimeout,
	}
}

// CreateBidCommand carries the input for a new bid.
type CreateBidCommand struct {
	ProjectID    uuid.UUID
	Amount       int64
	DeliveryTime int
	DeliveryUnit DeliveryUnit
	Proposal     string
	Attachments  []Attachment
	Milestones   []MilestoneInput
}

// MilestoneInput is the content of a milestone supplied by the freelancer.
type MilestoneInput struct {
	Title       string
	Description string
	Amount      int64
	DueDate     *time.Time
}

// UpdateTermsCommand carries a partial update of negotiable bid terms.
// Nil fields are left unchanged.
type UpdateTermsCommand struct {
	Amount       *int64
	DeliveryTime *int
	DeliveryUnit *DeliveryUnit
	Proposal     *string
	Attachments  []Attachment
}

func validateTerms(amount int64, deliveryTime int, unit DeliveryUnit, proposal string) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if deliveryTime <= 0 {
		return fmt.Errorf("%w: delivery time must be positive", ErrValidation)
	}
	if !ValidDeliveryUnit(unit) {
		return fmt.Errorf("%w: unknown delivery time unit %q", ErrValidation, unit)
	}
	if len(proposal) < minProposalLen || len(proposal) > maxProposalLen {
		return fmt.Errorf("%w: proposal must be between %d and %d characters", ErrValidation, minProposalLen, maxProposalLen)
	}
	return nil
}

func validateMilestoneContent(title string, amount int64) error {
	if title == "" {
		return fmt.Errorf("%w: milestone title is required", ErrValidation)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: milestone amount must be positive", ErrValidation)
	}
	return nil
}

// CreateBid submits a new bid on an open remote project. Only freelancers
// may bid, and the store enforces at most one active bid per
// (project, freelancer) pair.
func (s *Service) CreateBid(ctx context.Context, actor Actor, cmd CreateBidCommand) (*Bid, error) {
	if actor.Role != RoleFreelancer {
		return nil, fmt.Errorf("%w: only freelancers can create bids", ErrForbidden)
	}
	if cmd.DeliveryUnit == "" {
		cmd.DeliveryUnit = UnitDays
	}
	if err := validateTerms(cmd.Amount, cmd.DeliveryTime, cmd.DeliveryUnit, cmd.Proposal); err != nil {
		return nil, err
	}

	project, err := s.gateway.GetProject(ctx, cmd.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status != ProjectOpen {
		return nil, fmt.Errorf("%w: project is not open for bidding", ErrInvalidState)
	}

	now := time.Now().UTC()
	bid := &Bid{
		ID:            uuid.New(),
		ProjectID:     cmd.ProjectID,
		FreelancerID:  actor.ID,
		Amount:        cmd.Amount,
		DeliveryTime:  cmd.DeliveryTime,
		DeliveryUnit:  cmd.DeliveryUnit,
		Proposal:      cmd.Proposal,
		Status:        StatusPending,
		IsActive:      true,
		Attachments:   cmd.Attachments,
		CounterOffers: []CounterOffer{},
		Milestones:    make([]Milestone, 0, len(cmd.Milestones)),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if bid.Attachments == nil {
		bid.Attachments = []Attachment{}
	}
	for _, m := range cmd.Milestones {
		if err := validateMilestoneContent(m.Title, m.Amount); err != nil {
			return nil, err
		}
		bid.Milestones = append(bid.Milestones, Milestone{
			ID:          uuid.New(),
			Title:       m.Title,
			Description: m.Description,
			Amount:      m.Amount,
			DueDate:     m.DueDate,
			Status:      MilestonePending,
		})
	}

	if err := s.repo.Insert(ctx, bid); err != nil {
		return nil, err
	}
	s.cacheSet(ctx, bid)

	ownerID := project.OwnerID
	projectTitle := project.Title
	s.async("increment bid count", bid.ID, func(ctx context.Context) error {
		return s.gateway.IncrementBidCount(ctx, bid.ProjectID)
	})
	s.async("notify new bid", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    ownerID,
			Title:     "New Bid Received",
			Message:   fmt.Sprintf("You have received a new bid on your project: %s", projectTitle),
			Type:      "bid",
			ProjectID: bid.ProjectID,
			BidID:     bid.ID,
		})
	})

	return bid, nil
}

// GetBid returns the aggregate. Visible to admins, the bid's freelancer and
// the remote project's owner.
func (s *Service) GetBid(ctx context.Context, actor Actor, id uuid.UUID) (*Bid, error) {
	bid, cached := s.cacheGet(ctx, id)
	if !cached {
		var err error
		bid, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		s.cacheSet(ctx, bid)
	}

	if err := s.authorizeViewer(ctx, actor, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// authorizeViewer allows admins, the owning freelancer and the remote
// project's owner. A failed project lookup leaves the actor unauthorized
// rather than failing the read outright.
func (s *Service) authorizeViewer(ctx context.Context, actor Actor, bid *Bid) error {
	if actor.Role == RoleAdmin || actor.ID == bid.FreelancerID {
		return nil
	}
	project, err := s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		s.logger.Warn("project lookup failed during view authorization",
			"bid_id", bid.ID, "project_id", bid.ProjectID, "error", err)
		return fmt.Errorf("%w: cannot verify project ownership", ErrForbidden)
	}
	if actor.ID != project.OwnerID {
		return fmt.Errorf("%w: not a party to this bid", ErrForbidden)
	}
	return nil
}

// ListByProject returns active bids on a project, newest first by default.
func (s *Service) ListByProject(ctx context.Context, projectID uuid.UUID, opts ListOptions) ([]*Bid, int64, error) {
	return s.repo.ListByProject(ctx, projectID, opts.Normalize())
}

// ListByFreelancer returns a freelancer's active bids. Restricted to the
// freelancer themselves or an admin.
func (s *Service) ListByFreelancer(ctx context.Context, actor Actor, freelancerID uuid.UUID, status Status, opts ListOptions) ([]*Bid, int64, error) {
	if actor.ID != freelancerID && actor.Role != RoleAdmin {
		return nil, 0, fmt.Errorf("%w: cannot view another freelancer's bids", ErrForbidden)
	}
	switch status {
	case "", StatusPending, StatusCountered, StatusAccepted, StatusRejected, StatusWithdrawn:
	default:
		return nil, 0, fmt.Errorf("%w: unknown status filter %q", ErrValidation, status)
	}
	return s.repo.ListByFreelancer(ctx, freelancerID, status, opts.Normalize())
}

// UpdateTerms changes negotiable terms. Only the owning freelancer may
// update, and only while the bid is pending.
func (s *Service) UpdateTerms(ctx context.Context, actor Actor, id uuid.UUID, cmd UpdateTermsCommand) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != actor.ID {
		return nil, fmt.Errorf("%w: only the bid owner can update it", ErrForbidden)
	}
	if bid.Status != StatusPending {
		return nil, fmt.Errorf("%w: bid is no longer pending", ErrInvalidState)
	}

	if cmd.Amount != nil {
		bid.Amount = *cmd.Amount
	}
	if cmd.DeliveryTime != nil {
		bid.DeliveryTime = *cmd.DeliveryTime
	}
	if cmd.DeliveryUnit != nil {
		bid.DeliveryUnit = *cmd.DeliveryUnit
	}
	if cmd.Proposal != nil {
		bid.Proposal = *cmd.Proposal
	}
	if cmd.Attachments != nil {
		bid.Attachments = cmd.Attachments
	}
	if err := validateTerms(bid.Amount, bid.DeliveryTime, bid.DeliveryUnit, bid.Proposal); err != nil {
		return nil, err
	}

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// Withdraw retires a pending bid. Only the owning freelancer may withdraw.
func (s *Service) Withdraw(ctx context.Context, actor Actor, id uuid.UUID) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != actor.ID {
		return nil, fmt.Errorf("%w: only the bid owner can withdraw it", ErrForbidden)
	}
	if err := requirePending(bid); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bid.Status = StatusWithdrawn
	bid.WithdrawnAt = &now
	bid.IsActive = false

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	projectID, bidID := bid.ProjectID, bid.ID
	s.async("notify withdrawal", bid.ID, func(ctx context.Context) error {
		project, err := s.gateway.GetProject(ctx, projectID)
		if err != nil {
			return err
		}
		return s.notifier.Notify(ctx, Notification{
			UserID:    project.OwnerID,
			Title:     "Bid Withdrawn",
			Message:   "A bid on your project has been withdrawn.",
			Type:      "bid-withdrawn",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// Accept awards the bid. Only the remote project's owner may accept, and
// only while the project is still open. The remote status propagation and
// freelancer notification run best-effort after the bid commit.
func (s *Service) Accept(ctx context.Context, actor Actor, id uuid.UUID) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: only the project owner can accept bids", ErrForbidden)
	}
	if project.Status != ProjectOpen {
		return nil, fmt.Errorf("%w: project is not open for accepting bids", ErrInvalidState)
	}
	if err := requirePending(bid); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bid.Status = StatusAccepted
	bid.AcceptedAt = &now

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	bidID, projectID, freelancerID := bid.ID, bid.ProjectID, bid.FreelancerID
	s.async("propagate award", bid.ID, func(ctx context.Context) error {
		if err := s.gateway.MarkAwarded(ctx, projectID, freelancerID); err != nil {
			return err
		}
		// The sweep in cmd/worker picks this up if the marker write fails.
		if err := s.repo.MarkAwardSynced(ctx, bidID, time.Now().UTC()); err != nil {
			s.logger.Warn("failed to record award sync", "bid_id", bidID, "error", err)
		}
		return nil
	})
	s.async("notify acceptance", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    freelancerID,
			Title:     "Bid Accepted",
			Message:   "Your bid has been accepted! You can now start working on the project.",
			Type:      "bid-accepted",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// Reject declines the bid. Only the remote project's owner may reject.
func (s *Service) Reject(ctx context.Context, actor Actor, id uuid.UUID) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	project, err := s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: only the project owner can reject bids", ErrForbidden)
	}
	if err := requirePending(bid); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	bid.Status = StatusRejected
	bid.RejectedAt = &now
	bid.IsActive = false

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	bidID, projectID, freelancerID := bid.ID, bid.ProjectID, bid.FreelancerID
	s.async("notify rejection", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    freelancerID,
			Title:     "Bid Rejected",
			Message:   "Your bid has been rejected. Don't worry, there are many other projects you can bid on!",
			Type:      "bid-rejected",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// requirePending guards the pending-only lifecycle transitions. Terminal
// states fail as invalid state; countered must resolve its counter-offer
// round first.
func requirePending(bid *Bid) error {
	switch {
	case bid.Status == StatusPending:
		return nil
	case bid.Status.Terminal():
		return fmt.Errorf("%w: bid is already %s", ErrInvalidState, bid.Status)
	default:
		return fmt.Errorf("%w: resolve the outstanding counter offer first", ErrInvalidTransition)
	}
}

// saveBid persists the aggregate under its version guard and refreshes the
// read cache on success.
func (s *Service) saveBid(ctx context.Context, bid *Bid) error {
	if err := s.repo.Update(ctx, bid); err != nil {
		if errors.Is(err, ErrVersionConflict) {
			s.cacheDelete(ctx, bid.ID)
		}
		return err
	}
	s.cacheSet(ctx, bid)
	return nil
}

// async runs a best-effort side effect on its own goroutine with a bounded
// timeout, detached from the request context. Failures are logged, never
// surfaced, never rolled into the already-committed transition.
func (s *Service) async(op string, bidID uuid.UUID, fn func(context.Context) error) {
	s.sideEffects.Add(1)
	go func() {
		defer s.sideEffects.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.sideEffectTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.logger.Error("side effect failed", "op", op, "bid_id", bidID, "error", err)
		}
	}()
}

func (s *Service) cacheGet(ctx context.Context, id uuid.UUID) (*Bid, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, id)
}

func (s *Service) cacheSet(ctx context.Context, bid *Bid) {
	if s.cache != nil {
		s.cache.Set(ctx, bid)
	}
}

func (s *Service) cacheDelete(ctx context.Context, id uuid.UUID) {
	if s.cache != nil {
		s.cache.Delete(ctx, id)
	}
}
