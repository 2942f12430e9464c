package bids

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CounterOfferCommand carries the terms of a new counter-offer.
type CounterOfferCommand struct {
	Amount       int64
	DeliveryTime int
	DeliveryUnit DeliveryUnit
	Message      string
}

// counterParties resolves the two legitimate negotiation parties for a bid
// and identifies which one the actor is. Third parties fail Forbidden.
func (s *Service) counterParties(ctx context.Context, actor Actor, bid *Bid) (project *Project, counterpart uuid.UUID, err error) {
	project, err = s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	switch actor.ID {
	case bid.FreelancerID:
		return project, project.OwnerID, nil
	case project.OwnerID:
		return project, bid.FreelancerID, nil
	default:
		return nil, uuid.Nil, fmt.Errorf("%w: not a party to this negotiation", ErrForbidden)
	}
}

// CreateCounterOffer appends an immutable counter-offer and moves the bid to
// countered. Either negotiation party may counter while the bid is pending
// or countered; the other party is notified.
func (s *Service) CreateCounterOffer(ctx context.Context, actor Actor, bidID uuid.UUID, cmd CounterOfferCommand) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	_, recipient, err := s.counterParties(ctx, actor, bid)
	if err != nil {
		return nil, err
	}

	if !bid.Negotiable() {
		if bid.Status.Terminal() {
			return nil, fmt.Errorf("%w: bid is already %s", ErrInvalidState, bid.Status)
		}
		return nil, fmt.Errorf("%w: counter offers require a pending or countered bid", ErrInvalidTransition)
	}

	if cmd.DeliveryUnit == "" {
		cmd.DeliveryUnit = UnitDays
	}
	if cmd.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if cmd.DeliveryTime <= 0 {
		return nil, fmt.Errorf("%w: delivery time must be positive", ErrValidation)
	}
	if !ValidDeliveryUnit(cmd.DeliveryUnit) {
		return nil, fmt.Errorf("%w: unknown delivery time unit %q", ErrValidation, cmd.DeliveryUnit)
	}

	bid.CounterOffers = append(bid.CounterOffers, CounterOffer{
		ID:           uuid.New(),
		Amount:       cmd.Amount,
		DeliveryTime: cmd.DeliveryTime,
		DeliveryUnit: cmd.DeliveryUnit,
		Message:      cmd.Message,
		CreatedBy:    actor.ID,
		CreatedAt:    time.Now().UTC(),
	})
	bid.Status = StatusCountered

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	projectID := bid.ProjectID
	s.async("notify counter offer", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    recipient,
			Title:     "New Counter Offer",
			Message:   "You have received a new counter offer on a bid.",
			Type:      "counter-offer",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// AcceptCounterOffer copies the referenced counter-offer's terms onto the
// bid and returns it to pending. Only the party who did not create the
// counter-offer may accept it.
func (s *Service) AcceptCounterOffer(ctx context.Context, actor Actor, bidID, counterOfferID uuid.UUID) (*Bid, error) {
	bid, offer, recipient, err := s.resolveCounterOffer(ctx, actor, bidID, counterOfferID)
	if err != nil {
		return nil, err
	}

	bid.Amount = offer.Amount
	bid.DeliveryTime = offer.DeliveryTime
	bid.DeliveryUnit = offer.DeliveryUnit
	bid.Status = StatusPending

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	projectID := bid.ProjectID
	s.async("notify counter offer accepted", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    recipient,
			Title:     "Counter Offer Accepted",
			Message:   "Your counter offer has been accepted.",
			Type:      "counter-offer-accepted",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// RejectCounterOffer returns the bid to pending without copying terms. Same
// authorization as acceptance.
func (s *Service) RejectCounterOffer(ctx context.Context, actor Actor, bidID, counterOfferID uuid.UUID) (*Bid, error) {
	bid, _, recipient, err := s.resolveCounterOffer(ctx, actor, bidID, counterOfferID)
	if err != nil {
		return nil, err
	}

	bid.Status = StatusPending

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	projectID := bid.ProjectID
	s.async("notify counter offer rejected", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    recipient,
			Title:     "Counter Offer Rejected",
			Message:   "Your counter offer has been rejected.",
			Type:      "counter-offer-rejected",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// resolveCounterOffer loads the bid, locates the referenced counter-offer
// and checks that the actor is the non-creating party while the bid is
// countered. The creator of the offer is returned as notification recipient.
func (s *Service) resolveCounterOffer(ctx context.Context, actor Actor, bidID, counterOfferID uuid.UUID) (*Bid, *CounterOffer, uuid.UUID, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, uuid.Nil, err
	}

	offer := bid.CounterOffer(counterOfferID)
	if offer == nil {
		return nil, nil, uuid.Nil, ErrCounterOfferNotFound
	}

	if _, _, err := s.counterParties(ctx, actor, bid); err != nil {
		return nil, nil, uuid.Nil, err
	}
	if actor.ID == offer.CreatedBy {
		return nil, nil, uuid.Nil, fmt.Errorf("%w: cannot resolve your own counter offer", ErrForbidden)
	}

	if bid.Status != StatusCountered {
		if bid.Status.Terminal() {
			return nil, nil, uuid.Nil, fmt.Errorf("%w: bid is already %s", ErrInvalidState, bid.Status)
		}
		return nil, nil, uuid.Nil, fmt.Errorf("%w: no counter offer round is open", ErrInvalidTransition)
	}

	return bid, offer, offer.CreatedBy, nil
}
