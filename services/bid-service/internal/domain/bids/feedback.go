package bids

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FeedbackCommand carries a rating submission.
type FeedbackCommand struct {
	Rating  int
	Comment string
}

// FeedbackPair is the read model for a bid's two feedback slots.
type FeedbackPair struct {
	ClientFeedback     *Feedback `json:"client_feedback"`
	FreelancerFeedback *Feedback `json:"freelancer_feedback"`
}

// SubmitClientFeedback records the project owner's rating of the freelancer.
// Requires a completed remote project; each side writes at most once.
func (s *Service) SubmitClientFeedback(ctx context.Context, actor Actor, bidID uuid.UUID, cmd FeedbackCommand) (*Bid, error) {
	if err := validateFeedback(cmd); err != nil {
		return nil, err
	}

	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	project, err := s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != actor.ID {
		return nil, fmt.Errorf("%w: only the project owner can leave client feedback", ErrForbidden)
	}
	if project.Status != ProjectCompleted {
		return nil, fmt.Errorf("%w: feedback requires a completed project", ErrInvalidState)
	}
	if bid.ClientFeedback != nil {
		return nil, ErrDuplicateFeedback
	}

	bid.ClientFeedback = &Feedback{
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	projectID, freelancerID := bid.ProjectID, bid.FreelancerID
	s.async("notify client feedback", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    freelancerID,
			Title:     "New Feedback Received",
			Message:   "You have received feedback from the client.",
			Type:      "feedback",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// SubmitFreelancerFeedback records the freelancer's rating of the client.
func (s *Service) SubmitFreelancerFeedback(ctx context.Context, actor Actor, bidID uuid.UUID, cmd FeedbackCommand) (*Bid, error) {
	if err := validateFeedback(cmd); err != nil {
		return nil, err
	}

	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != actor.ID {
		return nil, fmt.Errorf("%w: only the bid owner can leave freelancer feedback", ErrForbidden)
	}

	project, err := s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, err
	}
	if project.Status != ProjectCompleted {
		return nil, fmt.Errorf("%w: feedback requires a completed project", ErrInvalidState)
	}
	if bid.FreelancerFeedback != nil {
		return nil, ErrDuplicateFeedback
	}

	bid.FreelancerFeedback = &Feedback{
		Rating:    cmd.Rating,
		Comment:   cmd.Comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	projectID, ownerID := bid.ProjectID, project.OwnerID
	s.async("notify freelancer feedback", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:    ownerID,
			Title:     "New Feedback Received",
			Message:   "You have received feedback from the freelancer.",
			Type:      "feedback",
			ProjectID: projectID,
			BidID:     bidID,
		})
	})

	return bid, nil
}

// GetFeedback returns both feedback slots. Same visibility as the bid.
func (s *Service) GetFeedback(ctx context.Context, actor Actor, bidID uuid.UUID) (*FeedbackPair, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeViewer(ctx, actor, bid); err != nil {
		return nil, err
	}
	return &FeedbackPair{
		ClientFeedback:     bid.ClientFeedback,
		FreelancerFeedback: bid.FreelancerFeedback,
	}, nil
}

func validateFeedback(cmd FeedbackCommand) error {
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}
	return nil
}
