package bids

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UpdateMilestoneCommand carries a partial content update for a milestone.
// Nil fields are left unchanged. Status never changes through this path.
type UpdateMilestoneCommand struct {
	Title       *string
	Description *string
	Amount      *int64
	DueDate     *time.Time
}

// AddMilestone appends a milestone to the bid. Only the owning freelancer
// may add, while the bid is pending, countered or accepted; milestones added
// after acceptance start at pending and immediately follow the status
// sub-machine.
func (s *Service) AddMilestone(ctx context.Context, actor Actor, bidID uuid.UUID, input MilestoneInput) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.FreelancerID != actor.ID {
		return nil, fmt.Errorf("%w: only the bid owner can add milestones", ErrForbidden)
	}
	if !bid.Negotiable() && bid.Status != StatusAccepted {
		return nil, fmt.Errorf("%w: bid is already %s", ErrInvalidState, bid.Status)
	}
	if err := validateMilestoneContent(input.Title, input.Amount); err != nil {
		return nil, err
	}

	bid.Milestones = append(bid.Milestones, Milestone{
		ID:          uuid.New(),
		Title:       input.Title,
		Description: input.Description,
		Amount:      input.Amount,
		DueDate:     input.DueDate,
		Status:      MilestonePending,
	})

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// UpdateMilestone changes a milestone's content. Owner only, and only while
// the bid is pending or countered; content is frozen from acceptance.
func (s *Service) UpdateMilestone(ctx context.Context, actor Actor, bidID, milestoneID uuid.UUID, cmd UpdateMilestoneCommand) (*Bid, error) {
	bid, milestone, err := s.milestoneForEdit(ctx, actor, bidID, milestoneID)
	if err != nil {
		return nil, err
	}

	if cmd.Title != nil {
		milestone.Title = *cmd.Title
	}
	if cmd.Description != nil {
		milestone.Description = *cmd.Description
	}
	if cmd.Amount != nil {
		milestone.Amount = *cmd.Amount
	}
	if cmd.DueDate != nil {
		milestone.DueDate = cmd.DueDate
	}
	if err := validateMilestoneContent(milestone.Title, milestone.Amount); err != nil {
		return nil, err
	}

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// DeleteMilestone removes a milestone. Owner only, pre-accept only.
func (s *Service) DeleteMilestone(ctx context.Context, actor Actor, bidID, milestoneID uuid.UUID) (*Bid, error) {
	bid, milestone, err := s.milestoneForEdit(ctx, actor, bidID, milestoneID)
	if err != nil {
		return nil, err
	}

	bid.RemoveMilestone(milestone.ID)

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

func (s *Service) milestoneForEdit(ctx context.Context, actor Actor, bidID, milestoneID uuid.UUID) (*Bid, *Milestone, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}
	milestone := bid.Milestone(milestoneID)
	if milestone == nil {
		return nil, nil, ErrMilestoneNotFound
	}
	if bid.FreelancerID != actor.ID {
		return nil, nil, fmt.Errorf("%w: only the bid owner can edit milestones", ErrForbidden)
	}
	if !bid.Negotiable() {
		return nil, nil, fmt.Errorf("%w: milestone content is frozen once the bid is %s", ErrInvalidState, bid.Status)
	}
	return bid, milestone, nil
}

// milestoneEdges is the linear status sub-machine with the role allowed to
// drive each edge.
var milestoneEdges = map[MilestoneStatus]struct {
	from      MilestoneStatus
	byOwner   bool // remote project owner
	byCreator bool // owning freelancer
}{
	MilestoneInProgress: {from: MilestonePending, byCreator: true},
	MilestoneCompleted:  {from: MilestoneInProgress, byCreator: true},
	MilestoneApproved:   {from: MilestoneCompleted, byOwner: true},
}

// UpdateMilestoneStatus advances a milestone through
// pending → in-progress → completed → approved. The freelancer drives the
// first two edges, the remote project's owner the last; skipping or
// reversing a stage is rejected. Requires an accepted bid.
func (s *Service) UpdateMilestoneStatus(ctx context.Context, actor Actor, bidID, milestoneID uuid.UUID, target MilestoneStatus) (*Bid, error) {
	edge, known := milestoneEdges[target]
	if !known {
		return nil, fmt.Errorf("%w: cannot move a milestone to %q", ErrInvalidTransition, target)
	}

	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	milestone := bid.Milestone(milestoneID)
	if milestone == nil {
		return nil, ErrMilestoneNotFound
	}

	project, err := s.gateway.GetProject(ctx, bid.ProjectID)
	if err != nil {
		return nil, err
	}

	var recipient uuid.UUID
	switch {
	case edge.byCreator && actor.ID == bid.FreelancerID:
		recipient = project.OwnerID
	case edge.byOwner && actor.ID == project.OwnerID:
		recipient = bid.FreelancerID
	default:
		return nil, fmt.Errorf("%w: %s transitions are reserved for the other party", ErrForbidden, target)
	}

	if bid.Status != StatusAccepted {
		return nil, fmt.Errorf("%w: milestone status changes require an accepted bid", ErrInvalidState)
	}
	if milestone.Status != edge.from {
		return nil, fmt.Errorf("%w: %s can only follow %s", ErrInvalidTransition, target, edge.from)
	}

	milestone.Status = target

	if err := s.saveBid(ctx, bid); err != nil {
		return nil, err
	}

	title, projectID, msID := milestone.Title, bid.ProjectID, milestone.ID
	s.async("notify milestone update", bid.ID, func(ctx context.Context) error {
		return s.notifier.Notify(ctx, Notification{
			UserID:      recipient,
			Title:       "Milestone Status Updated",
			Message:     fmt.Sprintf("Milestone %q has been updated to %s", title, target),
			Type:        "milestone-update",
			ProjectID:   projectID,
			BidID:       bidID,
			MilestoneID: msID,
		})
	})

	return bid, nil
}
