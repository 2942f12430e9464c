package bids

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func bidWithMilestone(projectID, freelancerID uuid.UUID, status MilestoneStatus) (*Bid, Milestone) {
	bid := pendingBid(projectID, freelancerID)
	ms := Milestone{
		ID:     uuid.New(),
		Title:  "Wireframes",
		Amount: 20000,
		Status: status,
	}
	bid.Milestones = append(bid.Milestones, ms)
	return bid, ms
}

func acceptBid(bid *Bid) *Bid {
	now := time.Now().UTC()
	bid.Status = StatusAccepted
	bid.AcceptedAt = &now
	return bid
}

func TestService_AddMilestone(t *testing.T) {
	freelancerID := uuid.New()

	input := MilestoneInput{Title: "Final delivery", Amount: 30000}

	t.Run("owner adds while pending", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := pendingBid(uuid.New(), freelancerID)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		repo.On("Update", mock.Anything, bid).Return(nil)

		updated, err := svc.AddMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, input)
		require.NoError(t, err)
		require.Len(t, updated.Milestones, 1)
		assert.Equal(t, MilestonePending, updated.Milestones[0].Status)
		assert.NotEqual(t, uuid.Nil, updated.Milestones[0].ID)
	})

	t.Run("owner can still add after acceptance", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		repo.On("Update", mock.Anything, bid).Return(nil)

		updated, err := svc.AddMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, input)
		require.NoError(t, err)
		assert.Len(t, updated.Milestones, 1)
	})

	t.Run("rejected bids cannot grow milestones", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := pendingBid(uuid.New(), freelancerID)
		bid.Status = StatusRejected
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		_, err := svc.AddMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, input)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("only the bid owner may add", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := pendingBid(uuid.New(), freelancerID)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		_, err := svc.AddMilestone(context.Background(), Actor{ID: uuid.New(), Role: RoleFreelancer}, bid.ID, input)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("milestone content is validated", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := pendingBid(uuid.New(), freelancerID)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		_, err := svc.AddMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, MilestoneInput{Title: "", Amount: 100})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_UpdateMilestone(t *testing.T) {
	freelancerID := uuid.New()

	t.Run("content edits while pending", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid, ms := bidWithMilestone(uuid.New(), freelancerID, MilestonePending)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		repo.On("Update", mock.Anything, bid).Return(nil)

		title := "Wireframes and mockups"
		amount := int64(25000)
		updated, err := svc.UpdateMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, UpdateMilestoneCommand{Title: &title, Amount: &amount})
		require.NoError(t, err)
		assert.Equal(t, "Wireframes and mockups", updated.Milestones[0].Title)
		assert.Equal(t, int64(25000), updated.Milestones[0].Amount)
	})

	t.Run("content is frozen once accepted", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid, ms := bidWithMilestone(uuid.New(), freelancerID, MilestonePending)
		acceptBid(bid)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		title := "Changed"
		_, err := svc.UpdateMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, UpdateMilestoneCommand{Title: &title})
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown milestone", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := pendingBid(uuid.New(), freelancerID)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		title := "Changed"
		_, err := svc.UpdateMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, uuid.New(), UpdateMilestoneCommand{Title: &title})
		assert.ErrorIs(t, err, ErrMilestoneNotFound)
	})
}

func TestService_DeleteMilestone(t *testing.T) {
	freelancerID := uuid.New()

	t.Run("owner deletes while countered", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid, ms := bidWithMilestone(uuid.New(), freelancerID, MilestonePending)
		bid.Status = StatusCountered
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		repo.On("Update", mock.Anything, bid).Return(nil)

		updated, err := svc.DeleteMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID)
		require.NoError(t, err)
		assert.Empty(t, updated.Milestones)
	})

	t.Run("deletion is frozen once accepted", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid, ms := bidWithMilestone(uuid.New(), freelancerID, MilestonePending)
		acceptBid(bid)
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		_, err := svc.DeleteMilestone(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID)
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Len(t, bid.Milestones, 1)
	})
}

func TestService_UpdateMilestoneStatus(t *testing.T) {
	freelancerID := uuid.New()
	ownerID := uuid.New()

	setup := func(t *testing.T, msStatus MilestoneStatus, accepted bool) (*Service, *MockBidRepository, *MockProjectGateway, *MockNotifier, *Bid, Milestone) {
		svc, repo, gateway, notifier := newTestService(t)
		bid, ms := bidWithMilestone(uuid.New(), freelancerID, msStatus)
		if accepted {
			acceptBid(bid)
		}
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(&Project{ID: bid.ProjectID, OwnerID: ownerID, Status: ProjectInProgress}, nil)
		return svc, repo, gateway, notifier, bid, ms
	}

	t.Run("freelancer starts a milestone", func(t *testing.T) {
		svc, repo, _, notifier, bid, ms := setup(t, MilestonePending, true)
		repo.On("Update", mock.Anything, bid).Return(nil)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.UserID == ownerID && n.Type == "milestone-update" && n.MilestoneID == ms.ID
		})).Return(nil)

		updated, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, MilestoneInProgress)
		svc.Wait()

		require.NoError(t, err)
		assert.Equal(t, MilestoneInProgress, updated.Milestones[0].Status)
		notifier.AssertExpectations(t)
	})

	t.Run("freelancer completes an in-progress milestone", func(t *testing.T) {
		svc, repo, _, notifier, bid, ms := setup(t, MilestoneInProgress, true)
		repo.On("Update", mock.Anything, bid).Return(nil)
		notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)

		updated, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, MilestoneCompleted)
		svc.Wait()

		require.NoError(t, err)
		assert.Equal(t, MilestoneCompleted, updated.Milestones[0].Status)
	})

	t.Run("owner approves a completed milestone, freelancer is notified", func(t *testing.T) {
		svc, repo, _, notifier, bid, ms := setup(t, MilestoneCompleted, true)
		repo.On("Update", mock.Anything, bid).Return(nil)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.UserID == freelancerID
		})).Return(nil)

		updated, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: ownerID, Role: RoleClient}, bid.ID, ms.ID, MilestoneApproved)
		svc.Wait()

		require.NoError(t, err)
		assert.Equal(t, MilestoneApproved, updated.Milestones[0].Status)
		notifier.AssertExpectations(t)
	})

	t.Run("only the owner may approve", func(t *testing.T) {
		svc, _, _, _, bid, ms := setup(t, MilestoneCompleted, true)

		_, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, MilestoneApproved)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("only the freelancer may start or complete", func(t *testing.T) {
		svc, _, _, _, bid, ms := setup(t, MilestonePending, true)

		_, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: ownerID, Role: RoleClient}, bid.ID, ms.ID, MilestoneInProgress)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("stages cannot be skipped", func(t *testing.T) {
		svc, repo, _, _, bid, ms := setup(t, MilestonePending, true)

		_, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, MilestoneCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("stages cannot be reversed", func(t *testing.T) {
		svc, _, _, _, bid, ms := setup(t, MilestoneApproved, true)

		_, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, MilestoneInProgress)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("pending is never a target", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, uuid.New(), uuid.New(), MilestonePending)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("requires an accepted bid", func(t *testing.T) {
		svc, _, _, _, bid, ms := setup(t, MilestonePending, false)

		_, err := svc.UpdateMilestoneStatus(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, ms.ID, MilestoneInProgress)
		assert.ErrorIs(t, err, ErrInvalidState)
	})
}
