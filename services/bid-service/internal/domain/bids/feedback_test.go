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

func TestService_SubmitClientFeedback(t *testing.T) {
	freelancerID := uuid.New()
	ownerID := uuid.New()

	completedProject := func(projectID uuid.UUID) *Project {
		return &Project{ID: projectID, OwnerID: ownerID, Status: ProjectCompleted}
	}

	t.Run("owner rates the freelancer once the project completes", func(t *testing.T) {
		svc, repo, gateway, notifier := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))

		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(completedProject(bid.ProjectID), nil)
		repo.On("Update", mock.Anything, bid).Return(nil)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.UserID == freelancerID && n.Type == "feedback"
		})).Return(nil)

		updated, err := svc.SubmitClientFeedback(context.Background(), Actor{ID: ownerID, Role: RoleClient}, bid.ID, FeedbackCommand{Rating: 5, Comment: "Great work"})
		svc.Wait()

		require.NoError(t, err)
		require.NotNil(t, updated.ClientFeedback)
		assert.Equal(t, 5, updated.ClientFeedback.Rating)
		assert.Nil(t, updated.FreelancerFeedback)
		notifier.AssertExpectations(t)
	})

	t.Run("feedback is write-once", func(t *testing.T) {
		svc, repo, gateway, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		bid.ClientFeedback = &Feedback{Rating: 4, CreatedAt: time.Now().UTC()}
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(completedProject(bid.ProjectID), nil)

		_, err := svc.SubmitClientFeedback(context.Background(), Actor{ID: ownerID, Role: RoleClient}, bid.ID, FeedbackCommand{Rating: 2})
		assert.ErrorIs(t, err, ErrDuplicateFeedback)
		assert.Equal(t, 4, bid.ClientFeedback.Rating)
	})

	t.Run("requires a completed project", func(t *testing.T) {
		svc, repo, gateway, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(&Project{ID: bid.ProjectID, OwnerID: ownerID, Status: ProjectInProgress}, nil)

		_, err := svc.SubmitClientFeedback(context.Background(), Actor{ID: ownerID, Role: RoleClient}, bid.ID, FeedbackCommand{Rating: 5})
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("only the project owner may rate", func(t *testing.T) {
		svc, repo, gateway, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(completedProject(bid.ProjectID), nil)

		_, err := svc.SubmitClientFeedback(context.Background(), Actor{ID: uuid.New(), Role: RoleClient}, bid.ID, FeedbackCommand{Rating: 5})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("rating range is enforced", func(t *testing.T) {
		svc, _, _, _ := newTestService(t)

		_, err := svc.SubmitClientFeedback(context.Background(), Actor{ID: ownerID, Role: RoleClient}, uuid.New(), FeedbackCommand{Rating: 6})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.SubmitClientFeedback(context.Background(), Actor{ID: ownerID, Role: RoleClient}, uuid.New(), FeedbackCommand{Rating: 0})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestService_SubmitFreelancerFeedback(t *testing.T) {
	freelancerID := uuid.New()
	ownerID := uuid.New()

	t.Run("freelancer rates the client", func(t *testing.T) {
		svc, repo, gateway, notifier := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))

		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(&Project{ID: bid.ProjectID, OwnerID: ownerID, Status: ProjectCompleted}, nil)
		repo.On("Update", mock.Anything, bid).Return(nil)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n Notification) bool {
			return n.UserID == ownerID && n.Type == "feedback"
		})).Return(nil)

		updated, err := svc.SubmitFreelancerFeedback(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, FeedbackCommand{Rating: 4, Comment: "Clear requirements"})
		svc.Wait()

		require.NoError(t, err)
		require.NotNil(t, updated.FreelancerFeedback)
		assert.Equal(t, 4, updated.FreelancerFeedback.Rating)
		notifier.AssertExpectations(t)
	})

	t.Run("only the bid owner may rate the client", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		_, err := svc.SubmitFreelancerFeedback(context.Background(), Actor{ID: ownerID, Role: RoleClient}, bid.ID, FeedbackCommand{Rating: 4})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("write-once per side", func(t *testing.T) {
		svc, repo, gateway, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		bid.FreelancerFeedback = &Feedback{Rating: 3, CreatedAt: time.Now().UTC()}
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(&Project{ID: bid.ProjectID, OwnerID: ownerID, Status: ProjectCompleted}, nil)

		_, err := svc.SubmitFreelancerFeedback(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID, FeedbackCommand{Rating: 5})
		assert.ErrorIs(t, err, ErrDuplicateFeedback)
	})
}

func TestService_GetFeedback(t *testing.T) {
	freelancerID := uuid.New()
	ownerID := uuid.New()

	t.Run("both slots are returned, nil when unwritten", func(t *testing.T) {
		svc, repo, _, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		bid.ClientFeedback = &Feedback{Rating: 5, Comment: "Great", CreatedAt: time.Now().UTC()}
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)

		pair, err := svc.GetFeedback(context.Background(), Actor{ID: freelancerID, Role: RoleFreelancer}, bid.ID)
		require.NoError(t, err)
		require.NotNil(t, pair.ClientFeedback)
		assert.Equal(t, 5, pair.ClientFeedback.Rating)
		assert.Nil(t, pair.FreelancerFeedback)
	})

	t.Run("third parties cannot read feedback", func(t *testing.T) {
		svc, repo, gateway, _ := newTestService(t)
		bid := acceptBid(pendingBid(uuid.New(), freelancerID))
		repo.On("GetByID", mock.Anything, bid.ID).Return(bid, nil)
		gateway.On("GetProject", mock.Anything, bid.ProjectID).Return(openProject(ownerID), nil)

		_, err := svc.GetFeedback(context.Background(), Actor{ID: uuid.New(), Role: RoleClient}, bid.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})
}
