package bids

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockBidRepository is a mock implementation of BidRepository for testing
type MockBidRepository struct {
	mock.Mock
}

func (m *MockBidRepository) Insert(ctx context.Context, bid *Bid) error {
	args := m.Called(ctx, bid)
	return args.Error(0)
}

func (m *MockBidRepository) GetByID(ctx context.Context, id uuid.UUID) (*Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Bid), args.Error(1)
}

func (m *MockBidRepository) ListByProject(ctx context.Context, projectID uuid.UUID, opts ListOptions) ([]*Bid, int64, error) {
	args := m.Called(ctx, projectID, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Bid), args.Get(1).(int64), args.Error(2)
}

func (m *MockBidRepository) ListByFreelancer(ctx context.Context, freelancerID uuid.UUID, status Status, opts ListOptions) ([]*Bid, int64, error) {
	args := m.Called(ctx, freelancerID, status, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*Bid), args.Get(1).(int64), args.Error(2)
}

func (m *MockBidRepository) Update(ctx context.Context, bid *Bid) error {
	args := m.Called(ctx, bid)
	return args.Error(0)
}

func (m *MockBidRepository) ListAwardPending(ctx context.Context, limit int) ([]*Bid, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Bid), args.Error(1)
}

func (m *MockBidRepository) MarkAwardSynced(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockProjectGateway is a mock implementation of ProjectGateway for testing
type MockProjectGateway struct {
	mock.Mock
}

func (m *MockProjectGateway) GetProject(ctx context.Context, projectID uuid.UUID) (*Project, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Project), args.Error(1)
}

func (m *MockProjectGateway) MarkAwarded(ctx context.Context, projectID, freelancerID uuid.UUID) error {
	args := m.Called(ctx, projectID, freelancerID)
	return args.Error(0)
}

func (m *MockProjectGateway) IncrementBidCount(ctx context.Context, projectID uuid.UUID) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, n Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
