package bids

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a bid.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCountered Status = "countered"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Terminal reports whether no further lifecycle transition is possible.
func (s Status) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusWithdrawn
}

// DeliveryUnit is the unit for a bid's delivery time.
type DeliveryUnit string

const (
	UnitHours  DeliveryUnit = "hours"
	UnitDays   DeliveryUnit = "days"
	UnitWeeks  DeliveryUnit = "weeks"
	UnitMonths DeliveryUnit = "months"
)

// ValidDeliveryUnit reports whether u is a known delivery time unit.
func ValidDeliveryUnit(u DeliveryUnit) bool {
	switch u {
	case UnitHours, UnitDays, UnitWeeks, UnitMonths:
		return true
	}
	return false
}

// MilestoneStatus is the execution state of a milestone within an accepted bid.
type MilestoneStatus string

const (
	MilestonePending    MilestoneStatus = "pending"
	MilestoneInProgress MilestoneStatus = "in-progress"
	MilestoneCompleted  MilestoneStatus = "completed"
	MilestoneApproved   MilestoneStatus = "approved"
)

// CounterOffer is an alternative set of terms proposed by one party during
// negotiation. Immutable once created; accepting one copies its terms onto
// the parent bid.
type CounterOffer struct {
	ID           uuid.UUID    `json:"id"`
	Amount       int64        `json:"amount"`
	DeliveryTime int          `json:"delivery_time"`
	DeliveryUnit DeliveryUnit `json:"delivery_time_unit"`
	Message      string       `json:"message,omitempty"`
	CreatedBy    uuid.UUID    `json:"created_by"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Milestone is a sub-deliverable tracked within a bid. Content is mutable
// while the bid is negotiable; once the bid is accepted only Status advances.
type Milestone struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Amount      int64           `json:"amount"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Status      MilestoneStatus `json:"status"`
}

// Feedback is a write-once rating left by one side after project completion.
type Feedback struct {
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a file reference included with a bid proposal.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Bid is the aggregate root: a freelancer's proposal against a remote
// project, with negotiable terms and an explicit lifecycle. The aggregate,
// including all embedded collections, is owned and mutated exclusively by
// the lifecycle engine.
type Bid struct {
	ID           uuid.UUID `json:"id"`
	ProjectID    uuid.UUID `json:"project_id"`
	FreelancerID uuid.UUID `json:"freelancer_id"`

	Amount       int64        `json:"amount"`
	DeliveryTime int          `json:"delivery_time"`
	DeliveryUnit DeliveryUnit `json:"delivery_time_unit"`
	Proposal     string       `json:"proposal"`

	Status   Status `json:"status"`
	IsActive bool   `json:"is_active"`

	Attachments   []Attachment   `json:"attachments"`
	CounterOffers []CounterOffer `json:"counter_offers"`
	Milestones    []Milestone    `json:"milestones"`

	ClientFeedback     *Feedback `json:"client_feedback,omitempty"`
	FreelancerFeedback *Feedback `json:"freelancer_feedback,omitempty"`

	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	RejectedAt  *time.Time `json:"rejected_at,omitempty"`
	WithdrawnAt *time.Time `json:"withdrawn_at,omitempty"`

	AwardSyncedAt *time.Time `json:"award_synced_at,omitempty"`

	// Version guards every write: updates are conditioned on the version
	// last read and bump it by one.
	Version int64 `json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CounterOffer returns the embedded counter-offer with the given id, or nil.
func (b *Bid) CounterOffer(id uuid.UUID) *CounterOffer {
	for i := range b.CounterOffers {
		if b.CounterOffers[i].ID == id {
			return &b.CounterOffers[i]
		}
	}
	return nil
}

// Milestone returns the embedded milestone with the given id, or nil.
func (b *Bid) Milestone(id uuid.UUID) *Milestone {
	for i := range b.Milestones {
		if b.Milestones[i].ID == id {
			return &b.Milestones[i]
		}
	}
	return nil
}

// RemoveMilestone deletes the milestone with the given id from the aggregate.
// It reports whether a milestone was removed.
func (b *Bid) RemoveMilestone(id uuid.UUID) bool {
	for i := range b.Milestones {
		if b.Milestones[i].ID == id {
			b.Milestones = append(b.Milestones[:i], b.Milestones[i+1:]...)
			return true
		}
	}
	return false
}

// Negotiable reports whether the bid is still in a pre-accept state where
// terms and milestone content may change.
func (b *Bid) Negotiable() bool {
	return b.Status == StatusPending || b.Status == StatusCountered
}

// Role is the marketplace role carried by the authenticated actor.
type Role string

const (
	RoleFreelancer Role = "freelancer"
	RoleClient     Role = "client"
	RoleAdmin      Role = "admin"
)

// Actor is the authenticated identity attached to a request.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// Project holds the authorization-relevant facts fetched from the remote
// project service. Never cached inside the bid aggregate.
type Project struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Status  ProjectStatus
	Title   string
}

// ProjectStatus mirrors the remote project service's status field.
type ProjectStatus string

const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectCancelled  ProjectStatus = "cancelled"
)
