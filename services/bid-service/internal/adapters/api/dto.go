package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

type milestoneRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Amount      int64      `json:"amount" binding:"required"`
	DueDate     *time.Time `json:"due_date"`
}

func (m milestoneRequest) toInput() bids.MilestoneInput {
	return bids.MilestoneInput{
		Title:       m.Title,
		Description: m.Description,
		Amount:      m.Amount,
		DueDate:     m.DueDate,
	}
}

type createBidRequest struct {
	ProjectID    uuid.UUID          `json:"project_id" binding:"required"`
	Amount       int64              `json:"amount" binding:"required"`
	DeliveryTime int                `json:"delivery_time" binding:"required"`
	DeliveryUnit string             `json:"delivery_time_unit"`
	Proposal     string             `json:"proposal" binding:"required"`
	Attachments  []bids.Attachment  `json:"attachments"`
	Milestones   []milestoneRequest `json:"milestones"`
}

type updateBidRequest struct {
	Amount       *int64            `json:"amount"`
	DeliveryTime *int              `json:"delivery_time"`
	DeliveryUnit *string           `json:"delivery_time_unit"`
	Proposal     *string           `json:"proposal"`
	Attachments  []bids.Attachment `json:"attachments"`
}

type counterOfferRequest struct {
	Amount       int64  `json:"amount" binding:"required"`
	DeliveryTime int    `json:"delivery_time" binding:"required"`
	DeliveryUnit string `json:"delivery_time_unit"`
	Message      string `json:"message"`
}

type updateMilestoneRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Amount      *int64     `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

type milestoneStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type feedbackRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

type listResponse struct {
	Bids  []*bids.Bid `json:"bids"`
	Total int64       `json:"total"`
	Page  int         `json:"page"`
	Limit int         `json:"limit"`
}
