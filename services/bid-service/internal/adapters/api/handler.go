package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gigflow/gigflow/services/bid-service/internal/domain/bids"
)

// Handler exposes the bid lifecycle over HTTP.
type Handler struct {
	service *bids.Service
	logger  *slog.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(service *bids.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status, message := mapError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, gin.H{"error": message})
}

func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func listOptions(c *gin.Context) bids.ListOptions {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return bids.ListOptions{
		Page:  page,
		Limit: limit,
		Sort:  c.Query("sort"),
		Order: c.Query("order"),
	}.Normalize()
}

// CreateBid handles POST /api/bids
func (h *Handler) CreateBid(c *gin.Context) {
	var req createBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := bids.CreateBidCommand{
		ProjectID:    req.ProjectID,
		Amount:       req.Amount,
		DeliveryTime: req.DeliveryTime,
		DeliveryUnit: bids.DeliveryUnit(req.DeliveryUnit),
		Proposal:     req.Proposal,
		Attachments:  req.Attachments,
	}
	for _, m := range req.Milestones {
		cmd.Milestones = append(cmd.Milestones, m.toInput())
	}

	bid, err := h.service.CreateBid(c.Request.Context(), actorFrom(c), cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// GetBid handles GET /api/bids/:id
func (h *Handler) GetBid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	bid, err := h.service.GetBid(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// UpdateBid handles PUT /api/bids/:id
func (h *Handler) UpdateBid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req updateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := bids.UpdateTermsCommand{
		Amount:       req.Amount,
		DeliveryTime: req.DeliveryTime,
		Proposal:     req.Proposal,
		Attachments:  req.Attachments,
	}
	if req.DeliveryUnit != nil {
		unit := bids.DeliveryUnit(*req.DeliveryUnit)
		cmd.DeliveryUnit = &unit
	}

	bid, err := h.service.UpdateTerms(c.Request.Context(), actorFrom(c), id, cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// WithdrawBid handles DELETE /api/bids/:id
func (h *Handler) WithdrawBid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	bid, err := h.service.Withdraw(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// AcceptBid handles POST /api/bids/:id/accept
func (h *Handler) AcceptBid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	bid, err := h.service.Accept(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// RejectBid handles POST /api/bids/:id/reject
func (h *Handler) RejectBid(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	bid, err := h.service.Reject(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// ListProjectBids handles GET /api/projects/:projectId/bids
func (h *Handler) ListProjectBids(c *gin.Context) {
	projectID, ok := pathUUID(c, "projectId")
	if !ok {
		return
	}

	opts := listOptions(c)
	result, total, err := h.service.ListByProject(c.Request.Context(), projectID, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if result == nil {
		result = []*bids.Bid{}
	}
	c.JSON(http.StatusOK, listResponse{Bids: result, Total: total, Page: opts.Page, Limit: opts.Limit})
}

// ListFreelancerBids handles GET /api/freelancers/:freelancerId/bids
func (h *Handler) ListFreelancerBids(c *gin.Context) {
	freelancerID, ok := pathUUID(c, "freelancerId")
	if !ok {
		return
	}

	opts := listOptions(c)
	status := bids.Status(c.Query("status"))
	result, total, err := h.service.ListByFreelancer(c.Request.Context(), actorFrom(c), freelancerID, status, opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if result == nil {
		result = []*bids.Bid{}
	}
	c.JSON(http.StatusOK, listResponse{Bids: result, Total: total, Page: opts.Page, Limit: opts.Limit})
}

// CreateCounterOffer handles POST /api/bids/:id/counter-offers
func (h *Handler) CreateCounterOffer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req counterOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.service.CreateCounterOffer(c.Request.Context(), actorFrom(c), id, bids.CounterOfferCommand{
		Amount:       req.Amount,
		DeliveryTime: req.DeliveryTime,
		DeliveryUnit: bids.DeliveryUnit(req.DeliveryUnit),
		Message:      req.Message,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// AcceptCounterOffer handles POST /api/bids/:id/counter-offers/:offerId/accept
func (h *Handler) AcceptCounterOffer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	offerID, ok := pathUUID(c, "offerId")
	if !ok {
		return
	}

	bid, err := h.service.AcceptCounterOffer(c.Request.Context(), actorFrom(c), id, offerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// RejectCounterOffer handles POST /api/bids/:id/counter-offers/:offerId/reject
func (h *Handler) RejectCounterOffer(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	offerID, ok := pathUUID(c, "offerId")
	if !ok {
		return
	}

	bid, err := h.service.RejectCounterOffer(c.Request.Context(), actorFrom(c), id, offerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// AddMilestone handles POST /api/bids/:id/milestones
func (h *Handler) AddMilestone(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req milestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.service.AddMilestone(c.Request.Context(), actorFrom(c), id, req.toInput())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// UpdateMilestone handles PUT /api/bids/:id/milestones/:milestoneId
func (h *Handler) UpdateMilestone(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := pathUUID(c, "milestoneId")
	if !ok {
		return
	}

	var req updateMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.service.UpdateMilestone(c.Request.Context(), actorFrom(c), id, milestoneID, bids.UpdateMilestoneCommand{
		Title:       req.Title,
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// DeleteMilestone handles DELETE /api/bids/:id/milestones/:milestoneId
func (h *Handler) DeleteMilestone(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := pathUUID(c, "milestoneId")
	if !ok {
		return
	}

	bid, err := h.service.DeleteMilestone(c.Request.Context(), actorFrom(c), id, milestoneID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// UpdateMilestoneStatus handles PATCH /api/bids/:id/milestones/:milestoneId/status
func (h *Handler) UpdateMilestoneStatus(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := pathUUID(c, "milestoneId")
	if !ok {
		return
	}

	var req milestoneStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := h.service.UpdateMilestoneStatus(c.Request.Context(), actorFrom(c), id, milestoneID, bids.MilestoneStatus(req.Status))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bid)
}

// SubmitClientFeedback handles POST /api/bids/:id/feedback/client
func (h *Handler) SubmitClientFeedback(c *gin.Context) {
	h.submitFeedback(c, h.service.SubmitClientFeedback)
}

// SubmitFreelancerFeedback handles POST /api/bids/:id/feedback/freelancer
func (h *Handler) SubmitFreelancerFeedback(c *gin.Context) {
	h.submitFeedback(c, h.service.SubmitFreelancerFeedback)
}

func (h *Handler) submitFeedback(c *gin.Context, submit func(context.Context, bids.Actor, uuid.UUID, bids.FeedbackCommand) (*bids.Bid, error)) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bid, err := submit(c.Request.Context(), actorFrom(c), id, bids.FeedbackCommand{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bid)
}

// GetFeedback handles GET /api/bids/:id/feedback
func (h *Handler) GetFeedback(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	pair, err := h.service.GetFeedback(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
