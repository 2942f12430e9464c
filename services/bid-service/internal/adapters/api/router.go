package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
)

// NewRouter configures all routes. Every bid route sits behind token
// authentication.
func NewRouter(handler *Handler, validator TokenValidator, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authed := router.Group("/api", Authenticate(validator))

	bidRoutes := authed.Group("/bids")
	{
		bidRoutes.POST("", handler.CreateBid)
		bidRoutes.GET("/:id", handler.GetBid)
		bidRoutes.PUT("/:id", handler.UpdateBid)
		bidRoutes.DELETE("/:id", handler.WithdrawBid)
		bidRoutes.POST("/:id/accept", handler.AcceptBid)
		bidRoutes.POST("/:id/reject", handler.RejectBid)

		bidRoutes.POST("/:id/counter-offers", handler.CreateCounterOffer)
		bidRoutes.POST("/:id/counter-offers/:offerId/accept", handler.AcceptCounterOffer)
		bidRoutes.POST("/:id/counter-offers/:offerId/reject", handler.RejectCounterOffer)

		bidRoutes.POST("/:id/milestones", handler.AddMilestone)
		bidRoutes.PUT("/:id/milestones/:milestoneId", handler.UpdateMilestone)
		bidRoutes.DELETE("/:id/milestones/:milestoneId", handler.DeleteMilestone)
		bidRoutes.PATCH("/:id/milestones/:milestoneId/status", handler.UpdateMilestoneStatus)

		bidRoutes.GET("/:id/feedback", handler.GetFeedback)
		bidRoutes.POST("/:id/feedback/client", handler.SubmitClientFeedback)
		bidRoutes.POST("/:id/feedback/freelancer", handler.SubmitFreelancerFeedback)
	}

	authed.GET("/projects/:projectId/bids", handler.ListProjectBids)
	authed.GET("/freelancers/:freelancerId/bids", handler.ListFreelancerBids)

	return router
}
