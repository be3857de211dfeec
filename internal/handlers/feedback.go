package handlers

import (
	"net/http"

	"qc-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type FeedbackHandler struct {
	responder
	feedback services.FeedbackService
}

func NewFeedbackHandler(feedback services.FeedbackService, log logrus.FieldLogger, development bool) *FeedbackHandler {
	return &FeedbackHandler{
		responder: responder{log: log.WithField("handler", "feedback"), development: development},
		feedback:  feedback,
	}
}

// RegisterRoutes mounts the feedback routes. GET /:id takes a task id; PUT and
// DELETE take a feedback id.
func (h *FeedbackHandler) RegisterRoutes(rg *gin.RouterGroup) {
	feedback := rg.Group("/qc-feedback")
	feedback.POST("", h.CreateFeedback)
	feedback.GET("/:id", h.ListForTask)
	feedback.PUT("/:id", h.UpdateFeedback)
	feedback.DELETE("/:id", h.DeleteFeedback)
}

func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req services.CreateFeedbackInput
	if !h.bindJSON(c, &req) {
		return
	}
	fb, err := h.feedback.CreateFeedback(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *FeedbackHandler) ListForTask(c *gin.Context) {
	list, err := h.feedback.ListFeedbackForTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	var req services.UpdateFeedbackInput
	if !h.bindJSON(c, &req) {
		return
	}
	fb, err := h.feedback.UpdateFeedback(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	if err := h.feedback.DeleteFeedback(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "QC Feedback deleted"})
}
