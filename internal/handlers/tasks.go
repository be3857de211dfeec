package handlers

import (
	"errors"
	"net/http"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type TaskHandler struct {
	responder
	workflow services.TaskWorkflow
	mail     services.OutboundMail
}

func NewTaskHandler(workflow services.TaskWorkflow, mail services.OutboundMail, log logrus.FieldLogger, development bool) *TaskHandler {
	return &TaskHandler{
		responder: responder{log: log.WithField("handler", "tasks"), development: development},
		workflow:  workflow,
		mail:      mail,
	}
}

func (h *TaskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	tasks := rg.Group("/qc-tasks")
	tasks.GET("", h.ListTasks)
	tasks.POST("", h.CreateTask)
	tasks.POST("/send-email", h.SendEmail)
	tasks.GET("/send-email/:jobId", h.EmailJobStatus)
	tasks.GET("/:id", h.GetTask)
	tasks.PUT("/:id", h.ReplaceReviewStatus)
	tasks.DELETE("/:id", h.DeleteTask)
	tasks.PATCH("/:id/status", h.UpdateStatus)
	tasks.POST("/:id/approve", h.ApproveTask)
}

type createTaskRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Deadline    flexDate        `json:"deadline"`
	AssignedTo  string          `json:"assignedTo"`
	Priority    models.Priority `json:"priority"`
}

type statusUpdateRequest struct {
	Status   string   `json:"status"`
	Remarks  *string  `json:"remarks"`
	Deadline flexDate `json:"deadline"`
	Email    string   `json:"email"`
}

// reviewUpdateRequest is the dashboard's PUT body, which names the review
// fields directly.
type reviewUpdateRequest struct {
	QCStatus         string   `json:"qcStatus"`
	QCRemarks        *string  `json:"qcRemarks"`
	RevisionDeadline flexDate `json:"revisionDeadline"`
	Email            string   `json:"email"`
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	tasks, err := h.workflow.ListTasks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.workflow.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if !h.bindJSON(c, &req) {
		return
	}

	task, err := h.workflow.CreateTask(c.Request.Context(), services.CreateTaskInput{
		Name:        req.Name,
		Description: req.Description,
		Deadline:    req.Deadline.Time,
		AssignedTo:  req.AssignedTo,
		Priority:    req.Priority,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req statusUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.applyStatus(c, services.StatusUpdateInput{
		Status:   req.Status,
		Remarks:  req.Remarks,
		Deadline: req.Deadline.Time,
		Email:    req.Email,
	})
}

func (h *TaskHandler) ReplaceReviewStatus(c *gin.Context) {
	var req reviewUpdateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.applyStatus(c, services.StatusUpdateInput{
		Status:   req.QCStatus,
		Remarks:  req.QCRemarks,
		Deadline: req.RevisionDeadline.Time,
		Email:    req.Email,
	})
}

func (h *TaskHandler) applyStatus(c *gin.Context, in services.StatusUpdateInput) {
	result, err := h.workflow.UpdateTaskStatus(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if result.Outcome == services.OutcomeSuccessWithWarning {
		c.JSON(http.StatusOK, gin.H{"task": result.Task, "warning": result.Warning})
		return
	}
	c.JSON(http.StatusOK, result.Task)
}

func (h *TaskHandler) ApproveTask(c *gin.Context) {
	result, err := h.workflow.ApproveTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": result.Task, "report": result.Report})
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	id := c.Param("id")
	err := h.workflow.DeleteTask(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Task deleted successfully"})
	case errors.Is(err, apperrors.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ObjectId format", "received": id})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Task not found"})
	default:
		h.logError(c, err)
		body := gin.H{"success": false, "message": "Server error"}
		if h.development {
			body["error"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func (h *TaskHandler) SendEmail(c *gin.Context) {
	var req services.SendEmailInput
	if !h.bindJSON(c, &req) {
		return
	}

	dispatch, err := h.mail.SendEmail(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if dispatch.Queued {
		c.JSON(http.StatusAccepted, gin.H{"message": "Email queued", "jobId": dispatch.JobID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email sent successfully"})
}

func (h *TaskHandler) EmailJobStatus(c *gin.Context) {
	rec, err := h.mail.JobStatus(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}
