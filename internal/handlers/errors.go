package handlers

import (
	"errors"
	"net/http"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// responder maps service errors onto HTTP responses. Internal error detail is
// only exposed in development.
type responder struct {
	log         logrus.FieldLogger
	development bool
}

func (r responder) respondError(c *gin.Context, err error) {
	var (
		validation  *apperrors.ValidationError
		invalidID   *apperrors.InvalidIDError
		delivery    *apperrors.DeliveryError
		reportError *services.ReportCreationError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
	case errors.As(err, &invalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidID.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "record already exists"})
	case errors.As(err, &reportError):
		r.logError(c, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Task approved but report creation failed",
			"task":  reportError.Task,
		})
	case errors.As(err, &delivery):
		r.logError(c, err)
		body := gin.H{"error": "Error sending email"}
		if r.development {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusBadGateway, body)
	default:
		r.logError(c, err)
		body := gin.H{"error": "Internal Server Error"}
		if r.development {
			body["details"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func (r responder) logError(c *gin.Context, err error) {
	_ = c.Error(err)
	r.log.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("request failed")
}

// bindJSON decodes the request body and writes a 400 when it is malformed.
func (r responder) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var validation *apperrors.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return false
	}
	return true
}
