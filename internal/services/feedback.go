package services

import (
	"context"
	"strings"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/repositories"

	"github.com/sirupsen/logrus"
)

type CreateFeedbackInput struct {
	TaskID    string `json:"taskId" validate:"required"`
	QCRemarks string `json:"qcRemarks" validate:"required"`
	EditorID  string `json:"editorId" validate:"required"`
}

type UpdateFeedbackInput struct {
	QCRemarks string `json:"qcRemarks" validate:"required"`
	EditorID  string `json:"editorId" validate:"required"`
}

type FeedbackService interface {
	CreateFeedback(ctx context.Context, in CreateFeedbackInput) (*models.Feedback, error)
	ListFeedbackForTask(ctx context.Context, taskID string) ([]models.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, in UpdateFeedbackInput) (*models.Feedback, error)
	DeleteFeedback(ctx context.Context, id string) error
}

type FeedbackServiceImpl struct {
	feedback repositories.FeedbackRepository
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewFeedbackService(store repositories.Store, log logrus.FieldLogger) *FeedbackServiceImpl {
	return &FeedbackServiceImpl{
		feedback: store.Feedback(),
		log:      log.WithField("service", "feedback"),
		now:      time.Now,
	}
}

func (s *FeedbackServiceImpl) CreateFeedback(ctx context.Context, in CreateFeedbackInput) (*models.Feedback, error) {
	in.TaskID = strings.TrimSpace(in.TaskID)
	in.QCRemarks = strings.TrimSpace(in.QCRemarks)
	in.EditorID = strings.TrimSpace(in.EditorID)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !models.IsValidID(in.TaskID) {
		return nil, apperrors.InvalidID("task", in.TaskID)
	}

	fb := &models.Feedback{
		ID:        models.NewID(),
		TaskID:    in.TaskID,
		QCRemarks: in.QCRemarks,
		EditorID:  in.EditorID,
		Timestamp: s.now().UTC(),
	}
	if err := s.feedback.Create(ctx, fb); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"feedback_id": fb.ID, "task_id": fb.TaskID}).Info("feedback created")
	return fb, nil
}

func (s *FeedbackServiceImpl) ListFeedbackForTask(ctx context.Context, taskID string) ([]models.Feedback, error) {
	if !models.IsValidID(taskID) {
		return nil, apperrors.InvalidID("task", taskID)
	}
	return s.feedback.FindByTask(ctx, taskID)
}

func (s *FeedbackServiceImpl) UpdateFeedback(ctx context.Context, id string, in UpdateFeedbackInput) (*models.Feedback, error) {
	if !models.IsValidID(id) {
		return nil, apperrors.InvalidID("feedback", id)
	}
	in.QCRemarks = strings.TrimSpace(in.QCRemarks)
	in.EditorID = strings.TrimSpace(in.EditorID)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	return s.feedback.Update(ctx, id, in.QCRemarks, in.EditorID)
}

func (s *FeedbackServiceImpl) DeleteFeedback(ctx context.Context, id string) error {
	if !models.IsValidID(id) {
		return apperrors.InvalidID("feedback", id)
	}
	return s.feedback.Delete(ctx, id)
}
