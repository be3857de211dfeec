package repositories

import (
	"context"

	"qc-tracker/backend/internal/models"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id string) (*models.Task, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*models.Task, error)
	List(ctx context.Context) ([]models.Task, error)
	UpdateStatus(ctx context.Context, id string, update models.TaskStatusUpdate) (*models.Task, error)
	Delete(ctx context.Context, id string) error
}

type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	FindByID(ctx context.Context, id string) (*models.Report, error)
	FindByTask(ctx context.Context, taskID string) ([]models.Report, error)
	// List returns every report, newest generatedDate first.
	List(ctx context.Context) ([]models.Report, error)
	CountByTaskAndStatus(ctx context.Context, taskID string, status models.ReportStatus) (int64, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	FindByID(ctx context.Context, id string) (*models.Feedback, error)
	FindByTask(ctx context.Context, taskID string) ([]models.Feedback, error)
	Update(ctx context.Context, id, qcRemarks, editorID string) (*models.Feedback, error)
	Delete(ctx context.Context, id string) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Store groups the repositories of one backend. Implementations return
// apperrors.NotFound for missing records and wrap backend failures in
// apperrors.StoreError.
type Store interface {
	Tasks() TaskRepository
	Reports() ReportRepository
	Feedback() FeedbackRepository
	Users() UserRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Name() string
}
