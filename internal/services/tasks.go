package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/mailer"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/repositories"

	"github.com/sirupsen/logrus"
)

const NotificationWarning = "Task updated but email notification failed"

type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeSuccessWithWarning Outcome = "success_with_warning"
)

type CreateTaskInput struct {
	Name        string          `json:"name" validate:"required,qcname"`
	Description string          `json:"description"`
	Deadline    *time.Time      `json:"deadline"`
	AssignedTo  string          `json:"assignedTo"`
	Priority    models.Priority `json:"priority" validate:"omitempty,priority"`
}

type StatusUpdateInput struct {
	Status   string     `json:"status" validate:"required"`
	Remarks  *string    `json:"remarks"`
	Deadline *time.Time `json:"deadline"`
	Email    string     `json:"email" validate:"omitempty,email"`
}

type StatusUpdateResult struct {
	Task          *models.Task
	Outcome       Outcome
	Warning       string
	Report        *models.Report
	ReportSkipped bool
}

type ApprovalResult struct {
	Task          *models.Task
	Report        *models.Report
	ReportSkipped bool
}

// ReportCreationError means the task was approved and persisted but the
// approval report could not be written.
type ReportCreationError struct {
	Task *models.Task
	Err  error
}

func (e *ReportCreationError) Error() string {
	return fmt.Sprintf("task %s approved but report creation failed: %v", e.Task.ID, e.Err)
}

func (e *ReportCreationError) Unwrap() error {
	return e.Err
}

type TaskWorkflow interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, in StatusUpdateInput) (*StatusUpdateResult, error)
	ApproveTask(ctx context.Context, id string) (*ApprovalResult, error)
	DeleteTask(ctx context.Context, id string) error
}

type WorkflowConfig struct {
	DefaultAssignee       string
	NotifyTimeout         time.Duration
	DedupeApprovalReports bool
}

type TaskWorkflowService struct {
	tasks   repositories.TaskRepository
	reports repositories.ReportRepository
	sender  mailer.Sender
	config  WorkflowConfig
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewTaskWorkflowService(store repositories.Store, sender mailer.Sender, cfg WorkflowConfig, log logrus.FieldLogger) *TaskWorkflowService {
	if cfg.DefaultAssignee == "" {
		cfg.DefaultAssignee = "QC Team"
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = 10 * time.Second
	}
	return &TaskWorkflowService{
		tasks:   store.Tasks(),
		reports: store.Reports(),
		sender:  sender,
		config:  cfg,
		log:     log.WithField("service", "tasks"),
		now:     time.Now,
	}
}

func (s *TaskWorkflowService) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.tasks.List(ctx)
}

func (s *TaskWorkflowService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	if !models.IsValidID(id) {
		return nil, apperrors.InvalidID("task", id)
	}
	return s.tasks.FindByID(ctx, id)
}

func (s *TaskWorkflowService) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.AssignedTo = strings.TrimSpace(in.AssignedTo)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Deadline != nil && s.beforeToday(*in.Deadline) {
		return nil, apperrors.Validation("deadline", "Deadline cannot be in the past")
	}
	if in.AssignedTo == "" {
		in.AssignedTo = s.config.DefaultAssignee
	}

	task := &models.Task{
		ID:          models.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Priority:    in.Priority,
		Deadline:    in.Deadline,
		AssignedTo:  in.AssignedTo,
		Status:      models.WorkStatusPending,
		QCStatus:    models.QCStatusPending,
		QCRemarks:   "",
		Attachments: []string{},
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"task_id": task.ID, "name": task.Name}).Info("task created")
	return task, nil
}

// UpdateTaskStatus persists the new status first and only then runs side effects.
// A failed revision email downgrades the outcome to a warning; a failed approval
// report surfaces as *ReportCreationError carrying the already-updated task.
func (s *TaskWorkflowService) UpdateTaskStatus(ctx context.Context, id string, in StatusUpdateInput) (*StatusUpdateResult, error) {
	if !models.IsValidID(id) {
		return nil, apperrors.InvalidID("task", id)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	change, ok := models.ParseStatusChange(in.Status)
	if !ok {
		return nil, apperrors.Validation("status", "Invalid status value: %s", in.Status)
	}

	update := models.TaskStatusUpdate{RevisionDeadline: in.Deadline}
	if change.IsReview() {
		update.QCStatus = &change.QC
	} else {
		update.Status = &change.Work
	}
	var remarks string
	if in.Remarks != nil {
		remarks = strings.TrimSpace(*in.Remarks)
		update.QCRemarks = &remarks
	}

	task, err := s.tasks.UpdateStatus(ctx, id, update)
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{"task_id": id, "status": change.String()})
	entry.Info("task status updated")

	result := &StatusUpdateResult{Task: task, Outcome: OutcomeSuccess}

	if change.QC == models.QCStatusNeedsRevision && remarks != "" && in.Email != "" {
		if err := s.notifyRevision(ctx, task, in.Email, remarks, in.Deadline); err != nil {
			entry.WithError(err).WithField("recipient", in.Email).Warn("revision email failed")
			result.Outcome = OutcomeSuccessWithWarning
			result.Warning = NotificationWarning
		}
	}

	if change.QC == models.QCStatusApproved {
		report, skipped, err := s.createApprovalReport(ctx, task)
		if err != nil {
			return nil, &ReportCreationError{Task: task, Err: err}
		}
		result.Report, result.ReportSkipped = report, skipped
	}

	return result, nil
}

// ApproveTask marks the task Approved and then writes one approval report. Two
// calls produce two reports unless approval report dedupe is enabled.
func (s *TaskWorkflowService) ApproveTask(ctx context.Context, id string) (*ApprovalResult, error) {
	if !models.IsValidID(id) {
		return nil, apperrors.InvalidID("task", id)
	}

	approved := models.QCStatusApproved
	task, err := s.tasks.UpdateStatus(ctx, id, models.TaskStatusUpdate{QCStatus: &approved})
	if err != nil {
		return nil, err
	}
	s.log.WithField("task_id", id).Info("task approved")

	report, skipped, err := s.createApprovalReport(ctx, task)
	if err != nil {
		return nil, &ReportCreationError{Task: task, Err: err}
	}
	return &ApprovalResult{Task: task, Report: report, ReportSkipped: skipped}, nil
}

func (s *TaskWorkflowService) DeleteTask(ctx context.Context, id string) error {
	if !models.IsValidID(id) {
		return apperrors.InvalidID("task", id)
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("task_id", id).Info("task deleted")
	return nil
}

func (s *TaskWorkflowService) createApprovalReport(ctx context.Context, task *models.Task) (*models.Report, bool, error) {
	if s.config.DedupeApprovalReports {
		count, err := s.reports.CountByTaskAndStatus(ctx, task.ID, models.ReportStatusApproved)
		if err != nil {
			return nil, false, err
		}
		if count > 0 {
			s.log.WithField("task_id", task.ID).Debug("approval report already exists")
			return nil, true, nil
		}
	}

	report := &models.Report{
		ID:            models.NewID(),
		TaskID:        task.ID,
		QCRemarks:     models.AutoApprovalRemark,
		Status:        models.ReportStatusApproved,
		GeneratedDate: s.now().UTC(),
	}
	if err := s.reports.Create(ctx, report); err != nil {
		return nil, false, err
	}
	s.log.WithFields(logrus.Fields{"task_id": task.ID, "report_id": report.ID}).Info("approval report created")
	return report, false, nil
}

// notifyRevision waits for the send for at most NotifyTimeout. The wait is
// detached from request cancellation because the status change is already stored.
func (s *TaskWorkflowService) notifyRevision(ctx context.Context, task *models.Task, to, remarks string, deadline *time.Time) error {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.NotifyTimeout)
	defer cancel()

	subject, body := revisionEmail(task.Name, remarks, deadline)

	done := make(chan error, 1)
	go func() {
		done <- s.sender.Send(nctx, to, subject, body)
	}()

	var err error
	select {
	case err = <-done:
	case <-nctx.Done():
		err = nctx.Err()
	}
	if err == nil {
		return nil
	}
	if !apperrors.IsDelivery(err) {
		err = &apperrors.DeliveryError{Recipient: to, Err: err}
	}
	return err
}

func revisionEmail(taskName, remarks string, deadline *time.Time) (string, string) {
	due := "Not specified"
	if deadline != nil {
		due = deadline.UTC().Format("2006-01-02")
	}
	subject := "Revision Required: " + taskName
	body := "Hello,\n\n" +
		fmt.Sprintf("Your task %q requires revision.\n\n", taskName) +
		fmt.Sprintf("Remarks: %s\n", remarks) +
		fmt.Sprintf("New Deadline: %s\n\n", due) +
		"Please update by the new deadline.\n\n" +
		"QC Team"
	return subject, body
}

func (s *TaskWorkflowService) beforeToday(t time.Time) bool {
	return dateOnly(t).Before(dateOnly(s.now()))
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func IsReportCreationError(err error) (*ReportCreationError, bool) {
	var rce *ReportCreationError
	ok := errors.As(err, &rce)
	return rce, ok
}
