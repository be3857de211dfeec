package services

import (
	"context"
	"strings"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/models"
	"qc-tracker/backend/internal/report"
	"qc-tracker/backend/internal/repositories"

	"github.com/sirupsen/logrus"
)

type CreateReportInput struct {
	TaskID    string              `json:"taskId" validate:"required"`
	QCRemarks string              `json:"qcRemarks" validate:"required"`
	Status    models.ReportStatus `json:"status" validate:"required,reportstatus"`
}

type RenderedReport struct {
	Report   *models.Report
	Filename string
	Content  []byte
}

type ReportRenderer interface {
	Render(doc report.Document) ([]byte, error)
}

type ReportService interface {
	ListReports(ctx context.Context) ([]models.ReportView, error)
	CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error)
	GetReportsForTask(ctx context.Context, taskID string) ([]models.Report, error)
	RenderReportPDF(ctx context.Context, reportID string) (*RenderedReport, error)
}

type ReportServiceImpl struct {
	tasks    repositories.TaskRepository
	reports  repositories.ReportRepository
	renderer ReportRenderer
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewReportService(store repositories.Store, renderer ReportRenderer, log logrus.FieldLogger) *ReportServiceImpl {
	return &ReportServiceImpl{
		tasks:    store.Tasks(),
		reports:  store.Reports(),
		renderer: renderer,
		log:      log.WithField("service", "reports"),
		now:      time.Now,
	}
}

func (s *ReportServiceImpl) ListReports(ctx context.Context) ([]models.ReportView, error) {
	reports, err := s.reports.List(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(reports))
	seen := make(map[string]bool, len(reports))
	for _, r := range reports {
		if !seen[r.TaskID] {
			seen[r.TaskID] = true
			ids = append(ids, r.TaskID)
		}
	}
	tasks, err := s.tasks.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, models.NewReportView(r, tasks[r.TaskID]))
	}
	return views, nil
}

func (s *ReportServiceImpl) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	in.TaskID = strings.TrimSpace(in.TaskID)
	in.QCRemarks = strings.TrimSpace(in.QCRemarks)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !models.IsValidID(in.TaskID) {
		return nil, apperrors.InvalidID("task", in.TaskID)
	}
	if _, err := s.tasks.FindByID(ctx, in.TaskID); err != nil {
		return nil, err
	}

	r := &models.Report{
		ID:            models.NewID(),
		TaskID:        in.TaskID,
		QCRemarks:     in.QCRemarks,
		Status:        in.Status,
		GeneratedDate: s.now().UTC(),
	}
	if err := s.reports.Create(ctx, r); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"report_id": r.ID, "task_id": r.TaskID, "status": r.Status}).Info("report created")
	return r, nil
}

func (s *ReportServiceImpl) GetReportsForTask(ctx context.Context, taskID string) ([]models.Report, error) {
	if !models.IsValidID(taskID) {
		return nil, apperrors.InvalidID("task", taskID)
	}
	reports, err := s.reports.FindByTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return nil, apperrors.NotFoundWithMessage("report", "No reports found for this task")
	}

	tasks, err := s.tasks.FindByIDs(ctx, []string{taskID})
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeTask(tasks[taskID])
	for i := range reports {
		reports[i].Task = summary
	}
	return reports, nil
}

func (s *ReportServiceImpl) RenderReportPDF(ctx context.Context, reportID string) (*RenderedReport, error) {
	if !models.IsValidID(reportID) {
		return nil, apperrors.InvalidID("report", reportID)
	}
	r, err := s.reports.FindByID(ctx, reportID)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindByIDs(ctx, []string{r.TaskID})
	if err != nil {
		return nil, err
	}
	task := tasks[r.TaskID]
	r.Task = models.SummarizeTask(task)

	doc := report.BuildDocument(*r, task)
	content, err := s.renderer.Render(doc)
	if err != nil {
		return nil, err
	}
	return &RenderedReport{Report: r, Filename: report.Filename(doc.TaskName), Content: content}, nil
}
