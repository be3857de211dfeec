package repositories

import (
	"context"
	"errors"
	"time"

	"qc-tracker/backend/internal/apperrors"
	"qc-tracker/backend/internal/database"
	"qc-tracker/backend/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type taskRow struct {
	ID               string `gorm:"primaryKey;size:24"`
	Name             string `gorm:"not null"`
	Description      string
	Priority         string
	Deadline         *time.Time
	AssignedTo       string
	Status           string `gorm:"not null;default:Pending"`
	QCStatus         string `gorm:"column:qc_status;not null;default:Pending"`
	QCRemarks        string `gorm:"column:qc_remarks"`
	RevisionDeadline *time.Time
	Attachments      datatypes.JSONSlice[string]
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (taskRow) TableName() string { return "qc_tasks" }

type reportRow struct {
	ID            string    `gorm:"primaryKey;size:24"`
	TaskID        string    `gorm:"size:24;index;not null"`
	QCRemarks     string    `gorm:"column:qc_remarks;not null"`
	Status        string    `gorm:"not null;default:Pending"`
	GeneratedDate time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (reportRow) TableName() string { return "qc_reports" }

type feedbackRow struct {
	ID        string    `gorm:"primaryKey;size:24"`
	TaskID    string    `gorm:"size:24;index;not null"`
	QCRemarks string    `gorm:"column:qc_remarks;not null"`
	EditorID  string    `gorm:"not null"`
	Timestamp time.Time
}

func (feedbackRow) TableName() string { return "qc_feedbacks" }

type userRow struct {
	ID           string `gorm:"primaryKey;size:24"`
	Name         string
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

// GormStore keeps QC records in a relational database through GORM.
type GormStore struct {
	pool     *database.DatabasePool
	tasks    *gormTaskRepository
	reports  *gormReportRepository
	feedback *gormFeedbackRepository
	users    *gormUserRepository
}

func NewGormStore(pool *database.DatabasePool) *GormStore {
	db := pool.DB
	return &GormStore{
		pool:     pool,
		tasks:    &gormTaskRepository{db: db},
		reports:  &gormReportRepository{db: db},
		feedback: &gormFeedbackRepository{db: db},
		users:    &gormUserRepository{db: db},
	}
}

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.pool.DB.WithContext(ctx).AutoMigrate(&taskRow{}, &reportRow{}, &feedbackRow{}, &userRow{})
}

func (s *GormStore) Tasks() TaskRepository          { return s.tasks }
func (s *GormStore) Reports() ReportRepository      { return s.reports }
func (s *GormStore) Feedback() FeedbackRepository   { return s.feedback }
func (s *GormStore) Users() UserRepository          { return s.users }
func (s *GormStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }
func (s *GormStore) Close(context.Context) error    { return s.pool.Close() }
func (s *GormStore) Name() string                   { return s.pool.DB.Dialector.Name() }

func (s *GormStore) Stats() map[string]interface{} { return s.pool.Stats() }

func translate(op, resource string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperrors.NotFound(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperrors.ErrDuplicate
	default:
		return apperrors.Store(op, err)
	}
}

type gormTaskRepository struct {
	db *gorm.DB
}

func taskToRow(t *models.Task) *taskRow {
	attachments := t.Attachments
	if attachments == nil {
		attachments = []string{}
	}
	return &taskRow{
		ID:               t.ID,
		Name:             t.Name,
		Description:      t.Description,
		Priority:         string(t.Priority),
		Deadline:         t.Deadline,
		AssignedTo:       t.AssignedTo,
		Status:           string(t.Status),
		QCStatus:         string(t.QCStatus),
		QCRemarks:        t.QCRemarks,
		RevisionDeadline: t.RevisionDeadline,
		Attachments:      datatypes.JSONSlice[string](attachments),
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func (r *taskRow) toModel() models.Task {
	attachments := []string(r.Attachments)
	if attachments == nil {
		attachments = []string{}
	}
	return models.Task{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Priority:         models.Priority(r.Priority),
		Deadline:         r.Deadline,
		AssignedTo:       r.AssignedTo,
		Status:           models.WorkStatus(r.Status),
		QCStatus:         models.QCStatus(r.QCStatus),
		QCRemarks:        r.QCRemarks,
		RevisionDeadline: r.RevisionDeadline,
		Attachments:      attachments,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

func (r *gormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	row := taskToRow(task)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate("create task", "task", err)
	}
	task.CreatedAt, task.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *gormTaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var row taskRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate("find task", "task", err)
	}
	task := row.toModel()
	return &task, nil
}

func (r *gormTaskRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*models.Task, error) {
	out := make(map[string]*models.Task, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []taskRow
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, translate("find tasks", "task", err)
	}
	for i := range rows {
		task := rows[i].toModel()
		out[task.ID] = &task
	}
	return out, nil
}

func (r *gormTaskRepository) List(ctx context.Context) ([]models.Task, error) {
	var rows []taskRow
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, translate("list tasks", "task", err)
	}
	tasks := make([]models.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toModel())
	}
	return tasks, nil
}

func (r *gormTaskRepository) UpdateStatus(ctx context.Context, id string, update models.TaskStatusUpdate) (*models.Task, error) {
	changes := map[string]interface{}{"updated_at": time.Now().UTC()}
	if update.QCStatus != nil {
		changes["qc_status"] = string(*update.QCStatus)
	}
	if update.Status != nil {
		changes["status"] = string(*update.Status)
	}
	if update.QCRemarks != nil {
		changes["qc_remarks"] = *update.QCRemarks
	}
	if update.RevisionDeadline != nil {
		changes["revision_deadline"] = *update.RevisionDeadline
	}

	result := r.db.WithContext(ctx).Model(&taskRow{}).Where("id = ?", id).Updates(changes)
	if result.Error != nil {
		return nil, translate("update task", "task", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("task")
	}
	return r.FindByID(ctx, id)
}

func (r *gormTaskRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&taskRow{}, "id = ?", id)
	if result.Error != nil {
		return translate("delete task", "task", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("task")
	}
	return nil
}

type gormReportRepository struct {
	db *gorm.DB
}

func (r *reportRow) toModel() models.Report {
	return models.Report{
		ID:            r.ID,
		TaskID:        r.TaskID,
		QCRemarks:     r.QCRemarks,
		Status:        models.ReportStatus(r.Status),
		GeneratedDate: r.GeneratedDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func reportsFromRows(rows []reportRow) []models.Report {
	reports := make([]models.Report, 0, len(rows))
	for i := range rows {
		reports = append(reports, rows[i].toModel())
	}
	return reports
}

func (r *gormReportRepository) Create(ctx context.Context, report *models.Report) error {
	row := &reportRow{
		ID:            report.ID,
		TaskID:        report.TaskID,
		QCRemarks:     report.QCRemarks,
		Status:        string(report.Status),
		GeneratedDate: report.GeneratedDate,
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate("create report", "report", err)
	}
	report.CreatedAt, report.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *gormReportRepository) FindByID(ctx context.Context, id string) (*models.Report, error) {
	var row reportRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate("find report", "report", err)
	}
	report := row.toModel()
	return &report, nil
}

func (r *gormReportRepository) FindByTask(ctx context.Context, taskID string) ([]models.Report, error) {
	var rows []reportRow
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("generated_date DESC").Find(&rows).Error; err != nil {
		return nil, translate("find reports", "report", err)
	}
	return reportsFromRows(rows), nil
}

func (r *gormReportRepository) List(ctx context.Context) ([]models.Report, error) {
	var rows []reportRow
	if err := r.db.WithContext(ctx).Order("generated_date DESC").Find(&rows).Error; err != nil {
		return nil, translate("list reports", "report", err)
	}
	return reportsFromRows(rows), nil
}

func (r *gormReportRepository) CountByTaskAndStatus(ctx context.Context, taskID string, status models.ReportStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&reportRow{}).
		Where("task_id = ? AND status = ?", taskID, string(status)).
		Count(&count).Error
	if err != nil {
		return 0, translate("count reports", "report", err)
	}
	return count, nil
}

type gormFeedbackRepository struct {
	db *gorm.DB
}

func (r *feedbackRow) toModel() models.Feedback {
	return models.Feedback{
		ID:        r.ID,
		TaskID:    r.TaskID,
		QCRemarks: r.QCRemarks,
		EditorID:  r.EditorID,
		Timestamp: r.Timestamp,
	}
}

func (r *gormFeedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	row := &feedbackRow{
		ID:        feedback.ID,
		TaskID:    feedback.TaskID,
		QCRemarks: feedback.QCRemarks,
		EditorID:  feedback.EditorID,
		Timestamp: feedback.Timestamp,
	}
	return translate("create feedback", "feedback", r.db.WithContext(ctx).Create(row).Error)
}

func (r *gormFeedbackRepository) FindByID(ctx context.Context, id string) (*models.Feedback, error) {
	var row feedbackRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, translate("find feedback", "feedback", err)
	}
	feedback := row.toModel()
	return &feedback, nil
}

func (r *gormFeedbackRepository) FindByTask(ctx context.Context, taskID string) ([]models.Feedback, error) {
	var rows []feedbackRow
	if err := r.db.WithContext(ctx).Where("task_id = ?", taskID).Order("timestamp DESC").Find(&rows).Error; err != nil {
		return nil, translate("find feedback", "feedback", err)
	}
	out := make([]models.Feedback, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

func (r *gormFeedbackRepository) Update(ctx context.Context, id, qcRemarks, editorID string) (*models.Feedback, error) {
	result := r.db.WithContext(ctx).Model(&feedbackRow{}).Where("id = ?", id).
		Updates(map[string]interface{}{"qc_remarks": qcRemarks, "editor_id": editorID})
	if result.Error != nil {
		return nil, translate("update feedback", "feedback", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.NotFound("feedback")
	}
	return r.FindByID(ctx, id)
}

func (r *gormFeedbackRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&feedbackRow{}, "id = ?", id)
	if result.Error != nil {
		return translate("delete feedback", "feedback", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("feedback")
	}
	return nil
}

type gormUserRepository struct {
	db *gorm.DB
}

func (r *gormUserRepository) Create(ctx context.Context, user *models.User) error {
	row := &userRow{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate("create user", "user", err)
	}
	user.CreatedAt, user.UpdatedAt = row.CreatedAt, row.UpdatedAt
	return nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, "email = ?", email).Error; err != nil {
		return nil, translate("find user", "user", err)
	}
	return &models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         models.Role(row.Role),
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
