package models

import "time"

type ReportStatus string

const (
	ReportStatusApproved      ReportStatus = "Approved"
	ReportStatusNeedsRevision ReportStatus = "Needs Revision"
	ReportStatusPending       ReportStatus = "Pending"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusApproved, ReportStatusNeedsRevision, ReportStatusPending:
		return true
	}
	return false
}

// AutoApprovalRemark is the remark on the report created when a task is approved.
const AutoApprovalRemark = "Auto-generated report upon approval."

const (
	UnnamedTask = "Unnamed Task"
	Unassigned  = "Unassigned"
)

type Report struct {
	ID            string       `json:"id"`
	TaskID        string       `json:"taskId"`
	QCRemarks     string       `json:"qcRemarks"`
	Status        ReportStatus `json:"status"`
	GeneratedDate time.Time    `json:"generatedDate"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`

	Task *TaskSummary `json:"task,omitempty"`
}

type TaskSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	AssignedTo string `json:"assignedTo"`
}

func SummarizeTask(t *Task) *TaskSummary {
	if t == nil {
		return nil
	}
	return &TaskSummary{ID: t.ID, Name: t.Name, AssignedTo: t.AssignedTo}
}

// ReportView is the dashboard row for a report, joined with its task at read time.
type ReportView struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      ReportStatus `json:"status"`
	Date        time.Time    `json:"date"`
	AssignedTo  string       `json:"assignedTo"`
}

func NewReportView(r Report, t *Task) ReportView {
	view := ReportView{
		ID:          r.ID,
		Title:       UnnamedTask,
		Description: r.QCRemarks,
		Status:      r.Status,
		Date:        r.GeneratedDate,
		AssignedTo:  Unassigned,
	}
	if t != nil {
		if t.Name != "" {
			view.Title = t.Name
		}
		if t.AssignedTo != "" {
			view.AssignedTo = t.AssignedTo
		}
	}
	return view
}
