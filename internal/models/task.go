package models

import (
	"strings"
	"time"
)

type QCStatus string

const (
	QCStatusPending       QCStatus = "Pending"
	QCStatusApproved      QCStatus = "Approved"
	QCStatusNeedsRevision QCStatus = "Needs Revision"
)

// WorkStatus is the workflow progress of a task. It is independent of the QC review
// status and is never derived from it.
type WorkStatus string

const (
	WorkStatusPending    WorkStatus = "Pending"
	WorkStatusInProgress WorkStatus = "In Progress"
	WorkStatusCompleted  WorkStatus = "Completed"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description"`
	Priority         Priority   `json:"priority,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	AssignedTo       string     `json:"assignedTo"`
	Status           WorkStatus `json:"status"`
	QCStatus         QCStatus   `json:"qcStatus"`
	QCRemarks        string     `json:"qcRemarks"`
	RevisionDeadline *time.Time `json:"revisionDeadline,omitempty"`
	Attachments      []string   `json:"attachments"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// TaskStatusUpdate is a partial update applied to a single task document. Nil fields
// are left untouched.
type TaskStatusUpdate struct {
	QCStatus         *QCStatus
	Status           *WorkStatus
	QCRemarks        *string
	RevisionDeadline *time.Time
}

// StatusChange is a parsed status value. Exactly one of QC and Work is set.
type StatusChange struct {
	QC   QCStatus
	Work WorkStatus
}

func (c StatusChange) IsReview() bool {
	return c.QC != ""
}

func (c StatusChange) String() string {
	if c.IsReview() {
		return string(c.QC)
	}
	return string(c.Work)
}

var statusAliases = map[string]StatusChange{
	"pending":        {QC: QCStatusPending},
	"approved":       {QC: QCStatusApproved},
	"needs revision": {QC: QCStatusNeedsRevision},
	"need revision":  {QC: QCStatusNeedsRevision},
	"in progress":    {Work: WorkStatusInProgress},
	"completed":      {Work: WorkStatusCompleted},
}

// ParseStatusChange maps a client-supplied status onto one of the two status axes.
// Matching ignores case, and underscores or hyphens count as spaces, so the
// dashboard's "Need Revision" and "needs_revision" both resolve to Needs Revision.
func ParseStatusChange(raw string) (StatusChange, bool) {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(raw))
	normalized = strings.Join(strings.Fields(normalized), " ")
	change, ok := statusAliases[normalized]
	return change, ok
}
