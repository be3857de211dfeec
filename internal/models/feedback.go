package models

import "time"

// Feedback is a QC remark addressed to the editor who must rework a task.
type Feedback struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	QCRemarks string    `json:"qcRemarks"`
	EditorID  string    `json:"editorId"`
	Timestamp time.Time `json:"timestamp"`
}
