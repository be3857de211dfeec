// Package report lays out QC reports as PDF documents.
package report

import (
	"fmt"
	"regexp"
	"time"

	"qc-tracker/backend/internal/models"

	"github.com/dustin/go-humanize"
)

type Letterhead struct {
	Company    string
	Location   string
	Department string
	PreparedBy string
	Copyright  string
}

func DefaultLetterhead() Letterhead {
	return Letterhead{
		Company:    "Misty Productions",
		Location:   "Kaduwela, Sri Lanka",
		Department: "Quality Control Department",
		PreparedBy: "Prepared by: QC Manager, Quality Control Department",
		Copyright:  "MistyEMS Ltd. All rights reserved.",
	}
}

const scopeText = "Inspection of uploaded materials, compliance with standards and requirements."

// Document is everything printed on a report page.
type Document struct {
	ReportID    string
	TaskName    string
	Status      models.ReportStatus
	AssignedTo  string
	Remarks     string
	GeneratedAt time.Time
}

func BuildDocument(r models.Report, task *models.Task) Document {
	doc := Document{
		ReportID:    r.ID,
		Status:      r.Status,
		AssignedTo:  models.Unassigned,
		Remarks:     r.QCRemarks,
		GeneratedAt: r.GeneratedDate,
	}
	if task != nil {
		doc.TaskName = task.Name
		if task.AssignedTo != "" {
			doc.AssignedTo = task.AssignedTo
		}
	}
	return doc
}

func (d Document) Summary() string {
	return fmt.Sprintf("This report summarizes QC findings for Task %s, including status, remarks, and any follow-up actions required.", d.TaskName)
}

type DetailRow struct {
	Label string
	Value string
}

func (d Document) Details() []DetailRow {
	return []DetailRow{
		{"Task Name:", d.TaskName},
		{"Status:", string(d.Status)},
		{"Assigned To:", d.AssignedTo},
		{"Report Date:", LongDate(d.GeneratedAt)},
	}
}

// LongDate formats t as "October 15th, 2026".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%s %s, %d", t.Month(), humanize.Ordinal(t.Day()), t.Year())
}

// LongDateTime formats t as "October 15th, 2026 3:04:05 PM".
func LongDateTime(t time.Time) string {
	return LongDate(t) + " " + t.Format("3:04:05 PM")
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename is the download name for a task's report, e.g. QC_Report_Check_Lighting.pdf.
func Filename(taskName string) string {
	if taskName == "" {
		taskName = "report"
	}
	return "QC_Report_" + whitespaceRun.ReplaceAllString(taskName, "_") + ".pdf"
}
