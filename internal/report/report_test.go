package report

import (
	"bytes"
	"testing"
	"time"

	"qc-tracker/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	assert.Equal(t, "QC_Report_Check_Lighting.pdf", Filename("Check Lighting"))
	assert.Equal(t, "QC_Report_Intro_Cut_Final.pdf", Filename("Intro  Cut\tFinal"))
	assert.Equal(t, "QC_Report_report.pdf", Filename(""))
}

func TestLongDate(t *testing.T) {
	ts := time.Date(2026, time.October, 15, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "October 15th, 2026", LongDate(ts))
	assert.Equal(t, "October 15th, 2026 3:04:05 PM", LongDateTime(ts))
	assert.Equal(t, "March 1st, 2026", LongDate(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "March 22nd, 2026", LongDate(time.Date(2026, time.March, 22, 0, 0, 0, 0, time.UTC)))
}

func TestBuildDocument_AssignedTo(t *testing.T) {
	r := models.Report{ID: models.NewID(), Status: models.ReportStatusApproved, GeneratedDate: time.Now()}

	doc := BuildDocument(r, &models.Task{Name: "Check Lighting", AssignedTo: "Editor Team"})
	assert.Equal(t, "Editor Team", doc.AssignedTo)
	assert.Equal(t, DetailRow{"Assigned To:", "Editor Team"}, doc.Details()[2])

	doc = BuildDocument(r, &models.Task{Name: "Check Lighting"})
	assert.Equal(t, models.Unassigned, doc.AssignedTo)

	doc = BuildDocument(r, nil)
	assert.Equal(t, models.Unassigned, doc.AssignedTo)
	assert.Equal(t, "", doc.TaskName)
}

func TestDocument_Details(t *testing.T) {
	doc := Document{
		TaskName:    "Check Lighting",
		Status:      models.ReportStatusApproved,
		AssignedTo:  "QC Team",
		GeneratedAt: time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC),
	}

	rows := doc.Details()
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Task Name:", "Status:", "Assigned To:", "Report Date:"},
		[]string{rows[0].Label, rows[1].Label, rows[2].Label, rows[3].Label})
	assert.Equal(t, "Approved", rows[1].Value)
	assert.Equal(t, "October 15th, 2026", rows[3].Value)
	assert.Contains(t, doc.Summary(), "Task Check Lighting")
}

func TestRenderer_Render(t *testing.T) {
	r := NewRenderer(DefaultLetterhead())
	r.Compress = false

	doc := Document{
		ReportID:    "652f1c2e9b1e8a3d4c5b6a79",
		TaskName:    "Check Lighting",
		Status:      models.ReportStatusApproved,
		AssignedTo:  models.Unassigned,
		Remarks:     models.AutoApprovalRemark,
		GeneratedAt: time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC),
	}

	out, err := r.Render(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	for _, want := range []string{"QUALITY CONTROL REPORT", "REPORT DETAILS", "Misty Productions", "Unassigned", "Check Lighting", "652f1c2e9b1e8a3d4c5b6a79"} {
		assert.True(t, bytes.Contains(out, []byte(want)), "expected PDF to contain %q", want)
	}
}

func TestRenderer_CompressedOutput(t *testing.T) {
	out, err := NewRenderer(DefaultLetterhead()).Render(Document{ReportID: "x", TaskName: "Intro"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.True(t, bytes.HasSuffix(bytes.TrimSpace(out), []byte("%%EOF")))
}
