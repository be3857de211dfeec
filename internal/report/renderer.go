package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	pageMargin    = 18.0
	letterheadH   = 50.0
	detailLabelW  = 35.0
	detailRowH    = 7.0
	footerOffsetY = 30.0
)

type Renderer struct {
	Letterhead Letterhead
	Compress   bool
	now        func() time.Time
}

func NewRenderer(lh Letterhead) *Renderer {
	return &Renderer{Letterhead: lh, Compress: true, now: time.Now}
}

func (r *Renderer) Render(doc Document) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.Compress)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("QC Report "+doc.ReportID, true)
	pdf.SetCreator(r.Letterhead.Company, true)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*pageMargin
	pdf.AddPage()

	pdf.SetFillColor(0x52, 0x05, 0x8D)
	pdf.Rect(0, 0, pageW, letterheadH, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(0, 16)
	pdf.CellFormat(pageW, 9, tr(r.Letterhead.Company), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetX(0)
	pdf.CellFormat(pageW, 6, tr(r.Letterhead.Location), "", 1, "C", false, 0, "")
	pdf.SetX(0)
	pdf.CellFormat(pageW, 6, tr(r.Letterhead.Department), "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(0, letterheadH+6)
	pdf.CellFormat(pageW, 10, "QUALITY CONTROL REPORT", "", 1, "C", false, 0, "")

	pdf.SetTextColor(0x33, 0x33, 0x33)
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetXY(pageMargin, letterheadH+20)
	pdf.MultiCell(contentW, 5, tr(doc.Summary()), "", "L", false)
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 9)
	pdf.Write(5, "Scope: ")
	pdf.SetFont("Helvetica", "", 9)
	pdf.Write(5, tr(scopeText))
	pdf.Ln(12)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, "REPORT DETAILS", "", 1, "L", false, 0, "")
	pdf.SetDrawColor(0xA5, 0x01, 0xBA)
	y := pdf.GetY()
	pdf.Line(pageMargin, y, pageW-pageMargin, y)
	pdf.Ln(4)

	for _, row := range doc.Details() {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(detailLabelW, detailRowH, row.Label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(contentW-detailLabelW, detailRowH, tr(row.Value), "", 1, "L", false, 0, "")
	}

	if doc.Remarks != "" {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(contentW, detailRowH, "QC Remarks:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(contentW, 5, tr(doc.Remarks), "", "L", false)
	}

	footY := pageH - footerOffsetY
	pdf.Line(pageMargin, footY, pageW-pageMargin, footY)
	pdf.SetTextColor(0x66, 0x66, 0x66)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(pageMargin, footY+3)
	pdf.CellFormat(contentW/3, 4, "Report ID: "+doc.ReportID, "", 0, "L", false, 0, "")
	pdf.CellFormat(contentW/3, 4, "Generated on: "+LongDateTime(doc.GeneratedAt), "", 0, "C", false, 0, "")
	pdf.CellFormat(contentW/3, 4, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 1, "R", false, 0, "")
	pdf.SetX(pageMargin)
	pdf.CellFormat(contentW, 4, tr(r.Letterhead.PreparedBy), "", 1, "L", false, 0, "")
	pdf.SetX(pageMargin)
	pdf.CellFormat(contentW, 4, "Confidential. This document is intended for internal use only.", "", 1, "L", false, 0, "")
	pdf.SetX(pageMargin)
	pdf.CellFormat(contentW, 4, tr(fmt.Sprintf("© %d %s", r.now().Year(), r.Letterhead.Copyright)), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report %s: %w", doc.ReportID, err)
	}
	return buf.Bytes(), nil
}
