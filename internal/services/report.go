package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"alfredoptarigan/assignment-grader/internal/models"
)

const (
	ReportSheet      = "Results"
	headerFillColor  = "4472C4"
	headerFontColor  = "FFFFFF"
	gradeColumnIndex = 4
)

type ReportColumn struct {
	Title string
	Width float64
}

// ReportColumns is the fixed column order of the artifact.
var ReportColumns = []ReportColumn{
	{Title: "File Name", Width: 35},
	{Title: "Assignment Number", Width: 15},
	{Title: "National ID", Width: 15},
	{Title: "Grade", Width: 10},
	{Title: "Comments", Width: 100},
}

// RowBands are the data-row fills, chosen by row index modulo 4.
var RowBands = []string{"D6EAF8", "D5F4E6", "FCF3CF", "FADBD8"}

// ReportFileName names a report by its generation time.
func ReportFileName(now time.Time) string {
	return fmt.Sprintf("assignment_report_%s.xlsx", now.Format("20060102_1504"))
}

// BuildReportRows drops the full text and keeps record order.
func BuildReportRows(records []models.SubmissionRecord) []models.ReportRow {
	rows := make([]models.ReportRow, len(records))
	for i, r := range records {
		rows[i] = models.ReportRow{
			Filename:         r.Filename,
			AssignmentNumber: r.AssignmentNumber,
			NationalID:       r.NationalID,
			Grade:            r.Grade,
			Comments:         r.Comments,
		}
	}
	return rows
}

// ComputeStats returns zero values for an empty batch.
func ComputeStats(rows []models.ReportRow) models.BatchStats {
	stats := models.BatchStats{Count: len(rows)}
	if len(rows) == 0 {
		return stats
	}

	sum := 0
	stats.Max = rows[0].Grade
	stats.Min = rows[0].Grade
	for _, r := range rows {
		sum += r.Grade
		if r.Grade > stats.Max {
			stats.Max = r.Grade
		}
		if r.Grade < stats.Min {
			stats.Min = r.Grade
		}
	}
	stats.Mean = float64(sum) / float64(len(rows))
	return stats
}

type ReportRenderer interface {
	Render(rows []models.ReportRow) (*bytes.Buffer, error)
}

type xlsxRenderer struct{}

func NewXLSXRenderer() ReportRenderer {
	return &xlsxRenderer{}
}

type bandStyle struct {
	text  int
	grade int
}

// Render writes the styled spreadsheet. Row heights are left unset so the
// viewer sizes them to the wrapped content.
func (x *xlsxRenderer) Render(rows []models.ReportRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, col := range ReportColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(ReportSheet, name, name, col.Width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetCellStr(ReportSheet, name+"1", col.Title); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Font:      &excelize.Font{Bold: true, Color: headerFontColor, Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ReportColumns))
	if err := f.SetCellStyle(ReportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return nil, err
	}

	bands, err := bandStyles(f)
	if err != nil {
		return nil, err
	}

	for idx, row := range rows {
		excelRow := idx + 2
		values := []string{row.Filename, row.AssignmentNumber, row.NationalID, "", row.Comments}
		for c, v := range values {
			if c+1 == gradeColumnIndex {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, excelRow)
			// national ids keep their leading zeros as text
			if err := f.SetCellStr(ReportSheet, cell, v); err != nil {
				return nil, err
			}
		}
		gradeCell, _ := excelize.CoordinatesToCellName(gradeColumnIndex, excelRow)
		if err := f.SetCellValue(ReportSheet, gradeCell, row.Grade); err != nil {
			return nil, err
		}

		band := bands[idx%len(bands)]
		first, _ := excelize.CoordinatesToCellName(1, excelRow)
		last, _ := excelize.CoordinatesToCellName(len(ReportColumns), excelRow)
		if err := f.SetCellStyle(ReportSheet, first, last, band.text); err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(ReportSheet, gradeCell, gradeCell, band.grade); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	return buf, nil
}

func bandStyles(f *excelize.File) ([]bandStyle, error) {
	styles := make([]bandStyle, len(RowBands))
	for i, color := range RowBands {
		fill := excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1}

		text, err := f.NewStyle(&excelize.Style{
			Fill:      fill,
			Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "top", WrapText: true},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create row style: %w", err)
		}

		grade, err := f.NewStyle(&excelize.Style{
			Fill:      fill,
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create grade style: %w", err)
		}

		styles[i] = bandStyle{text: text, grade: grade}
	}
	return styles, nil
}
