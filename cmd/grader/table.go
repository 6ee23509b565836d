package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"alfredoptarigan/assignment-grader/internal/models"
)

const commentPreviewWidth = 60

func renderResults(rows []models.ReportRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"File Name", "Assignment", "National ID", "Grade", "Comments"})

	for _, r := range rows {
		tw.AppendRow(table.Row{r.Filename, r.AssignmentNumber, r.NationalID, r.Grade, previewComment(r.Comments)})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

func renderStats(stats models.BatchStats, dropped int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Submissions", "Mean", "Max", "Min", "Dropped"})
	tw.AppendRow(table.Row{
		stats.Count,
		strconv.FormatFloat(stats.Mean, 'f', 1, 64),
		stats.Max,
		stats.Min,
		dropped,
	})
	return tw.Render()
}

// previewComment keeps the first comment line, shortened for the terminal.
func previewComment(comments string) string {
	first, _, more := strings.Cut(comments, "\n")
	runes := []rune(first)
	if len(runes) > commentPreviewWidth {
		return string(runes[:commentPreviewWidth-1]) + "…"
	}
	if more {
		return fmt.Sprintf("%s (+more)", first)
	}
	return first
}
