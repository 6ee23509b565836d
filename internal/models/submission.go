package models

import "strings"

// GradingResult is the parsed answer of the scoring service. A grade of 100
// never carries comments.
type GradingResult struct {
	Grade    int
	Comments []string
}

func (g GradingResult) CommentText() string {
	return strings.Join(g.Comments, "\n")
}

// Metadata is what could be recovered about a submission from its file name and
// text. Every field is optional.
type Metadata struct {
	Filename         string
	AssignmentNumber string
	CandidateName    string
	NationalID       string
}

// SubmissionRecord is one graded document. FullText is only kept until
// duplicate detection has run and never reaches the report.
type SubmissionRecord struct {
	Filename         string
	AssignmentNumber string
	NationalID       string
	Grade            int
	Comments         string
	FullText         string
}

// DuplicatePair links two records (by index) whose similarity crossed the
// threshold. I is always lower than J.
type DuplicatePair struct {
	I          int
	J          int
	Similarity float64
}

type BatchStats struct {
	Count int
	Mean  float64
	Max   int
	Min   int
}

// ReportRow is one row of the rendered table, in column order.
type ReportRow struct {
	Filename         string `json:"filename"`
	AssignmentNumber string `json:"assignment_number"`
	NationalID       string `json:"national_id"`
	Grade            int    `json:"grade"`
	Comments         string `json:"comments"`
}

type EventKind string

const (
	EventProgress  EventKind = "progress"
	EventWarning   EventKind = "warning"
	EventTruncated EventKind = "truncated"
	EventCompleted EventKind = "completed"
)

// Event is a status notification surfaced to whoever drives the pipeline.
type Event struct {
	Kind     EventKind
	Index    int
	Total    int
	Filename string
	Message  string
	Dropped  int
	Stats    *BatchStats
}
