package services

import (
	"fmt"
	"strings"
)

// GradeLabels are words the service sometimes puts in front of the grade. A
// comment line starting with one of them is dropped.
var GradeLabels = []string{"Grade", "ציון"}

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildGradingPrompt asks for deficiency lines only, followed by the grade
// alone on the last line.
func (pb *PromptBuilder) BuildGradingPrompt(rubric, submissionText string) string {
	return fmt.Sprintf(`You are grading a student assignment against a 100-point rubric.

IMPORTANT - how to write comments:
1. Write ONLY what is missing or needs fixing.
2. Do NOT write what the student did well.
3. Do NOT write praise such as "well written" or "excellent".
4. If the grade is 100 there are NO comments at all.
5. Put the deduction in parentheses with a trailing minus sign: (15-), not (15).

RUBRIC:
%s

RESPONSE FORMAT:
Write only comments about deficiencies, one per line:
Question X: section Y- [what is missing] (points-)

Examples:
Question 1: section a- The general culture is the culture of the State of Israel (15-)
Question 3: section b- The employees' motivation can be expanded (5-)

At the end, on a separate line, the grade as a number only:
85

If the grade is 100, reply with only:
100

ASSIGNMENT CONTENT:
%s

Reply:
[deficiency comments, if any]
[empty line]
[grade]`, strings.TrimSpace(rubric), submissionText)
}

// BuildRubricQuery is the retrieval query used to pull the rubric out of the
// vector store.
func (pb *PromptBuilder) BuildRubricQuery(course string) string {
	if course == "" {
		return "Assignment grading rubric: questions, point allocation and deductions"
	}
	return fmt.Sprintf("Grading rubric for %s: questions, point allocation and deductions", course)
}

// FormatRubricContext joins retrieved rubric chunks back into one text.
func FormatRubricContext(results []SearchResult) string {
	var parts []string
	for _, result := range results {
		if text := strings.TrimSpace(result.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}
