package services

import (
	"path/filepath"
	"regexp"
	"strings"

	"alfredoptarigan/assignment-grader/internal/models"
)

// MatchRule pulls one field out of a source string. Rules in a chain are tried
// in order and the first non-empty capture wins.
type MatchRule struct {
	Name    string
	Pattern *regexp.Regexp
}

func (r MatchRule) Apply(source string) (string, bool) {
	m := r.Pattern.FindStringSubmatch(source)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// AssignmentNumberRules run against the file name only.
var AssignmentNumberRules = []MatchRule{
	{Name: "labeled", Pattern: regexp.MustCompile(`(?:מספר|[Aa]ssignment)[_\s-]*(\d+)`)},
	{Name: "work_code", Pattern: regexp.MustCompile(`WorkCode[_\s]*(\d+)`)},
	{Name: "bare_digits", Pattern: regexp.MustCompile(`(\d{8,9})`)},
}

// CandidateNameRules run against the document text. Captures stop at a line
// break so the next label is not swallowed.
var CandidateNameRules = []MatchRule{
	{Name: "name", Pattern: regexp.MustCompile(`שם[:\s]*([א-ת \t]+)`)},
	{Name: "submitter", Pattern: regexp.MustCompile(`מגיש[:\s]*([א-ת \t]+)`)},
	{Name: "student", Pattern: regexp.MustCompile(`סטודנט[:\s]*([א-ת \t]+)`)},
	{Name: "student_name", Pattern: regexp.MustCompile(`שם הסטודנט[:\s]*([א-ת \t]+)`)},
	{Name: "name_en", Pattern: regexp.MustCompile(`(?i)\bname\b[:\s]*([A-Za-z \t]+)`)},
	{Name: "submitted_by_en", Pattern: regexp.MustCompile(`(?i)\bsubmitted by\b[:\s]*([A-Za-z \t]+)`)},
	{Name: "student_en", Pattern: regexp.MustCompile(`(?i)\bstudent\b[:\s]*([A-Za-z \t]+)`)},
}

// NationalIDRules run against the text followed by the file name.
var NationalIDRules = []MatchRule{
	{Name: "tz_dotted", Pattern: regexp.MustCompile(`ת\.ז[:\s]*(\d{9})`)},
	{Name: "tz_quoted", Pattern: regexp.MustCompile(`ת"ז[:\s]*(\d{9})`)},
	{Name: "teudat_zehut", Pattern: regexp.MustCompile(`תעודת זהות[:\s]*(\d{9})`)},
	{Name: "id", Pattern: regexp.MustCompile(`ID[:\s]*(\d{9})`)},
}

var nameNoise = regexp.MustCompile(`[\d\-:]+`)

// FirstMatch evaluates rules in order against source.
func FirstMatch(rules []MatchRule, source string) string {
	for _, rule := range rules {
		if v, ok := rule.Apply(source); ok {
			return v
		}
	}
	return ""
}

// ExtractMetadata is pure: the same name and text always give the same result,
// and a field with no matching rule is left empty.
func ExtractMetadata(filePath, text string) models.Metadata {
	filename := filepath.Base(filePath)

	name := FirstMatch(CandidateNameRules, text)
	if name != "" {
		name = strings.TrimSpace(nameNoise.Split(strings.TrimSpace(name), 2)[0])
	}

	return models.Metadata{
		Filename:         filename,
		AssignmentNumber: FirstMatch(AssignmentNumberRules, filename),
		CandidateName:    name,
		NationalID:       FirstMatch(NationalIDRules, text+" "+filename),
	}
}
