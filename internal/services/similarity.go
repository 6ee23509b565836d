package services

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"alfredoptarigan/assignment-grader/internal/models"
)

// TokenSet lower-cases text and collapses its whitespace-delimited tokens
// into a set.
func TokenSet(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Jaccard returns |a ∩ b| / |a ∪ b| * 100, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for token := range small {
		if _, ok := large[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union) * 100
}

func CalculateSimilarity(text1, text2 string) float64 {
	return Jaccard(TokenSet(text1), TokenSet(text2))
}

type SimilarityDetector struct {
	threshold   float64
	concurrency int
}

func NewSimilarityDetector(threshold float64) *SimilarityDetector {
	return &SimilarityDetector{
		threshold:   threshold,
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// FindDuplicates compares every unordered pair once and returns the pairs at
// or above the threshold, ordered by (I, J). It must only run once every text
// in the batch is final.
func (d *SimilarityDetector) FindDuplicates(ctx context.Context, texts []string) ([]models.DuplicatePair, error) {
	sets := make([]map[string]struct{}, len(texts))
	for i, text := range texts {
		sets[i] = TokenSet(text)
	}

	rows := make([][]models.DuplicatePair, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for i := range sets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < len(sets); j++ {
				sim := Jaccard(sets[i], sets[j])
				if sim >= d.threshold {
					rows[i] = append(rows[i], models.DuplicatePair{I: i, J: j, Similarity: sim})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var pairs []models.DuplicatePair
	for _, row := range rows {
		pairs = append(pairs, row...)
	}
	return pairs, nil
}

// ApplyDuplicateAnnotations appends a cross-reference note to both records of
// every pair, in pair order.
func ApplyDuplicateAnnotations(records []models.SubmissionRecord, pairs []models.DuplicatePair) {
	for _, p := range pairs {
		appendComment(&records[p.I], DuplicateNote(records[p.J].AssignmentNumber, p.Similarity))
		appendComment(&records[p.J], DuplicateNote(records[p.I].AssignmentNumber, p.Similarity))
	}
}

func DuplicateNote(assignmentNumber string, similarity float64) string {
	return fmt.Sprintf("⚠️ identical to assignment %s (similarity %.0f%%)", assignmentNumber, similarity)
}

func appendComment(record *models.SubmissionRecord, note string) {
	if record.Comments == "" {
		record.Comments = note
		return
	}
	record.Comments += "; " + note
}
