package services

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"alfredoptarigan/assignment-grader/internal/models"
)

func TestCalculateSimilarity(t *testing.T) {
	Convey("Given pairs of texts", t, func() {
		Convey("Then identical token sets score 100", func() {
			So(CalculateSimilarity("a b c", "c b a"), ShouldEqual, 100)
			So(CalculateSimilarity("Hello   World", "hello world hello"), ShouldEqual, 100)
		})

		Convey("Then disjoint sets score 0", func() {
			So(CalculateSimilarity("a b", "c d"), ShouldEqual, 0)
		})

		Convey("Then an empty side scores 0", func() {
			So(CalculateSimilarity("", "a b"), ShouldEqual, 0)
			So(CalculateSimilarity("   ", ""), ShouldEqual, 0)
		})

		Convey("Then partial overlap is intersection over union", func() {
			So(CalculateSimilarity("a b c", "a b d"), ShouldEqual, 50)
		})

		Convey("Then the score is symmetric and bounded", func() {
			x, y := "the quick brown fox", "the lazy brown dog jumps"
			So(CalculateSimilarity(x, y), ShouldEqual, CalculateSimilarity(y, x))
			So(CalculateSimilarity(x, y), ShouldBeBetweenOrEqual, 0, 100)
		})
	})
}

func TestFindDuplicates(t *testing.T) {
	ctx := context.Background()

	Convey("Given a batch with one identical pair", t, func() {
		texts := []string{"x y z", "p q r", "x y z"}

		pairs, err := NewSimilarityDetector(90).FindDuplicates(ctx, texts)

		Convey("Then only that pair is reported, lower index first", func() {
			So(err, ShouldBeNil)
			So(pairs, ShouldResemble, []models.DuplicatePair{{I: 0, J: 2, Similarity: 100}})
		})
	})

	Convey("Given a pair exactly at the threshold", t, func() {
		texts := []string{"a b c", "a b d"}

		Convey("Then it is included", func() {
			pairs, err := NewSimilarityDetector(50).FindDuplicates(ctx, texts)
			So(err, ShouldBeNil)
			So(pairs, ShouldHaveLength, 1)
		})

		Convey("Then a higher threshold excludes it", func() {
			pairs, err := NewSimilarityDetector(50.1).FindDuplicates(ctx, texts)
			So(err, ShouldBeNil)
			So(pairs, ShouldBeEmpty)
		})
	})

	Convey("Given three identical texts", t, func() {
		pairs, err := NewSimilarityDetector(90).FindDuplicates(ctx, []string{"same", "same", "same"})

		Convey("Then every unordered pair appears once, in order", func() {
			So(err, ShouldBeNil)
			So(pairs, ShouldHaveLength, 3)
			So(pairs[0].I, ShouldEqual, 0)
			So(pairs[0].J, ShouldEqual, 1)
			So(pairs[1].I, ShouldEqual, 0)
			So(pairs[1].J, ShouldEqual, 2)
			So(pairs[2].I, ShouldEqual, 1)
			So(pairs[2].J, ShouldEqual, 2)
		})
	})

	Convey("Given empty texts", t, func() {
		pairs, err := NewSimilarityDetector(90).FindDuplicates(ctx, []string{"", "", "a"})

		Convey("Then they are not duplicates of each other", func() {
			So(err, ShouldBeNil)
			So(pairs, ShouldBeEmpty)
		})
	})

	Convey("Given no texts", t, func() {
		pairs, err := NewSimilarityDetector(90).FindDuplicates(ctx, nil)

		Convey("Then nothing is reported", func() {
			So(err, ShouldBeNil)
			So(pairs, ShouldBeEmpty)
		})
	})
}

func TestApplyDuplicateAnnotations(t *testing.T) {
	Convey("Given two records flagged as a pair", t, func() {
		records := []models.SubmissionRecord{
			{AssignmentNumber: "111"},
			{AssignmentNumber: "222", Comments: "missing theory (10-)"},
		}

		ApplyDuplicateAnnotations(records, []models.DuplicatePair{{I: 0, J: 1, Similarity: 96.4}})

		Convey("Then both sides point at each other", func() {
			So(records[0].Comments, ShouldEqual, "⚠️ identical to assignment 222 (similarity 96%)")
			So(records[1].Comments, ShouldEqual, "missing theory (10-); ⚠️ identical to assignment 111 (similarity 96%)")
		})
	})

	Convey("Given a record in two pairs", t, func() {
		records := []models.SubmissionRecord{
			{AssignmentNumber: "1"},
			{AssignmentNumber: "2"},
			{AssignmentNumber: "3"},
		}

		ApplyDuplicateAnnotations(records, []models.DuplicatePair{
			{I: 0, J: 1, Similarity: 100},
			{I: 0, J: 2, Similarity: 100},
		})

		Convey("Then its notes accumulate in pair order", func() {
			So(records[0].Comments, ShouldEqual,
				DuplicateNote("2", 100)+"; "+DuplicateNote("3", 100))
			So(records[1].Comments, ShouldEqual, DuplicateNote("1", 100))
			So(records[2].Comments, ShouldEqual, DuplicateNote("1", 100))
		})
	})
}
