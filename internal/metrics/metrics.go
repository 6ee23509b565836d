// Package metrics holds the Prometheus collectors for the grading pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "assignment_grader"

// Document outcomes.
const (
	OutcomeGraded       = "graded"
	OutcomeSkipped      = "skipped"
	OutcomeGradingError = "grading_error"
)

var (
	documentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_processed_total",
		Help:      "Documents taken through the pipeline, by outcome.",
	}, []string{"outcome"})

	duplicatePairs = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_pairs_total",
		Help:      "Submission pairs flagged as near duplicates.",
	})

	documentsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "documents_dropped_total",
		Help:      "Documents dropped because a batch exceeded the size cap.",
	})

	batchesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batches_completed_total",
		Help:      "Pipeline runs that reached the report stage.",
	})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "batch_duration_seconds",
		Help:      "Wall time of a pipeline run.",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
	})
)

func ObserveDocument(outcome string) {
	documentsProcessed.WithLabelValues(outcome).Inc()
}

func ObserveDuplicates(n int) {
	duplicatePairs.Add(float64(n))
}

func ObserveDropped(n int) {
	documentsDropped.Add(float64(n))
}

func ObserveBatch(d time.Duration) {
	batchesCompleted.Inc()
	batchDuration.Observe(d.Seconds())
}
