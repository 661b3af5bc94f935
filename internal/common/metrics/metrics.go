package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	Searches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_searches_total",
			Help: "Ranked searches by outcome code",
		},
		[]string{"outcome"},
	)

	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_candidates_scored_total",
			Help: "Candidates fetched from the candidate source and scored",
		},
	)

	CandidatesQualified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matching_candidates_qualified_total",
			Help: "Scored candidates at or above the score threshold",
		},
	)

	ResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_results_returned",
			Help:    "Items returned per search page",
			Buckets: []float64{0, 1, 5, 10, 12, 25, 50},
		},
	)

	MatchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_score",
			Help:    "Distribution of compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	ProfileCacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_cache_requests_total",
			Help: "Profile cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_digest_notifications_total",
			Help: "Match digest deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)
)

// ObserveJob records one job outcome. An empty errorCode counts as completed.
func ObserveJob(taskType string, start time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}
