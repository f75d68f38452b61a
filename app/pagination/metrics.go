package pagination

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts listing requests.
	// Labels: mode (html, json), page_range (1-10, 11-50, ...)
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cardboard_listing_requests_total",
			Help: "Total number of post listing requests",
		},
		[]string{"mode", "page_range"},
	)

	// DurationSeconds tracks the time spent building a listing.
	DurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cardboard_listing_duration_seconds",
			Help:    "Listing query duration distribution",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.2, 0.5, 1.0},
		},
		[]string{"operation"},
	)

	// MatchedTotal tracks the number of posts matched by the last listing query.
	MatchedTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cardboard_listing_matched_posts",
			Help: "Number of posts matched by the most recent listing query",
		},
	)
)

// RecordRequest records a listing request.
func RecordRequest(mode string, page int) {
	RequestsTotal.WithLabelValues(mode, pageRangeBucket(page)).Inc()
}

// RecordDuration records an operation duration in seconds.
func RecordDuration(operation string, seconds float64) {
	DurationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordMatched updates the matched-posts gauge.
func RecordMatched(total int64) {
	MatchedTotal.Set(float64(total))
}

func pageRangeBucket(page int) string {
	switch {
	case page <= 10:
		return "1-10"
	case page <= 50:
		return "11-50"
	case page <= 100:
		return "51-100"
	default:
		return "100+"
	}
}
