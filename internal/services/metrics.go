package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// reviewsSubmitted counts stored reviews.
	reviewsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reviews_submitted_total",
		Help: "Total number of reviews stored.",
	})

	// estimatesComputed counts saved cost estimates by project type. Unknown
	// types share one label value to bound cardinality.
	estimatesComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cost_estimates_total",
			Help: "Total number of cost estimates saved.",
		},
		[]string{"project_type"},
	)
)

func init() {
	prometheus.MustRegister(reviewsSubmitted, estimatesComputed)
}
