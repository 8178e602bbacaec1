package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistrobytes",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	availabilityRequests = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bistrobytes",
			Name:      "availability_requests_total",
			Help:      "Availability lookups accepted for processing.",
		},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistrobytes",
			Name:      "bookings_total",
			Help:      "Booking attempts by result.",
		},
		[]string{"result"},
	)

	upstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistrobytes",
			Name:      "upstream_errors_total",
			Help:      "Provider call failures by provider.",
		},
		[]string{"provider"},
	)

	wizardTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistrobytes",
			Name:      "wizard_transitions_total",
			Help:      "Wizard step transitions by target step.",
		},
		[]string{"step"},
	)

	leadsSaved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bistrobytes",
			Name:      "leads_saved_total",
			Help:      "Lead persistence attempts by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			httpRequests,
			availabilityRequests,
			bookings,
			upstreamErrors,
			wizardTransitions,
			leadsSaved,
		)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncAvailabilityRequest counts a validated availability lookup.
func IncAvailabilityRequest() {
	availabilityRequests.Inc()
}

// IncBooking counts a booking attempt; result is "created" or "failed".
func IncBooking(result string) {
	bookings.WithLabelValues(result).Inc()
}

// IncUpstreamError counts a provider failure ("zoho" or "zoom").
func IncUpstreamError(provider string) {
	upstreamErrors.WithLabelValues(provider).Inc()
}

// IncWizardTransition counts an accepted transition into a step.
func IncWizardTransition(step string) {
	wizardTransitions.WithLabelValues(step).Inc()
}

// IncLeadSaved counts a lead persistence attempt by result.
func IncLeadSaved(result string) {
	leadsSaved.WithLabelValues(result).Inc()
}
