package services

import "github.com/prometheus/client_golang/prometheus"

// Submission outcomes.
const (
	OutcomeCreated     = "created"
	OutcomeInvalid     = "invalid"
	OutcomeRateLimited = "rate_limited"
	OutcomeFailed      = "failed"
)

// Notification results.
const (
	NotifySent     = "sent"
	NotifyFailed   = "failed"
	NotifyDetached = "attach_failed"
)

// Metrics holds the booking counters. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Submissions   *prometheus.CounterVec
	Notifications *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_submissions_total",
			Help: "Booking submissions by outcome.",
		}, []string{"outcome"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_notifications_total",
			Help: "Booking notifications by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.Submissions, m.Notifications)
	return m
}

func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveNotification(result string) {
	if m == nil {
		return
	}
	m.Notifications.WithLabelValues(result).Inc()
}
