package metrics

import "github.com/prometheus/client_golang/prometheus"

// Gallery admin outcomes.
const (
	OutcomeUploaded         = "uploaded"
	OutcomeUploadFailed     = "upload_failed"
	OutcomeCapacityExceeded = "capacity_exceeded"
	OutcomeUpdated          = "updated"
	OutcomeDeleted          = "deleted"
	OutcomeAlreadyGone      = "already_gone"
	OutcomePreviewReleased  = "preview_released"
)

// GalleryMetrics counts admin controller outcomes per category.
type GalleryMetrics struct {
	outcomes *prometheus.CounterVec
	sessions prometheus.Gauge
}

// NewGalleryMetrics registers the gallery admin metrics on the provided registerer.
func NewGalleryMetrics(reg prometheus.Registerer) *GalleryMetrics {
	if reg == nil {
		return &GalleryMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gallery_admin_outcomes_total",
		Help: "Gallery admin operation outcomes.",
	}, []string{"category", "outcome"})
	sessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gallery_admin_open_sessions",
		Help: "Open gallery admin editing sessions.",
	})
	reg.MustRegister(outcomes, sessions)
	return &GalleryMetrics{outcomes: outcomes, sessions: sessions}
}

// IncOutcome increments the counter for the category/outcome pair.
func (g *GalleryMetrics) IncOutcome(category, outcome string) {
	if g == nil || g.outcomes == nil {
		return
	}
	g.outcomes.WithLabelValues(normalizeLabel(category), normalizeLabel(outcome)).Inc()
}

// SetOpenSessions publishes the current session count.
func (g *GalleryMetrics) SetOpenSessions(n int) {
	if g == nil || g.sessions == nil {
		return
	}
	g.sessions.Set(float64(n))
}
