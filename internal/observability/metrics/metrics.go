package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutreachMetrics exposes counters/histograms for campaign flows.
type OutreachMetrics struct {
	attemptsTotal *prometheus.CounterVec
	repliesTotal  *prometheus.CounterVec
	bookingsTotal *prometheus.CounterVec
	replyLatency  *prometheus.HistogramVec
}

func NewOutreachMetrics(reg prometheus.Registerer) *OutreachMetrics {
	m := &OutreachMetrics{
		attemptsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "campaign",
			Name:      "attempts_total",
			Help:      "Total outreach attempts by campaign type and result",
		}, []string{"campaign_type", "result"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "replies",
			Name:      "handled_total",
			Help:      "Total inbound replies handled, by classified intent",
		}, []string{"intent"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "outreach",
			Subsystem: "booking",
			Name:      "requests_total",
			Help:      "Total booking attempts by result",
		}, []string{"result"}),
		replyLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "outreach",
			Subsystem: "replies",
			Name:      "handle_latency_seconds",
			Help:      "Latency of reply handling end to end",
			Buckets:   prometheus.DefBuckets,
		}, []string{"intent"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.attemptsTotal, m.repliesTotal, m.bookingsTotal, m.replyLatency)
	return m
}

func (m *OutreachMetrics) ObserveAttempt(campaignType, result string) {
	if m == nil {
		return
	}
	m.attemptsTotal.WithLabelValues(campaignType, result).Inc()
}

func (m *OutreachMetrics) ObserveReply(intent string) {
	if m == nil {
		return
	}
	m.repliesTotal.WithLabelValues(intent).Inc()
}

func (m *OutreachMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(result).Inc()
}

func (m *OutreachMetrics) ObserveReplyLatency(intent string, seconds float64) {
	if m == nil {
		return
	}
	m.replyLatency.WithLabelValues(intent).Observe(seconds)
}
