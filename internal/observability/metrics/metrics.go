package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the chat flow.
type ConversationMetrics struct {
	messagesTotal  *prometheus.CounterVec
	llmRequests    *prometheus.CounterVec
	llmLatency     prometheus.Histogram
	fallbacksTotal prometheus.Counter
	leadUpserts    *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diveassistant",
			Subsystem: "conversation",
			Name:      "messages_total",
			Help:      "Inbound messages by channel, language and resulting flow state",
		}, []string{"channel", "language", "state"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diveassistant",
			Subsystem: "conversation",
			Name:      "llm_requests_total",
			Help:      "Text generation calls by outcome",
		}, []string{"status"}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "diveassistant",
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of text generation calls",
			Buckets:   prometheus.DefBuckets,
		}),
		fallbacksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "diveassistant",
			Subsystem: "conversation",
			Name:      "template_fallbacks_total",
			Help:      "Replies served from deterministic templates after generation failure",
		}),
		leadUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "diveassistant",
			Subsystem: "leads",
			Name:      "upserts_total",
			Help:      "Lead store upserts by result",
		}, []string{"result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.messagesTotal, m.llmRequests, m.llmLatency, m.fallbacksTotal, m.leadUpserts)
	return m
}

func (m *ConversationMetrics) ObserveMessage(channel, language, state string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(channel, language, state).Inc()
}

func (m *ConversationMetrics) ObserveLLM(status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(status).Inc()
	m.llmLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObserveFallback() {
	if m == nil {
		return
	}
	m.fallbacksTotal.Inc()
}

func (m *ConversationMetrics) ObserveLeadUpsert(result string) {
	if m == nil {
		return
	}
	m.leadUpserts.WithLabelValues(result).Inc()
}
