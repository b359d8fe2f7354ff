package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversation pipeline.
type ChatMetrics struct {
	providerCalls  *prometheus.CounterVec
	llmLatency     *prometheus.HistogramVec
	llmTokensTotal *prometheus.CounterVec
	toolCallsTotal *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tontouma",
			Subsystem: "providers",
			Name:      "calls_total",
			Help:      "External provider calls by provider, operation and status",
		}, []string{"provider", "operation", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tontouma",
			Subsystem: "conversation",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 8, 10, 15, 20, 30},
		}, []string{"model", "status"}),
		llmTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tontouma",
			Subsystem: "conversation",
			Name:      "llm_tokens_total",
			Help:      "Tokens used by the LLM",
		}, []string{"model", "type"}), // type: input, output, total
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tontouma",
			Subsystem: "conversation",
			Name:      "tool_calls_total",
			Help:      "Tool executions requested by the model",
		}, []string{"tool", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tontouma",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}), // outcome: booked, conflict, error
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.providerCalls, m.llmLatency, m.llmTokensTotal, m.toolCallsTotal, m.bookingsTotal)
	return m
}

func (m *ChatMetrics) ObserveProviderCall(provider, operation, status string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, operation, status).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(model, status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(model, status).Observe(seconds)
}

func (m *ChatMetrics) AddLLMTokens(model string, input, output, total int64) {
	if m == nil {
		return
	}
	m.llmTokensTotal.WithLabelValues(model, "input").Add(float64(input))
	m.llmTokensTotal.WithLabelValues(model, "output").Add(float64(output))
	m.llmTokensTotal.WithLabelValues(model, "total").Add(float64(total))
}

func (m *ChatMetrics) ObserveToolCall(tool, status string) {
	if m == nil {
		return
	}
	m.toolCallsTotal.WithLabelValues(tool, status).Inc()
}

func (m *ChatMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
