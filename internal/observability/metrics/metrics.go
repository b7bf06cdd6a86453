package metrics

import "github.com/prometheus/client_golang/prometheus"

// TurnMetrics exposes counters/histograms for qualification turns.
type TurnMetrics struct {
	turnsTotal     *prometheus.CounterVec
	repliesTotal   *prometheus.CounterVec
	turnLatency    *prometheus.HistogramVec
	phraseLatency  *prometheus.HistogramVec
	phraseTokens   *prometheus.CounterVec
	memoryOpsTotal *prometheus.CounterVec
	malformedTotal prometheus.Counter
}

func NewTurnMetrics(reg prometheus.Registerer) *TurnMetrics {
	m := &TurnMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bentacars",
			Subsystem: "qualifier",
			Name:      "turns_total",
			Help:      "Total qualification turns by outcome",
		}, []string{"next_slot", "complete", "reset"}),
		repliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bentacars",
			Subsystem: "qualifier",
			Name:      "replies_total",
			Help:      "Outgoing replies by source and fallback reason",
		}, []string{"source", "fallback_reason"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bentacars",
			Subsystem: "qualifier",
			Name:      "turn_latency_seconds",
			Help:      "Latency of handling one chat turn",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		phraseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bentacars",
			Subsystem: "phrasing",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM phrasing calls",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 4, 6, 8},
		}, []string{"model", "status"}),
		phraseTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bentacars",
			Subsystem: "phrasing",
			Name:      "llm_tokens_total",
			Help:      "Tokens used by phrasing calls",
		}, []string{"model", "type"}),
		memoryOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bentacars",
			Subsystem: "memory",
			Name:      "operations_total",
			Help:      "Slot memory loads and saves",
		}, []string{"op", "status"}),
		malformedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bentacars",
			Subsystem: "qualifier",
			Name:      "malformed_turns_total",
			Help:      "Turns rejected for missing message or user",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.repliesTotal, m.turnLatency, m.phraseLatency, m.phraseTokens, m.memoryOpsTotal, m.malformedTotal)
	return m
}

// ObserveTurn records where a turn left the conversation.
func (m *TurnMetrics) ObserveTurn(nextSlot string, complete, reset bool) {
	if m == nil {
		return
	}
	if complete {
		nextSlot = "none"
	}
	m.turnsTotal.WithLabelValues(nextSlot, boolLabel(complete), boolLabel(reset)).Inc()
}

func (m *TurnMetrics) ObserveReply(source, fallbackReason string) {
	if m == nil {
		return
	}
	if fallbackReason == "" {
		fallbackReason = "none"
	}
	m.repliesTotal.WithLabelValues(source, fallbackReason).Inc()
}

func (m *TurnMetrics) ObserveMalformed() {
	if m == nil {
		return
	}
	m.malformedTotal.Inc()
}

func (m *TurnMetrics) ObserveTurnLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.turnLatency.WithLabelValues(status).Observe(seconds)
}

func (m *TurnMetrics) ObservePhrase(model, status string, seconds float64) {
	if m == nil {
		return
	}
	m.phraseLatency.WithLabelValues(model, status).Observe(seconds)
}

func (m *TurnMetrics) ObservePhraseTokens(model string, input, output int32) {
	if m == nil {
		return
	}
	if input > 0 {
		m.phraseTokens.WithLabelValues(model, "input").Add(float64(input))
	}
	if output > 0 {
		m.phraseTokens.WithLabelValues(model, "output").Add(float64(output))
	}
}

func (m *TurnMetrics) ObserveMemory(op, status string) {
	if m == nil {
		return
	}
	m.memoryOpsTotal.WithLabelValues(op, status).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
