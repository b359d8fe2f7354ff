package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveProviderCall("whisper", "transcribe", "ok")
	m.ObserveLLMLatency("gemini-2.5-flash", "ok", 0.8)
	m.AddLLMTokens("gemini-2.5-flash", 120, 40, 160)
	m.ObserveToolCall("book_appointment", "ok")
	m.ObserveBooking("conflict")
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveProviderCall("adia", "tts", "error")
	m.ObserveLLMLatency("model", "error", 0.1)
	m.AddLLMTokens("model", 0, 0, 0)
	m.ObserveToolCall("tool", "error")
	m.ObserveBooking("booked")
}
