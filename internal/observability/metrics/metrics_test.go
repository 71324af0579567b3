package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestObserveMessage_CountsByLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveMessage("webchat", "es", "ask_name")
	m.ObserveMessage("webchat", "es", "ask_name")
	m.ObserveMessage("whatsapp", "en", "done")

	fam, ok := gather(t, reg)["diveassistant_conversation_messages_total"]
	if !ok {
		t.Fatal("messages_total not registered")
	}
	if len(fam.Metric) != 2 {
		t.Fatalf("expected 2 label combinations, got %d", len(fam.Metric))
	}
	var total float64
	for _, metric := range fam.Metric {
		total += metric.GetCounter().GetValue()
	}
	if total != 3 {
		t.Errorf("expected 3 observations, got %v", total)
	}
}

func TestObserveLLM_RecordsLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConversationMetrics(reg)

	m.ObserveLLM("ok", 0.25)
	m.ObserveLLM("error", 1.5)

	families := gather(t, reg)
	hist, ok := families["diveassistant_conversation_llm_latency_seconds"]
	if !ok {
		t.Fatal("llm_latency_seconds not registered")
	}
	if got := hist.Metric[0].GetHistogram().GetSampleCount(); got != 2 {
		t.Errorf("expected 2 latency samples, got %d", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *ConversationMetrics
	m.ObserveMessage("webchat", "es", "done")
	m.ObserveLLM("ok", 0.1)
	m.ObserveFallback()
	m.ObserveLeadUpsert("ok")
}
