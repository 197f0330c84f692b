package timing

import (
	"testing"
	"time"
)

func TestTimerMetrics(t *testing.T) {
	timer := NewTimer()

	timer.StartConnect()
	time.Sleep(time.Millisecond)
	timer.EndConnect()

	timer.StartTTFB()
	time.Sleep(time.Millisecond)
	timer.EndTTFB()

	m := timer.Metrics(1234)

	if m.OriginConnect <= 0 {
		t.Errorf("expected positive OriginConnect, got %v", m.OriginConnect)
	}
	if m.TTFB <= 0 {
		t.Errorf("expected positive TTFB, got %v", m.TTFB)
	}
	if m.TotalTime <= 0 {
		t.Errorf("expected positive TotalTime, got %v", m.TotalTime)
	}
	if m.BytesRelayed != 1234 {
		t.Errorf("expected BytesRelayed 1234, got %d", m.BytesRelayed)
	}
	if m.String() == "" {
		t.Errorf("expected non-empty summary string")
	}
}

func TestTimerWithoutConnectPhase(t *testing.T) {
	// A cache hit never calls StartConnect/EndConnect or StartTTFB/EndTTFB.
	timer := NewTimer()
	m := timer.Metrics(42)

	if m.OriginConnect != 0 {
		t.Errorf("expected zero OriginConnect on cache hit, got %v", m.OriginConnect)
	}
	if m.TTFB != 0 {
		t.Errorf("expected zero TTFB on cache hit, got %v", m.TTFB)
	}
}
