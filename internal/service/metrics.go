package service

import "time"

// MetricsRecorder receives engine measurements. *observability.Collector implements it.
type MetricsRecorder interface {
	ObserveZonePing(result string)
	ObserveRecompute(mode string, elapsed time.Duration, components int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveZonePing(string) {}
func (noopMetrics) ObserveRecompute(string, time.Duration, int) {}

func metricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
