package models

import "time"

// MetricDataPoint is a single observed value of a workload metric.
type MetricDataPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Value     float64           `json:"value"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// InferenceMetrics represents collected metrics for one inference service.
type InferenceMetrics struct {
	ServiceName    string    `json:"service_name"`
	Timestamp      time.Time `json:"timestamp"`
	P95LatencyMs   float64   `json:"p95_latency_ms"`
	RequestsPerSec float64   `json:"requests_per_sec"`
	ErrorRate      float64   `json:"error_rate"`
	SampleCount    int       `json:"sample_count"`
}

// IsZero reports whether the snapshot carries no backend data.
func (m InferenceMetrics) IsZero() bool {
	return m.P95LatencyMs == 0 && m.RequestsPerSec == 0 && m.SampleCount == 0
}

// GPUMetrics represents aggregated utilization across all visible GPUs.
type GPUMetrics struct {
	Timestamp           time.Time `json:"timestamp"`
	AvgUtilization      float64   `json:"avg_utilization"`
	MaxUtilization      float64   `json:"max_utilization"`
	GPUCount            int       `json:"gpu_count"`
	HighUtilizationGPUs int       `json:"high_utilization_gpus"`
}

// TrainingMetrics represents the most recent training job observations.
type TrainingMetrics struct {
	Timestamp   time.Time `json:"timestamp"`
	Loss        float64   `json:"loss"`
	CostPerHour float64   `json:"cost_per_hour"`
	ActiveJobs  int       `json:"active_jobs"`
}

// HistoryWindow is a bounded, append-only series of data points. Appending
// beyond capacity drops the oldest entries.
type HistoryWindow struct {
	points   []MetricDataPoint
	capacity int
}

func NewHistoryWindow(capacity int) *HistoryWindow {
	if capacity <= 0 {
		capacity = 2016 // one week at 5-minute resolution
	}
	return &HistoryWindow{
		points:   make([]MetricDataPoint, 0, capacity),
		capacity: capacity,
	}
}

func (w *HistoryWindow) Append(p MetricDataPoint) {
	w.points = append(w.points, p)
	if len(w.points) > w.capacity {
		w.points = w.points[len(w.points)-w.capacity:]
	}
}

func (w *HistoryWindow) Len() int {
	return len(w.points)
}

// Points returns a copy of the buffered series, oldest first.
func (w *HistoryWindow) Points() []MetricDataPoint {
	out := make([]MetricDataPoint, len(w.points))
	copy(out, w.points)
	return out
}

// Since returns the points observed at or after the cutoff.
func (w *HistoryWindow) Since(cutoff time.Time) []MetricDataPoint {
	var out []MetricDataPoint
	for _, p := range w.points {
		if !p.Timestamp.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}
