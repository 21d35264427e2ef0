package task

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Monitor exports scheduler outcomes to the metrics pipeline. It implements
// gocron.MonitorStatus, so the scheduler reports both run counts and
// per-status timings.
type Monitor struct {
	runs     metric.Int64Counter
	duration metric.Float64Histogram
}

func NewMonitor() (*Monitor, error) {
	meter := otel.GetMeterProvider().Meter("gocron")

	runs, err := meter.Int64Counter(
		"task.runs",
		metric.WithDescription("Count of scheduled task runs by status"),
		metric.WithUnit("{count}"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := meter.Float64Histogram(
		"task.duration",
		metric.WithDescription("Scheduled task run duration"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}
	return &Monitor{runs: runs, duration: duration}, nil
}

func (m *Monitor) IncrementJob(_ uuid.UUID, name string, _ []string, status gocron.JobStatus) {
	m.runs.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("task.name", name),
		attribute.String("task.status", string(status)),
	))
}

func (m *Monitor) RecordJobTiming(startTime, endTime time.Time, _ uuid.UUID, name string, _ []string) {
	m.duration.Record(context.Background(), endTime.Sub(startTime).Seconds(), metric.WithAttributes(
		attribute.String("task.name", name),
	))
}

func (m *Monitor) RecordJobTimingWithStatus(startTime, endTime time.Time, _ uuid.UUID, name string, _ []string, status gocron.JobStatus, _ error) {
	m.duration.Record(context.Background(), endTime.Sub(startTime).Seconds(), metric.WithAttributes(
		attribute.String("task.name", name),
		attribute.String("task.status", string(status)),
	))
}
