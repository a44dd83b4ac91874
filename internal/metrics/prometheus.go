package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

type counterMetric struct {
	desc  *prometheus.Desc
	value func(*Registry) *atomic.Int64
}

var (
	counterMetrics = []counterMetric{
		{
			desc:  prometheus.NewDesc("dama_external_updates_applied_total", "External updates applied to a control.", nil, nil),
			value: func(r *Registry) *atomic.Int64 { return &r.externalApplied },
		},
		{
			desc:  prometheus.NewDesc("dama_external_updates_dropped_total", "External updates dropped during user interaction.", nil, nil),
			value: func(r *Registry) *atomic.Int64 { return &r.externalDropped },
		},
		{
			desc:  prometheus.NewDesc("dama_user_edits_total", "User edits written back to the external source.", nil, nil),
			value: func(r *Registry) *atomic.Int64 { return &r.edits },
		},
		{
			desc:  prometheus.NewDesc("dama_reconciliations_total", "Edits reverted to the re-queried external value.", nil, nil),
			value: func(r *Registry) *atomic.Int64 { return &r.reconciliations },
		},
		{
			desc:  prometheus.NewDesc("dama_observer_events_total", "Filesystem modifications that triggered a re-query.", nil, nil),
			value: func(r *Registry) *atomic.Int64 { return &r.observerEvents },
		},
		{
			desc:  prometheus.NewDesc("dama_observers_inactive_total", "Observers that stopped or never started watching.", nil, nil),
			value: func(r *Registry) *atomic.Int64 { return &r.observersInactive },
		},
	}
	commandDurationDesc = prometheus.NewDesc("dama_command_duration_seconds", "External command duration in seconds.", []string{"purpose"}, nil)
	commandFailuresDesc = prometheus.NewDesc("dama_command_failures_total", "External commands that failed.", []string{"purpose"}, nil)
)

// Describe implements prometheus.Collector.
func (r *Registry) Describe(ch chan<- *prometheus.Desc) {
	for _, counter := range counterMetrics {
		ch <- counter.desc
	}
	ch <- commandDurationDesc
	ch <- commandFailuresDesc
}

// Collect implements prometheus.Collector.
func (r *Registry) Collect(ch chan<- prometheus.Metric) {
	if r == nil {
		return
	}
	for _, counter := range counterMetrics {
		ch <- prometheus.MustNewConstMetric(counter.desc, prometheus.CounterValue, float64(counter.value(r).Load()))
	}
	for _, purpose := range r.commandPurposes() {
		stats := r.commandStats(purpose)
		ch <- prometheus.MustNewConstSummary(commandDurationDesc,
			uint64(stats.count.Load()),
			time.Duration(stats.durationNanos.Load()).Seconds(),
			nil,
			purpose)
		ch <- prometheus.MustNewConstMetric(commandFailuresDesc, prometheus.CounterValue, float64(stats.failures.Load()), purpose)
	}
}

// Gatherer wraps the registry in a private prometheus registry, leaving the
// global default registry alone.
func (r *Registry) Gatherer() prometheus.Gatherer {
	gatherer := prometheus.NewRegistry()
	gatherer.MustRegister(r)
	return gatherer
}

// WritePrometheus writes the counters in the Prometheus text format.
func (r *Registry) WritePrometheus(writer io.Writer) error {
	families, err := r.Gatherer().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, family := range families {
		if _, err := expfmt.MetricFamilyToText(writer, family); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// WriteTextfile replaces path with the counters in the Prometheus text
// format, in the form the node exporter textfile collector reads. The file is
// written to a temporary name first and renamed into place.
func (r *Registry) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.Gatherer()); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}
