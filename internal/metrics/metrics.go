package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "medtrack"

type Metrics struct {
	startTime time.Time
	registry  *prometheus.Registry

	reportsBuilt    prometheus.Counter
	reportErrors    prometheus.Counter
	reportDuration  prometheus.Histogram
	dosesTaken      prometheus.Counter
	remindersFired  *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	medicationCount prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	m := &Metrics{
		startTime: time.Now(),
		registry:  prometheus.NewRegistry(),

		reportsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_built_total",
			Help:      "Adherence reports computed",
		}),
		reportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_errors_total",
			Help:      "Adherence report computations that failed",
		}),
		reportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_duration_seconds",
			Help:      "Time spent computing an adherence report",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		dosesTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "doses_taken_total",
			Help:      "Doses marked as taken",
		}),
		remindersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Reminders handed to the notifier, by timing status",
		}, []string{"status"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Skill tool invocations, by tool and outcome",
		}, []string{"tool", "outcome"}),
		medicationCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "medications",
			Help:      "Medications in the last snapshot",
		}),
	}

	m.registry.MustRegister(
		m.reportsBuilt,
		m.reportErrors,
		m.reportDuration,
		m.dosesTaken,
		m.remindersFired,
		m.toolCalls,
		m.medicationCount,
	)
	return m
}

// Registry exposes the collectors for scraping or gathering
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordReport(d time.Duration, err error) {
	if err != nil {
		m.reportErrors.Inc()
		return
	}
	m.reportsBuilt.Inc()
	m.reportDuration.Observe(d.Seconds())
}

func (m *Metrics) RecordDoseTaken() {
	m.dosesTaken.Inc()
}

func (m *Metrics) RecordReminder(status string) {
	m.remindersFired.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordToolCall(tool string, success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	m.toolCalls.WithLabelValues(tool, outcome).Inc()
}

func (m *Metrics) SetMedicationCount(n int) {
	m.medicationCount.Set(float64(n))
}

type Snapshot struct {
	Uptime           time.Duration    `json:"uptime"`
	ReportsBuilt     int64            `json:"reports_built"`
	ReportErrors     int64            `json:"report_errors"`
	DosesTaken       int64            `json:"doses_taken"`
	Medications      int64            `json:"medications"`
	RemindersFired   map[string]int64 `json:"reminders_fired"`
	ToolCallsSuccess int64            `json:"tool_calls_success"`
	ToolCallsFailed  int64            `json:"tool_calls_failed"`
	ToolCalls        map[string]int64 `json:"tool_calls"`
	SuccessRate      float64          `json:"success_rate"`
}

// Snapshot gathers the current values from the registry
func (m *Metrics) Snapshot() *Snapshot {
	s := &Snapshot{
		Uptime:         time.Since(m.startTime),
		RemindersFired: make(map[string]int64),
		ToolCalls:      make(map[string]int64),
	}

	families, err := m.registry.Gather()
	if err != nil {
		return s
	}

	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}

			switch mf.GetName() {
			case namespace + "_reports_built_total":
				s.ReportsBuilt = int64(metric.GetCounter().GetValue())
			case namespace + "_report_errors_total":
				s.ReportErrors = int64(metric.GetCounter().GetValue())
			case namespace + "_doses_taken_total":
				s.DosesTaken = int64(metric.GetCounter().GetValue())
			case namespace + "_medications":
				s.Medications = int64(metric.GetGauge().GetValue())
			case namespace + "_reminders_fired_total":
				s.RemindersFired[labels["status"]] += int64(metric.GetCounter().GetValue())
			case namespace + "_tool_calls_total":
				v := int64(metric.GetCounter().GetValue())
				s.ToolCalls[labels["tool"]] += v
				if labels["outcome"] == "success" {
					s.ToolCallsSuccess += v
				} else {
					s.ToolCallsFailed += v
				}
			}
		}
	}

	if total := s.ToolCallsSuccess + s.ToolCallsFailed; total > 0 {
		s.SuccessRate = float64(s.ToolCallsSuccess) / float64(total) * 100
	}

	return s
}
