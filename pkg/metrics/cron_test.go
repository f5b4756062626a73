package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCronJobMetrics(reg)
	job := "test-job"
	metrics.ObserveDuration(job, 250*time.Millisecond)
	metrics.IncSuccess(job)
	metrics.IncFailure(job)
	metrics.AddRepaired(job, 3)
	metrics.AddRepaired(job, 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "krishak_cron_job_success_total", "job", job); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "krishak_cron_job_failure_total", "job", job); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "krishak_cron_rows_repaired_total", "job", job); err != nil {
		t.Fatalf("fetch repaired: %v", err)
	} else if got != 3 {
		t.Fatalf("expected repaired=3, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "krishak_cron_job_duration_seconds", "job", job); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestDeliveryAndHTTPMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	delivery := NewDeliveryMetrics(reg)
	httpMetrics := NewHTTPMetrics(reg)

	delivery.Transition("assigned", "picked")
	delivery.Rejected("accept", "ALREADY_ASSIGNED")
	delivery.Rejected("accept", "ALREADY_ASSIGNED")
	delivery.NotificationFailed("delivery_picked")
	httpMetrics.Observe("POST", "/api/v1/transporter/jobs/{orderId}/accept", 409, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, _ := fetchCounterValue(mfs, "krishak_delivery_transitions_total", "to", "picked"); got != 1 {
		t.Fatalf("expected one transition, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "krishak_delivery_rejections_total", "code", "ALREADY_ASSIGNED"); got != 2 {
		t.Fatalf("expected two rejections, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "krishak_notifications_dispatch_failures_total", "kind", "delivery_picked"); got != 1 {
		t.Fatalf("expected one dispatch failure, got %f", got)
	}
	if got, _ := fetchCounterValue(mfs, "krishak_http_requests_total", "status", "409"); got != 1 {
		t.Fatalf("expected one 409, got %f", got)
	}

	var nilMetrics *DeliveryMetrics
	nilMetrics.Transition("a", "b")
	NewHTTPMetrics(nil).Observe("GET", "", 200, time.Millisecond)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
