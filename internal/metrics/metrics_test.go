package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DMarby/additive-mask/internal/metrics"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

func scrape(t *testing.T, m *metrics.Metrics) map[string]*dto.MetricFamily {
	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	return families
}

func counterValue(family *dto.MetricFamily, outcome string) float64 {
	for _, metric := range family.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "outcome" && label.GetValue() == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}

	return 0
}

func TestMetrics(t *testing.T) {
	m := metrics.New()

	m.ObserveConversion(metrics.Converted, 10*time.Millisecond)
	m.ObserveConversion(metrics.Converted, 20*time.Millisecond)
	m.ObserveConversion(metrics.Skipped, 0)
	m.ObserveConversion(metrics.Failed, time.Millisecond)

	families := scrape(t, m)

	conversions, ok := families["additive_mask_conversions_total"]
	if !ok {
		t.Fatal("missing conversions metric")
	}

	tests := []struct {
		Outcome  string
		Expected float64
	}{
		{metrics.Converted, 2},
		{metrics.Skipped, 1},
		{metrics.Failed, 1},
	}

	for _, test := range tests {
		if v := counterValue(conversions, test.Outcome); v != test.Expected {
			t.Errorf("%s: wrong count %v", test.Outcome, v)
		}
	}

	duration, ok := families["additive_mask_conversion_duration_seconds"]
	if !ok {
		t.Fatal("missing duration metric")
	}

	// Skips aren't timed
	if count := duration.GetMetric()[0].GetHistogram().GetSampleCount(); count != 3 {
		t.Errorf("wrong sample count %d", count)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *metrics.Metrics
	m.ObserveConversion(metrics.Converted, time.Second)
}
