package metrics

import (
	"fmt"

	dto "github.com/prometheus/client_model/go"
)

// sample returns the first series of the named family whose labels include
// every pair in want.
func sample(mfs []*dto.MetricFamily, name string, want map[string]string) (*dto.Metric, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if hasLabels(m, want) {
				return m, nil
			}
		}
		return nil, fmt.Errorf("%s has no series with labels %v", name, want)
	}
	return nil, fmt.Errorf("%s not gathered", name)
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	got := make(map[string]string, len(m.GetLabel()))
	for _, pair := range m.GetLabel() {
		got[pair.GetName()] = pair.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func counterValue(mfs []*dto.MetricFamily, name string, want map[string]string) (float64, error) {
	m, err := sample(mfs, name, want)
	if err != nil {
		return 0, err
	}
	return m.GetCounter().GetValue(), nil
}

func histogramSum(mfs []*dto.MetricFamily, name string, want map[string]string) (float64, error) {
	m, err := sample(mfs, name, want)
	if err != nil {
		return 0, err
	}
	return m.GetHistogram().GetSampleSum(), nil
}
