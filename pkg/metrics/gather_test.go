package metrics

import (
	"fmt"

	dto "github.com/prometheus/client_model/go"
)

// fetchCounterValue finds the counter sample of family name whose label
// matches value.
func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					return m.GetCounter().GetValue(), nil
				}
			}
		}
		return 0, fmt.Errorf("%s{%s=%q} not found", name, label, value)
	}
	return 0, fmt.Errorf("metric family %s not found", name)
}

// fetchHistogramSum adds up the sample sums of every series carrying label=value.
func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		var (
			sum   float64
			found bool
		)
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					sum += m.GetHistogram().GetSampleSum()
					found = true
				}
			}
		}
		if !found {
			return 0, fmt.Errorf("%s{%s=%q} not found", name, label, value)
		}
		return sum, nil
	}
	return 0, fmt.Errorf("metric family %s not found", name)
}
