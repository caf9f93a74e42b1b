package telemetry

import (
	"context"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label keys
const (
	ProfilingLabelRoute     = "route"
	ProfilingLabelMethod    = "method"
	ProfilingLabelCompanyID = "company_id"
	ProfilingLabelOperation = "operation"
)

// MaxLabelValueLength caps label values to keep cardinality bounded
const MaxLabelValueLength = 128

// WithProfilingLabels runs fn with pprof labels attached so Pyroscope can
// slice samples by them. Empty labels and values are dropped.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := labelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

// RequestLabels labels an HTTP request by its route pattern, never by its
// raw path
func RequestLabels(route, method, companyID string) map[string]string {
	return map[string]string{
		ProfilingLabelRoute:     route,
		ProfilingLabelMethod:    method,
		ProfilingLabelCompanyID: companyID,
	}
}

func labelPairs(labels map[string]string) []string {
	pairs := make([]string, 0, len(labels)*2)
	for k, v := range labels {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if len(v) > MaxLabelValueLength {
			v = v[:MaxLabelValueLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
