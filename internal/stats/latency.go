// Package stats summarizes latency samples of RPC probes.
package stats

import (
	"math"
	"slices"
	"time"
)

// TailLatency holds the p50, p95, p99 and max of a sample set.
type TailLatency struct {
	P50, P95, P99, Max time.Duration
}

// CalculateTailLatency computes nearest-rank percentiles of latencies. The
// input is not modified. With few samples the high percentiles equal Max.
func CalculateTailLatency(latencies []time.Duration) TailLatency {
	if len(latencies) == 0 {
		return TailLatency{}
	}
	sorted := slices.Clone(latencies)
	slices.Sort(sorted)

	return TailLatency{
		P50: Percentile(sorted, 0.50),
		P95: Percentile(sorted, 0.95),
		P99: Percentile(sorted, 0.99),
		Max: sorted[len(sorted)-1],
	}
}

// Percentile returns the nearest-rank value at p (0..1) of an ascending
// slice: index ceil(n*p)-1, clamped to the slice.
func Percentile(sorted []time.Duration, p float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	index := int(math.Ceil(float64(n)*p)) - 1
	index = max(0, min(index, n-1))
	return sorted[index]
}

// Mean is the arithmetic mean of latencies, zero when empty.
func Mean(latencies []time.Duration) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range latencies {
		total += d
	}
	return total / time.Duration(len(latencies))
}
