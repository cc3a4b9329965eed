package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dmagro/hypers-monitor/internal/stats"
)

// ErrNoProviders means no provider was configured or probed.
var ErrNoProviders = errors.New("no providers available")

// Prober is the part of *rpc.Client used for probing.
type Prober interface {
	Named
	BlockNumber(ctx context.Context) (uint64, time.Duration, error)
}

// Health is the probe summary of one provider.
type Health struct {
	Name          string
	Status        string // UP, SLOW, DEGRADED, DOWN
	Success       int
	Total         int
	Latency       stats.TailLatency
	Latencies     []time.Duration
	BlockHeight   uint64
	BlockDelta    uint64
	Score         float64
	Excluded      bool
	ExcludeReason string
}

// SuccessRate is the share of successful samples in percent.
func (h Health) SuccessRate() float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Success) / float64(h.Total) * 100
}

// Ranked is a list of providers sorted by descending score.
type Ranked []Health

// ProbeOptions tune Probe.
type ProbeOptions struct {
	Samples  int
	Interval time.Duration // pause between samples of one provider
}

// Probe samples eth_blockNumber on every provider concurrently and ranks
// them by success rate, p95 latency and freshness.
func Probe[P Prober](ctx context.Context, providers []P, opts ProbeOptions) (Ranked, error) {
	if len(providers) == 0 {
		return nil, ErrNoProviders
	}
	if opts.Samples <= 0 {
		opts.Samples = 3
	}

	results := ExecuteAll(ctx, providers, func(ctx context.Context, p P) (Health, error) {
		return sample(ctx, p, opts), nil
	})

	var maxHeight uint64
	for _, r := range results {
		if r.Value.BlockHeight > maxHeight {
			maxHeight = r.Value.BlockHeight
		}
	}

	ranked := make(Ranked, 0, len(results))
	for _, r := range results {
		h := r.Value
		if h.Success > 0 {
			h.BlockDelta = maxHeight - h.BlockHeight
		}
		classify(&h)
		ranked = append(ranked, h)
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].Name < ranked[j].Name
	})
	return ranked, nil
}

func sample(ctx context.Context, p Prober, opts ProbeOptions) Health {
	h := Health{Name: p.Name(), Total: opts.Samples}
	for i := 0; i < opts.Samples; i++ {
		if ctx.Err() != nil {
			break
		}
		height, latency, err := p.BlockNumber(ctx)
		if err == nil {
			h.Success++
			h.Latencies = append(h.Latencies, latency)
			h.BlockHeight = height
		}
		if i < opts.Samples-1 && opts.Interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Interval):
			}
		}
	}
	h.Latency = stats.CalculateTailLatency(h.Latencies)
	return h
}

func classify(h *Health) {
	rate := h.SuccessRate()
	switch {
	case rate < 50:
		h.Status = "DOWN"
	case rate < 90:
		h.Status = "DEGRADED"
	case h.Latency.P95 > 500*time.Millisecond:
		h.Status = "SLOW"
	default:
		h.Status = "UP"
	}

	if h.Success == 0 {
		h.Excluded = true
		h.ExcludeReason = "no successful samples"
		return
	}
	h.Score = score(*h)
	if rate < 80 {
		h.Excluded = true
		h.ExcludeReason = fmt.Sprintf("success rate %.1f%% below threshold", rate)
	} else if h.BlockDelta > 5 {
		h.Excluded = true
		h.ExcludeReason = fmt.Sprintf("%d blocks behind", h.BlockDelta)
	}
}

// Best returns the best non-excluded provider. When every provider is
// excluded the least bad one is returned along with an error.
func (rp Ranked) Best() (Health, error) {
	for _, p := range rp {
		if !p.Excluded {
			return p, nil
		}
	}
	if len(rp) > 0 {
		return rp[0], fmt.Errorf("all providers degraded, using least-bad: %s", rp[0].Name)
	}
	return Health{}, ErrNoProviders
}

func score(h Health) float64 {
	successScore := h.SuccessRate() / 100.0

	latencyMs := float64(h.Latency.P95.Milliseconds())
	latencyScore := 1.0 - (latencyMs / 1000.0)
	if latencyScore < 0 {
		latencyScore = 0
	}

	freshnessScore := 1.0 - (float64(h.BlockDelta) / 10.0)
	if freshnessScore < 0 {
		freshnessScore = 0
	}

	return (successScore * 0.5) + (latencyScore * 0.3) + (freshnessScore * 0.2)
}
