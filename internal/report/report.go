// Package report provides the JSON report model shared across commands and
// writes timestamped report files.
//
// Commands populate only the sections they produce; empty sections are
// omitted. Reports are saved to a "reports" directory by default so results
// can be tracked over time.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/format"
	"github.com/dmagro/hypers-monitor/internal/metrics"
	"github.com/dmagro/hypers-monitor/internal/provider"
)

// DefaultDir is where WriteJSON puts reports.
const DefaultDir = "reports"

// MillisDuration marshals a time.Duration as an integer millisecond count.
type MillisDuration time.Duration

func (d MillisDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).Milliseconds())
}

// Report is the JSON-serializable report structure.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Provider  string    `json:"provider,omitempty"`

	Chain     *Chain          `json:"chain,omitempty"`
	Metrics   *Metrics        `json:"metrics,omitempty"`
	Blocks    []Block         `json:"blocks,omitempty"`
	Miners    *Miners         `json:"miners,omitempty"`
	Providers []ProviderEntry `json:"providers,omitempty"`
	Prices    []PriceEntry    `json:"prices,omitempty"`
}

// Chain holds the raw contract reads as decimal strings.
type Chain struct {
	BlockNumber      string `json:"block_number"`
	TotalSupply      string `json:"total_supply"`
	MinerReward      string `json:"miner_reward"`
	LastBlockTime    string `json:"last_block_time"`
	HalvingInterval  string `json:"halving_interval"`
	LastHalvingBlock string `json:"last_halving_block"`
	TokenValue       string `json:"token_value"`
	GasEtherBalance  string `json:"gas_ether_balance"`
	PendingMiners    string `json:"pending_miners"`
	MaxSupply        string `json:"max_supply"`
	ContractBalance  string `json:"contract_balance"`
}

// Metrics holds the derived values of one cycle.
type Metrics struct {
	PriceUSD            float64 `json:"price_usd"`
	IntrinsicValueEth   string  `json:"intrinsic_value_eth"`
	IntrinsicValueUsd   string  `json:"intrinsic_value_usd"`
	TheoreticalValueEth string  `json:"theoretical_value_eth"`
	TheoreticalValueUsd string  `json:"theoretical_value_usd"`
	TVLEth              float64 `json:"tvl_eth"`
	TVLUsd              float64 `json:"tvl_usd"`
	BurnedAmount        float64 `json:"burned_amount"`
	BurnedPercentage    string  `json:"burned_percentage"`
	MinedAmount         float64 `json:"mined_amount"`
	MinedPercentage     string  `json:"mined_percentage"`
	BlocksUntilHalving  float64 `json:"blocks_until_halving"`
	NextHalving         string  `json:"next_halving"`
}

type Block struct {
	Number     uint64  `json:"number"`
	MinerCount uint64  `json:"miner_count"`
	Reward     float64 `json:"reward"`
	Winner     *string `json:"winner,omitempty"`
	Miner      *string `json:"miner,omitempty"`
}

type Miners struct {
	Block uint64       `json:"block"`
	Total uint64       `json:"total"`
	Tally []MinerEntry `json:"tally"`
}

type MinerEntry struct {
	Address  string `json:"address"`
	Label    string `json:"label"`
	Count    int    `json:"count"`
	Explorer string `json:"explorer"`
}

type ProviderEntry struct {
	Name          string         `json:"name"`
	Status        string         `json:"status"`
	Success       int            `json:"success"`
	Total         int            `json:"total"`
	P50LatencyMS  MillisDuration `json:"p50_latency_ms"`
	P95LatencyMS  MillisDuration `json:"p95_latency_ms"`
	P99LatencyMS  MillisDuration `json:"p99_latency_ms"`
	MaxLatencyMS  MillisDuration `json:"max_latency_ms"`
	LatenciesMS   []int64        `json:"latencies_ms,omitempty"`
	BlockHeight   uint64         `json:"block_height"`
	Lag           uint64         `json:"lag"`
	Score         float64        `json:"score"`
	ExcludeReason *string        `json:"exclude_reason,omitempty"`
}

type PriceEntry struct {
	Source string   `json:"source"`
	Price  *float64 `json:"price,omitempty"`
	Error  *string  `json:"error,omitempty"`
}

// FromCycle fills the chain and metrics sections from a dashboard cycle.
func FromCycle(c *dashboard.Cycle) *Report {
	r := &Report{Timestamp: c.At}
	s := c.Snapshot
	r.Chain = &Chain{
		BlockNumber:      s.BlockNumber.String(),
		TotalSupply:      s.TotalSupply.String(),
		MinerReward:      s.MinerReward.String(),
		LastBlockTime:    s.LastBlockTime.String(),
		HalvingInterval:  s.HalvingInterval.String(),
		LastHalvingBlock: s.LastHalvingBlock.String(),
		TokenValue:       s.TokenValue.String(),
		GasEtherBalance:  s.GasParams.EtherBalance.String(),
		PendingMiners:    s.PendingMiners.String(),
		MaxSupply:        s.MaxSupply.String(),
		ContractBalance:  c.Balance.String(),
	}
	r.Metrics = metricsEntry(c.Derived)
	return r
}

func metricsEntry(d metrics.Derived) *Metrics {
	return &Metrics{
		PriceUSD:            d.Price,
		IntrinsicValueEth:   d.IntrinsicValueEth,
		IntrinsicValueUsd:   d.IntrinsicValueUsd,
		TheoreticalValueEth: d.TheoreticalValueEth,
		TheoreticalValueUsd: d.TheoreticalValueUsd,
		TVLEth:              d.TVLEth,
		TVLUsd:              d.TVLUsd,
		BurnedAmount:        d.Burned.Amount,
		BurnedPercentage:    d.Burned.Percentage,
		MinedAmount:         d.Mined.Amount,
		MinedPercentage:     d.Mined.Percentage,
		BlocksUntilHalving:  d.BlocksUntilHalving,
		NextHalving:         d.NextHalving,
	}
}

// BlockEntries converts window records.
func BlockEntries(records []blocks.Record) []Block {
	out := make([]Block, len(records))
	for i, rec := range records {
		out[i] = Block{Number: rec.Number, MinerCount: rec.MinerCount, Reward: rec.Reward}
		if rec.Winner != nil {
			s := rec.Winner.Hex()
			out[i].Winner = &s
		}
		if rec.Miner != nil {
			s := rec.Miner.Hex()
			out[i].Miner = &s
		}
	}
	return out
}

// MinersEntry converts a miner tally.
func MinersEntry(number, total uint64, tally []blocks.MinerCount) *Miners {
	m := &Miners{Block: number, Total: total, Tally: make([]MinerEntry, len(tally))}
	for i, mc := range tally {
		m.Tally[i] = MinerEntry{
			Address:  mc.Address.Hex(),
			Label:    format.Label(mc.Address),
			Count:    mc.Count,
			Explorer: format.ExplorerURL(mc.Address),
		}
	}
	return m
}

// ProviderEntries converts a probe ranking.
func ProviderEntries(ranked provider.Ranked) []ProviderEntry {
	out := make([]ProviderEntry, len(ranked))
	for i, h := range ranked {
		latencies := make([]int64, len(h.Latencies))
		for j, l := range h.Latencies {
			latencies[j] = l.Milliseconds()
		}
		out[i] = ProviderEntry{
			Name:         h.Name,
			Status:       h.Status,
			Success:      h.Success,
			Total:        h.Total,
			P50LatencyMS: MillisDuration(h.Latency.P50),
			P95LatencyMS: MillisDuration(h.Latency.P95),
			P99LatencyMS: MillisDuration(h.Latency.P99),
			MaxLatencyMS: MillisDuration(h.Latency.Max),
			LatenciesMS:  latencies,
			BlockHeight:  h.BlockHeight,
			Lag:          h.BlockDelta,
			Score:        h.Score,
		}
		if h.Excluded {
			reason := h.ExcludeReason
			out[i].ExcludeReason = &reason
		}
	}
	return out
}

// WriteJSON writes data as indented JSON to {dir}/{prefix}-{YYYYMMDD-HHMMSS}.json
// and returns the path. An empty dir selects DefaultDir.
func WriteJSON(dir string, data interface{}, prefix string) (string, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if prefix == "" {
		prefix = "report"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.json", prefix, timestamp))

	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return path, nil
}
