package dashboard

import (
	"math"
	"strconv"
	"time"

	"github.com/dmagro/hypers-monitor/internal/format"
	"github.com/dmagro/hypers-monitor/internal/metrics"
	"github.com/dmagro/hypers-monitor/internal/snapshot"
)

// Slot names one displayed metric.
type Slot string

const (
	SlotLastBlock           Slot = "lastBlock"
	SlotTotalSupply         Slot = "totalSupply"
	SlotMinerReward         Slot = "minerReward"
	SlotMinersCount         Slot = "minersCount"
	SlotIntrinsicValue      Slot = "intrinsicValue"
	SlotIntrinsicValueEth   Slot = "intrinsicValueEth"
	SlotTheoreticalValue    Slot = "theoreticalValue"
	SlotTheoreticalValueEth Slot = "theoreticalValueEth"
	SlotTVL                 Slot = "tvl"
	SlotTVLUsd              Slot = "tvlUsd"
	SlotMaxSupply           Slot = "maxSupply"
	SlotBurnedAmount        Slot = "burnedAmount"
	SlotBurnedPercentage    Slot = "burnedPercentage"
	SlotMinedAmount         Slot = "minedAmount"
	SlotMinedPercentage     Slot = "minedPercentage"
	SlotLastBlockTime       Slot = "lastBlockTime"
	SlotNextHalving         Slot = "nextHalving"
	SlotPendingMinerCount   Slot = "pendingBlockMinerCount"
	SlotPendingReward       Slot = "pendingBlockReward"
	SlotPendingWinner       Slot = "pendingBlockWinner"
)

// Slots lists every metric slot in display order.
var Slots = []Slot{
	SlotLastBlock, SlotTotalSupply, SlotMinerReward, SlotMinersCount,
	SlotIntrinsicValue, SlotIntrinsicValueEth, SlotTheoreticalValue, SlotTheoreticalValueEth,
	SlotTVL, SlotTVLUsd, SlotMaxSupply,
	SlotBurnedAmount, SlotBurnedPercentage, SlotMinedAmount, SlotMinedPercentage,
	SlotLastBlockTime, SlotNextHalving,
	SlotPendingMinerCount, SlotPendingReward, SlotPendingWinner,
}

// Metric is a rendered slot value.
type Metric struct {
	Slot  Slot
	Value string
}

// Render formats one cycle's values. cursor is the chain height known
// before this cycle; while it is zero the pending-block count is shown as
// a placeholder and the pending-block slots are left alone.
func Render(s *snapshot.Snapshot, d metrics.Derived, cursor uint64, now time.Time) []Metric {
	reward := metrics.FormatPlain(metrics.ToEther(s.MinerReward))
	secondsAgo := strconv.FormatInt(now.Unix()-s.LastBlockTime.Int64(), 10) + "s"

	minersCount := format.Pending
	if cursor != 0 {
		minersCount = s.PendingMiners.String()
	}

	out := []Metric{
		{SlotLastBlock, s.BlockNumber.String()},
		{SlotTotalSupply, metrics.FormatNumber(math.Round(metrics.ToEther(s.TotalSupply)))},
		{SlotMinerReward, reward},
		{SlotMinersCount, minersCount},
		{SlotIntrinsicValue, d.IntrinsicValueUsd},
		{SlotIntrinsicValueEth, d.IntrinsicValueEth},
		{SlotTheoreticalValue, d.TheoreticalValueUsd},
		{SlotTheoreticalValueEth, d.TheoreticalValueEth},
		{SlotTVL, metrics.FormatFixed(d.TVLEth, 2)},
		{SlotTVLUsd, metrics.FormatNumber(math.Round(d.TVLUsd))},
		{SlotMaxSupply, metrics.FormatNumber(metrics.ToEther(s.MaxSupply))},
		{SlotBurnedAmount, metrics.FormatNumber(math.Round(d.Burned.Amount))},
		{SlotBurnedPercentage, d.Burned.Percentage},
		{SlotMinedAmount, metrics.FormatNumber(math.Round(d.Mined.Amount))},
		{SlotMinedPercentage, d.Mined.Percentage},
		{SlotLastBlockTime, secondsAgo},
		{SlotNextHalving, d.NextHalving},
	}
	if cursor != 0 {
		out = append(out,
			Metric{SlotPendingMinerCount, s.PendingMiners.String()},
			Metric{SlotPendingReward, reward},
			Metric{SlotPendingWinner, secondsAgo},
		)
	}
	return out
}

// NearEdge reports whether a horizontally scrolled list is within 20% of a
// viewport width from its far end.
func NearEdge(scrollLeft, scrollWidth, clientWidth float64) bool {
	return (scrollWidth-(scrollLeft+clientWidth))/clientWidth < 0.2
}
