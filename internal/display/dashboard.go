package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/format"
	"github.com/dmagro/hypers-monitor/internal/metrics"
)

// DefaultBlockRows is how many block rows the dashboard shows below the
// pending block.
const DefaultBlockRows = 10

type minerPanel struct {
	number uint64
	total  uint64
	tally  []blocks.MinerCount
}

// TerminalSink keeps the latest dashboard state and renders it as text
// frames. It is safe for concurrent use.
type TerminalSink struct {
	BlockRows int
	Now       func() time.Time

	mu      sync.Mutex
	metrics map[dashboard.Slot]string
	records []blocks.Record
	panel   *minerPanel
}

var _ dashboard.Sink = (*TerminalSink)(nil)

func NewTerminalSink() *TerminalSink {
	return &TerminalSink{
		BlockRows: DefaultBlockRows,
		Now:       time.Now,
		metrics:   make(map[dashboard.Slot]string),
	}
}

func (s *TerminalSink) SetMetric(slot dashboard.Slot, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics[slot] = value
}

func (s *TerminalSink) InsertBlock(index int, r blocks.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.records) {
		s.records = append(s.records, r)
		return
	}
	s.records = append(s.records, blocks.Record{})
	copy(s.records[index+1:], s.records[index:])
	s.records[index] = r
}

func (s *TerminalSink) AppendBlock(r blocks.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *TerminalSink) ShowMiners(number, total uint64, tally []blocks.MinerCount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panel = &minerPanel{number: number, total: total, tally: tally}
}

// Metric returns the displayed value of slot, or the placeholder.
func (s *TerminalSink) Metric(slot dashboard.Slot) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metric(slot)
}

func (s *TerminalSink) metric(slot dashboard.Slot) string {
	if v, ok := s.metrics[slot]; ok {
		return v
	}
	return format.Pending
}

// Numbers returns the displayed block numbers in order.
func (s *TerminalSink) Numbers() []uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint64, len(s.records))
	for i, r := range s.records {
		out[i] = r.Number
	}
	return out
}

// Format writes one dashboard frame to w.
func (s *TerminalSink) Format(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := func(slot dashboard.Slot) string { return format.ColorPending(s.metric(slot)) }

	fmt.Fprintf(w, "%s %s\n\n", format.Bold("HYPERS on Blast"), format.Dim(s.Now().Format("15:04:05")))

	fmt.Fprintln(w, format.Bold("Mining"))
	tbl := newTable(w, "Metric", "Value")
	tbl.AddRow("Last block", m(dashboard.SlotLastBlock))
	tbl.AddRow("Last block time", m(dashboard.SlotLastBlockTime))
	tbl.AddRow("Miner reward", m(dashboard.SlotMinerReward)+" $HYPERS")
	tbl.AddRow("Miners (pending block)", m(dashboard.SlotMinersCount))
	tbl.AddRow("Next halving", m(dashboard.SlotNextHalving))
	tbl.Print()
	fmt.Fprintln(w)

	fmt.Fprintln(w, format.Bold("Supply"))
	tbl = newTable(w, "Metric", "Amount", "Share")
	tbl.AddRow("Total supply", m(dashboard.SlotTotalSupply), "")
	tbl.AddRow("Max supply", m(dashboard.SlotMaxSupply), "")
	tbl.AddRow("Burned", m(dashboard.SlotBurnedAmount), m(dashboard.SlotBurnedPercentage)+"%")
	tbl.AddRow("Mined", m(dashboard.SlotMinedAmount), m(dashboard.SlotMinedPercentage)+"%")
	tbl.Print()
	fmt.Fprintln(w)

	fmt.Fprintln(w, format.Bold("Value"))
	tbl = newTable(w, "Metric", "USD", "ETH")
	tbl.AddRow("Intrinsic value", "$"+m(dashboard.SlotIntrinsicValue), m(dashboard.SlotIntrinsicValueEth))
	tbl.AddRow("Theoretical value", "$"+m(dashboard.SlotTheoreticalValue), m(dashboard.SlotTheoreticalValueEth))
	tbl.AddRow("TVL", "$"+m(dashboard.SlotTVLUsd), m(dashboard.SlotTVL))
	tbl.Print()
	fmt.Fprintln(w)

	fmt.Fprintln(w, format.Bold("Blocks"))
	tbl = newTable(w, "Block", "Miners", "Winner", "Reward", "Miner")
	tbl.AddRow(format.Cyan("Pending"), m(dashboard.SlotPendingMinerCount), m(dashboard.SlotPendingWinner), m(dashboard.SlotPendingReward)+" $HYPERS", "")
	for i, r := range s.records {
		if s.BlockRows > 0 && i >= s.BlockRows {
			break
		}
		tbl.AddRow(
			fmt.Sprintf("#%d", r.Number),
			r.MinerCount,
			addressLabel(r.Winner),
			metrics.FormatPlain(r.Reward)+" $HYPERS",
			addressLabel(r.Miner),
		)
	}
	tbl.Print()
	if hidden := len(s.records) - s.BlockRows; s.BlockRows > 0 && hidden > 0 {
		fmt.Fprintln(w, format.Dim(fmt.Sprintf("… %d older blocks loaded", hidden)))
	}

	if s.panel != nil {
		fmt.Fprintln(w)
		writeMinerPanel(w, s.panel)
	}
	return nil
}

func writeMinerPanel(w io.Writer, p *minerPanel) {
	fmt.Fprintf(w, "%s\n", format.Bold(fmt.Sprintf("Block #%d Miners (%d)", p.number, p.total)))
	if len(p.tally) == 0 {
		fmt.Fprintln(w, format.Dim("  no miners"))
		return
	}
	tbl := newTable(w, "Count", "Miner", "Address", "Explorer")
	for _, mc := range p.tally {
		tbl.AddRow(mc.Count, format.Label(mc.Address), format.Short(mc.Address), format.Dim(format.ExplorerURL(mc.Address)))
	}
	tbl.Print()
}

func addressLabel(addr *common.Address) string {
	if addr == nil {
		return format.Dim(format.Pending)
	}
	return format.Label(*addr)
}

// FormatMiners writes only the miner panel. It reports an error when no
// block has been expanded yet.
func (s *TerminalSink) FormatMiners(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return errors.New("no block expanded")
	}
	writeMinerPanel(w, s.panel)
	return nil
}

// BlocksFormatter prints a list of block records.
type BlocksFormatter struct {
	Records []blocks.Record
}

func (f *BlocksFormatter) Format(w io.Writer) error {
	fmt.Fprintf(w, "%s %s\n", format.Bold("Blocks"), format.Dim(fmt.Sprintf("(%d loaded)", len(f.Records))))
	fmt.Fprintln(w, strings.Repeat("─", 60))
	tbl := newTable(w, "Block", "Miners", "Winner", "Reward", "Miner")
	for _, r := range f.Records {
		tbl.AddRow(fmt.Sprintf("#%d", r.Number), r.MinerCount, addressLabel(r.Winner), metrics.FormatPlain(r.Reward), addressLabel(r.Miner))
	}
	tbl.Print()
	return nil
}
