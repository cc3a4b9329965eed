package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/provider"
	"github.com/dmagro/hypers-monitor/internal/stats"
)

func init() {
	color.NoColor = true
}

func TestTerminalSinkOrdering(t *testing.T) {
	s := NewTerminalSink()
	s.AppendBlock(blocks.Record{Number: 100})
	s.AppendBlock(blocks.Record{Number: 98})
	s.InsertBlock(1, blocks.Record{Number: 99})
	s.InsertBlock(0, blocks.Record{Number: 101})
	s.InsertBlock(42, blocks.Record{Number: 97})

	got := s.Numbers()
	want := []uint64{101, 100, 99, 98, 97}
	if len(got) != len(want) {
		t.Fatalf("Numbers() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Numbers() = %v, want %v", got, want)
		}
	}
}

func TestTerminalSinkFormat(t *testing.T) {
	s := NewTerminalSink()
	s.Now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	s.SetMetric(dashboard.SlotLastBlock, "100")
	s.SetMetric(dashboard.SlotTVL, "10.50")

	konk := common.HexToAddress("0xb82619C0336985e3EDe16B97b950E674018925Bb")
	zero := common.Address{}
	s.AppendBlock(blocks.Record{Number: 100, MinerCount: 7, Reward: 62.5, Winner: &konk, Miner: &zero})
	s.AppendBlock(blocks.Record{Number: 99, Reward: 62.5})
	s.ShowMiners(100, 7, []blocks.MinerCount{{Address: konk, Count: 7}})

	var buf bytes.Buffer
	if err := s.Format(&buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"03:04:05",
		"Last block", "100",
		"10.50",
		"#100", "KONKPool", "62.5 $HYPERS", "0000",
		"Pending",
		"Block #100 Miners (7)", "0xb826…25Bb",
		"https://blastscan.io/address/0xb82619C0336985e3EDe16B97b950E674018925Bb",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("frame missing %q:\n%s", want, out)
		}
	}
	// unset metrics render the placeholder
	if s.Metric(dashboard.SlotNextHalving) != "..." {
		t.Errorf("unset metric = %q, want ...", s.Metric(dashboard.SlotNextHalving))
	}
}

func TestTerminalSinkEmptyMinerPanel(t *testing.T) {
	s := NewTerminalSink()
	s.ShowMiners(5, 3, []blocks.MinerCount{})
	var buf bytes.Buffer
	_ = s.Format(&buf)
	if !strings.Contains(buf.String(), "no miners") {
		t.Errorf("empty tally not shown as empty panel:\n%s", buf.String())
	}
}

func TestFormatMiners(t *testing.T) {
	s := NewTerminalSink()
	var buf bytes.Buffer
	if err := s.FormatMiners(&buf); err == nil {
		t.Fatal("FormatMiners() before any expansion succeeded")
	}

	s.SetMetric(dashboard.SlotLastBlock, "100")
	s.ShowMiners(5, 3, []blocks.MinerCount{})
	buf.Reset()
	if err := s.FormatMiners(&buf); err != nil {
		t.Fatalf("FormatMiners() error = %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Block #5 Miners (3)") || !strings.Contains(out, "no miners") {
		t.Errorf("unexpected panel:\n%s", out)
	}
	if strings.Contains(out, "Last block") {
		t.Errorf("panel includes dashboard tables:\n%s", out)
	}
}

func TestProvidersFormatter(t *testing.T) {
	f := &ProvidersFormatter{Ranked: provider.Ranked{
		{Name: "blast", Status: "UP", Success: 3, Total: 3, BlockHeight: 100, Score: 0.99,
			Latency: stats.TailLatency{P95: 40 * time.Millisecond}},
		{Name: "backup", Status: "DOWN", Total: 3, Excluded: true, ExcludeReason: "no successful samples"},
	}}
	var buf bytes.Buffer
	if err := f.Format(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"blast", "Selected blast", "excluded backup: no successful samples"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPriceFormatter(t *testing.T) {
	f := &PriceFormatter{Rows: []PriceRow{
		{Source: "coingecko", Price: 3012.5},
		{Source: "cryptocompare", Err: errors.New("HTTP 500")},
	}}
	var buf bytes.Buffer
	_ = f.Format(&buf)
	if !strings.Contains(buf.String(), "$3012.50") || !strings.Contains(buf.String(), "HTTP 500") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
