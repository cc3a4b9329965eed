package report

import (
	"encoding/json"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/dashboard"
	"github.com/dmagro/hypers-monitor/internal/metrics"
	"github.com/dmagro/hypers-monitor/internal/snapshot"
)

func testCycle() *dashboard.Cycle {
	one := big.NewInt(1)
	s := &snapshot.Snapshot{
		BlockNumber:      big.NewInt(84_123),
		TotalSupply:      one,
		MinerReward:      one,
		LastBlockTime:    one,
		HalvingInterval:  big.NewInt(42_000),
		LastHalvingBlock: big.NewInt(84_000),
		TokenValue:       one,
		GasParams:        snapshot.GasParams{EtherBalance: big.NewInt(5)},
		PendingMiners:    big.NewInt(3),
		MaxSupply:        one,
	}
	return &dashboard.Cycle{
		At:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Snapshot: s,
		Derived:  metrics.Derived{Price: 3000, NextHalving: "1d"},
		Balance:  big.NewInt(7),
	}
}

func TestWriteJSON(t *testing.T) {
	dir := t.TempDir()
	r := FromCycle(testCycle())
	winner := common.HexToAddress("0x2099A5d5DA9db8a91a21b7a1Cf7f969a5D078C15")
	r.Blocks = BlockEntries([]blocks.Record{{Number: 84_123, MinerCount: 3, Reward: 62.5, Winner: &winner}})
	r.Miners = MinersEntry(84_123, 3, []blocks.MinerCount{{Address: winner, Count: 3}})

	path, err := WriteJSON(dir, r, "snapshot")
	if err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "snapshot-") {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("report is not valid JSON: %v", err)
	}

	chain := got["chain"].(map[string]interface{})
	if chain["block_number"] != "84123" || chain["contract_balance"] != "7" || chain["gas_ether_balance"] != "5" {
		t.Errorf("chain = %v", chain)
	}
	m := got["metrics"].(map[string]interface{})
	if m["price_usd"] != 3000.0 || m["next_halving"] != "1d" {
		t.Errorf("metrics = %v", m)
	}
	block := got["blocks"].([]interface{})[0].(map[string]interface{})
	if block["winner"] != winner.Hex() {
		t.Errorf("block winner = %v", block["winner"])
	}
	if _, ok := block["miner"]; ok {
		t.Errorf("unknown miner should be omitted: %v", block)
	}
	tally := got["miners"].(map[string]interface{})["tally"].([]interface{})[0].(map[string]interface{})
	if tally["label"] != "Machi" {
		t.Errorf("tally label = %v, want Machi", tally["label"])
	}
	if _, ok := got["providers"]; ok {
		t.Errorf("empty providers section should be omitted")
	}
}

func TestMillisDuration(t *testing.T) {
	b, err := json.Marshal(MillisDuration(1500 * time.Millisecond))
	if err != nil || string(b) != "1500" {
		t.Errorf("Marshal = %s, %v; want 1500", b, err)
	}
}
