package snapshot_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/chaintest"
	"github.com/dmagro/hypers-monitor/internal/multicall"
	"github.com/dmagro/hypers-monitor/internal/snapshot"
)

func TestBuildOrder(t *testing.T) {
	chain := chaintest.New(t)
	b := snapshot.NewBuilder(chain.TokenBinding(), chain.GasBinding())

	p, err := b.Build(41)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{
		"blockNumber", "totalSupply", "miningReward", "lastBlockTime", "halvingInterval",
		"lastHalvingBlock", "tokenValue", "readGasParams", "minersPerBlockCount", "maxSupply",
	}
	labels := p.Labels()
	if len(labels) != len(want) {
		t.Fatalf("Build() produced %d calls, want %d", len(labels), len(want))
	}
	for i := range want {
		if labels[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, labels[i], want[i])
		}
	}

	reqs := p.Requests()
	for i, r := range reqs {
		wantTarget := chaintest.TokenAddress
		if labels[i] == "readGasParams" {
			wantTarget = chaintest.GasAddress
		}
		if r.Target != wantTarget {
			t.Errorf("call %d (%s) targets %s, want %s", i, labels[i], r.Target.Hex(), wantTarget.Hex())
		}
	}

	// pending miner count is keyed on cursor+1
	wantData, _ := chain.TokenBinding().Pack("minersPerBlockCount", big.NewInt(42))
	if string(reqs[8].CallData) != string(wantData) {
		t.Errorf("minersPerBlockCount calldata = %x, want %x", reqs[8].CallData, wantData)
	}

	// readGasParams is parameterized by the token address
	gasData, _ := chain.GasBinding().Pack("readGasParams", chaintest.TokenAddress)
	if string(reqs[7].CallData) != string(gasData) {
		t.Errorf("readGasParams calldata = %x, want %x", reqs[7].CallData, gasData)
	}
}

func TestFetch(t *testing.T) {
	chain := chaintest.New(t)
	chain.Update(func(c *chaintest.Chain) {
		c.BlockNumber = 84_123
		c.LastHalvingBlock = 84_000
		c.GasEtherBalance = big.NewInt(5e17)
		c.Miners[84_124] = []common.Address{{1}, {2}, {3}}
	})
	b := snapshot.NewBuilder(chain.TokenBinding(), chain.GasBinding())
	exec := multicall.NewExecutor(chain.Node(), common.Address{})

	s, err := b.Fetch(context.Background(), exec, 84_123)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	checks := []struct {
		name string
		got  *big.Int
		want *big.Int
	}{
		{"BlockNumber", s.BlockNumber, big.NewInt(84_123)},
		{"TotalSupply", s.TotalSupply, chaintest.Ether(1_000_000)},
		{"MinerReward", s.MinerReward, chaintest.Ether(250)},
		{"HalvingInterval", s.HalvingInterval, big.NewInt(42_000)},
		{"LastHalvingBlock", s.LastHalvingBlock, big.NewInt(84_000)},
		{"MaxSupply", s.MaxSupply, chaintest.Ether(20_500_000)},
		{"PendingMiners", s.PendingMiners, big.NewInt(3)},
		{"GasEtherBalance", s.GasParams.EtherBalance, big.NewInt(5e17)},
	}
	for _, c := range checks {
		if c.got.Cmp(c.want) != 0 {
			t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	if s.GasParams.GasMode != 1 {
		t.Errorf("GasMode = %d, want 1", s.GasParams.GasMode)
	}
	if n := len(chain.Node().Aggregates()); n != 1 {
		t.Errorf("aggregate calls = %d, want 1", n)
	}
}

func TestFetchFailsWholeSnapshot(t *testing.T) {
	chain := chaintest.New(t)
	b := snapshot.NewBuilder(chain.TokenBinding(), chain.GasBinding())
	exec := multicall.NewExecutor(chain.Node(), common.Address{})

	boom := errors.New("connection reset")
	chain.Node().FailWith(boom)

	s, err := b.Fetch(context.Background(), exec, 0)
	if !errors.Is(err, boom) {
		t.Fatalf("Fetch() error = %v, want %v", err, boom)
	}
	if s != nil {
		t.Errorf("Fetch() returned a partial snapshot")
	}
}
