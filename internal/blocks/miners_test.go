package blocks_test

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/chaintest"
)

func TestMinerDetailPaginates(t *testing.T) {
	a, b, c := common.Address{0xaa}, common.Address{0xbb}, common.Address{0xcc}
	chain := chaintest.New(t)
	chain.Update(func(ch *chaintest.Chain) {
		miners := make([]common.Address, 0, 250)
		for i := 0; i < 250; i++ {
			switch {
			case i < 150:
				miners = append(miners, b)
			case i < 200:
				miners = append(miners, c)
			default:
				miners = append(miners, a)
			}
		}
		ch.Miners[42] = miners
	})
	w := newWindow(t, chain, nil, 100)

	tally, err := w.MinerDetail(context.Background(), 42, 250)
	if err != nil {
		t.Fatalf("MinerDetail() error = %v", err)
	}

	aggregates := chain.Node().Aggregates()
	wantSizes := []int{100, 100, 50}
	if len(aggregates) != len(wantSizes) {
		t.Fatalf("aggregate calls = %d, want %d", len(aggregates), len(wantSizes))
	}
	for i, size := range wantSizes {
		if len(aggregates[i]) != size {
			t.Errorf("batch %d size = %d, want %d", i, len(aggregates[i]), size)
		}
	}

	// a and c tie at 50; the lower address sorts first
	want := []blocks.MinerCount{{b, 150}, {a, 50}, {c, 50}}
	if len(tally) != len(want) {
		t.Fatalf("tally = %v, want %v", tally, want)
	}
	for i := range want {
		if tally[i] != want[i] {
			t.Errorf("tally[%d] = %v, want %v", i, tally[i], want[i])
		}
	}
}

func TestMinerDetailEmpty(t *testing.T) {
	chain := chaintest.New(t)
	w := newWindow(t, chain, nil, 100)

	tally, err := w.MinerDetail(context.Background(), 7, 0)
	if err != nil {
		t.Fatalf("MinerDetail() error = %v", err)
	}
	if len(tally) != 0 {
		t.Errorf("tally = %v, want empty", tally)
	}
	if n := len(chain.Node().Aggregates()); n != 0 {
		t.Errorf("aggregate calls = %d, want 0", n)
	}
}

func TestMinerDetailFailureAborts(t *testing.T) {
	chain := chaintest.New(t)
	chain.Update(func(ch *chaintest.Chain) {
		ch.Miners[42] = make([]common.Address, 150)
	})
	w := newWindow(t, chain, nil, 100)

	tally, err := w.MinerDetail(context.Background(), 42, 250)
	if err == nil {
		t.Fatal("MinerDetail() succeeded with missing miner slots")
	}
	if tally != nil {
		t.Errorf("tally = %v, want nil on failure", tally)
	}
	if n := len(chain.Node().Aggregates()); n != 2 {
		t.Errorf("aggregate calls = %d, want 2 (stops at the failing batch)", n)
	}
}
