package blocks

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/contract"
	"github.com/dmagro/hypers-monitor/internal/multicall"
)

// MinerCount is one row of a block's miner tally.
type MinerCount struct {
	Address common.Address
	Count   int
}

// MinerDetail reads every miner slot of block number in sequential batches
// and tallies registrations per address, sorted by count descending and by
// address ascending on ties. Any batch failure aborts the whole tally.
func (w *Window) MinerDetail(ctx context.Context, number, total uint64) ([]MinerCount, error) {
	return Tally(ctx, w.opts.Token, w.opts.Executor, number, total, w.opts.MinerBatchSize)
}

// Tally is MinerDetail without a Window.
func Tally(ctx context.Context, token *contract.Binding, exec *multicall.Executor, number, total uint64, batchSize int) ([]MinerCount, error) {
	if batchSize <= 0 {
		batchSize = DefaultMinerBatchSize
	}
	counts := make(map[common.Address]int)
	block := new(big.Int).SetUint64(number)

	for start := uint64(0); start < total; start += uint64(batchSize) {
		end := start + uint64(batchSize)
		if end > total {
			end = total
		}

		var batch multicall.Batch
		results := make([]*multicall.Result[common.Address], 0, end-start)
		for i := start; i < end; i++ {
			data, err := token.Pack("minersPerBlock", block, new(big.Int).SetUint64(i))
			if err != nil {
				return nil, err
			}
			label := fmt.Sprintf("minersPerBlock[%d]", i)
			results = append(results, multicall.Add(&batch, label, token.Address(), data, contract.DecodeAddress))
		}
		if _, err := batch.Execute(ctx, exec); err != nil {
			return nil, fmt.Errorf("block %d miners %d-%d: %w", number, start, end, err)
		}
		for _, r := range results {
			counts[r.MustValue()]++
		}
	}

	tally := make([]MinerCount, 0, len(counts))
	for addr, n := range counts {
		tally = append(tally, MinerCount{Address: addr, Count: n})
	}
	sort.Slice(tally, func(i, j int) bool {
		if tally[i].Count != tally[j].Count {
			return tally[i].Count > tally[j].Count
		}
		return bytes.Compare(tally[i].Address.Bytes(), tally[j].Address.Bytes()) < 0
	})
	return tally, nil
}
