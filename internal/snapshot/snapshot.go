// Package snapshot builds the ten-read metrics batch for the HYPERS contract
// and decodes it into a Snapshot.
package snapshot

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/contract"
	"github.com/dmagro/hypers-monitor/internal/multicall"
)

// GasParams is the decoded readGasParams tuple of the Blast gas contract.
// EtherBalance is claimable gas revenue held for the contract.
type GasParams struct {
	EtherSeconds *big.Int
	EtherBalance *big.Int
	LastUpdated  *big.Int
	GasMode      uint8
}

// Snapshot is the decoded state of one polling cycle. It is always replaced
// wholesale, never patched.
type Snapshot struct {
	BlockNumber      *big.Int
	TotalSupply      *big.Int
	MinerReward      *big.Int
	LastBlockTime    *big.Int
	HalvingInterval  *big.Int
	LastHalvingBlock *big.Int
	TokenValue       *big.Int
	GasParams        GasParams
	PendingMiners    *big.Int // miners registered for the block after the cursor
	MaxSupply        *big.Int
}

// Builder constructs the metrics batch from the token and gas bindings.
type Builder struct {
	token *contract.Binding
	gas   *contract.Binding
}

func NewBuilder(token, gas *contract.Binding) *Builder {
	return &Builder{token: token, gas: gas}
}

// Pending is a built but not yet executed metrics batch.
type Pending struct {
	batch multicall.Batch

	blockNumber      *multicall.Result[*big.Int]
	totalSupply      *multicall.Result[*big.Int]
	minerReward      *multicall.Result[*big.Int]
	lastBlockTime    *multicall.Result[*big.Int]
	halvingInterval  *multicall.Result[*big.Int]
	lastHalvingBlock *multicall.Result[*big.Int]
	tokenValue       *multicall.Result[*big.Int]
	gasParams        *multicall.Result[GasParams]
	pendingMiners    *multicall.Result[*big.Int]
	maxSupply        *multicall.Result[*big.Int]
}

// Build returns the ten reads of one cycle, in order: seven token getters,
// readGasParams(token), minersPerBlockCount(cursor+1) and maxSupply. A zero
// cursor means the chain height is not known yet.
func (b *Builder) Build(cursor uint64) (*Pending, error) {
	p := &Pending{}
	var err error

	uintCall := func(method string, args ...interface{}) *multicall.Result[*big.Int] {
		if err != nil {
			return nil
		}
		var data []byte
		data, err = b.token.Pack(method, args...)
		if err != nil {
			return nil
		}
		return multicall.Add(&p.batch, method, b.token.Address(), data, b.token.UintDecoder(method))
	}

	p.blockNumber = uintCall("blockNumber")
	p.totalSupply = uintCall("totalSupply")
	p.minerReward = uintCall("miningReward")
	p.lastBlockTime = uintCall("lastBlockTime")
	p.halvingInterval = uintCall("halvingInterval")
	p.lastHalvingBlock = uintCall("lastHalvingBlock")
	p.tokenValue = uintCall("tokenValue")
	if err != nil {
		return nil, err
	}

	gasData, err := b.gas.Pack("readGasParams", b.token.Address())
	if err != nil {
		return nil, err
	}
	p.gasParams = multicall.Add(&p.batch, "readGasParams", b.gas.Address(), gasData, b.decodeGasParams)

	p.pendingMiners = uintCall("minersPerBlockCount", new(big.Int).SetUint64(cursor+1))
	p.maxSupply = uintCall("maxSupply")
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Builder) decodeGasParams(data []byte) (GasParams, error) {
	values, err := b.gas.Unpack("readGasParams", data)
	if err != nil {
		return GasParams{}, err
	}
	if len(values) != 4 {
		return GasParams{}, fmt.Errorf("decode readGasParams: got %d values, want 4", len(values))
	}
	var gp GasParams
	var ok1, ok2, ok3, ok4 bool
	gp.EtherSeconds, ok1 = values[0].(*big.Int)
	gp.EtherBalance, ok2 = values[1].(*big.Int)
	gp.LastUpdated, ok3 = values[2].(*big.Int)
	gp.GasMode, ok4 = values[3].(uint8)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return GasParams{}, fmt.Errorf("decode readGasParams: unexpected types %T %T %T %T", values[0], values[1], values[2], values[3])
	}
	return gp, nil
}

// Requests exposes the batch requests, mainly for inspection in tests and logs.
func (p *Pending) Requests() []multicall.Request { return p.batch.Requests() }

// Labels returns the method names of the batch in order.
func (p *Pending) Labels() []string { return p.batch.Labels() }

// Execute runs the batch and assembles the Snapshot. Any failure abandons
// the whole snapshot.
func (p *Pending) Execute(ctx context.Context, exec *multicall.Executor) (*Snapshot, error) {
	if _, err := p.batch.Execute(ctx, exec); err != nil {
		return nil, err
	}
	return &Snapshot{
		BlockNumber:      p.blockNumber.MustValue(),
		TotalSupply:      p.totalSupply.MustValue(),
		MinerReward:      p.minerReward.MustValue(),
		LastBlockTime:    p.lastBlockTime.MustValue(),
		HalvingInterval:  p.halvingInterval.MustValue(),
		LastHalvingBlock: p.lastHalvingBlock.MustValue(),
		TokenValue:       p.tokenValue.MustValue(),
		GasParams:        p.gasParams.MustValue(),
		PendingMiners:    p.pendingMiners.MustValue(),
		MaxSupply:        p.maxSupply.MustValue(),
	}, nil
}

// Fetch builds and executes the batch for cursor.
func (b *Builder) Fetch(ctx context.Context, exec *multicall.Executor, cursor uint64) (*Snapshot, error) {
	p, err := b.Build(cursor)
	if err != nil {
		return nil, err
	}
	return p.Execute(ctx, exec)
}

// Token returns the address of the token contract the snapshot reads.
func (b *Builder) Token() common.Address { return b.token.Address() }
