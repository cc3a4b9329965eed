// Package chaintest simulates the HYPERS token and Blast gas contracts behind
// a multicalltest.Node, so the snapshot, blocks and dashboard packages can be
// tested end to end without a network.
package chaintest

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/contract"
	"github.com/dmagro/hypers-monitor/internal/multicall/multicalltest"
)

var (
	TokenAddress = common.HexToAddress("0xF8797dB8a9EeD416Ca14e8dFaEde2BF4E1aabFC3")
	GasAddress   = common.HexToAddress("0x4300000000000000000000000000000000000002")
)

// Ether returns n whole tokens in 18-decimal base units.
func Ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// Chain is the mutable contract state served by the fake node.
type Chain struct {
	mu sync.Mutex

	BlockNumber      uint64
	TotalSupply      *big.Int
	MiningReward     *big.Int
	LastBlockTime    uint64
	HalvingInterval  uint64
	LastHalvingBlock uint64
	TokenValue       *big.Int
	MaxSupply        *big.Int
	GasEtherBalance  *big.Int

	// Miners lists the miner address of each registration slot per block.
	Miners map[uint64][]common.Address
	// FailCount makes minersPerBlockCount revert for the listed blocks.
	FailCount map[uint64]bool
	// PhantomMiners adds slots to minersPerBlockCount that have no
	// minersPerBlock entry, so reading them reverts.
	PhantomMiners map[uint64]uint64

	countCalls map[uint64]int
	token      abi.ABI
	gas        abi.ABI
	node       *multicalltest.Node
}

// New returns a chain with plausible defaults and its fake node.
func New(t testing.TB) *Chain {
	t.Helper()
	schemas, err := contract.LoadSchemas(context.Background(), http.DefaultClient, "", "")
	if err != nil {
		t.Fatalf("chaintest: %v", err)
	}
	c := &Chain{
		BlockNumber:      100,
		TotalSupply:      Ether(1_000_000),
		MiningReward:     Ether(250),
		LastBlockTime:    1_700_000_000,
		HalvingInterval:  42_000,
		LastHalvingBlock: 0,
		TokenValue:       big.NewInt(1e12),
		MaxSupply:        Ether(20_500_000),
		GasEtherBalance:  big.NewInt(0),
		Miners:           make(map[uint64][]common.Address),
		FailCount:        make(map[uint64]bool),
		PhantomMiners:    make(map[uint64]uint64),
		countCalls:       make(map[uint64]int),
		token:            schemas.Token,
		gas:              schemas.Gas,
	}
	c.node = multicalltest.NewNode(c.handle)
	return c
}

func (c *Chain) Node() *multicalltest.Node { return c.node }

// TokenBinding and GasBinding bind the embedded schemas to the fake addresses.
func (c *Chain) TokenBinding() *contract.Binding { return contract.NewBinding(TokenAddress, c.token) }
func (c *Chain) GasBinding() *contract.Binding   { return contract.NewBinding(GasAddress, c.gas) }

// Update mutates the chain state under its lock.
func (c *Chain) Update(fn func(c *Chain)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

// CountCalls reports how many times minersPerBlockCount(block) was read.
func (c *Chain) CountCalls(block uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countCalls[block]
}

func (c *Chain) handle(target common.Address, data []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	schema := c.token
	if target == GasAddress {
		schema = c.gas
	} else if target != TokenAddress {
		return nil, fmt.Errorf("chaintest: no contract at %s", target.Hex())
	}
	if len(data) < 4 {
		return nil, multicalltest.ErrReverted
	}
	method, err := schema.MethodById(data[:4])
	if err != nil {
		return nil, multicalltest.ErrReverted
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, multicalltest.ErrReverted
	}

	u := func(v uint64) *big.Int { return new(big.Int).SetUint64(v) }
	switch method.Name {
	case "blockNumber":
		return method.Outputs.Pack(u(c.BlockNumber))
	case "totalSupply":
		return method.Outputs.Pack(c.TotalSupply)
	case "miningReward":
		return method.Outputs.Pack(c.MiningReward)
	case "lastBlockTime":
		return method.Outputs.Pack(u(c.LastBlockTime))
	case "halvingInterval":
		return method.Outputs.Pack(u(c.HalvingInterval))
	case "lastHalvingBlock":
		return method.Outputs.Pack(u(c.LastHalvingBlock))
	case "tokenValue":
		return method.Outputs.Pack(c.TokenValue)
	case "maxSupply":
		return method.Outputs.Pack(c.MaxSupply)
	case "minersPerBlockCount":
		block := args[0].(*big.Int).Uint64()
		c.countCalls[block]++
		if c.FailCount[block] {
			return nil, multicalltest.ErrReverted
		}
		return method.Outputs.Pack(u(uint64(len(c.Miners[block])) + c.PhantomMiners[block]))
	case "minersPerBlock":
		block := args[0].(*big.Int).Uint64()
		idx := args[1].(*big.Int).Uint64()
		miners := c.Miners[block]
		if idx >= uint64(len(miners)) {
			return nil, multicalltest.ErrReverted
		}
		return method.Outputs.Pack(miners[idx])
	case "readGasParams":
		if !bytes.Equal(args[0].(common.Address).Bytes(), TokenAddress.Bytes()) {
			return nil, multicalltest.ErrReverted
		}
		return method.Outputs.Pack(big.NewInt(0), c.GasEtherBalance, big.NewInt(0), uint8(1))
	}
	return nil, multicalltest.ErrReverted
}
