// Package multicalltest provides an in-memory chain node that understands
// Multicall3 aggregate calls, for tests of packages built on multicall.
package multicalltest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/multicall"
)

// ErrReverted is returned by Node when a handler reports a revert.
var ErrReverted = errors.New("execution reverted")

// Handler answers one inner call. Returning an error reverts the call, which
// reverts the whole aggregate.
type Handler func(target common.Address, callData []byte) ([]byte, error)

// Node is a fake transport. Calls to the aggregator address are unpacked and
// each inner call is routed to Handler; all other calls go to Handler
// directly. Node records every outer call it receives.
type Node struct {
	Aggregator  common.Address
	Handler     Handler
	BlockNumber uint64
	Balances    map[common.Address]*big.Int

	mu         sync.Mutex
	aggregates [][]multicall.Request
	direct     int
	fail       error
}

var aggregate = mustAggregate()

func NewNode(handler Handler) *Node {
	return &Node{
		Aggregator: multicall.DefaultAddress,
		Handler:    handler,
		Balances:   make(map[common.Address]*big.Int),
	}
}

// FailWith makes every subsequent call fail with err; nil restores service.
func (n *Node) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

// Aggregates returns the request lists of all aggregate calls received.
func (n *Node) Aggregates() [][]multicall.Request {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([][]multicall.Request, len(n.aggregates))
	copy(out, n.aggregates)
	return out
}

// DirectCalls returns how many non-aggregate calls were received.
func (n *Node) DirectCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.direct
}

func (n *Node) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	n.mu.Lock()
	fail := n.fail
	n.mu.Unlock()
	if fail != nil {
		return nil, fail
	}

	if to != n.Aggregator {
		n.mu.Lock()
		n.direct++
		n.mu.Unlock()
		return n.Handler(to, data)
	}

	method := aggregate.Methods["aggregate"]
	if len(data) < 4 || !bytes.Equal(data[:4], method.ID) {
		return nil, fmt.Errorf("multicalltest: unknown aggregator selector %x", data)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("multicalltest: %w", err)
	}
	reqs := *abi.ConvertType(args[0], new([]multicall.Request)).(*[]multicall.Request)

	n.mu.Lock()
	n.aggregates = append(n.aggregates, reqs)
	n.mu.Unlock()

	returnData := make([][]byte, len(reqs))
	for i, r := range reqs {
		out, err := n.Handler(r.Target, r.CallData)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		returnData[i] = out
	}
	return method.Outputs.Pack(new(big.Int).SetUint64(n.BlockNumber), returnData)
}

// BalanceAt serves balances from the Balances map; unknown addresses hold zero.
func (n *Node) BalanceAt(_ context.Context, addr common.Address) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return nil, n.fail
	}
	if b, ok := n.Balances[addr]; ok {
		return new(big.Int).Set(b), nil
	}
	return big.NewInt(0), nil
}

// Echo is a Handler returning each call's own calldata, useful for checking
// order preservation.
func Echo(_ common.Address, callData []byte) ([]byte, error) {
	return callData, nil
}

func mustAggregate() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(`[{"type":"function","name":"aggregate","stateMutability":"payable",
		"inputs":[{"name":"calls","type":"tuple[]","components":[{"name":"target","type":"address"},{"name":"callData","type":"bytes"}]}],
		"outputs":[{"name":"blockNumber","type":"uint256"},{"name":"returnData","type":"bytes[]"}]}]`))
	if err != nil {
		panic(err)
	}
	return parsed
}
