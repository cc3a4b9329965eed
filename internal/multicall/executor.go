// Package multicall batches independent read calls into a single eth_call
// against a Multicall3 aggregator contract.
package multicall

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// DefaultAddress is the Multicall3 deployment shared by most EVM chains, Blast included.
var DefaultAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

const aggregateABI = `[{
	"type": "function",
	"name": "aggregate",
	"stateMutability": "payable",
	"inputs": [{
		"name": "calls",
		"type": "tuple[]",
		"components": [
			{"name": "target", "type": "address"},
			{"name": "callData", "type": "bytes"}
		]
	}],
	"outputs": [
		{"name": "blockNumber", "type": "uint256"},
		{"name": "returnData", "type": "bytes[]"}
	]
}]`

var aggregator = mustParse(aggregateABI)

var (
	// ErrLengthMismatch means the aggregator returned a different number of
	// payloads than calls were sent.
	ErrLengthMismatch = errors.New("multicall: result count does not match request count")
	// ErrMalformedEnvelope means the aggregator response could not be decoded.
	ErrMalformedEnvelope = errors.New("multicall: malformed aggregate response")
)

// Request is one read call inside an aggregate batch.
type Request struct {
	Target   common.Address
	CallData []byte
}

// Transport sends a single read-only call. *rpc.Client satisfies it.
type Transport interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Executor submits request batches to the aggregator contract.
type Executor struct {
	address   common.Address
	transport Transport
}

// NewExecutor returns an executor for the aggregator at address; the zero
// address selects DefaultAddress.
func NewExecutor(transport Transport, address common.Address) *Executor {
	if address == (common.Address{}) {
		address = DefaultAddress
	}
	return &Executor{address: address, transport: transport}
}

// Address is the aggregator contract the executor calls.
func (e *Executor) Address() common.Address { return e.address }

// Aggregate executes reqs in one aggregate call and returns the return data
// of each request in request order. Either every payload is returned or the
// whole batch fails: a transport error, a revert of any inner call, or an
// undecodable envelope all surface as an error.
func (e *Executor) Aggregate(ctx context.Context, reqs []Request) (uint64, [][]byte, error) {
	if len(reqs) == 0 {
		return 0, [][]byte{}, nil
	}

	data, err := aggregator.Pack("aggregate", reqs)
	if err != nil {
		return 0, nil, fmt.Errorf("multicall: encode %d calls: %w", len(reqs), err)
	}

	out, err := e.transport.CallContract(ctx, e.address, data)
	if err != nil {
		return 0, nil, fmt.Errorf("multicall: aggregate %d calls: %w", len(reqs), err)
	}

	blockNumber, returnData, err := decodeEnvelope(out)
	if err != nil {
		return 0, nil, err
	}
	if len(returnData) != len(reqs) {
		return 0, nil, fmt.Errorf("%w: sent %d, got %d", ErrLengthMismatch, len(reqs), len(returnData))
	}
	return blockNumber, returnData, nil
}

func decodeEnvelope(out []byte) (uint64, [][]byte, error) {
	values, err := aggregator.Unpack("aggregate", out)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(values) != 2 {
		return 0, nil, fmt.Errorf("%w: got %d values", ErrMalformedEnvelope, len(values))
	}
	blockNumber, ok := values[0].(*big.Int)
	if !ok {
		return 0, nil, fmt.Errorf("%w: block number is %T", ErrMalformedEnvelope, values[0])
	}
	returnData, ok := values[1].([][]byte)
	if !ok {
		return 0, nil, fmt.Errorf("%w: return data is %T", ErrMalformedEnvelope, values[1])
	}
	return blockNumber.Uint64(), returnData, nil
}

func mustParse(doc string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(doc))
	if err != nil {
		panic(err)
	}
	return parsed
}
