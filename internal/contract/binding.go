// Package contract binds ABI schemas to contract addresses. It encodes named
// method calls into call payloads and decodes return payloads against the
// method's output schema, using go-ethereum's accounts/abi.
package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Caller executes a read-only call and returns the raw return data.
// *rpc.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Binding is an ABI schema attached to a deployed contract.
type Binding struct {
	address common.Address
	schema  abi.ABI
}

func NewBinding(address common.Address, schema abi.ABI) *Binding {
	return &Binding{address: address, schema: schema}
}

func (b *Binding) Address() common.Address { return b.address }

// Pack encodes a call to method with args, selector included.
func (b *Binding) Pack(method string, args ...interface{}) ([]byte, error) {
	data, err := b.schema.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	return data, nil
}

// Unpack decodes data against the outputs of method.
func (b *Binding) Unpack(method string, data []byte) ([]interface{}, error) {
	values, err := b.schema.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	return values, nil
}

// Call packs method, executes it through caller and unpacks the result.
func (b *Binding) Call(ctx context.Context, caller Caller, method string, args ...interface{}) ([]interface{}, error) {
	data, err := b.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	out, err := caller.CallContract(ctx, b.address, data)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	return b.Unpack(method, out)
}

// UintDecoder returns a decoder for methods with a single uint256 output.
func (b *Binding) UintDecoder(method string) func([]byte) (*big.Int, error) {
	return func(data []byte) (*big.Int, error) {
		values, err := b.Unpack(method, data)
		if err != nil {
			return nil, err
		}
		return firstBigInt(method, values)
	}
}

// CallUint is Call for methods returning a single uint256.
func (b *Binding) CallUint(ctx context.Context, caller Caller, method string, args ...interface{}) (*big.Int, error) {
	values, err := b.Call(ctx, caller, method, args...)
	if err != nil {
		return nil, err
	}
	return firstBigInt(method, values)
}

func firstBigInt(method string, values []interface{}) (*big.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("decode %s: got %d values, want 1", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("decode %s: got %T, want *big.Int", method, values[0])
	}
	return v, nil
}

var addressArgs = abi.Arguments{{Type: mustType("address")}}

// DecodeAddress decodes a payload holding one bare ABI-encoded address.
func DecodeAddress(data []byte) (common.Address, error) {
	values, err := addressArgs.Unpack(data)
	if err != nil {
		return common.Address{}, fmt.Errorf("decode address: %w", err)
	}
	addr, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("decode address: got %T", values[0])
	}
	return addr, nil
}

func mustType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return typ
}
