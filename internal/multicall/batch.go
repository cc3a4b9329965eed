package multicall

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Decoder turns one raw return payload into a typed value.
type Decoder[T any] func([]byte) (T, error)

// DecodeError reports which call of a batch could not be decoded.
type DecodeError struct {
	Index int
	Label string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("multicall: decode call %d (%s): %v", e.Index, e.Label, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Batch collects calls whose results are delivered through typed handles.
// Each handle owns its decoder, so the request position and the decoding
// schema can never drift apart.
type Batch struct {
	reqs      []Request
	resolvers []resolver
}

type resolver struct {
	label   string
	resolve func([]byte) error
}

// Result is the typed handle of one call in a Batch. Value is valid only
// after the batch executed successfully.
type Result[T any] struct {
	value    T
	resolved bool
}

// Value returns the decoded value and whether the batch has resolved it.
func (r *Result[T]) Value() (T, bool) { return r.value, r.resolved }

// MustValue returns the decoded value, panicking if the batch has not run.
func (r *Result[T]) MustValue() T {
	if !r.resolved {
		panic("multicall: result read before batch execution")
	}
	return r.value
}

// Add appends a call to b and returns the handle that receives its decoded result.
func Add[T any](b *Batch, label string, target common.Address, callData []byte, decode Decoder[T]) *Result[T] {
	res := &Result[T]{}
	b.reqs = append(b.reqs, Request{Target: target, CallData: callData})
	b.resolvers = append(b.resolvers, resolver{
		label: label,
		resolve: func(data []byte) error {
			v, err := decode(data)
			if err != nil {
				return err
			}
			res.value = v
			res.resolved = true
			return nil
		},
	})
	return res
}

// Requests returns a copy of the batch's requests in submission order.
func (b *Batch) Requests() []Request {
	out := make([]Request, len(b.reqs))
	copy(out, b.reqs)
	return out
}

// Labels returns the call labels in submission order.
func (b *Batch) Labels() []string {
	out := make([]string, len(b.resolvers))
	for i, r := range b.resolvers {
		out[i] = r.label
	}
	return out
}

// Execute runs the batch through e and resolves every handle. The first
// decode failure aborts the batch with a *DecodeError.
func (b *Batch) Execute(ctx context.Context, e *Executor) (uint64, error) {
	blockNumber, payloads, err := e.Aggregate(ctx, b.reqs)
	if err != nil {
		return 0, err
	}
	for i, payload := range payloads {
		if err := b.resolvers[i].resolve(payload); err != nil {
			return 0, &DecodeError{Index: i, Label: b.resolvers[i].label, Err: err}
		}
	}
	return blockNumber, nil
}
