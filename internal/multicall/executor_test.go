package multicall_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmagro/hypers-monitor/internal/multicall"
	"github.com/dmagro/hypers-monitor/internal/multicall/multicalltest"
)

var target = common.HexToAddress("0xF8797dB8a9EeD416Ca14e8dFaEde2BF4E1aabFC3")

func requests(n int) []multicall.Request {
	reqs := make([]multicall.Request, n)
	for i := range reqs {
		reqs[i] = multicall.Request{Target: target, CallData: []byte(fmt.Sprintf("call-%03d", i))}
	}
	return reqs
}

func TestAggregatePreservesLengthAndOrder(t *testing.T) {
	for _, n := range []int{0, 1, 10, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			node := multicalltest.NewNode(multicalltest.Echo)
			node.BlockNumber = 777
			exec := multicall.NewExecutor(node, common.Address{})

			reqs := requests(n)
			_, out, err := exec.Aggregate(context.Background(), reqs)
			if err != nil {
				t.Fatalf("Aggregate() error = %v", err)
			}
			if len(out) != n {
				t.Fatalf("Aggregate() returned %d payloads, want %d", len(out), n)
			}
			for i := range reqs {
				if !bytes.Equal(out[i], reqs[i].CallData) {
					t.Errorf("payload %d = %q, want %q", i, out[i], reqs[i].CallData)
				}
			}
		})
	}
}

func TestAggregateEmptySkipsNetwork(t *testing.T) {
	node := multicalltest.NewNode(multicalltest.Echo)
	exec := multicall.NewExecutor(node, common.Address{})

	if _, _, err := exec.Aggregate(context.Background(), nil); err != nil {
		t.Fatalf("Aggregate(nil) error = %v", err)
	}
	if got := len(node.Aggregates()); got != 0 {
		t.Errorf("aggregate calls = %d, want 0", got)
	}
}

func TestAggregateReturnsBlockNumber(t *testing.T) {
	node := multicalltest.NewNode(multicalltest.Echo)
	node.BlockNumber = 123456
	exec := multicall.NewExecutor(node, common.Address{})

	block, _, err := exec.Aggregate(context.Background(), requests(2))
	if err != nil {
		t.Fatal(err)
	}
	if block != 123456 {
		t.Errorf("block = %d, want 123456", block)
	}
}

func TestAggregateFailures(t *testing.T) {
	tests := []struct {
		name      string
		transport multicall.Transport
		wantErr   error
	}{
		{
			name: "revert",
			transport: multicalltest.NewNode(func(common.Address, []byte) ([]byte, error) {
				return nil, multicalltest.ErrReverted
			}),
			wantErr: multicalltest.ErrReverted,
		},
		{
			name:      "malformed envelope",
			transport: rawTransport{out: []byte{0x01, 0x02, 0x03}},
			wantErr:   multicall.ErrMalformedEnvelope,
		},
		{
			name:      "short result list",
			transport: rawTransport{out: envelope(t, [][]byte{{0x01}})},
			wantErr:   multicall.ErrLengthMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := multicall.NewExecutor(tt.transport, common.Address{})
			_, out, err := exec.Aggregate(context.Background(), requests(3))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Aggregate() error = %v, want %v", err, tt.wantErr)
			}
			if out != nil {
				t.Errorf("Aggregate() returned %d payloads on failure, want none", len(out))
			}
		})
	}
}

type rawTransport struct {
	out []byte
}

func (r rawTransport) CallContract(context.Context, common.Address, []byte) ([]byte, error) {
	return r.out, nil
}

// envelope encodes an aggregate response carrying payloads by recording
// what a fake node answers.
func envelope(t *testing.T, payloads [][]byte) []byte {
	t.Helper()
	i := 0
	node := multicalltest.NewNode(func(common.Address, []byte) ([]byte, error) {
		p := payloads[i]
		i++
		return p, nil
	})
	var out []byte
	exec := multicall.NewExecutor(recorder{inner: node, out: &out}, common.Address{})
	if _, _, err := exec.Aggregate(context.Background(), requests(len(payloads))); err != nil {
		t.Fatal(err)
	}
	return out
}

type recorder struct {
	inner multicall.Transport
	out   *[]byte
}

func (r recorder) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	out, err := r.inner.CallContract(ctx, to, data)
	*r.out = out
	return out, err
}

func TestBatchResolvesTypedResults(t *testing.T) {
	node := multicalltest.NewNode(func(_ common.Address, callData []byte) ([]byte, error) {
		return common.LeftPadBytes(callData, 32), nil
	})
	exec := multicall.NewExecutor(node, common.Address{})

	asInt := func(data []byte) (*big.Int, error) { return new(big.Int).SetBytes(data), nil }
	asLen := func(data []byte) (int, error) { return len(data), nil }

	var b multicall.Batch
	first := multicall.Add(&b, "first", target, []byte{0x07}, asInt)
	second := multicall.Add(&b, "second", target, []byte{0x09}, asLen)

	if _, ok := first.Value(); ok {
		t.Fatalf("result resolved before execution")
	}
	if _, err := b.Execute(context.Background(), exec); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := first.MustValue(); got.Int64() != 7 {
		t.Errorf("first = %s, want 7", got)
	}
	if got := second.MustValue(); got != 32 {
		t.Errorf("second = %d, want 32", got)
	}
	if labels := b.Labels(); len(labels) != 2 || labels[1] != "second" {
		t.Errorf("Labels() = %v", labels)
	}
}

func TestBatchDecodeError(t *testing.T) {
	node := multicalltest.NewNode(multicalltest.Echo)
	exec := multicall.NewExecutor(node, common.Address{})
	bad := errors.New("bad payload")

	var b multicall.Batch
	ok := multicall.Add(&b, "ok", target, []byte{1}, func([]byte) (int, error) { return 1, nil })
	multicall.Add(&b, "broken", target, []byte{2}, func([]byte) (int, error) { return 0, bad })

	_, err := b.Execute(context.Background(), exec)
	var decErr *multicall.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("Execute() error = %v, want *DecodeError", err)
	}
	if decErr.Index != 1 || decErr.Label != "broken" || !errors.Is(err, bad) {
		t.Errorf("DecodeError = %+v", decErr)
	}
	if _, resolved := ok.Value(); !resolved {
		t.Errorf("earlier result should still be resolved")
	}
}
