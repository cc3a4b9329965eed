// Package blocks maintains the window of recently mined blocks shown by the
// dashboard and computes per-block miner breakdowns.
package blocks

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Record is one mined block as displayed. It is immutable once inserted.
type Record struct {
	Number     uint64
	MinerCount uint64
	Reward     float64 // whole tokens
	Winner     *common.Address
	Miner      *common.Address
}

// State is the load state of a block number in the window.
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolver supplies the winner and miner of a block. A nil address means
// the value is not known.
type Resolver interface {
	Resolve(ctx context.Context, number uint64) (winner, miner *common.Address, err error)
}

// PlaceholderResolver reports the zero address for every block at or below
// the cursor and nothing above it. The contract exposes no winner lookup,
// so this is what the dashboard can show.
type PlaceholderResolver struct {
	Cursor func() uint64
}

func (p PlaceholderResolver) Resolve(_ context.Context, number uint64) (*common.Address, *common.Address, error) {
	if p.Cursor == nil || number > p.Cursor() {
		return nil, nil, nil
	}
	winner, miner := common.Address{}, common.Address{}
	return &winner, &miner, nil
}

// Sink receives window insertions. index is the position of the record
// among loaded records, newest first. Sink methods run with the window
// lock held and must not call back into the Window.
type Sink interface {
	InsertBlock(index int, r Record)
	AppendBlock(r Record)
}

type nopSink struct{}

func (nopSink) InsertBlock(int, Record) {}
func (nopSink) AppendBlock(Record)      {}
