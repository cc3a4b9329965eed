package blocks

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/dmagro/hypers-monitor/internal/contract"
	"github.com/dmagro/hypers-monitor/internal/metrics"
	"github.com/dmagro/hypers-monitor/internal/multicall"
)

const (
	DefaultForwardWindow  = 10
	DefaultPageSize       = 5
	DefaultMinerBatchSize = 100
)

// Options configure a Window. Zero sizes select the defaults.
type Options struct {
	Token    *contract.Binding
	Caller   contract.Caller
	Executor *multicall.Executor
	Resolver Resolver
	Sink     Sink
	Logger   logrus.FieldLogger

	ForwardWindow  int
	PageSize       int
	MinerBatchSize int
}

type entry struct {
	state    State
	attempts int
}

// Window is an ordered, deduplicated list of block records, newest first.
// It only grows: records are never evicted or replaced.
type Window struct {
	opts Options

	mu      sync.Mutex
	records []Record
	states  map[uint64]*entry
}

func NewWindow(opts Options) *Window {
	if opts.ForwardWindow <= 0 {
		opts.ForwardWindow = DefaultForwardWindow
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MinerBatchSize <= 0 {
		opts.MinerBatchSize = DefaultMinerBatchSize
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.Resolver == nil {
		opts.Resolver = PlaceholderResolver{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Window{opts: opts, states: make(map[uint64]*entry)}
}

// LoadForward loads head and the blocks below it, up to the forward window
// size and never below block 0. Loaded or in-flight numbers are skipped and
// failed ones retried. It returns how many blocks were inserted.
func (w *Window) LoadForward(ctx context.Context, head uint64) int {
	inserted := 0
	for i := 0; i < w.opts.ForwardWindow; i++ {
		if uint64(i) > head {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if w.load(ctx, head-uint64(i)) {
			inserted++
		}
	}
	return inserted
}

// LoadBackward loads the page of blocks just older than the oldest loaded
// block. It does nothing while the window is empty.
func (w *Window) LoadBackward(ctx context.Context) int {
	oldest, ok := w.Oldest()
	if !ok {
		return 0
	}
	inserted := 0
	for i := 1; i <= w.opts.PageSize; i++ {
		if uint64(i) > oldest {
			break
		}
		if ctx.Err() != nil {
			break
		}
		if w.load(ctx, oldest-uint64(i)) {
			inserted++
		}
	}
	return inserted
}

// load fetches and inserts one block, reporting whether it was inserted.
func (w *Window) load(ctx context.Context, n uint64) bool {
	if !w.claim(n) {
		return false
	}
	log := w.opts.Logger.WithField("block", n)

	rec, err := w.fetch(ctx, n)
	if err != nil {
		attempts := w.fail(n)
		log.WithField("attempts", attempts).Warnf("error loading block: %v", err)
		return false
	}
	w.insert(rec)
	log.Debugf("loaded block with %d miners", rec.MinerCount)
	return true
}

func (w *Window) fetch(ctx context.Context, n uint64) (Record, error) {
	count, err := w.opts.Token.CallUint(ctx, w.opts.Caller, "minersPerBlockCount", new(big.Int).SetUint64(n))
	if err != nil {
		return Record{}, err
	}
	if !count.IsUint64() {
		return Record{}, fmt.Errorf("miner count %s out of range", count)
	}
	winner, miner, err := w.opts.Resolver.Resolve(ctx, n)
	if err != nil {
		return Record{}, fmt.Errorf("resolve winner: %w", err)
	}
	return Record{
		Number:     n,
		MinerCount: count.Uint64(),
		Reward:     metrics.RewardAtBlock(n),
		Winner:     winner,
		Miner:      miner,
	}, nil
}

// claim moves n to loading unless it is already loading or loaded.
func (w *Window) claim(n uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.states[n]
	if !ok {
		e = &entry{}
		w.states[n] = e
	}
	if e.state == StateLoading || e.state == StateLoaded {
		return false
	}
	e.state = StateLoading
	e.attempts++
	return true
}

func (w *Window) fail(n uint64) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	e := w.states[n]
	e.state = StateFailed
	return e.attempts
}

func (w *Window) insert(rec Record) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.states[rec.Number].state = StateLoaded
	for i, r := range w.records {
		if rec.Number > r.Number {
			w.records = append(w.records, Record{})
			copy(w.records[i+1:], w.records[i:])
			w.records[i] = rec
			w.opts.Sink.InsertBlock(i, rec)
			return
		}
	}
	w.records = append(w.records, rec)
	w.opts.Sink.AppendBlock(rec)
}

// Records returns a copy of the loaded records, newest first.
func (w *Window) Records() []Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Record, len(w.records))
	copy(out, w.records)
	return out
}

// Len returns the number of loaded records.
func (w *Window) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.records)
}

// Oldest returns the lowest loaded block number.
func (w *Window) Oldest() (uint64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.records) == 0 {
		return 0, false
	}
	return w.records[len(w.records)-1].Number, true
}

// State reports the load state of n and how many loads were attempted.
func (w *Window) State(n uint64) (State, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e, ok := w.states[n]
	if !ok {
		return StateUnknown, 0
	}
	return e.state, e.attempts
}
