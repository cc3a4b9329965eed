// Package dashboard runs the polling loop of the HYPERS dashboard. A
// Controller owns all live state (chain cursor, block window, ETH price)
// and pushes rendered values to a Sink.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/dmagro/hypers-monitor/internal/blocks"
	"github.com/dmagro/hypers-monitor/internal/format"
	"github.com/dmagro/hypers-monitor/internal/metrics"
	"github.com/dmagro/hypers-monitor/internal/multicall"
	"github.com/dmagro/hypers-monitor/internal/snapshot"
)

// ErrInitialPrice means no ETH price could be obtained at start-up.
var ErrInitialPrice = errors.New("dashboard: initial price fetch failed")

// Sink displays dashboard output.
type Sink interface {
	blocks.Sink
	SetMetric(slot Slot, value string)
	ShowMiners(number, total uint64, tally []blocks.MinerCount)
}

// PriceSource returns the current ETH/USD rate. *price.Oracle satisfies it.
type PriceSource interface {
	Fetch(ctx context.Context) (float64, bool)
}

// BalanceReader returns the native balance of an address in wei.
type BalanceReader interface {
	BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error)
}

// Options wire a Controller to its collaborators.
type Options struct {
	Builder  *snapshot.Builder
	Executor *multicall.Executor
	Balances BalanceReader
	Price    PriceSource
	Sink     Sink
	Logger   logrus.FieldLogger

	// Window configures the block window. Its Sink, Resolver and Logger are
	// filled in by the Controller when left empty.
	Window blocks.Options

	PollInterval  time.Duration
	PriceInterval time.Duration

	Now func() time.Time
}

// Cycle is the outcome of the last successful polling cycle.
type Cycle struct {
	At       time.Time
	Snapshot *snapshot.Snapshot
	Derived  metrics.Derived
	Balance  *big.Int
}

// Controller schedules metric cycles and price refreshes.
type Controller struct {
	opts   Options
	log    logrus.FieldLogger
	window *blocks.Window

	cursor  atomic.Uint64
	paging  atomic.Bool
	cycleMu sync.Mutex

	mu    sync.RWMutex
	price float64
	last  *Cycle

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}
	if opts.PriceInterval <= 0 {
		opts.PriceInterval = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Controller{opts: opts, log: opts.Logger}

	wopts := opts.Window
	if wopts.Sink == nil {
		wopts.Sink = opts.Sink
	}
	if wopts.Resolver == nil {
		wopts.Resolver = blocks.PlaceholderResolver{Cursor: c.Cursor}
	}
	if wopts.Logger == nil {
		wopts.Logger = opts.Logger
	}
	if wopts.Executor == nil {
		wopts.Executor = opts.Executor
	}
	c.window = blocks.NewWindow(wopts)
	return c
}

// Start fetches the initial price, runs the first cycle and launches the
// poll and price loops. It fails only when no initial price is available.
func (c *Controller) Start(ctx context.Context) error {
	if _, ok := c.RefreshPrice(ctx); !ok {
		return ErrInitialPrice
	}
	c.reset()
	_ = c.RunCycle(ctx)

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(2)
	go c.loop(ctx, c.opts.PollInterval, func(ctx context.Context) { _ = c.RunCycle(ctx) })
	go c.loop(ctx, c.opts.PriceInterval, func(ctx context.Context) { c.RefreshPrice(ctx) })
	return nil
}

// Stop cancels both loops and waits for them to exit.
func (c *Controller) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

// loop runs fn on every tick. A tick that fires while fn is running is
// collapsed into one, so runs never overlap or queue up.
func (c *Controller) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// RunCycle performs one metrics cycle: the ten-read batch, the contract
// balance, derived metrics, display update, and forward block loading.
// On failure every metric slot is reset and no block is loaded.
func (c *Controller) RunCycle(ctx context.Context) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	cursor := c.Cursor()
	snap, balance, err := c.fetch(ctx, cursor)
	if err != nil {
		c.log.WithField("cursor", cursor).Errorf("error updating metrics: %v", err)
		c.reset()
		return err
	}

	price := c.Price()
	derived := metrics.Derive(snap, balance, price)
	now := c.opts.Now()
	for _, m := range Render(snap, derived, cursor, now) {
		c.opts.Sink.SetMetric(m.Slot, m.Value)
	}

	c.mu.Lock()
	c.last = &Cycle{At: now, Snapshot: snap, Derived: derived, Balance: balance}
	c.mu.Unlock()

	head := snap.BlockNumber.Uint64()
	c.cursor.Store(head)
	loaded := c.window.LoadForward(ctx, head)

	c.log.WithFields(logrus.Fields{
		"block":  head,
		"price":  price,
		"tvl":    derived.TVLEth,
		"loaded": loaded,
	}).Debug("metrics cycle complete")
	return nil
}

func (c *Controller) fetch(ctx context.Context, cursor uint64) (*snapshot.Snapshot, *big.Int, error) {
	snap, err := c.opts.Builder.Fetch(ctx, c.opts.Executor, cursor)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics batch: %w", err)
	}
	balance, err := c.opts.Balances.BalanceAt(ctx, c.opts.Builder.Token())
	if err != nil {
		return nil, nil, fmt.Errorf("contract balance: %w", err)
	}
	return snap, balance, nil
}

func (c *Controller) reset() {
	for _, s := range Slots {
		c.opts.Sink.SetMetric(s, format.Pending)
	}
}

// RefreshPrice fetches a new price. A failed refresh keeps the last price.
func (c *Controller) RefreshPrice(ctx context.Context) (float64, bool) {
	p, ok := c.opts.Price.Fetch(ctx)
	if !ok {
		return c.Price(), false
	}
	c.mu.Lock()
	c.price = p
	c.mu.Unlock()
	return p, true
}

// OnScroll loads older blocks when the viewport nears the end of the list.
func (c *Controller) OnScroll(ctx context.Context, scrollLeft, scrollWidth, clientWidth float64) int {
	if !NearEdge(scrollLeft, scrollWidth, clientWidth) {
		return 0
	}
	return c.LoadOlder(ctx)
}

// LoadOlder pages in the blocks below the oldest loaded one. Calls made
// while a page is loading return immediately.
func (c *Controller) LoadOlder(ctx context.Context) int {
	if !c.paging.CompareAndSwap(false, true) {
		return 0
	}
	defer c.paging.Store(false)
	return c.window.LoadBackward(ctx)
}

// ShowMiners computes the miner tally of a block and hands it to the sink.
// A failed tally is shown as empty.
func (c *Controller) ShowMiners(ctx context.Context, number, total uint64) []blocks.MinerCount {
	tally, err := c.window.MinerDetail(ctx, number, total)
	if err != nil {
		c.log.WithField("block", number).Errorf("error fetching miners: %v", err)
		tally = []blocks.MinerCount{}
	}
	c.opts.Sink.ShowMiners(number, total, tally)
	return tally
}

// Cursor returns the chain height observed by the last successful cycle.
func (c *Controller) Cursor() uint64 { return c.cursor.Load() }

// Price returns the last fetched ETH/USD price.
func (c *Controller) Price() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.price
}

// Last returns the last successful cycle, or nil before the first one.
func (c *Controller) Last() *Cycle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Window exposes the block window.
func (c *Controller) Window() *blocks.Window { return c.window }
