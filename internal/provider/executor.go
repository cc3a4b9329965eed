// Package provider probes the configured Blast RPC endpoints and picks the
// one the dashboard should read from.
//
// Probing fans the same RPC call out across all providers, collects
// per-provider results and keeps going when some providers fail.
package provider

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dmagro/hypers-monitor/internal/config"
	"github.com/dmagro/hypers-monitor/internal/rpc"
)

// Result wraps a provider response with metadata.
type Result[T any] struct {
	ProviderName string
	Index        int
	Value        T
	Err          error
}

// Named is anything with a provider name.
type Named interface {
	Name() string
}

// ExecuteAll runs fn concurrently for each client and collects results in
// client order, not completion order. It never fails fast: every client is
// attempted and per-client errors are recorded in the corresponding Result.
func ExecuteAll[C Named, T any](ctx context.Context, clients []C, fn func(ctx context.Context, c C) (T, error)) []Result[T] {
	results := make([]Result[T], len(clients))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range clients {
		g.Go(func() error {
			val, err := fn(gctx, c)
			mu.Lock()
			results[i] = Result[T]{
				ProviderName: c.Name(),
				Index:        i,
				Value:        val,
				Err:          err,
			}
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// NewClients builds one RPC client per configured provider.
func NewClients(cfg *config.Config) []*rpc.Client {
	clients := make([]*rpc.Client, len(cfg.Providers))
	for i, p := range cfg.Providers {
		timeout := p.Timeout
		if timeout == 0 {
			timeout = cfg.Defaults.Timeout
		}
		clients[i] = rpc.NewClient(rpc.ClientConfig{
			Name:       p.Name,
			URL:        p.URL,
			Timeout:    timeout,
			MaxRetries: cfg.Defaults.MaxRetries,
		})
	}
	return clients
}
