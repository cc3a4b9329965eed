// Package price fetches the ETH/USD rate from public price feeds, falling
// back to a secondary feed when the primary fails.
package price

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

var (
	// ErrNoPrice means no source produced a usable price.
	ErrNoPrice = errors.New("price: no source returned a price")
	// ErrRateLimited means the local request budget of a source is exhausted.
	ErrRateLimited = errors.New("price: source rate limited")
	// ErrInvalidResponse means the feed answered without a positive price.
	ErrInvalidResponse = errors.New("price: invalid response")
)

// Source returns the current ETH/USD price.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (float64, error)
}

// HTTPSource is a JSON price feed reached over HTTP.
type HTTPSource struct {
	name    string
	url     string
	client  *http.Client
	limiter *rate.Limiter
	extract func(body []byte) (float64, error)
}

// NewCoinGecko reads the simple/price endpoint: {"ethereum":{"usd":N}}.
// minInterval spaces requests to the feed; zero disables local limiting.
func NewCoinGecko(url string, client *http.Client, minInterval time.Duration) *HTTPSource {
	return newHTTPSource("coingecko", url, client, minInterval, func(body []byte) (float64, error) {
		var resp struct {
			Ethereum struct {
				USD float64 `json:"usd"`
			} `json:"ethereum"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, err
		}
		return resp.Ethereum.USD, nil
	})
}

// NewCryptoCompare reads the data/price endpoint: {"USD":N}.
func NewCryptoCompare(url string, client *http.Client, minInterval time.Duration) *HTTPSource {
	return newHTTPSource("cryptocompare", url, client, minInterval, func(body []byte) (float64, error) {
		var resp struct {
			USD float64 `json:"USD"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return 0, err
		}
		return resp.USD, nil
	})
}

func newHTTPSource(name, url string, client *http.Client, minInterval time.Duration, extract func([]byte) (float64, error)) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}
	return &HTTPSource{
		name:    name,
		url:     url,
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		extract: extract,
	}
}

func (s *HTTPSource) Name() string { return s.name }

// Fetch performs one request. It fails fast with ErrRateLimited instead of
// waiting for the limiter, so the caller can move on to the next source.
func (s *HTTPSource) Fetch(ctx context.Context) (float64, error) {
	if !s.limiter.Allow() {
		return 0, fmt.Errorf("%s: %w", s.name, ErrRateLimited)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: create request: %w", s.name, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: request failed: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s: HTTP %d", s.name, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("%s: read response: %w", s.name, err)
	}

	price, err := s.extract(body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", s.name, ErrInvalidResponse, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("%s: %w: missing usd price", s.name, ErrInvalidResponse)
	}
	return price, nil
}
