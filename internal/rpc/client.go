// Package rpc is a small JSON-RPC client for the handful of read-only
// Ethereum methods the dashboard needs: eth_call, eth_getBalance and
// eth_blockNumber.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	Name       string
	URL        string
	Timeout    time.Duration
	MaxRetries int
}

type Client struct {
	name       string
	url        string
	httpClient *http.Client
	maxRetries int
	nextID     atomic.Int64
}

func NewClient(cfg ClientConfig) *Client {
	return &Client{
		name:       cfg.Name,
		url:        cfg.URL,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (c *Client) Name() string { return c.name }

// Call executes a JSON-RPC request with exponential backoff retry on
// transport failures. Errors reported by the node itself are returned
// without retrying.
func (c *Client) Call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, time.Duration, error) {
	if params == nil {
		params = []interface{}{}
	}

	req := Request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      int(c.nextID.Add(1)),
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		start := time.Now()
		result, err := c.doRequest(ctx, body)
		latency := time.Since(start)

		if err == nil {
			return result, latency, nil
		}

		var rpcErr *Error
		if errors.As(err, &rpcErr) {
			return nil, latency, err
		}
		lastErr = err

		// Exponential backoff: 100ms, 200ms, 400ms...
		if attempt < c.maxRetries {
			backoff := time.Duration(1<<attempt) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	return nil, 0, fmt.Errorf("%s failed after %d attempts: %w", method, c.maxRetries+1, lastErr)
}

func (c *Client) doRequest(ctx context.Context, body []byte) (json.RawMessage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", httpResp.StatusCode)
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if resp.Error != nil {
		return nil, resp.Error
	}
	return resp.Result, nil
}

// BlockNumber fetches the current chain height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, time.Duration, error) {
	result, latency, err := c.Call(ctx, "eth_blockNumber")
	if err != nil {
		return 0, latency, err
	}

	var num hexutil.Uint64
	if err := json.Unmarshal(result, &num); err != nil {
		return 0, latency, fmt.Errorf("failed to parse block number: %w", err)
	}
	return uint64(num), latency, nil
}

// CallContract executes eth_call against the latest block and returns the
// raw return data.
func (c *Client) CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	args := callArgs{To: to.Hex(), Data: hexutil.Encode(data)}
	result, _, err := c.Call(ctx, "eth_call", args, "latest")
	if err != nil {
		return nil, fmt.Errorf("eth_call %s: %w", to.Hex(), err)
	}

	var out hexutil.Bytes
	if err := json.Unmarshal(result, &out); err != nil {
		return nil, fmt.Errorf("eth_call %s: invalid result: %w", to.Hex(), err)
	}
	return out, nil
}

// BalanceAt returns the native balance of addr in wei at the latest block.
func (c *Client) BalanceAt(ctx context.Context, addr common.Address) (*big.Int, error) {
	result, _, err := c.Call(ctx, "eth_getBalance", addr.Hex(), "latest")
	if err != nil {
		return nil, fmt.Errorf("eth_getBalance %s: %w", addr.Hex(), err)
	}

	var balance hexutil.Big
	if err := json.Unmarshal(result, &balance); err != nil {
		return nil, fmt.Errorf("eth_getBalance %s: invalid result: %w", addr.Hex(), err)
	}
	return balance.ToInt(), nil
}
