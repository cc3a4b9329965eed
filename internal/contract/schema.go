package contract

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/sync/errgroup"
)

var (
	//go:embed abi/v3.json
	embeddedTokenABI []byte

	//go:embed abi/gas.json
	embeddedGasABI []byte
)

// Schemas holds the two ABI documents the dashboard needs.
type Schemas struct {
	Token abi.ABI
	Gas   abi.ABI
}

// LoadSchemas loads the token and gas schemas concurrently. Each source is a
// file path, an http(s) URL, or empty for the embedded document.
func LoadSchemas(ctx context.Context, client *http.Client, tokenSource, gasSource string) (*Schemas, error) {
	var s Schemas

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		schema, err := loadABI(gctx, client, tokenSource, embeddedTokenABI)
		if err != nil {
			return fmt.Errorf("token abi: %w", err)
		}
		s.Token = schema
		return nil
	})
	g.Go(func() error {
		schema, err := loadABI(gctx, client, gasSource, embeddedGasABI)
		if err != nil {
			return fmt.Errorf("gas abi: %w", err)
		}
		s.Gas = schema
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &s, nil
}

func loadABI(ctx context.Context, client *http.Client, source string, embedded []byte) (abi.ABI, error) {
	var data []byte
	switch {
	case source == "":
		data = embedded
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		fetched, err := fetchDocument(ctx, client, source)
		if err != nil {
			return abi.ABI{}, err
		}
		data = fetched
	default:
		read, err := os.ReadFile(source)
		if err != nil {
			return abi.ABI{}, err
		}
		data = read
	}

	schema, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("parse %s: %w", describe(source), err)
	}
	return schema, nil
}

func fetchDocument(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: HTTP %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func describe(source string) string {
	if source == "" {
		return "embedded document"
	}
	return source
}
