package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dmagro/hypers-monitor/internal/price"
)

func TestRunPrice(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ethereum":{"usd":3012.5}}`))
	}))
	defer ok.Close()
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer down.Close()

	t.Run("one source answers", func(t *testing.T) {
		var buf bytes.Buffer
		sources := []price.Source{
			price.NewCoinGecko(ok.URL, ok.Client(), 0),
			price.NewCryptoCompare(down.URL, down.Client(), 0),
		}
		if err := runPrice(context.Background(), &buf, sources, false, ""); err != nil {
			t.Fatalf("runPrice() error = %v", err)
		}
		if !strings.Contains(buf.String(), "$3012.50") {
			t.Errorf("output missing price:\n%s", buf.String())
		}
	})

	t.Run("no source answers", func(t *testing.T) {
		var buf bytes.Buffer
		sources := []price.Source{
			price.NewCoinGecko(down.URL, down.Client(), 0),
			price.NewCryptoCompare(down.URL, down.Client(), 0),
		}
		if err := runPrice(context.Background(), &buf, sources, false, ""); !errors.Is(err, price.ErrNoPrice) {
			t.Fatalf("runPrice() error = %v, want ErrNoPrice", err)
		}
	})
}
