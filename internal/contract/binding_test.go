package contract

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var tokenAddr = common.HexToAddress("0xF8797dB8a9EeD416Ca14e8dFaEde2BF4E1aabFC3")

func loadEmbedded(t *testing.T) *Schemas {
	t.Helper()
	s, err := LoadSchemas(context.Background(), nil, "", "")
	if err != nil {
		t.Fatalf("LoadSchemas() error = %v", err)
	}
	return s
}

func TestEmbeddedSchemasHaveDashboardMethods(t *testing.T) {
	s := loadEmbedded(t)
	for _, m := range []string{
		"blockNumber", "totalSupply", "miningReward", "lastBlockTime", "halvingInterval",
		"lastHalvingBlock", "tokenValue", "maxSupply", "minersPerBlockCount", "minersPerBlock",
	} {
		if _, ok := s.Token.Methods[m]; !ok {
			t.Errorf("token abi missing %s", m)
		}
	}
	if _, ok := s.Gas.Methods["readGasParams"]; !ok {
		t.Errorf("gas abi missing readGasParams")
	}
}

func TestLoadSchemasFromFileAndURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "v3.json")
	if err := os.WriteFile(path, embeddedTokenABI, 0o600); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(embeddedGasABI)
	}))
	defer srv.Close()

	s, err := LoadSchemas(context.Background(), srv.Client(), path, srv.URL+"/abi/gas.json")
	if err != nil {
		t.Fatalf("LoadSchemas() error = %v", err)
	}
	if _, ok := s.Gas.Methods["readGasParams"]; !ok {
		t.Errorf("gas abi from URL missing readGasParams")
	}
}

func TestLoadSchemasFailure(t *testing.T) {
	tests := []struct {
		name  string
		token string
		gas   string
	}{
		{"missing file", filepath.Join(t.TempDir(), "absent.json"), ""},
		{"malformed", writeTemp(t, "{not json"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadSchemas(context.Background(), nil, tt.token, tt.gas); err == nil {
				t.Errorf("LoadSchemas() = nil error, want failure")
			}
		})
	}
}

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

type fakeCaller struct {
	to   common.Address
	data []byte
	out  []byte
}

func (f *fakeCaller) CallContract(_ context.Context, to common.Address, data []byte) ([]byte, error) {
	f.to, f.data = to, data
	return f.out, nil
}

func TestCallUint(t *testing.T) {
	s := loadEmbedded(t)
	b := NewBinding(tokenAddr, s.Token)

	out, err := s.Token.Methods["minersPerBlockCount"].Outputs.Pack(big.NewInt(42))
	if err != nil {
		t.Fatal(err)
	}
	caller := &fakeCaller{out: out}

	got, err := b.CallUint(context.Background(), caller, "minersPerBlockCount", big.NewInt(7))
	if err != nil {
		t.Fatalf("CallUint() error = %v", err)
	}
	if got.Int64() != 42 {
		t.Errorf("CallUint() = %s, want 42", got)
	}
	if caller.to != tokenAddr {
		t.Errorf("called %s, want %s", caller.to.Hex(), tokenAddr.Hex())
	}
	want, _ := b.Pack("minersPerBlockCount", big.NewInt(7))
	if string(caller.data) != string(want) {
		t.Errorf("calldata = %x, want %x", caller.data, want)
	}
}

func TestUintDecoderRejectsShortPayload(t *testing.T) {
	b := NewBinding(tokenAddr, loadEmbedded(t).Token)
	if _, err := b.UintDecoder("totalSupply")([]byte{0x01}); err == nil {
		t.Errorf("UintDecoder() on 1-byte payload = nil error")
	}
}

func TestDecodeAddress(t *testing.T) {
	want := common.HexToAddress("0xb82619C0336985e3EDe16B97b950E674018925Bb")
	payload := common.LeftPadBytes(want.Bytes(), 32)

	got, err := DecodeAddress(payload)
	if err != nil {
		t.Fatalf("DecodeAddress() error = %v", err)
	}
	if got != want {
		t.Errorf("DecodeAddress() = %s, want %s", got.Hex(), want.Hex())
	}

	if _, err := DecodeAddress(nil); err == nil {
		t.Errorf("DecodeAddress(nil) = nil error")
	}
}
