package env

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line      string
		wantKey   string
		wantValue string
		wantOK    bool
	}{
		{"BLAST_RPC=https://rpc.blast.io", "BLAST_RPC", "https://rpc.blast.io", true},
		{`export KEY="quoted"`, "KEY", "quoted", true},
		{"  SPACED = 'single'  ", "SPACED", "single", true},
		{"WITH_EQ=a=b", "WITH_EQ", "a=b", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"NOEQUALS", "", "", false},
		{"=value", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, ok := parseLine(tt.line)
			if ok != tt.wantOK || key != tt.wantKey || value != tt.wantValue {
				t.Errorf("parseLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, key, value, ok, tt.wantKey, tt.wantValue, tt.wantOK)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# rpc\nHYPERS_TEST_ONE=1\nexport HYPERS_TEST_TWO=\"two\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HYPERS_TEST_ONE", "")
	t.Setenv("HYPERS_TEST_TWO", "")

	n, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Load() set %d vars, want 2", n)
	}
	if got := os.Getenv("HYPERS_TEST_TWO"); got != "two" {
		t.Errorf("HYPERS_TEST_TWO = %q, want %q", got, "two")
	}
}

func TestLoadMissingFile(t *testing.T) {
	n, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	if err != nil || n != 0 {
		t.Errorf("Load(missing) = (%d, %v), want (0, nil)", n, err)
	}
}
