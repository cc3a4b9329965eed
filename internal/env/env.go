// Package env loads KEY=VALUE pairs from a .env file into the process
// environment, so RPC URLs with API keys can stay out of the YAML config.
package env

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Load reads path (".env" when empty) and sets every variable it defines.
// Values from the file override the existing environment. A missing file is
// not an error; the number of variables set is returned.
//
// Accepted lines:
//
//	KEY=VALUE
//	export KEY="VALUE"
//	# comment
func Load(path string) (int, error) {
	if path == "" {
		path = ".env"
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		key, value, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return n, fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		n++
	}
	if err := scanner.Err(); err != nil {
		return n, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return n, nil
}

func parseLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	line = strings.TrimPrefix(line, "export ")

	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return "", "", false
	}
	value = strings.Trim(strings.TrimSpace(value), `"'`)
	return key, value, true
}
