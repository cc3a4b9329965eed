package format

import (
	"fmt"
	"regexp"
	"time"

	"github.com/fatih/color"
)

var (
	Green  = color.New(color.FgGreen).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	Bold   = color.New(color.Bold).SprintFunc()
	Dim    = color.New(color.Faint).SprintFunc()

	// Header formats table headers.
	Header = color.New(color.FgCyan, color.Underline).SprintfFunc()
)

// Latency bands for provider probes. Blast RPCs answer well under the
// mining block time, so anything above SlowLatency is treated as a problem.
const (
	FastLatency = 100 * time.Millisecond
	SlowLatency = 300 * time.Millisecond
)

var escapeSeq = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripANSI returns the visible text of a styled string.
func StripANSI(s string) string {
	return escapeSeq.ReplaceAllString(s, "")
}

// ColorLatency renders d in milliseconds, colored by band.
func ColorLatency(d time.Duration) string {
	s := fmt.Sprintf("%dms", d.Milliseconds())
	switch {
	case d < FastLatency:
		return Green(s)
	case d < SlowLatency:
		return Yellow(s)
	}
	return Red(s)
}

// ColorLag renders how many blocks a provider trails the highest one.
func ColorLag(lag uint64) string {
	switch lag {
	case 0:
		return Dim("—")
	case 1:
		return Yellow("-1")
	}
	return Red(fmt.Sprintf("-%d", lag))
}

// ColorSuccess renders success/total as a percentage.
func ColorSuccess(success, total int) string {
	if total == 0 {
		return Dim("—")
	}
	pct := float64(success) / float64(total) * 100
	s := fmt.Sprintf("%.0f%%", pct)
	if pct >= 100 {
		return Green(s)
	}
	if pct >= 80 {
		return Yellow(s)
	}
	return Red(s)
}

// ColorStatus colors a provider probe status.
func ColorStatus(status string) string {
	switch status {
	case "UP":
		return Green(status)
	case "SLOW", "DEGRADED":
		return Yellow(status)
	}
	return Red(status)
}

// ColorPending dims a metric slot that has not been filled yet.
func ColorPending(value string) string {
	if value == Pending || value == "" {
		return Dim(Pending)
	}
	return value
}
