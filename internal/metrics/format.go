package metrics

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatTimeUntil renders a duration in hours as "Nd Nh Nm". Units that
// floor to zero are omitted and "0m" is returned when nothing remains.
// Minutes are the floored fractional part of the remaining hours.
func FormatTimeUntil(hours float64) string {
	days := math.Floor(hours / 24)
	rem := math.Mod(hours, 24)
	wholeHours := math.Floor(rem)
	minutes := math.Floor(math.Mod(rem, 1) * 60)

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%.0fd", days))
	}
	if wholeHours > 0 {
		parts = append(parts, fmt.Sprintf("%.0fh", wholeHours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%.0fm", minutes))
	}
	if len(parts) == 0 {
		return "0m"
	}
	return strings.Join(parts, " ")
}

// FormatFixed prints x with exactly digits fraction digits. Rounding is done
// on the exact binary value of x with ties away from zero, so 0.125 becomes
// "0.13" at two digits. Non-finite values print as NaN, Infinity and
// -Infinity.
func FormatFixed(x float64, digits int) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Infinity"
	case math.IsInf(x, -1):
		return "-Infinity"
	}
	return new(big.Rat).SetFloat64(x).FloatString(digits)
}

// FormatNumber groups thousands the en-US way, keeping up to three fraction digits.
func FormatNumber(x float64) string {
	return printer.Sprint(number.Decimal(x, number.MaxFractionDigits(3)))
}

// FormatPlain prints x in its shortest decimal form, without exponent.
func FormatPlain(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

func parseFixed(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
