// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// NotAvailable is shown in place of a value whose upstream source is null.
const NotAvailable = "N/A"

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatRate formats a percentage value with two decimals.
// e.g., 2.5 -> "2.50%", nil -> "N/A"
func FormatRate(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	return fmt.Sprintf("%.2f%%", *v)
}

// FormatSignedRate is FormatRate with an explicit sign, for deltas.
// e.g., 0.5 -> "+0.50%", -0.25 -> "-0.25%"
func FormatSignedRate(v *float64) string {
	if v == nil {
		return NotAvailable
	}
	if Round2(*v) == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%+.2f%%", *v)
}

// FormatBasisPoints formats a percentage-point change as basis points.
// e.g., 0.125 -> "12.5bp", -0.1 -> "-10bp"
func FormatBasisPoints(delta float64) string {
	bp := delta * 100
	if math.Abs(bp) < 0.05 {
		return "0bp"
	}
	return strconv.FormatFloat(math.Round(bp*10)/10, 'f', -1, 64) + "bp"
}

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m 5s", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	hours := secs / 3600
	mins := (secs % 3600) / 60
	rem := secs % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		if rem == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, rem)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatAge describes how long ago t happened.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	if d < time.Second {
		return "just now"
	}
	return FormatDuration(int64(d.Seconds())) + " ago"
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}
