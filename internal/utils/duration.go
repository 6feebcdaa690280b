package utils

import (
	"fmt"
	"strings"
)

// FormatISODuration renders a second count as an ISO-8601 duration, e.g.
// 194 -> "PT3M14S". Zero and negative inputs yield "PT0S".
func FormatISODuration(seconds int) string {
	if seconds <= 0 {
		return "PT0S"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		fmt.Fprintf(&b, "%dH", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&b, "%dM", minutes)
	}
	if secs > 0 || b.Len() == 2 {
		fmt.Fprintf(&b, "%dS", secs)
	}
	return b.String()
}
