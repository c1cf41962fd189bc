package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Date formats accepted by FormatDate.
const (
	FormatDateOnly = "date"
	FormatDateTime = "datetime"
	FormatRelative = "relative"
)

// FormatDate renders t in UTC so server and client output agree. Relative
// output falls back to the plain date once t is 30 days or more before now.
// Unknown formats behave like "date".
func FormatDate(t time.Time, format string, now time.Time) string {
	t = t.UTC()
	switch format {
	case FormatDateTime:
		return t.Format("2006-01-02 15:04")
	case FormatRelative:
		return relative(t, now)
	default:
		return t.Format("2006-01-02")
	}
}

func relative(t, now time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "just now"
	case secs < 3600:
		return plural(secs/60, "minute") + " ago"
	case secs < 86400:
		return plural(secs/3600, "hour") + " ago"
	case secs < 30*86400:
		return plural(secs/86400, "day") + " ago"
	default:
		return t.Format("2006-01-02")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatNumber inserts thousands separators: 12345 -> "12,345".
func FormatNumber(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > 0 && !(neg && b.Len() == 1) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
