package ratelimit

import (
	"fmt"
	"math"
	"time"
)

// HumanizeDuration форматирует остаток блокировки: "29 minutes", "45 seconds".
// Минуты округляются вверх, чтобы не обещать разблокировку раньше срока.
func HumanizeDuration(d time.Duration) string {
	if d <= 0 {
		return "0 seconds"
	}
	if d < time.Minute {
		secs := int(math.Ceil(d.Seconds()))
		return plural(secs, "second")
	}
	mins := int(math.Ceil(d.Minutes()))
	return plural(mins, "minute")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
