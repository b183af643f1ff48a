package util

import (
	"fmt"
	"time"
)

// FormatTimeRemaining renders a countdown the way auction clients display
// it: coarse units while far out, seconds near the close.
func FormatTimeRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}

	days := int(remaining.Hours()) / 24
	hours := int(remaining.Hours()) % 24
	minutes := int(remaining.Minutes()) % 60
	seconds := int(remaining.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
