package pkg

import (
	"math"
	"strings"
)

// CalculateGrowth is the week-over-week change in percent.
func CalculateGrowth(current, previous int) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	delta := float64(current - previous)
	return int(math.Round(delta / float64(previous) * 100))
}

// Percent is round(100*part/whole), 0 when whole is 0.
func Percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// CleanStrings trims every entry and drops the empty ones.
func CleanStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
