package services

import (
	"time"

	"fintrack/internal/core"
)

// CadenceRule decides whether the gaps between occurrences fit a frequency.
type CadenceRule interface {
	Frequency() core.Frequency
	// Accepts reports whether a gap of whole days between two consecutive
	// occurrences fits the cadence.
	Accepts(gapDays int) bool
}

// MonthlyCadence accepts gaps of 25 to 35 days, inclusive.
type MonthlyCadence struct{}

func (MonthlyCadence) Frequency() core.Frequency { return core.Monthly }

func (MonthlyCadence) Accepts(gapDays int) bool {
	return gapDays >= 25 && gapDays <= 35
}

// wholeDays truncates the elapsed time to full days, like a date difference
// that ignores the leftover hours.
func wholeDays(from, to time.Time) int {
	return int(to.Sub(from) / (24 * time.Hour))
}

// fitsCadence requires every consecutive gap in a sorted series to pass.
func fitsCadence(rule CadenceRule, sorted []core.Transaction) bool {
	for i := 1; i < len(sorted); i++ {
		if !rule.Accepts(wholeDays(sorted[i-1].OccurredAt, sorted[i].OccurredAt)) {
			return false
		}
	}
	return true
}
