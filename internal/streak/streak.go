// Package streak derives streak statistics from the full set of done
// days. There is no incrementally-mutated counter anywhere: every call
// folds over history, so the same input always yields the same answer
// regardless of restarts or time-zone changes in between.
package streak

import (
	"sort"

	"github.com/daybook-ai/daybook/internal/clock"
)

// Stats is the outcome of one recompute.
type Stats struct {
	CurrentStreak   int
	HighestStreak   int
	TotalDaysActive int
	// Consistency is done days over days since the first done day
	// (inclusive, up to today), as a rounded percentage in [0, 100].
	Consistency   int
	FirstDoneDate string
}

// Recompute folds over doneDates (YYYY-MM-DD, any order, duplicates
// tolerated) relative to today. It never fails: malformed dates are
// skipped and an empty input yields the zero state.
func Recompute(doneDates []string, today string) Stats {
	dates := normalize(doneDates)
	if len(dates) == 0 {
		return Stats{}
	}

	run, highest := 0, 0
	prev := ""
	for _, d := range dates {
		if prev == "" {
			run = 1
		} else if gap, err := clock.DaysBetween(prev, d); err == nil && gap == 1 {
			run++
		} else {
			run = 1
		}
		if run > highest {
			highest = run
		}
		prev = d
	}

	current := run
	last := dates[len(dates)-1]
	if gap, err := clock.DaysBetween(last, today); err != nil || gap > 1 {
		// Most recent done day is more than one day behind today: the
		// streak is broken now, though the historical maximum stands.
		current = 0
	}

	first := dates[0]
	span, err := clock.DaysBetween(first, today)
	if err != nil || span < 0 {
		span = 0
	}
	span++ // inclusive of the first done day
	consistency := (len(dates)*100 + span/2) / span
	if consistency > 100 {
		consistency = 100
	}

	return Stats{
		CurrentStreak:   current,
		HighestStreak:   highest,
		TotalDaysActive: len(dates),
		Consistency:     consistency,
		FirstDoneDate:   first,
	}
}

// MilestoneProgress reports progress toward the next streak milestone
// (multiples of base days). With base 30, a 45-day streak is 75% toward
// the 60-day milestone.
func MilestoneProgress(current, base int) (percent, milestone int) {
	if base <= 0 {
		base = 30
	}
	if current <= 0 {
		return 0, base
	}
	milestone = ((current + base - 1) / base) * base
	percent = current * 100 / milestone
	if percent > 100 {
		percent = 100
	}
	return percent, milestone
}

func normalize(dates []string) []string {
	out := make([]string, 0, len(dates))
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		if !clock.IsValid(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
