package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Recompute(nil, "2025-03-10"))
	assert.Equal(t, Stats{}, Recompute([]string{}, "2025-03-10"))
	assert.Equal(t, Stats{}, Recompute([]string{"garbage", ""}, "2025-03-10"))
}

func TestRecomputeSingleDay(t *testing.T) {
	got := Recompute([]string{"2025-03-10"}, "2025-03-10")
	assert.Equal(t, Stats{
		CurrentStreak:   1,
		HighestStreak:   1,
		TotalDaysActive: 1,
		Consistency:     100,
		FirstDoneDate:   "2025-03-10",
	}, got)
}

func TestRecomputeConsecutiveRun(t *testing.T) {
	got := Recompute([]string{"2025-03-08", "2025-03-09", "2025-03-10"}, "2025-03-10")
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 3, got.HighestStreak)
	assert.Equal(t, 3, got.TotalDaysActive)
	assert.Equal(t, 100, got.Consistency)
}

func TestRecomputeGapBreaksCurrentNotHighest(t *testing.T) {
	// five-day run, gap, then two-day run ending yesterday
	dates := []string{
		"2025-03-01", "2025-03-02", "2025-03-03", "2025-03-04", "2025-03-05",
		"2025-03-08", "2025-03-09",
	}
	got := Recompute(dates, "2025-03-10")
	assert.Equal(t, 2, got.CurrentStreak, "run ending yesterday still counts today")
	assert.Equal(t, 5, got.HighestStreak)
	assert.Equal(t, 7, got.TotalDaysActive)
	assert.Equal(t, "2025-03-01", got.FirstDoneDate)
	// 7 done of 10 days since the first
	assert.Equal(t, 70, got.Consistency)
}

func TestRecomputeStaleLastDayZeroesCurrent(t *testing.T) {
	got := Recompute([]string{"2025-03-05", "2025-03-06"}, "2025-03-10")
	assert.Equal(t, 0, got.CurrentStreak)
	assert.Equal(t, 2, got.HighestStreak)
	assert.Equal(t, 2, got.TotalDaysActive)
}

func TestRecomputeUnorderedAndDuplicates(t *testing.T) {
	got := Recompute([]string{"2025-03-10", "2025-03-08", "2025-03-09", "2025-03-09"}, "2025-03-10")
	assert.Equal(t, 3, got.CurrentStreak)
	assert.Equal(t, 3, got.TotalDaysActive)
}

func TestRecomputeIsDeterministic(t *testing.T) {
	dates := []string{"2025-03-01", "2025-03-03", "2025-03-04", "2025-03-10"}
	first := Recompute(dates, "2025-03-10")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Recompute(dates, "2025-03-10"))
	}
}

func TestHighestStreakMonotoneUnderSupersets(t *testing.T) {
	base := []string{"2025-03-03", "2025-03-04"}
	baseHighest := Recompute(base, "2025-03-10").HighestStreak

	extras := []string{"2025-03-01", "2025-03-06", "2025-03-09", "2025-03-10"}
	grown := append([]string{}, base...)
	for _, d := range extras {
		grown = append(grown, d)
		got := Recompute(grown, "2025-03-10").HighestStreak
		assert.GreaterOrEqual(t, got, baseHighest, "adding %s must never lower highest", d)
		baseHighest = got
	}
}

func TestRecomputeAcrossMonthBoundary(t *testing.T) {
	got := Recompute([]string{"2025-02-27", "2025-02-28", "2025-03-01"}, "2025-03-01")
	assert.Equal(t, 3, got.CurrentStreak)
}

func TestMilestoneProgress(t *testing.T) {
	cases := []struct {
		current, base, percent, milestone int
	}{
		{0, 30, 0, 30},
		{1, 30, 3, 30},
		{15, 30, 50, 30},
		{30, 30, 100, 30},
		{31, 30, 51, 60},
		{45, 30, 75, 60},
		{60, 30, 100, 60},
		{5, 0, 16, 30}, // zero base falls back to 30
	}
	for _, c := range cases {
		percent, milestone := MilestoneProgress(c.current, c.base)
		assert.Equal(t, c.percent, percent, "current=%d", c.current)
		assert.Equal(t, c.milestone, milestone, "current=%d", c.current)
	}
}
