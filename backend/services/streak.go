package services

import "time"

// DateLayout is the calendar-date format used for streak bookkeeping.
// Streak decisions compare calendar dates in the configured app timezone,
// never wall-clock deltas: an attempt at 23:59 followed by one at 00:01
// continues the streak, and a 47-hour gap that skips a day breaks it.
const DateLayout = "2006-01-02"

// AdvanceStreak applies the daily streak transition for one qualifying
// activity on the given day. Acting twice on the same day is a no-op, a
// gap of two or more days (or no prior activity) resets to 1.
func AdvanceStreak(current, longest int, lastDate, today string) (int, int) {
	switch lastDate {
	case today:
		// Already counted for today.
	case yesterdayOf(today):
		current++
	default:
		current = 1
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

func yesterdayOf(today string) string {
	t, err := time.Parse(DateLayout, today)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}
