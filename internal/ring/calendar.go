package ring

import "time"

// CalendarTime is a thread-safe, re-entrant breakdown of an epoch timestamp,
// replacing the original's wrapper around libc's gmtime_r/localtime_r (Go's
// time package is already re-entrant, so no locking is required here).
type CalendarTime struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
	Nanos  int
	Wday   int // 0 = Sunday
}

// UTCBreakdown breaks epochSeconds down as UTC.
func UTCBreakdown(epochSeconds int64, nanos int) CalendarTime {
	return breakdown(time.Unix(epochSeconds, int64(nanos)).UTC())
}

// LocalBreakdown breaks epochSeconds down in the local time zone.
func LocalBreakdown(epochSeconds int64, nanos int) CalendarTime {
	return breakdown(time.Unix(epochSeconds, int64(nanos)).Local())
}

func breakdown(t time.Time) CalendarTime {
	return CalendarTime{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
		Nanos:  t.Nanosecond(),
		Wday:   int(t.Weekday()),
	}
}
