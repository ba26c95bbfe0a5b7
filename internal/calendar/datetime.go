package calendar

import (
	"fmt"
	"strings"
	"time"
)

const DefaultEventDuration = time.Hour

// ParseDateTime accepts ISO-8601 timestamps with or without an offset.
// Naive timestamps are interpreted in loc, matching the assistant's
// instruction to emit local times without a timezone suffix.
func ParseDateTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty datetime")
	}
	if strings.HasSuffix(value, "Z") {
		value = strings.TrimSuffix(value, "Z") + "+00:00"
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02T15:04:05", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q: %w", value, err)
	}
	return t, nil
}

// ResolveTimes parses the start and optional end time, defaulting the end
// to one hour after the start.
func ResolveTimes(startValue, endValue string, loc *time.Location) (start, end time.Time, err error) {
	start, err = ParseDateTime(startValue, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if endValue == "" {
		return start, start.Add(DefaultEventDuration), nil
	}
	end, err = ParseDateTime(endValue, loc)
	if err != nil {
		// An unparseable end time falls back to the default duration
		// rather than failing an otherwise valid request.
		return start, start.Add(DefaultEventDuration), nil
	}
	return start, end, nil
}
