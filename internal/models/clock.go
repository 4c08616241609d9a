package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Clock is a schedule time in minutes since midnight. Values past 1440
// represent calls after a day rollover on an overnight run.
type Clock int

const minutesPerDay = 24 * 60

// ParseClock parses an "HH:MM" string.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || h < 0 {
		return 0, fmt.Errorf("invalid clock value %q", s)
	}
	return Clock(h*60 + m), nil
}

// MustClock is a test and fixture helper that panics on a bad value.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// String formats the clock as "HH:MM", wrapping rolled-over values back onto
// the 24-hour dial.
func (c Clock) String() string {
	m := int(c) % minutesPerDay
	if m < 0 {
		m += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// AddMinutes returns the clock shifted by the given number of minutes.
func (c Clock) AddMinutes(m int) Clock {
	return c + Clock(m)
}

// NextDay returns the clock pushed past the day boundary. Ingestion applies
// this when a later stop's raw time is numerically smaller than an earlier
// one, keeping run times monotonic.
func (c Clock) NextDay() Clock {
	return c + minutesPerDay
}
