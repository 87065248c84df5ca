// Package scheduler executes named background jobs on civil-calendar
// triggers: one polling loop per process, misfire tolerance, at most one
// in-flight execution per job, and cooperative shutdown.
package scheduler

import (
	"fmt"
	"time"
)

// Trigger computes the fire instants of a job. Implementations are the two
// schedule shapes the association runs: a daily wall-clock time and a
// day-of-month wall-clock time. All arithmetic happens in the location of the
// instant passed in, which the Scheduler keeps pinned to the association's
// configured zone.
type Trigger interface {
	// Next returns the first fire instant strictly after t, in t's location.
	Next(t time.Time) time.Time

	// String describes the schedule for logs and status output.
	String() string
}

// Daily fires once per day at the given local wall-clock time.
type Daily struct {
	Hour   int
	Minute int
}

// Next implements Trigger.Next. time.Date normalizes wall-clock times that a
// DST transition removed, so a 02:30 trigger on a spring-forward day fires at
// the normalized instant rather than being lost.
func (d Daily) Next(t time.Time) time.Time {
	next := time.Date(t.Year(), t.Month(), t.Day(), d.Hour, d.Minute, 0, 0, t.Location())
	if !next.After(t) {
		next = time.Date(t.Year(), t.Month(), t.Day()+1, d.Hour, d.Minute, 0, 0, t.Location())
	}
	return next
}

func (d Daily) String() string {
	return fmt.Sprintf("daily %02d:%02d", d.Hour, d.Minute)
}

// MonthlyOnDay fires once per month on the given day at the given local
// wall-clock time. Days beyond the end of a month clamp to its last day, so
// Day 31 fires on Feb 28.
type MonthlyOnDay struct {
	Day    int
	Hour   int
	Minute int
}

// Next implements Trigger.Next.
func (m MonthlyOnDay) Next(t time.Time) time.Time {
	year, month := t.Year(), t.Month()
	// At most 13 candidates: the current month and the following year.
	for i := 0; i < 13; i++ {
		day := m.Day
		if last := daysIn(year, month); day > last {
			day = last
		}
		next := time.Date(year, month, day, m.Hour, m.Minute, 0, 0, t.Location())
		if next.After(t) {
			return next
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
	return time.Time{}
}

func (m MonthlyOnDay) String() string {
	return fmt.Sprintf("monthly day %d %02d:%02d", m.Day, m.Hour, m.Minute)
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
