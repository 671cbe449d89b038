package scheduler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	cronlib "github.com/robfig/cron/v3"
)

// Tolerance is how far from a configured time a wake-up may land and still
// fire.
const Tolerance = 300 * time.Second

// DefaultTimes are used when no schedule is configured.
var DefaultTimes = []TimeOfDay{{7, 30}, {19, 0}}

// DefaultTimezone is the IANA zone the schedule is read in.
const DefaultTimezone = "Asia/Ho_Chi_Minh"

// TimeOfDay is a wall-clock HH:MM.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) seconds() int {
	return t.Hour*3600 + t.Minute*60
}

// ParseTime parses "HH:MM" (a single-digit hour is accepted).
func ParseTime(s string) (TimeOfDay, error) {
	p, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: p.Hour(), Minute: p.Minute()}, nil
}

// ParseTimes parses a comma-separated list. Invalid entries are returned
// separately so the caller can decide whether they are fatal. The result
// is sorted and de-duplicated.
func ParseTimes(s string) (times []TimeOfDay, invalid []string) {
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseTime(part)
		if err != nil {
			invalid = append(invalid, strings.TrimSpace(part))
			continue
		}
		times = append(times, t)
	}
	return Normalize(times), invalid
}

// Normalize returns a sorted copy of times without duplicates.
func Normalize(times []TimeOfDay) []TimeOfDay {
	out := make([]TimeOfDay, len(times))
	copy(out, times)
	sort.Slice(out, func(i, j int) bool { return out[i].seconds() < out[j].seconds() })
	uniq := out[:0]
	for i, t := range out {
		if i > 0 && t == out[i-1] {
			continue
		}
		uniq = append(uniq, t)
	}
	return uniq
}

// FormatTimes renders times as "HH:MM,HH:MM".
func FormatTimes(times []TimeOfDay) string {
	parts := make([]string, len(times))
	for i, t := range times {
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// cronParser accepts the standard 5-field form. Each TimeOfDay becomes
// "M H * * *".
var cronParser = cronlib.NewParser(cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow)

// Spec renders t as a daily cron expression.
func (t TimeOfDay) Spec() string {
	return fmt.Sprintf("%d %d * * *", t.Minute, t.Hour)
}

// Compile turns times into one cron schedule each, evaluated in loc.
func Compile(times []TimeOfDay, loc *time.Location) ([]cronlib.Schedule, error) {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]cronlib.Schedule, 0, len(times))
	for _, t := range times {
		sched, err := cronParser.Parse(t.Spec())
		if err != nil {
			return nil, fmt.Errorf("schedule %s: %w", t, err)
		}
		if spec, ok := sched.(*cronlib.SpecSchedule); ok {
			spec.Location = loc
		}
		out = append(out, sched)
	}
	return out, nil
}

// nextOf returns the earliest activation strictly after now across
// schedules, in now's location. It is zero when schedules is empty.
func nextOf(schedules []cronlib.Schedule, now time.Time) time.Time {
	var next time.Time
	for _, sched := range schedules {
		n := sched.Next(now)
		if n.IsZero() {
			continue
		}
		if next.IsZero() || n.Before(next) {
			next = n
		}
	}
	return next
}

// NextFireTime returns the earliest configured time in loc strictly after
// now. The result is in loc and is zero when times is empty.
func NextFireTime(now time.Time, times []TimeOfDay, loc *time.Location) time.Time {
	schedules, err := Compile(times, loc)
	if err != nil {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return nextOf(schedules, now.In(loc))
}

// WithinTolerance reports whether t is at most tol away from any configured
// time on the previous, same or next day in t's location.
func WithinTolerance(t time.Time, times []TimeOfDay, tol time.Duration) bool {
	y, m, d := t.Date()
	loc := t.Location()
	for _, s := range times {
		for _, day := range []int{d - 1, d, d + 1} {
			diff := t.Sub(time.Date(y, m, day, s.Hour, s.Minute, 0, 0, loc))
			if diff < 0 {
				diff = -diff
			}
			if diff <= tol {
				return true
			}
		}
	}
	return false
}
