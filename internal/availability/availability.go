// Package availability reads a doctor's weekly schedule from its stored
// form. A schedule maps lowercase English weekday names to a local
// open/close pair:
//
//	{"monday": {"start": "09:00", "end": "17:00"}}
//
// A missing weekday means the doctor does not work that day.
package availability

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var (
	ErrNoAvailability = errors.New("no availability configured")
	ErrMalformed      = errors.New("malformed availability")
)

type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Week lists the weekdays in calendar order, Monday first.
var Week = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Weekday) IsValid() bool {
	for _, w := range Week {
		if w == d {
			return true
		}
	}
	return false
}

// WeekdayOf returns the weekday of t in t's own location.
func WeekdayOf(t time.Time) Weekday {
	return Weekday(strings.ToLower(t.Weekday().String()))
}

// TimeOfDay is a local wall-clock time in minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay accepts exactly "HH:MM", 24-hour, 00:00 through 23:59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%q is not HH:MM", s)
	}
	h, okH := twoDigits(s[0:2])
	m, okM := twoDigits(s[3:5])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("%q is not a valid 24-hour time", s)
	}
	return TimeOfDay(h*60 + m), nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Offset is the distance of t from local midnight.
func (t TimeOfDay) Offset() time.Duration {
	return time.Duration(t) * time.Minute
}

// ClockOffset is the distance of t's wall clock from midnight in t's location,
// kept at full precision so 16:59:59.5 still sorts before 17:00.
func ClockOffset(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// Window is one day's opening hours. Start is inclusive, End exclusive.
type Window struct {
	Start TimeOfDay
	End   TimeOfDay
}

func (w Window) Contains(offset time.Duration) bool {
	return w.Start.Offset() <= offset && offset < w.End.Offset()
}

func (w Window) String() string {
	return w.Start.String() + "-" + w.End.String()
}

type wireWindow struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

func (w Window) MarshalJSON() ([]byte, error) {
	start, end := w.Start.String(), w.End.String()
	return json.Marshal(wireWindow{Start: &start, End: &end})
}

// Schedule is a doctor's week. Absent days are days off.
type Schedule map[Weekday]Window

// On returns the window for day, if the doctor works that day.
func (s Schedule) On(day Weekday) (Window, bool) {
	w, ok := s[day]
	return w, ok
}

// Days returns the configured weekdays in calendar order.
func (s Schedule) Days() []Weekday {
	out := make([]Weekday, 0, len(s))
	for _, d := range Week {
		if _, ok := s[d]; ok {
			out = append(out, d)
		}
	}
	return out
}

// Encode renders s in its stored form.
func (s Schedule) Encode() (string, error) {
	b, err := json.Marshal(map[Weekday]Window(s))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Load turns a stored availability value into a Schedule. A nil, empty or
// JSON null value means nothing was configured. Any defective weekday entry
// rejects the whole schedule.
func Load(raw *string) (Schedule, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, ErrNoAvailability
	}
	return Parse([]byte(*raw))
}

// Parse decodes and validates a schedule document.
func Parse(data []byte) (Schedule, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, ErrNoAvailability
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var entries map[string]*wireWindow
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after schedule", ErrMalformed)
	}

	sched := make(Schedule, len(entries))
	for key, e := range entries {
		day := Weekday(key)
		if !day.IsValid() {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrMalformed, key)
		}
		w, err := parseWindow(e)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, day, err)
		}
		sched[day] = w
	}
	return sched, nil
}

func parseWindow(e *wireWindow) (Window, error) {
	if e == nil {
		return Window{}, errors.New("entry is null")
	}
	if e.Start == nil || e.End == nil {
		return Window{}, errors.New("start and end are required")
	}
	start, err := ParseTimeOfDay(*e.Start)
	if err != nil {
		return Window{}, fmt.Errorf("start: %w", err)
	}
	end, err := ParseTimeOfDay(*e.End)
	if err != nil {
		return Window{}, fmt.Errorf("end: %w", err)
	}
	if start >= end {
		return Window{}, fmt.Errorf("start %s is not before end %s", start, end)
	}
	return Window{Start: start, End: end}, nil
}
