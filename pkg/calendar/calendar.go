package calendar

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrNoPostingDays = errors.New("posting pattern has no allowed weekdays")

// Pattern is a weekly posting rule: a set of weekdays and one time of day.
type Pattern struct {
	Days     []time.Weekday
	Hour     int
	Minute   int
	Location *time.Location
}

// ParsePattern builds a Pattern from "1,3,5,6" style weekdays (0 = Sunday),
// an "HH:MM" time of day and an IANA zone name ("Local" for the host zone).
func ParsePattern(days, at, timezone string) (Pattern, error) {
	var p Pattern

	for _, raw := range strings.Split(days, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > 6 {
			return Pattern{}, fmt.Errorf("invalid posting weekday %q", raw)
		}
		p.Days = append(p.Days, time.Weekday(n))
	}

	clock, err := time.Parse("15:04", strings.TrimSpace(at))
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid posting time %q: %w", at, err)
	}
	p.Hour, p.Minute = clock.Hour(), clock.Minute()

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Pattern{}, fmt.Errorf("invalid posting timezone %q: %w", timezone, err)
	}
	p.Location = loc

	if err := p.Validate(); err != nil {
		return Pattern{}, err
	}
	return p, nil
}

func (p Pattern) Validate() error {
	if len(p.Days) == 0 {
		return ErrNoPostingDays
	}
	if p.Hour < 0 || p.Hour > 23 || p.Minute < 0 || p.Minute > 59 {
		return fmt.Errorf("invalid posting time %02d:%02d", p.Hour, p.Minute)
	}
	return nil
}

func (p Pattern) Allows(day time.Weekday) bool {
	for _, d := range p.Days {
		if d == day {
			return true
		}
	}
	return false
}

// SlotOn returns the posting instant on the calendar day of t, in the pattern's zone.
func (p Pattern) SlotOn(t time.Time) time.Time {
	t = t.In(p.location())
	return time.Date(t.Year(), t.Month(), t.Day(), p.Hour, p.Minute, 0, 0, p.location())
}

// NextSlot returns today's slot if today is allowed and the slot is still
// ahead of now, otherwise the slot on the nearest following allowed day.
func (p Pattern) NextSlot(now time.Time) (time.Time, error) {
	if err := p.Validate(); err != nil {
		return time.Time{}, err
	}

	today := p.SlotOn(now)
	if p.Allows(today.Weekday()) && now.Before(today) {
		return today, nil
	}

	for i := 1; i <= 7; i++ {
		slot := p.addDays(today, i)
		if p.Allows(slot.Weekday()) {
			return slot, nil
		}
	}

	return time.Time{}, ErrNoPostingDays
}

// SlotsWithin lists the slots on allowed days among the windowDays calendar
// days starting today, in chronological order. Today's slot is included even
// when it has already passed.
func (p Pattern) SlotsWithin(now time.Time, windowDays int) ([]time.Time, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	today := p.SlotOn(now)
	var slots []time.Time
	for i := 0; i < windowDays; i++ {
		slot := p.addDays(today, i)
		if p.Allows(slot.Weekday()) {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// addDays moves by calendar days so DST shifts keep the wall-clock time.
func (p Pattern) addDays(slot time.Time, days int) time.Time {
	return time.Date(slot.Year(), slot.Month(), slot.Day()+days, p.Hour, p.Minute, 0, 0, p.location())
}

func (p Pattern) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}
