package series

import (
	"sort"
	"time"
)

// DayFormat is the key format for series entries, in the exchange timezone.
const DayFormat = "2006-01-02"

// Point is one dated entry returned from a range query.
type Point[T any] struct {
	Date  time.Time
	Value *T
}

// Series is a date-indexed accumulator. The zero value is not usable; use New.
type Series[T any] struct {
	loc  *time.Location
	days map[string]*T // nil value = known-empty
	keys []string      // sorted ascending
}

// New creates an empty series whose dates are interpreted in loc.
func New[T any](loc *time.Location) *Series[T] {
	return &Series[T]{
		loc:  loc,
		days: make(map[string]*T),
	}
}

func (s *Series[T]) dayKey(day time.Time) string {
	return day.In(s.loc).Format(DayFormat)
}

func (s *Series[T]) insertKey(key string) {
	if _, ok := s.days[key]; ok {
		return
	}
	i := sort.SearchStrings(s.keys, key)
	s.keys = append(s.keys, "")
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = key
}

// Put stores a value for the given day, overriding any previous entry.
func (s *Series[T]) Put(day time.Time, v *T) {
	key := s.dayKey(day)
	s.insertKey(key)
	s.days[key] = v
}

// MarkEmpty records that the given day was fetched and holds no data. A day
// that already holds a value keeps it.
func (s *Series[T]) MarkEmpty(day time.Time) {
	key := s.dayKey(day)
	if _, ok := s.days[key]; ok {
		return
	}
	s.insertKey(key)
	s.days[key] = nil
}

// MarkEmptyRange marks every day in [from, to) that has no entry yet as
// known-empty.
func (s *Series[T]) MarkEmptyRange(from, to time.Time) {
	for d := from.In(s.loc); d.Before(to.In(s.loc)); d = d.AddDate(0, 0, 1) {
		s.MarkEmpty(d)
	}
}

// Known reports whether the day has been fetched, empty or not.
func (s *Series[T]) Known(day time.Time) bool {
	_, ok := s.days[s.dayKey(day)]
	return ok
}

// Get returns the entry for the day. known is false if the day was never
// fetched; a known day with a nil value had no data.
func (s *Series[T]) Get(day time.Time) (v *T, known bool) {
	v, known = s.days[s.dayKey(day)]
	return v, known
}

// Latest returns the most recent non-empty entry, skipping known-empty days.
func (s *Series[T]) Latest() (time.Time, *T, bool) {
	for i := len(s.keys) - 1; i >= 0; i-- {
		if v := s.days[s.keys[i]]; v != nil {
			day, _ := time.ParseInLocation(DayFormat, s.keys[i], s.loc)
			return day, v, true
		}
	}
	return time.Time{}, nil, false
}

// Covers reports whether every calendar day in [from, to] is known, so a
// query over that range needs no fetch.
func (s *Series[T]) Covers(from, to time.Time) bool {
	for d := from.In(s.loc); !d.After(to.In(s.loc)); d = d.AddDate(0, 0, 1) {
		if !s.Known(d) {
			return false
		}
	}
	return true
}

// Between returns the non-empty entries in [from, to], ascending by date.
func (s *Series[T]) Between(from, to time.Time) []Point[T] {
	fromKey := s.dayKey(from)
	toKey := s.dayKey(to)

	var out []Point[T]
	for _, key := range s.keys {
		if key < fromKey || key > toKey {
			continue
		}
		if v := s.days[key]; v != nil {
			day, _ := time.ParseInLocation(DayFormat, key, s.loc)
			out = append(out, Point[T]{Date: day, Value: v})
		}
	}
	return out
}

// Len reports the number of known days, including known-empty ones.
func (s *Series[T]) Len() int {
	return len(s.days)
}
