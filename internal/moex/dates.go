package moex

import (
	"fmt"
	"time"

	"github.com/avolkov/moex-iss-data/internal/series"
)

// timestampFormat is how ISS renders full timestamps (SYSTIME, UPDATETIME).
const timestampFormat = "2006-01-02 15:04:05"

// moscowLocation returns the exchange timezone. All ISS dates and timestamps
// are Moscow-local.
func moscowLocation() *time.Location {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// parseDay accepts a time.Time or a YYYY-MM-DD string and returns the day in
// the exchange timezone.
func (s *Session) parseDay(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d.In(s.loc), nil
	case string:
		day, err := time.ParseInLocation(series.DayFormat, d, s.loc)
		if err != nil {
			return time.Time{}, &InvalidArgumentError{
				Message: fmt.Sprintf("invalid date passed as string: %s", d),
			}
		}
		return day, nil
	default:
		return time.Time{}, &InvalidArgumentError{
			Message: "date must be a time.Time or a YYYY-MM-DD string",
		}
	}
}

// parseOptionalDay is parseDay with nil standing for "latest available".
func (s *Session) parseOptionalDay(v any) (day time.Time, ok bool, err error) {
	if v == nil {
		return time.Time{}, false, nil
	}
	day, err = s.parseDay(v)
	if err != nil {
		return time.Time{}, false, err
	}
	return day, true, nil
}

// dayFromTimestamp extracts the date part of an ISS timestamp string.
func dayFromTimestamp(ts string, loc *time.Location) (time.Time, bool) {
	if len(ts) < len(series.DayFormat) {
		return time.Time{}, false
	}
	day, err := time.ParseInLocation(series.DayFormat, ts[:len(series.DayFormat)], loc)
	if err != nil {
		return time.Time{}, false
	}
	return day, true
}
