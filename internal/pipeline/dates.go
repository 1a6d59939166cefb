package pipeline

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
	reDigitRun       = regexp.MustCompile(`\d+`)

	errInvalidDate = errors.New("invalid date")
)

const isoDate = "2006-01-02"

// CoerceDate turns a due-date cell into a YYYY-MM-DD calendar date. Native
// dates are used as-is, numbers are spreadsheet serials and strings go
// through the day/month/year heuristic before falling back to liberal
// parsing.
func CoerceDate(c Cell) (string, error) {
	t, err := coerceTime(c)
	if err != nil {
		return "", err
	}
	t = t.UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return "", errInvalidDate
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.Format(isoDate), nil
}

func coerceTime(c Cell) (time.Time, error) {
	switch c.Kind {
	case CellDate:
		if c.Time.IsZero() {
			return time.Time{}, errInvalidDate
		}
		return c.Time, nil
	case CellNumber:
		return fromSerial(c.Number)
	case CellText:
		return parseDateString(c.Text)
	default:
		return time.Time{}, errInvalidDate
	}
}

func fromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || math.Abs(serial) > 3e6 {
		return time.Time{}, errInvalidDate
	}
	days := math.Floor(serial)
	frac := serial - days
	t := spreadsheetEpoch.AddDate(0, 0, int(days))
	return t.Add(time.Duration(frac * float64(24*time.Hour))), nil
}

func parseDateString(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errInvalidDate
	}

	groups := reDigitRun.FindAllString(s, -1)
	if len(groups) == 3 {
		p1, err1 := strconv.Atoi(groups[0])
		p2, err2 := strconv.Atoi(groups[1])
		p3, err3 := strconv.Atoi(groups[2])
		if err1 == nil && err2 == nil && err3 == nil {
			if strings.Contains(s, "/") && p3 > 2000 {
				return calendarDate(p3, p2, p1)
			}
			if p1 > 2000 {
				return calendarDate(p1, p2, p3)
			}
		}
	}
	return nativeParse(s)
}

// calendarDate rejects out-of-range parts instead of rolling them over.
func calendarDate(year, month, day int) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, errInvalidDate
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}

func nativeParse(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, errInvalidDate
	}
	return t, nil
}
