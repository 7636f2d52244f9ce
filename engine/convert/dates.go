package convert

import (
	"strings"
	"time"

	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// DateFormat pairs the user-facing pattern with its Go layout.
type DateFormat struct {
	Pattern string // e.g. yyyy-MM-dd, reported back on failure
	Layout  string // Go reference layout
}

// DateOnly reports whether the format carries no time of day.
func (f DateFormat) DateOnly() bool {
	return !strings.Contains(f.Layout, "15") && !strings.Contains(f.Layout, "04")
}

// Layout constants of the default formats.
const (
	LayoutDateDash      = "2006-01-02"
	LayoutDateSlash     = "2006/01/02"
	LayoutDateTimeDash  = "2006-01-02 15:04:05"
	LayoutDateTimeSlash = "2006/01/02 15:04:05"
)

// DateOnlyLength is the length of a date-only input ("2020-05-01").
const DateOnlyLength = len(LayoutDateDash)

// DefaultDateFormats are tried in order; date-only formats come first.
var DefaultDateFormats = []DateFormat{
	{Pattern: "yyyy-MM-dd", Layout: LayoutDateDash},
	{Pattern: "yyyy/MM/dd", Layout: LayoutDateSlash},
	{Pattern: "yyyy-MM-dd HH:mm:ss", Layout: LayoutDateTimeDash},
	{Pattern: "yyyy/MM/dd HH:mm:ss", Layout: LayoutDateTimeSlash},
}

// Formats returns the accepted formats in attempt order.
func (s *Service) Formats() []DateFormat {
	return append([]DateFormat(nil), s.formats...)
}

// ParseTime tries every accepted format in order and returns the first success.
func (s *Service) ParseTime(value string) (time.Time, error) {
	return s.parseWith(value, s.formats, mapping.KindTimestamp)
}

// ParseDate is ParseTime restricted to date-only formats.
func (s *Service) ParseDate(value string) (time.Time, error) {
	var dateOnly []DateFormat
	for _, f := range s.formats {
		if f.DateOnly() {
			dateOnly = append(dateOnly, f)
		}
	}
	return s.parseWith(value, dateOnly, mapping.KindDate)
}

// parseWith is stateless: every attempt uses an immutable layout string.
func (s *Service) parseWith(value string, formats []DateFormat, target mapping.Kind) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, f := range formats {
		if t, err := time.ParseInLocation(f.Layout, trimmed, s.location); err == nil {
			return t, nil
		}
	}
	patterns := make([]string, len(formats))
	for i, f := range formats {
		patterns[i] = f.Pattern
	}
	return time.Time{}, &models.FilterError{
		Err:     models.ErrConversionFailure,
		Value:   value,
		Target:  string(target),
		Formats: patterns,
	}
}
