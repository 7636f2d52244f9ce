// Package convert coerces untyped filter input into attribute kinds.
//
// Converters are registered per (source, target) kind pair and looked up
// generically by the attribute's kind, so adding a coercion never touches
// the existing ones.
package convert

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omniql-engine/omnifilter/engine/models"
	"github.com/omniql-engine/omnifilter/mapping"
)

// ConverterFunc converts value (of the registered source kind) to the target kind.
type ConverterFunc func(s *Service, value any) (any, error)

type pair struct {
	source mapping.Kind
	target mapping.Kind
}

// Service is the conversion registry. Safe for concurrent use.
type Service struct {
	mu         sync.RWMutex
	converters map[pair]ConverterFunc
	formats    []DateFormat
	location   *time.Location
}

// Option configures a Service.
type Option func(*Service)

// WithLocation sets the zone date strings without offset are parsed in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithDateFormats appends Go layouts after the default formats.
func WithDateFormats(layouts ...string) Option {
	return func(s *Service) {
		for _, l := range layouts {
			if l = strings.TrimSpace(l); l != "" {
				s.formats = append(s.formats, DateFormat{Pattern: l, Layout: l})
			}
		}
	}
}

// New creates a service with the built-in string converters.
func New(opts ...Option) *Service {
	s := &Service{
		converters: make(map[pair]ConverterFunc),
		formats:    append([]DateFormat(nil), DefaultDateFormats...),
		location:   time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Register(mapping.KindString, mapping.KindString, func(_ *Service, v any) (any, error) { return v, nil })
	s.Register(mapping.KindString, mapping.KindDate, stringToTime)
	s.Register(mapping.KindString, mapping.KindTimestamp, stringToTime)
	s.Register(mapping.KindString, mapping.KindInt, stringToInt)
	s.Register(mapping.KindString, mapping.KindFloat, stringToFloat)
	s.Register(mapping.KindString, mapping.KindBool, stringToBool)
	s.Register(mapping.KindString, mapping.KindUUID, stringToUUID)
	s.Register(mapping.KindInt, mapping.KindFloat, intToFloat)
	return s
}

// Register adds a converter. An existing converter for the same pair is replaced.
func (s *Service) Register(source, target mapping.Kind, fn ConverterFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.converters[pair{source, target}] = fn
}

// CanConvert reports whether a converter exists for source -> target.
func (s *Service) CanConvert(source, target mapping.Kind) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.converters[pair{source, target}]
	return ok
}

// Convert converts value to target using the converter registered for the value's kind.
func (s *Service) Convert(value any, target mapping.Kind) (any, error) {
	source := mapping.KindOf(value)
	s.mu.RLock()
	fn, ok := s.converters[pair{source, target}]
	s.mu.RUnlock()
	if !ok {
		return nil, &models.FilterError{
			Err:    models.ErrConversionFailure,
			Value:  value,
			Target: string(target),
			Cause:  fmt.Errorf("no converter from %s", source),
		}
	}
	return fn(s, value)
}

// Location returns the zone used for offset-less date strings.
func (s *Service) Location() *time.Location {
	return s.location
}

// ============================================================================
// BUILT-IN CONVERTERS
// ============================================================================

func stringToTime(s *Service, v any) (any, error) {
	return s.ParseTime(v.(string))
}

func stringToInt(_ *Service, v any) (any, error) {
	str := strings.TrimSpace(v.(string))
	n, err := strconv.ParseInt(str, 10, 64)
	if err != nil {
		return nil, conversionError(v, mapping.KindInt, err)
	}
	return n, nil
}

func stringToFloat(_ *Service, v any) (any, error) {
	str := strings.TrimSpace(v.(string))
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return nil, conversionError(v, mapping.KindFloat, err)
	}
	return f, nil
}

func stringToBool(_ *Service, v any) (any, error) {
	str := strings.TrimSpace(v.(string))
	b, err := strconv.ParseBool(str)
	if err != nil {
		return nil, conversionError(v, mapping.KindBool, err)
	}
	return b, nil
}

func stringToUUID(_ *Service, v any) (any, error) {
	id, err := uuid.Parse(strings.TrimSpace(v.(string)))
	if err != nil {
		return nil, conversionError(v, mapping.KindUUID, err)
	}
	return id, nil
}

func intToFloat(_ *Service, v any) (any, error) {
	f, ok := ToFloat(v)
	if !ok {
		return nil, conversionError(v, mapping.KindFloat, nil)
	}
	return f, nil
}

func conversionError(v any, target mapping.Kind, cause error) error {
	return &models.FilterError{
		Err:    models.ErrConversionFailure,
		Value:  v,
		Target: string(target),
		Cause:  cause,
	}
}

// ToFloat widens any numeric value to float64.
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
