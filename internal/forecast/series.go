package forecast

import (
	"bytes"
	"encoding/json"
	"math"
)

// Series is a sequence of optional readings. A nil element is a missing sample.
type Series []*float64

// NewSeries builds a Series with every element present.
func NewSeries(values ...float64) Series {
	s := make(Series, len(values))
	for i := range values {
		v := values[i]
		s[i] = &v
	}
	return s
}

// UnmarshalJSON decodes an array leniently: null and non-numeric elements become
// missing samples, and a value that is not an array decodes as an empty series.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = nil
		return nil //nolint:nilerr // malformed series are treated as empty
	}

	out := make(Series, len(raw))
	for i, elem := range raw {
		if bytes.Equal(bytes.TrimSpace(elem), []byte("null")) {
			continue
		}
		var v float64
		if err := json.Unmarshal(elem, &v); err != nil {
			continue
		}
		out[i] = &v
	}
	*s = out
	return nil
}

// At returns the i-th sample and whether it is present and finite.
func (s Series) At(i int) (float64, bool) {
	if i < 0 || i >= len(s) || s[i] == nil {
		return 0, false
	}
	v := *s[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Or returns the i-th sample, or def when it is missing.
func (s Series) Or(i int, def float64) float64 {
	if v, ok := s.At(i); ok {
		return v
	}
	return def
}
