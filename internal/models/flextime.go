package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// FlexTime is a timestamp read from documents written by different schema
// generations: RFC3339 strings, naive local-less strings, epoch seconds or
// epoch millis. Anything it cannot read decodes as absent instead of failing
// the whole document.
type FlexTime struct {
	time.Time
}

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// epoch values above this are treated as milliseconds (year 2286 in seconds).
const epochMillisThreshold = 1e10

// 9999-12-31T23:59:59Z, последняя секунда, которую умеет time.MarshalJSON.
const maxEpochSeconds = 253402300799

func inRange(t time.Time) bool {
	y := t.Year()
	return y >= 1 && y <= 9999
}

func NewFlexTime(t time.Time) *FlexTime {
	return &FlexTime{Time: t.UTC()}
}

// Valid reports whether t is present, non-zero and renderable as JSON.
func (t *FlexTime) Valid() bool {
	return t != nil && !t.IsZero() && inRange(t.Time)
}

// ParseFlexTime accepts the raw shapes found in stored and provider documents.
func ParseFlexTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return validTime(x)
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return validTime(*x)
	case FlexTime:
		return validTime(x.Time)
	case *FlexTime:
		if !x.Valid() {
			return time.Time{}, false
		}
		return x.Time, true
	case string:
		return parseFlexString(x)
	case json.Number:
		return parseFlexString(x.String())
	case float64:
		return fromEpoch(x)
	case int64:
		return fromEpoch(float64(x))
	case int:
		return fromEpoch(float64(x))
	default:
		return time.Time{}, false
	}
}

func parseFlexString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return fromEpoch(n)
	}
	for _, layout := range flexLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return validTime(t)
		}
	}
	return time.Time{}, false
}

func validTime(t time.Time) (time.Time, bool) {
	if t.IsZero() || !inRange(t.UTC()) {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// fromEpoch понимает секунды и миллисекунды. NaN, Inf и всё, что дальше
// 9999 года, считается отсутствующим значением.
func fromEpoch(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return time.Time{}, false
	}
	if n >= epochMillisThreshold {
		if n > maxEpochSeconds*1000 {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(n)).UTC(), true
	}
	sec := int64(n)
	nsec := int64((n - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), true
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var parsed time.Time
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			t.Time = time.Time{}
			return nil
		}
		parsed, _ = parseFlexString(s)
	} else {
		parsed, _ = parseFlexString(string(b))
	}
	t.Time = parsed
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() || !inRange(t.UTC()) {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.UTC().Format(time.RFC3339Nano))
}
