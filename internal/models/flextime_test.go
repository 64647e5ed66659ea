package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFlexTime_UnmarshalShapes(t *testing.T) {
	t.Parallel()

	want := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	cases := map[string]string{
		"rfc3339":        `"2025-01-02T03:04:05Z"`,
		"rfc3339 offset": `"2025-01-02T06:04:05+03:00"`,
		"naive T":        `"2025-01-02T03:04:05"`,
		"naive space":    `"2025-01-02 03:04:05"`,
		"epoch seconds":  `1735787045`,
		"epoch millis":   `1735787045000`,
		"numeric string": `"1735787045"`,
	}
	for name, raw := range cases {
		var ft FlexTime
		require.NoError(t, json.Unmarshal([]byte(raw), &ft), name)
		require.True(t, ft.Equal(want), "%s: got %s", name, ft.Time)
	}
}

func TestFlexTime_AbsentValues(t *testing.T) {
	t.Parallel()

	type doc struct {
		At *FlexTime `json:"at"`
	}
	for _, raw := range []string{`{"at":null}`, `{"at":""}`, `{"at":0}`, `{"at":"not a date"}`, `{"at":{"seconds":1}}`, `{}`} {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(raw), &d), raw)
		require.False(t, d.At.Valid(), raw)
	}
}

func TestFlexTime_Marshal(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(NewFlexTime(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
	require.NoError(t, err)
	require.JSONEq(t, `"2025-01-02T03:04:05Z"`, string(b))

	b, err = json.Marshal(FlexTime{})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}

func TestParseFlexTime(t *testing.T) {
	t.Parallel()

	ts, ok := ParseFlexTime(float64(1735787045))
	require.True(t, ok)
	require.Equal(t, 2025, ts.Year())

	_, ok = ParseFlexTime(nil)
	require.False(t, ok)
	_, ok = ParseFlexTime(-5)
	require.False(t, ok)
	_, ok = ParseFlexTime(struct{}{})
	require.False(t, ok)

	var nilFlex *FlexTime
	_, ok = ParseFlexTime(nilFlex)
	require.False(t, ok)
}

func TestFlexTime_OutOfRangeIsAbsent(t *testing.T) {
	t.Parallel()

	type doc struct {
		At *FlexTime `json:"at"`
	}
	for _, raw := range []string{
		`{"at":"NaN"}`,
		`{"at":"Infinity"}`,
		`{"at":"-Inf"}`,
		`{"at":1e20}`,
		`{"at":"1e20"}`,
		`{"at":253402300800000}`,
		`{"at":"0000-01-01T00:00:00Z"}`,
	} {
		var d doc
		require.NoError(t, json.Unmarshal([]byte(raw), &d), raw)
		require.False(t, d.At.Valid(), raw)

		b, err := json.Marshal(d)
		require.NoError(t, err, raw)
		require.JSONEq(t, `{"at":null}`, string(b), raw)
	}
}

func TestFlexTime_EpochUpperBound(t *testing.T) {
	t.Parallel()

	ts, ok := ParseFlexTime(float64(253402300799000))
	require.True(t, ok)
	require.Equal(t, 9999, ts.Year())

	_, ok = ParseFlexTime(math.NaN())
	require.False(t, ok)
	_, ok = ParseFlexTime(math.Inf(1))
	require.False(t, ok)
	_, ok = ParseFlexTime(time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC))
	require.False(t, ok)

	b, err := json.Marshal(FlexTime{Time: time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}
