package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	require.Equal(t, 300*time.Millisecond, ParseDuration("300ms", time.Second))
	require.Equal(t, time.Second, ParseDuration("", time.Second))
	require.Equal(t, time.Second, ParseDuration("soon", time.Second))
	require.Equal(t, time.Second, ParseDuration("-5s", time.Second))
}

func TestParseValue(t *testing.T) {
	require.Equal(t, 42, ParseValue(" 42 "))
	require.Equal(t, 1.5, ParseValue("1.5"))
	require.Equal(t, "AGE_0_18", ParseValue("AGE_0_18"))
	require.Equal(t, "", ParseValue(""))
	require.Equal(t, "nan", ParseValue("nan"))
	require.Equal(t, "-Inf", ParseValue("-Inf"))
}

func TestNumeric(t *testing.T) {
	for _, tc := range []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{3, 3, true},
		{int64(-4), -4, true},
		{float32(2.5), 2.5, true},
		{"x", 0, false},
		{nil, 0, false},
	} {
		got, ok := Numeric(tc.in)
		require.Equal(t, tc.ok, ok, "%v", tc.in)
		require.Equal(t, tc.want, got, "%v", tc.in)
	}
}
