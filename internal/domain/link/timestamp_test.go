package link

import (
	"encoding/json"
	"testing"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   float64
		wantOK bool
	}{
		{"minutes seconds", "1:30", 90, true},
		{"hours minutes seconds", "1:02:03", 3723, true},
		{"numeric passes through", float64(42.5), 42.5, true},
		{"int passes through", 7, 7, true},
		{"json number", json.Number("12"), 12, true},
		{"numeric string", "95", 95, true},
		{"padded", " 00:05 ", 5, true},
		{"fractional seconds", "0:01.5", 1.5, true},
		{"too many parts", "1:2:3:4", 0, false},
		{"garbage", "soon", 0, false},
		{"bad part", "1:xx", 0, false},
		{"empty", "", 0, false},
		{"nil", nil, 0, false},
		{"negative", float64(-3), 0, false},
		{"bool", true, 0, false},
		{"infinity string", "Inf", 0, false},
		{"nan string", "NaN", 0, false},
		{"huge number", float64(1e30), 0, false},
		{"huge json number", json.Number("1e30"), 0, false},
		{"seconds out of range", "1:90", 0, false},
		{"minutes out of range", "1:60:00", 0, false},
		{"long leading minutes", "90:00", 5400, true},
		{"at bound", float64(MaxOffsetSeconds), MaxOffsetSeconds, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseTimestamp(tc.in)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{90, "1:30"},
		{599.9, "9:59"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
		{-5, "0:00"},
	}
	for _, tc := range tests {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"1:30", "1:02:03", "0:07"} {
		secs, ok := ParseTimestamp(s)
		if !ok {
			t.Fatalf("parse %q failed", s)
		}
		if got := FormatDuration(secs); got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}
