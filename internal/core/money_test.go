package core

import "testing"

func TestParseDecimalToPaise(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"2500", 250000, true},
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"12.345", 1234, true},
		{"12.346", 1235, true},
		{"0", 0, true},
		{".50", 50, true},
		{"", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"1.2.3", 0, false},
		{"abc", 0, false},
		{"92233720368547758080", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToPaise(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got (%d, %v), want %d", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
}

func TestPaiseFromRupees(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{2500, 250000},
		{12.34, 1234},
		{0, 0},
		{-150.5, -15050},
	}
	for _, tc := range cases {
		if got := PaiseFromRupees(tc.in); got != tc.want {
			t.Fatalf("PaiseFromRupees(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		paise int64
		want  string
	}{
		{250000, "2500"},
		{250050, "2500.50"},
		{5, "0.05"},
		{0, "0"},
		{-15050, "-150.50"},
	}
	for _, tc := range cases {
		if got := (Money{Paise: tc.paise}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.paise, got, tc.want)
		}
	}
}
