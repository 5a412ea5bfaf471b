package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"1e3", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseAmount(t *testing.T) {
	if _, err := ParseAmount("0"); err == nil {
		t.Fatalf("expected error for zero")
	}
	m, err := ParseAmount("100")
	if err != nil || m.Cents != 10000 {
		t.Fatalf("expected 10000 cents, got %d (err=%v)", m.Cents, err)
	}
	z, err := ParseNonNegativeAmount("0")
	if err != nil || z.Cents != 0 {
		t.Fatalf("expected zero, got %d (err=%v)", z.Cents, err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{123456, "1234.56"},
		{-5000, "-50.00"},
		{30000, "300.00"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 25000}
	b := Money{Cents: 30000}
	if got := a.Sub(b); got.Cents != -5000 || !got.IsNegative() {
		t.Fatalf("unexpected difference %v", got)
	}
	if got := Sum(a, b, Money{Cents: 1}); got.Cents != 55001 {
		t.Fatalf("unexpected sum %v", got)
	}
}
