package apportion

import (
	"testing"

	"fintrack/internal/core"
)

func money(cents int64) core.Money { return core.Money{Cents: cents} }

func TestFromAmount(t *testing.T) {
	total := money(10000)

	tests := []struct {
		name         string
		value        int64
		wantPersonal int64
		wantOwed     int64
	}{
		{name: "within range", value: 3000, wantPersonal: 3000, wantOwed: 7000},
		{name: "zero", value: 0, wantPersonal: 0, wantOwed: 10000},
		{name: "exactly total", value: 10000, wantPersonal: 10000, wantOwed: 0},
		{name: "above total clamps", value: 15000, wantPersonal: 10000, wantOwed: 0},
		{name: "negative clamps to zero", value: -500, wantPersonal: 0, wantOwed: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			personal, owed := FromAmount(total, money(tt.value))
			if personal.Cents != tt.wantPersonal || owed.Cents != tt.wantOwed {
				t.Errorf("FromAmount = (%d, %d), want (%d, %d)",
					personal.Cents, owed.Cents, tt.wantPersonal, tt.wantOwed)
			}
			if personal.Cents+owed.Cents != total.Cents {
				t.Errorf("sum invariant broken: %d + %d != %d",
					personal.Cents, owed.Cents, total.Cents)
			}
		})
	}
}

func TestFromPercentage(t *testing.T) {
	total := money(10000)

	tests := []struct {
		name         string
		pct          float64
		wantPersonal int64
		wantClamped  float64
	}{
		{name: "half", pct: 50, wantPersonal: 5000, wantClamped: 50},
		{name: "third rounds", pct: 33.335, wantPersonal: 3334, wantClamped: 33.335},
		{name: "over 100 clamps", pct: 150, wantPersonal: 10000, wantClamped: 100},
		{name: "negative clamps", pct: -10, wantPersonal: 0, wantClamped: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			personal, owed, clamped := FromPercentage(total, tt.pct)
			if personal.Cents != tt.wantPersonal {
				t.Errorf("personal = %d, want %d", personal.Cents, tt.wantPersonal)
			}
			if clamped != tt.wantClamped {
				t.Errorf("clamped = %v, want %v", clamped, tt.wantClamped)
			}
			if personal.Cents+owed.Cents != total.Cents {
				t.Errorf("sum invariant broken: %d + %d != %d",
					personal.Cents, owed.Cents, total.Cents)
			}
		})
	}

	// Clamping property: 150% must equal 100%.
	p150, o150, _ := FromPercentage(total, 150)
	p100, o100, _ := FromPercentage(total, 100)
	if p150 != p100 || o150 != o100 {
		t.Error("FromPercentage(150) differs from FromPercentage(100)")
	}
}

func TestFromShares(t *testing.T) {
	tests := []struct {
		name         string
		total        int64
		yours, all   int64
		wantPersonal int64
		wantOwed     int64
		wantOK       bool
	}{
		{name: "one of three", total: 9000, yours: 1, all: 3, wantPersonal: 3000, wantOwed: 6000, wantOK: true},
		{name: "all shares", total: 9000, yours: 3, all: 3, wantPersonal: 9000, wantOwed: 0, wantOK: true},
		{name: "no shares", total: 9000, yours: 0, all: 3, wantPersonal: 0, wantOwed: 9000, wantOK: true},
		{name: "rounding half up", total: 100, yours: 1, all: 3, wantPersonal: 33, wantOwed: 67, wantOK: true},
		{name: "zero divisor rejected", total: 9000, yours: 5, all: 0, wantOK: false},
		{name: "yours above total rejected", total: 9000, yours: 4, all: 3, wantOK: false},
		{name: "negative yours rejected", total: 9000, yours: -1, all: 3, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			personal, owed, ok := FromShares(money(tt.total), tt.yours, tt.all)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if personal.Cents != tt.wantPersonal || owed.Cents != tt.wantOwed {
				t.Errorf("FromShares = (%d, %d), want (%d, %d)",
					personal.Cents, owed.Cents, tt.wantPersonal, tt.wantOwed)
			}
			if personal.Cents+owed.Cents != tt.total {
				t.Errorf("sum invariant broken: %d + %d != %d",
					personal.Cents, owed.Cents, tt.total)
			}
		})
	}
}
