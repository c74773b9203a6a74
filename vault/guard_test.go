package vault

import (
	"math"
	"testing"
)

func TestCheckCap(t *testing.T) {
	cases := []struct {
		name     string
		current  uint64
		incoming uint64
		cap      uint64
		wantErr  error
	}{
		{"well below cap", 0, 800000000, 1000000000, nil},
		{"exactly at cap", 200000000, 800000000, 1000000000, nil},
		{"one above cap", 200000001, 800000000, 1000000000, ErrCapExceeded},
		{"second deposit breaches", 800000000, 800000000, 1000000000, ErrCapExceeded},
		{"zero incoming", 1000000000, 0, 1000000000, nil},
		{"sum overflows", math.MaxUint64, 1, math.MaxUint64, ErrCapExceeded},
	}

	for _, c := range cases {
		if err := checkCap(c.current, c.incoming, c.cap); err != c.wantErr {
			t.Errorf("%s: want %v, got %v", c.name, c.wantErr, err)
		}
	}
}

func TestCheckWithdrawLimit(t *testing.T) {
	cases := []struct {
		name    string
		value   uint64
		max     uint64
		wantErr error
	}{
		{"below limit", 499999999, 500000000, nil},
		{"exactly at limit", 500000000, 500000000, nil},
		{"one above limit", 500000001, 500000000, ErrLimitExceeded},
	}

	for _, c := range cases {
		if err := checkWithdrawLimit(c.value, c.max); err != c.wantErr {
			t.Errorf("%s: want %v, got %v", c.name, c.wantErr, err)
		}
	}
}
