package model

import "testing"

func TestCardKeyString(t *testing.T) {
	k := CardKey{Source: "okzy", ID: "42"}
	if got := k.String(); got != "okzy+42" {
		t.Errorf("String() = %q, want okzy+42", got)
	}
}

func TestParseCardKey(t *testing.T) {
	cases := []struct {
		in      string
		want    CardKey
		wantErr bool
	}{
		{"okzy+42", CardKey{Source: "okzy", ID: "42"}, false},
		// Only the first separator splits; ids may contain '+'.
		{"src+a+b", CardKey{Source: "src", ID: "a+b"}, false},
		{"", CardKey{}, true},
		{"noseparator", CardKey{}, true},
		{"+id", CardKey{}, true},
		{"source+", CardKey{}, true},
	}
	for _, tc := range cases {
		got, err := ParseCardKey(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseCardKey(%q) succeeded with %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCardKey(%q) failed: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCardKey(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCardKeyIsZero(t *testing.T) {
	cases := []struct {
		key  CardKey
		want bool
	}{
		{CardKey{}, true},
		{CardKey{Source: "a"}, true},
		{CardKey{ID: "1"}, true},
		{CardKey{Source: "a", ID: "1"}, false},
	}
	for _, tc := range cases {
		if got := tc.key.IsZero(); got != tc.want {
			t.Errorf("%v.IsZero() = %v, want %v", tc.key, got, tc.want)
		}
	}
}

func TestParseRoundTripsString(t *testing.T) {
	for _, k := range []CardKey{
		{Source: "okzy", ID: "42"},
		{Source: "a", ID: "x+y+z"},
	} {
		parsed, err := ParseCardKey(k.String())
		if err != nil {
			t.Errorf("round trip of %v failed: %v", k, err)
			continue
		}
		if parsed != k {
			t.Errorf("round trip of %v gave %v", k, parsed)
		}
	}
}
