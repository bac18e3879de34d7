package otc

import "testing"

func TestSiPrefix(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		digits     int
		wantValue  float64
		wantDigits int
		wantPrefix string
	}{
		{"one microvolt", 1.0 / 1000000, 0, 1.0, -6, "µ"},
		{"unity", 1.0, 2, 1.0, 2, ""},
		{"megahertz", 100000000, 0, 100, 6, "M"},
		{"millivolts", 0.25, 3, 250, 0, "m"},
		{"zero", 0, 1, 0, 1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, d, p := SiPrefix(tt.value, tt.digits)
			if v != tt.wantValue || d != tt.wantDigits || p != tt.wantPrefix {
				t.Errorf("SiPrefix() = (%v, %d, %q), want (%v, %d, %q)",
					v, d, p, tt.wantValue, tt.wantDigits, tt.wantPrefix)
			}
		})
	}
}

func TestSiPrefixFriendly(t *testing.T) {
	v, prefix := SiPrefixFriendly(1.0 / 1000000)
	if v != 1.0 || prefix != "µ" {
		t.Errorf("SiPrefixFriendly(1e-6) = (%v, %q), want (1, µ)", v, prefix)
	}
}

func TestSamplerateString(t *testing.T) {
	tests := []struct {
		rate uint64
		want string
	}{
		{100, "100 Hz"},
		{1000, "1 kHz"},
		{100000000, "100 MHz"},
		{2000000000, "2 GHz"},
	}
	for _, tt := range tests {
		if got := SamplerateString(tt.rate); got != tt.want {
			t.Errorf("SamplerateString(%d) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}

func TestParseSizeString(t *testing.T) {
	tests := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"100", 100, false},
		{"100k", 100000, false},
		{"2M", 2000000, false},
		{"1G", 1000000000, false},
		{"", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSizeString(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSizeString(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSizeString(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseRationalString(t *testing.T) {
	tests := []struct {
		in   string
		want Rational
	}{
		{"5", Rational{5, 1}},
		{"1.5", Rational{15, 10}},
		{"-2.25", Rational{-225, 100}},
	}
	for _, tt := range tests {
		got, err := ParseRationalString(tt.in)
		if err != nil {
			t.Errorf("ParseRationalString(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseRationalString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParsePeriodString(t *testing.T) {
	v, q, err := ParsePeriodString("10 ms")
	if err != nil {
		t.Fatal(err)
	}
	if v != 10 || q != 1000 {
		t.Errorf("ParsePeriodString(10 ms) = %d/%d, want 10/1000", v, q)
	}
}
