package match

import "testing"

func TestNormalizeMinute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: " 45 + 2 ' ", want: "45+2"},
		{in: "90'", want: "90"},
		{in: "90’", want: "90"},
		{in: "67", want: "67"},
		{in: "", want: ""},
		{in: "HT", want: "HT"},
	}

	for _, tt := range tests {
		if got := NormalizeMinute(tt.in); got != tt.want {
			t.Fatalf("NormalizeMinute(%q)=%q want=%q", tt.in, got, tt.want)
		}
	}
}

func TestParseMinute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		in     string
		want   int
		wantOK bool
	}{
		{name: "regular", in: "45", want: 4500, wantOK: true},
		{name: "stoppage", in: "45+2", want: 4502, wantOK: true},
		{name: "stoppage with quote", in: "90+3'", want: 9003, wantOK: true},
		{name: "spaced stoppage", in: "45 + 2 '", want: 4502, wantOK: true},
		{name: "curly quote", in: "12’", want: 1200, wantOK: true},
		{name: "empty", in: "", wantOK: false},
		{name: "half time marker", in: "HT", wantOK: false},
		{name: "finished marker", in: "FT", wantOK: false},
		{name: "negative", in: "-5", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMinute(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ParseMinute(%q) ok=%v want=%v", tt.in, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("ParseMinute(%q)=%d want=%d", tt.in, got, tt.want)
			}
		})
	}
}

func TestMinuteOrder_StoppageSortsBetweenMinutes(t *testing.T) {
	t.Parallel()

	if !(MinuteOrder("45") < MinuteOrder("45+2") && MinuteOrder("45+2") < MinuteOrder("46")) {
		t.Fatalf("expected 45 < 45+2 < 46")
	}
	if MinuteOrder("") != MissingMinuteOrder {
		t.Fatalf("expected missing minute to sort last")
	}
	if MinuteValue("?") != MissingMinuteBucket {
		t.Fatalf("expected missing minute value -1")
	}
}
