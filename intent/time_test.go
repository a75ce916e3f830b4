package intent

import "testing"

func TestParseTime(t *testing.T) {
	tests := []struct {
		input      string
		wantHour   int
		wantMinute int
		wantTZ     string
		wantOK     bool
	}{
		{"9am", 9, 0, "", true},
		{"9 am", 9, 0, "", true},
		{"5:03 pm", 17, 3, "", true},
		{"5:03pm", 17, 3, "", true},
		{"17:30", 17, 30, "", true},
		{"8 o'clock", 8, 0, "", true},
		{"8 oclock", 8, 0, "", true},
		{"12am", 0, 0, "", true},
		{"12pm", 12, 0, "", true},
		{"7:30 a.m.", 7, 30, "", true},
		{"9:30 pm est", 21, 30, "America/New_York", true},
		{"send it at 6pm pst", 18, 0, "America/Los_Angeles", true},
		{"8:00 utc", 8, 0, "UTC", true},

		{"noon", 0, 0, "", false},
		{"morning please", 0, 0, "", false},
		{"add 5 sources", 0, 0, "", false},
		{"25:00", 0, 0, "", false},
		{"13pm", 0, 0, "", false},
		{"10:75", 0, 0, "", false},
		{"", 0, 0, "", false},
	}

	for _, tt := range tests {
		hour, minute, tz, ok := ParseTime(tt.input)
		if ok != tt.wantOK {
			t.Errorf("ParseTime(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			continue
		}
		if !ok {
			continue
		}
		if hour != tt.wantHour || minute != tt.wantMinute || tz != tt.wantTZ {
			t.Errorf("ParseTime(%q) = (%d, %d, %q), want (%d, %d, %q)",
				tt.input, hour, minute, tz, tt.wantHour, tt.wantMinute, tt.wantTZ)
		}
	}
}

func TestTimezoneHint(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"9am pst", "America/Los_Angeles"},
		{"9am pdt", "America/Los_Angeles"},
		{"noon est.", "America/New_York"},
		{"gmt please", "UTC"},
		{"jst", "Asia/Tokyo"},
		{"9am", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := TimezoneHint(tt.input); got != tt.want {
			t.Errorf("TimezoneHint(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
