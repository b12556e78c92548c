package recorder

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Ranked: Ep. 5!!", "Ranked Ep. 5"},
		{"a/b\\c", "abc"},
		{"keep-dash_and.dot", "keep-dash_and.dot"},
		{"MiXeD CaSe", "MiXeD CaSe"},
		{"emoji 🎮 time", "emoji  time"},
		{"día de campeón", "día de campeón"},
		{"<>:\"|?*", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeFilename(tt.in); got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildFilename(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)
	tests := []struct {
		channel string
		title   string
		want    string
	}{
		{"foo", "Hello World", "foo_2024-01-01_12h00m00s_Hello_World.mkv"},
		{"foo", "Ranked: Ep. 5!!", "foo_2024-01-01_12h00m00s_Ranked_Ep._5.mkv"},
		{"foo", "", "foo_2024-01-01_12h00m00s_.mkv"},
		{"foo", "../../etc/passwd", "foo_2024-01-01_12h00m00s_....etcpasswd.mkv"},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := BuildFilename(tt.channel, tt.title, at); got != tt.want {
				t.Errorf("BuildFilename(%q, %q) = %q, want %q", tt.channel, tt.title, got, tt.want)
			}
		})
	}
}

func TestBuildFilenameSecondResolution(t *testing.T) {
	at := time.Date(2023, 12, 31, 23, 59, 58, 999_000_000, time.Local)
	got := BuildFilename("bar", "x", at)
	want := "bar_2023-12-31_23h59m58s_x.mkv"
	if got != want {
		t.Errorf("BuildFilename() = %q, want %q", got, want)
	}
}
