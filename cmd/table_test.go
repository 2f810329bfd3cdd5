package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{
			name:     "no padding when width is 0",
			input:    "Airbag",
			width:    0,
			expected: "Airbag",
		},
		{
			name:     "pad short title",
			input:    "Kid A",
			width:    8,
			expected: "Kid A   ",
		},
		{
			name:     "exact width unchanged",
			input:    "Amnesiac",
			width:    8,
			expected: "Amnesiac",
		},
		{
			name:     "truncate long title with ellipsis",
			input:    "Everything In Its Right Place",
			width:    16,
			expected: "Everything In...",
		},
		{
			name:     "pad accented title",
			input:    "Ágætis byrjun",
			width:    15,
			expected: "Ágætis byrjun  ",
		},
		{
			name:     "pad wide characters",
			input:    "東京",
			width:    6,
			expected: "東京  ",
		},
		{
			name:     "truncate wide characters",
			input:    "東京事変の教育",
			width:    8,
			expected: "東京... ", // 事 would overflow by one column
		},
		{
			name:     "minimum width for truncation",
			input:    "Pyramid Song",
			width:    3,
			expected: "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padToWidth(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("padToWidth(%q, %d) = %q, expected %q",
					tt.input, tt.width, result, tt.expected)
			}

			if tt.width > 0 {
				if w := runewidth.StringWidth(result); w != tt.width {
					t.Errorf("padToWidth(%q, %d) produced width %d, expected %d",
						tt.input, tt.width, w, tt.width)
				}
			}
		})
	}
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"#", "Track", "Plays"}, [][]string{
		{"1", "Airbag", "12"},
		{"2", "Paranoid Android", "7"},
		{"10", "Lucky", "0"},
	})

	want := strings.Join([]string{
		"#   Track             Plays",
		"1   Airbag            12",
		"2   Paranoid Android  7",
		"10  Lucky             0",
		"",
	}, "\n")
	if buf.String() != want {
		t.Errorf("unexpected table:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestColumnWidths_Limit(t *testing.T) {
	widths := columnWidths([]string{"Album"}, [][]string{{strings.Repeat("x", 100)}}, 20)
	if widths[0] != 20 {
		t.Errorf("expected width capped at 20, got %d", widths[0])
	}
}

func TestWriteTable_NoHeader(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []string{"", ""}, [][]string{{"Scrobbles", "120"}, {"Artists", "4"}})

	want := "Scrobbles  120\nArtists    4\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
