package normalize

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"no suffix", "Paranoid Android", "Paranoid Android"},
		{"dash year remastered", "Track - 2009 Remastered", "Track"},
		{"paren remastered", "Track (Remastered)", "Track"},
		{"bracket year remaster", "Come Together [2019 Remaster]", "Come Together"},
		{"paren year remaster version", "Heroes (2017 Remaster Version)", "Heroes"},
		{"dash remaster", "Wish You Were Here - Remaster", "Wish You Were Here"},
		{"dash remastered year", "Money - Remastered 2011", "Money"},
		{"dash year remaster version", "Time - 2011 Remastered Version", "Time"},
		{"digital remaster", "Kashmir (Digital Remaster)", "Kashmir"},
		{"expanded edition", "Rumours (Expanded Edition)", "Rumours"},
		{"dash expanded", "Rumours - Expanded", "Rumours"},
		{"stereo mix", "Taxman - 2009 Stereo Mix", "Taxman"},
		{"single version", "Heroes - Single Version", "Heroes"},
		{"semicolon remaster", "Dub; 2005 Digital Remaster", "Dub"},
		{"slash remastered", "Version / Remastered", "Version"},
		{"platinum collection", "Radio Ga Ga (Platinum Collection)", "Radio Ga Ga"},
		{"deluxe edition", "Blue Banisters (Deluxe Edition)", "Blue Banisters"},
		{"feat credit", "Stay (feat. Mikky Ekko)", "Stay"},
		{"from credit", "Let It Go (From \"Frozen\")", "Let It Go"},
		{"anniversary", "Nevermind (30th Anniversary Edition)", "Nevermind"},
		{"spanish remaster", "Corazón Espinado (Remasterizado)", "Corazón Espinado"},
		{"dangling paren", "Song (Live from", "Song"},
		{"dangling bracket", "Song [Bonus", "Song"},
		{"case insensitive", "track - 2009 REMASTERED", "track"},
		{"whitespace trimmed", "  Intro  ", "Intro"},
		{"only suffix falls back", "(Remastered)", "(Remastered)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.input); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanSpecificRulesFirst(t *testing.T) {
	// The year-qualified rule has to fire before the bare one so both
	// spellings land on the same title.
	a := Clean("Track - 2009 Remastered")
	b := Clean("Track (Remastered)")
	if a != b {
		t.Fatalf("expected identical cleaned titles, got %q and %q", a, b)
	}
	if MatchKey("Track - 2009 Remastered") != MatchKey("Track (Remastered)") {
		t.Errorf("expected identical match keys")
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"lowercase", "Main Theme", "main theme"},
		{"curly apostrophe", "Don’t Stop", "dont stop"},
		{"straight apostrophe", "Don't Stop", "dont stop"},
		{"slash", "Shine On/Part 1", "shine on part 1"},
		{"dashes", "Part One–Two—Three", "part one two three"},
		{"punctuation", "Help!", "help"},
		{"collapse whitespace", "  A   Day  in   the Life ", "a day in the life"},
		{"accents folded", "Björk's Song", "bjorks song"},
		{"acute accent", "Beyoncé", "beyonce"},
		{"decomposed accent", "Beyonce\u0301", "beyonce"},
		{"stroke letters kept", "Łódź", "łodz"},
		{"only punctuation falls back", "!!!", "!!!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Key(tt.input); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeyNFC(t *testing.T) {
	composed := "Caf\u00e9"
	decomposed := "Cafe\u0301"
	if Key(composed) != Key(decomposed) {
		t.Errorf("expected NFC forms to share a key, got %q and %q", Key(composed), Key(decomposed))
	}
}

func TestMatchKeyFoldsAccents(t *testing.T) {
	tests := []struct {
		a, b string
	}{
		{"Café Del Mar", "Cafe Del Mar"},
		{"Beyoncé", "BEYONCE"},
		{"Sigur Rós - Ágætis byrjun", "Sigur Ros - Agætis Byrjun"},
		{"Corazón Espinado (Remasterizado)", "Corazon Espinado"},
	}

	for _, tt := range tests {
		if MatchKey(tt.a) != MatchKey(tt.b) {
			t.Errorf("expected %q and %q to share a key, got %q and %q", tt.a, tt.b, MatchKey(tt.a), MatchKey(tt.b))
		}
	}
}

func TestStripEdition(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"OK Computer", "OK Computer"},
		{"Abbey Road (Remastered)", "Abbey Road"},
		{"Rumours (Deluxe Edition)", "Rumours"},
		{"The Wall - Remastered", "The Wall"},
		{"Led Zeppelin IV (Deluxe Edition) (Remastered)", "Led Zeppelin IV (Deluxe Edition)"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := StripEdition(tt.input); got != tt.want {
				t.Errorf("StripEdition(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFixCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Beatles For Sale", "Beatles for Sale"},
		{"Ride The Lightning", "Ride the Lightning"},
		{"Back And Forth", "Back and Forth"},
		{"The Wall", "The Wall"},
		{"Songs In The Key Of Life", "Songs in the Key of Life"},
		{"Something To Live For", "Something to Live For"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FixCase(tt.input); got != tt.want {
				t.Errorf("FixCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
