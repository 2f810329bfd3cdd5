package resolver

import "testing"

func TestExtractYear(t *testing.T) {
	tests := []struct {
		name     string
		wikitext string
		want     int
		wantOK   bool
	}{
		{"start date", "| released = {{Start date|1997|05|21|df=y}}\n", 1997, true},
		{"start date with leading param", "| released = {{start date|df=yes|2007|10|10}}\n", 2007, true},
		{"film date", "| released = {{Film date|1985|06|01}}\n", 1985, true},
		{"dts", "{{dts|1969|09|26}}", 1969, true},
		{"plain infobox field", "| released    = 21 May 1997\n| recorded = 1996\n", 1997, true},
		{"polish infobox field", "| wydany = 12 marca 1999\n", 1999, true},
		{"sentence", "The album was released in 2011 by XL Recordings.", 2011, true},
		{
			name:     "dated template wins over later sentence",
			wikitext: "It was reissued and released again in 2009.\n| released = {{Start date|1973|03|01}}\n",
			want:     1973,
			wantOK:   true,
		},
		{"out of range", "| released = 1850\n", 0, false},
		{"no year", "An album by a band.", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractYear(tt.wikitext)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("expected (%d, %v), got (%d, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}
