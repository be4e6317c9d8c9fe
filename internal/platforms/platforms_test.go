package platforms

import "testing"

func TestLookupIsCaseInsensitive(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantSlug  string
		wantEbay  string
		wantFound bool
	}{
		{"upper", "PS5", "playstation-5", "PlayStation 5", true},
		{"lower", "nsw", "nintendo-switch", "Nintendo Switch", true},
		{"padded", " gba ", "gameboy-advance", "Game Boy Advance", true},
		{"display only", "PC", "", "", true},
		{"unknown", "ATARI", "", "", false},
		{"empty", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, found := Lookup(tt.code)
			if found != tt.wantFound {
				t.Fatalf("Lookup(%q) found = %v, want %v", tt.code, found, tt.wantFound)
			}
			if got := CatalogSlug(tt.code); got != tt.wantSlug {
				t.Errorf("CatalogSlug(%q) = %q, want %q", tt.code, got, tt.wantSlug)
			}
			if got := MarketplaceName(tt.code); got != tt.wantEbay {
				t.Errorf("MarketplaceName(%q) = %q, want %q", tt.code, got, tt.wantEbay)
			}
		})
	}
}

func TestSearchableCount(t *testing.T) {
	if got := len(Searchable()); got != 26 {
		t.Errorf("Searchable() returned %d platforms, want 26", got)
	}
}

func TestListCoversTable(t *testing.T) {
	list := List()
	if len(list) != len(table) {
		t.Fatalf("List() returned %d platforms, table has %d", len(list), len(table))
	}
	seen := make(map[string]bool)
	for _, p := range list {
		if p.Code == "" {
			t.Fatalf("List() contains an entry missing from the table")
		}
		if seen[p.Code] {
			t.Errorf("List() has duplicate code %s", p.Code)
		}
		seen[p.Code] = true
	}
}

func TestSearchableKeepsDisplayOrder(t *testing.T) {
	got := Searchable()
	if got[0].Code != "PS5" || got[len(got)-1].Code != "SAT" {
		t.Fatalf("Searchable() order = %s..%s, want PS5..SAT", got[0].Code, got[len(got)-1].Code)
	}
}
