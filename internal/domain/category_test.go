package domain

import "testing"

func TestClassifySlug(t *testing.T) {
	tests := []struct {
		slug string
		want Category
	}{
		{"trump-wins-nomination", CategoryPolitics},
		{"senate-confirms-cabinet-pick", CategoryPolitics},
		{"nba-finals-game-7", CategorySports},
		{"lakers-vs-celtics", CategorySports},
		{"bitcoin-above-100k", CategoryCrypto},
		{"solana-etf-approved", CategoryCrypto},
		{"celebrity-baby-name", CategoryNews},
		{"", CategoryNews},
		// Case-insensitive matching.
		{"TRUMP-IMPEACHMENT", CategoryPolitics},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := ClassifySlug(tt.slug); got != tt.want {
				t.Errorf("ClassifySlug(%q) = %s, want %s", tt.slug, got, tt.want)
			}
		})
	}
}

func TestClassifySlug_PoliticsBeatsLaterGroups(t *testing.T) {
	// "trump" (politics) and "bitcoin" (crypto) both match; the earlier
	// group must win.
	if got := ClassifySlug("trump-bitcoin-reserve"); got != CategoryPolitics {
		t.Errorf("ClassifySlug = %s, want POLITICS over CRYPTO", got)
	}
	// "league" (sports) and "token" (crypto) both match; sports is checked
	// before crypto.
	if got := ClassifySlug("league-token-launch"); got != CategorySports {
		t.Errorf("ClassifySlug = %s, want SPORTS over CRYPTO", got)
	}
}
