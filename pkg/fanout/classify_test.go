package fanout

import "testing"

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		url      string
		expected Category
	}{
		{"https://boardgamegeek.com/sitemap_geekitems_boardgame_page_1", BoardGame},
		{"https://boardgamegeek.com/sitemap_geekitems_boardgameexpansion_page_3", BoardGameExpansion},
		{"https://boardgamegeek.com/sitemap_geekitems_boardgameaccessory_page_1", BoardGameAccessory},
		{"https://boardgamegeek.com/sitemap_geekitems_boardgamedesigner_page_1", BoardGameDesigner},
		{"https://boardgamegeek.com/sitemap_geekitems_boardgameartist_page_1", BoardGameArtist},
		{"https://boardgamegeek.com/sitemap_geekitems_boardgamepublisher_page_1", BoardGamePublisher},
		{"https://boardgamegeek.com/sitemap_geekitems_boardgamefamily_page_1", Family},
		{"https://rpggeek.com/sitemap_geekitems_rpgitem_page_1", RPGItem},
		{"https://rpggeek.com/sitemap_geekitems_rpg_page_1", RPG},
		{"https://videogamegeek.com/sitemap_geekitems_videogame_page_1", VideoGame},
		{"https://boardgamegeek.com/sitemap_geeklist_page_1", Unknown},
		{"HTTPS://BOARDGAMEGEEK.COM/SITEMAP_GEEKITEMS_BOARDGAME_PAGE_1", BoardGame},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := c.Classify(tt.url); got != tt.expected {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.expected)
			}
		})
	}
}

func TestClassifier_FirstMatchWins(t *testing.T) {
	c := NewClassifier(
		Marker{"game", BoardGame},
		Marker{"videogame", VideoGame},
	)

	if got := c.Classify("/sitemap_videogame_1"); got != BoardGame {
		t.Errorf("Classify() = %q, want %q (first marker wins)", got, BoardGame)
	}
}

func TestParseCategory(t *testing.T) {
	if got := ParseCategory(" BoardGameExpansion "); got != BoardGameExpansion {
		t.Errorf("ParseCategory() = %q, want %q", got, BoardGameExpansion)
	}
	if got := ParseCategory("geeklist"); got != Unknown {
		t.Errorf("ParseCategory() = %q, want %q", got, Unknown)
	}
}
