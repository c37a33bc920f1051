package fanout

import "strings"

// Category groups sub-resources of an index.
type Category string

// Sitemap categories.
const (
	BoardGame          Category = "boardgame"
	BoardGameExpansion Category = "boardgameexpansion"
	BoardGameAccessory Category = "boardgameaccessory"
	BoardGameDesigner  Category = "boardgamedesigner"
	BoardGameArtist    Category = "boardgameartist"
	BoardGamePublisher Category = "boardgamepublisher"
	RPG                Category = "rpg"
	RPGItem            Category = "rpgitem"
	VideoGame          Category = "videogame"
	Family             Category = "family"
	Unknown            Category = "unknown"
)

// Categories lists every known category except Unknown.
func Categories() []Category {
	return []Category{
		BoardGame, BoardGameExpansion, BoardGameAccessory, BoardGameDesigner,
		BoardGameArtist, BoardGamePublisher, RPG, RPGItem, VideoGame, Family,
	}
}

// ParseCategory maps a name to a Category, or Unknown.
func ParseCategory(s string) Category {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories() {
		if c == known {
			return c
		}
	}
	return Unknown
}

// Marker assigns Category to URLs containing Substring.
type Marker struct {
	Substring string
	Category  Category
}

// DefaultMarkers match BGG sitemap location URLs. Order matters: a marker
// that is a substring of another must come after it.
var DefaultMarkers = []Marker{
	{"boardgameexpansion", BoardGameExpansion},
	{"boardgameaccessory", BoardGameAccessory},
	{"boardgamedesigner", BoardGameDesigner},
	{"boardgameartist", BoardGameArtist},
	{"boardgamepublisher", BoardGamePublisher},
	{"boardgamefamily", Family},
	{"boardgame", BoardGame},
	{"rpgitem", RPGItem},
	{"rpg", RPG},
	{"videogame", VideoGame},
}

// Classifier assigns categories by the first matching marker.
type Classifier struct {
	markers []Marker
}

// NewClassifier creates a classifier over markers, checked in order.
// Without markers it uses DefaultMarkers.
func NewClassifier(markers ...Marker) *Classifier {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	return &Classifier{markers: markers}
}

// Classify returns the category of rawURL, or Unknown.
func (c *Classifier) Classify(rawURL string) Category {
	lower := strings.ToLower(rawURL)
	for _, m := range c.markers {
		if strings.Contains(lower, m.Substring) {
			return m.Category
		}
	}
	return Unknown
}

// Location is a classified sub-resource URL. The category is fixed when the
// location is created.
type Location struct {
	URL      string
	Category Category
}

// Locate classifies every URL.
func (c *Classifier) Locate(urls []string) []Location {
	out := make([]Location, len(urls))
	for i, u := range urls {
		out[i] = Location{URL: u, Category: c.Classify(u)}
	}
	return out
}
