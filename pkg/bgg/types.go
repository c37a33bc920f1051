package bgg

import "encoding/xml"

// BGG wraps most scalar fields in a value attribute: <minplayers value="2"/>.
type (
	IntValue struct {
		Value int `xml:"value,attr" json:"value"`
	}
	StringValue struct {
		Value string `xml:"value,attr" json:"value"`
	}
	FloatValue struct {
		Value float64 `xml:"value,attr" json:"value"`
	}
)

// Plays is /xmlapi2/plays.
type Plays struct {
	XMLName  xml.Name `xml:"plays" json:"-"`
	Username string   `xml:"username,attr" json:"username"`
	UserID   int      `xml:"userid,attr" json:"userid"`
	Total    int      `xml:"total,attr" json:"total"`
	Page     int      `xml:"page,attr" json:"page"`
	Plays    []Play   `xml:"play" json:"plays"`
}

type Play struct {
	ID         int      `xml:"id,attr" json:"id"`
	Date       string   `xml:"date,attr" json:"date"`
	Quantity   int      `xml:"quantity,attr" json:"quantity"`
	Length     int      `xml:"length,attr" json:"length"`
	Incomplete int      `xml:"incomplete,attr" json:"incomplete"`
	NoWinStats int      `xml:"nowinstats,attr" json:"nowinstats"`
	Location   string   `xml:"location,attr" json:"location,omitempty"`
	Item       PlayItem `xml:"item" json:"item"`
	Comments   string   `xml:"comments" json:"comments,omitempty"`
	Players    []Player `xml:"players>player" json:"players,omitempty"`
}

type PlayItem struct {
	Name       string        `xml:"name,attr" json:"name"`
	ObjectType string        `xml:"objecttype,attr" json:"objecttype"`
	ObjectID   int           `xml:"objectid,attr" json:"objectid"`
	Subtypes   []StringValue `xml:"subtypes>subtype" json:"subtypes,omitempty"`
}

type Player struct {
	Username      string `xml:"username,attr" json:"username,omitempty"`
	UserID        int    `xml:"userid,attr" json:"userid,omitempty"`
	Name          string `xml:"name,attr" json:"name"`
	StartPosition string `xml:"startposition,attr" json:"startposition,omitempty"`
	Color         string `xml:"color,attr" json:"color,omitempty"`
	Score         string `xml:"score,attr" json:"score,omitempty"`
	New           int    `xml:"new,attr" json:"new"`
	Rating        string `xml:"rating,attr" json:"rating,omitempty"`
	Win           int    `xml:"win,attr" json:"win"`
}

// Things is /xmlapi2/thing.
type Things struct {
	XMLName xml.Name `xml:"items" json:"-"`
	Items   []Thing  `xml:"item" json:"items"`
}

// Item returns the thing with id, or nil.
func (t *Things) Item(id int) *Thing {
	for i := range t.Items {
		if t.Items[i].ID == id {
			return &t.Items[i]
		}
	}
	return nil
}

type Thing struct {
	Type          string      `xml:"type,attr" json:"type"`
	ID            int         `xml:"id,attr" json:"id"`
	Thumbnail     string      `xml:"thumbnail" json:"thumbnail,omitempty"`
	Image         string      `xml:"image" json:"image,omitempty"`
	Names         []Name      `xml:"name" json:"names"`
	Description   string      `xml:"description" json:"description,omitempty"`
	YearPublished IntValue    `xml:"yearpublished" json:"yearpublished"`
	MinPlayers    IntValue    `xml:"minplayers" json:"minplayers"`
	MaxPlayers    IntValue    `xml:"maxplayers" json:"maxplayers"`
	PlayingTime   IntValue    `xml:"playingtime" json:"playingtime"`
	MinPlayTime   IntValue    `xml:"minplaytime" json:"minplaytime"`
	MaxPlayTime   IntValue    `xml:"maxplaytime" json:"maxplaytime"`
	MinAge        IntValue    `xml:"minage" json:"minage"`
	Links         []Link      `xml:"link" json:"links,omitempty"`
	Comments      *Comments   `xml:"comments" json:"comments,omitempty"`
	Statistics    *Statistics `xml:"statistics" json:"statistics,omitempty"`
}

// PrimaryName returns the primary name, or the first one.
func (t *Thing) PrimaryName() string {
	for _, n := range t.Names {
		if n.Type == "primary" {
			return n.Value
		}
	}
	if len(t.Names) > 0 {
		return t.Names[0].Value
	}
	return ""
}

type Name struct {
	Type      string `xml:"type,attr" json:"type"`
	SortIndex int    `xml:"sortindex,attr" json:"sortindex"`
	Value     string `xml:"value,attr" json:"value"`
}

type Link struct {
	Type    string `xml:"type,attr" json:"type"`
	ID      int    `xml:"id,attr" json:"id"`
	Value   string `xml:"value,attr" json:"value"`
	Inbound bool   `xml:"inbound,attr" json:"inbound,omitempty"`
}

// Comments is one page of an item's comments; TotalItems counts all pages.
type Comments struct {
	Page       int       `xml:"page,attr" json:"page"`
	TotalItems int       `xml:"totalitems,attr" json:"totalitems"`
	Comments   []Comment `xml:"comment" json:"comments"`
}

type Comment struct {
	Username string `xml:"username,attr" json:"username"`
	// Rating is "N/A" for unrated comments.
	Rating string `xml:"rating,attr" json:"rating"`
	Value  string `xml:"value,attr" json:"value"`
}

type Statistics struct {
	Page    int     `xml:"page,attr" json:"page"`
	Ratings Ratings `xml:"ratings" json:"ratings"`
}

type Ratings struct {
	UsersRated    IntValue   `xml:"usersrated" json:"usersrated"`
	Average       FloatValue `xml:"average" json:"average"`
	BayesAverage  FloatValue `xml:"bayesaverage" json:"bayesaverage"`
	StdDev        FloatValue `xml:"stddev" json:"stddev"`
	Owned         IntValue   `xml:"owned" json:"owned"`
	Trading       IntValue   `xml:"trading" json:"trading"`
	Wanting       IntValue   `xml:"wanting" json:"wanting"`
	Wishing       IntValue   `xml:"wishing" json:"wishing"`
	NumComments   IntValue   `xml:"numcomments" json:"numcomments"`
	NumWeights    IntValue   `xml:"numweights" json:"numweights"`
	AverageWeight FloatValue `xml:"averageweight" json:"averageweight"`
}

// Guild is /xmlapi2/guild with members=1.
type Guild struct {
	XMLName     xml.Name `xml:"guild" json:"-"`
	ID          int      `xml:"id,attr" json:"id"`
	Name        string   `xml:"name,attr" json:"name"`
	Created     string   `xml:"created,attr" json:"created"`
	Category    string   `xml:"category" json:"category,omitempty"`
	Website     string   `xml:"website" json:"website,omitempty"`
	Manager     string   `xml:"manager" json:"manager,omitempty"`
	Description string   `xml:"description" json:"description,omitempty"`
	Members     Members  `xml:"members" json:"members"`
}

type Members struct {
	Count   int      `xml:"count,attr" json:"count"`
	Page    int      `xml:"page,attr" json:"page"`
	Members []Member `xml:"member" json:"members"`
}

type Member struct {
	Name string `xml:"name,attr" json:"name"`
	Date string `xml:"date,attr" json:"date"`
}

// SitemapIndex is the root sitemap listing per-type sitemaps.
type SitemapIndex struct {
	XMLName  xml.Name       `xml:"sitemapindex" json:"-"`
	Sitemaps []SitemapEntry `xml:"sitemap" json:"sitemaps"`
}

type SitemapEntry struct {
	Loc     string `xml:"loc" json:"loc"`
	LastMod string `xml:"lastmod" json:"lastmod,omitempty"`
}

// URLSet is one per-type sitemap.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset" json:"-"`
	URLs    []SitemapURL `xml:"url" json:"urls"`
}

type SitemapURL struct {
	Loc        string `xml:"loc" json:"loc"`
	LastMod    string `xml:"lastmod" json:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq" json:"changefreq,omitempty"`
	Priority   string `xml:"priority" json:"priority,omitempty"`
}

// SearchResults is /xmlapi2/search.
type SearchResults struct {
	XMLName xml.Name     `xml:"items" json:"-"`
	Total   int          `xml:"total,attr" json:"total"`
	Items   []SearchItem `xml:"item" json:"items"`
}

type SearchItem struct {
	Type          string   `xml:"type,attr" json:"type"`
	ID            int      `xml:"id,attr" json:"id"`
	Name          Name     `xml:"name" json:"name"`
	YearPublished IntValue `xml:"yearpublished" json:"yearpublished"`
}

// User is /xmlapi2/user.
type User struct {
	XMLName        xml.Name    `xml:"user" json:"-"`
	ID             int         `xml:"id,attr" json:"id"`
	Name           string      `xml:"name,attr" json:"name"`
	FirstName      StringValue `xml:"firstname" json:"firstname"`
	LastName       StringValue `xml:"lastname" json:"lastname"`
	AvatarLink     StringValue `xml:"avatarlink" json:"avatarlink"`
	YearRegistered IntValue    `xml:"yearregistered" json:"yearregistered"`
	LastLogin      StringValue `xml:"lastlogin" json:"lastlogin"`
	Country        StringValue `xml:"country" json:"country"`
}

// Collection is /xmlapi2/collection. BGG answers 202 while it builds a
// collection, which the client retries.
type Collection struct {
	XMLName    xml.Name         `xml:"items" json:"-"`
	TotalItems int              `xml:"totalitems,attr" json:"totalitems"`
	PubDate    string           `xml:"pubdate,attr" json:"pubdate"`
	Items      []CollectionItem `xml:"item" json:"items"`
}

type CollectionItem struct {
	ObjectType    string           `xml:"objecttype,attr" json:"objecttype"`
	ObjectID      int              `xml:"objectid,attr" json:"objectid"`
	Subtype       string           `xml:"subtype,attr" json:"subtype"`
	CollID        int              `xml:"collid,attr" json:"collid"`
	Name          string           `xml:"name" json:"name"`
	YearPublished int              `xml:"yearpublished" json:"yearpublished,omitempty"`
	NumPlays      int              `xml:"numplays" json:"numplays"`
	Status        CollectionStatus `xml:"status" json:"status"`
}

type CollectionStatus struct {
	Own          int    `xml:"own,attr" json:"own"`
	PrevOwned    int    `xml:"prevowned,attr" json:"prevowned"`
	ForTrade     int    `xml:"fortrade,attr" json:"fortrade"`
	Want         int    `xml:"want,attr" json:"want"`
	WantToPlay   int    `xml:"wanttoplay,attr" json:"wanttoplay"`
	WantToBuy    int    `xml:"wanttobuy,attr" json:"wanttobuy"`
	Wishlist     int    `xml:"wishlist,attr" json:"wishlist"`
	PreOrdered   int    `xml:"preordered,attr" json:"preordered"`
	LastModified string `xml:"lastmodified,attr" json:"lastmodified"`
}
