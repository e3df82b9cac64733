package types

import "time"

// Post type classifications.
const (
	PostTypeOriginal = "original"
	PostTypeRepost   = "repost"
)

// ScrapeResult is the full output of one scrape of a post page.
type ScrapeResult struct {
	URL           string    `json:"url"`
	PostType      string    `json:"postType,omitempty"`
	ScrapedAt     time.Time `json:"scrapedAt"`
	TotalComments int       `json:"totalComments"`
	Post          *Post     `json:"post"`
	Comments      []Comment `json:"comments"`
	DebugHTML     string    `json:"debugHtml,omitempty"`
}

// Post holds the fields extracted from the main post body. Fields are
// pointers so missing data serializes as null rather than "": a field that
// cannot be located is null, never an error.
type Post struct {
	Author        *string `json:"author"`
	AuthorProfile *string `json:"authorProfile"`
	Text          *string `json:"text"`
	Timestamp     *string `json:"timestamp"`
}

// Comment holds the fields extracted from one comment in the thread.
type Comment struct {
	Author        *string `json:"author"`
	AuthorProfile *string `json:"authorProfile"`
	Text          *string `json:"text"`
	Timestamp     *string `json:"timestamp"`
}
