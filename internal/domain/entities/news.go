package entities

import "time"

// NewsFilter selects the CryptoPanic feed
type NewsFilter string

const (
	NewsFilterAll     NewsFilter = "all"
	NewsFilterRising  NewsFilter = "rising"
	NewsFilterHot     NewsFilter = "hot"
	NewsFilterBullish NewsFilter = "bullish"
	NewsFilterBearish NewsFilter = "bearish"
)

// ParseNewsFilter falls back to "all" for unknown values
func ParseNewsFilter(raw string) NewsFilter {
	switch f := NewsFilter(raw); f {
	case NewsFilterRising, NewsFilterHot, NewsFilterBullish, NewsFilterBearish:
		return f
	default:
		return NewsFilterAll
	}
}

type NewsSource struct {
	Title  string `json:"title"`
	Region string `json:"region"`
	Domain string `json:"domain"`
}

type NewsVotes struct {
	Negative  int `json:"negative"`
	Positive  int `json:"positive"`
	Important int `json:"important"`
	Liked     int `json:"liked"`
	Disliked  int `json:"disliked"`
	Lol       int `json:"lol"`
	Toxic     int `json:"toxic"`
	Saved     int `json:"saved"`
	Comments  int `json:"comments"`
}

type NewsCurrency struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
	URL   string `json:"url"`
}

// NewsItem es un post del feed de noticias
type NewsItem struct {
	Kind        string         `json:"kind"`
	Domain      string         `json:"domain"`
	Source      NewsSource     `json:"source"`
	Title       string         `json:"title"`
	PublishedAt time.Time      `json:"published_at"`
	Slug        string         `json:"slug"`
	ID          int64          `json:"id"`
	URL         string         `json:"url"`
	CreatedAt   time.Time      `json:"created_at"`
	Votes       NewsVotes      `json:"votes"`
	Currencies  []NewsCurrency `json:"currencies,omitempty"`
}
