// Package catalog holds the static registry of named digest sources and
// resolves free-text source references to catalog entries or candidate URLs.
package catalog

import (
	"net/url"
	"sort"
	"strings"
)

// Source is an immutable catalog entry, created at process start.
type Source struct {
	ID     string   `json:"id"`
	URL    string   `json:"url"`
	Topics []string `json:"topics"`
}

type MatchKind int

const (
	MatchUnresolved MatchKind = iota
	MatchCatalog
	MatchCandidateURL
)

// Match is the result of resolving a user-supplied source reference.
// MatchCandidateURL means the input parsed as an absolute URL that is not in
// the catalog and needs the user's confirmation before it can be committed.
type Match struct {
	Kind MatchKind
	ID   string
	URL  string
}

var sources = map[string]Source{
	"medium": {
		ID:     "medium",
		URL:    "https://medium.com/tag/artificial-intelligence",
		Topics: []string{"AI", "productivity"},
	},
	"google_news_tech": {
		ID:     "google_news_tech",
		URL:    "https://news.google.com/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGRqTVhZU0FtVnVHZ0pWVXlnQVAB",
		Topics: []string{"technology"},
	},
	"google_news_business": {
		ID:     "google_news_business",
		URL:    "https://news.google.com/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGx6TVdZU0FtVnVHZ0pWVXlnQVAB",
		Topics: []string{"business"},
	},
	"google_news_world": {
		ID:     "google_news_world",
		URL:    "https://news.google.com/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRFp0Y1RjU0FtVnVHZ0pWVXlnQVAB",
		Topics: []string{"world news"},
	},
	"book_summaries": {
		ID:     "book_summaries",
		URL:    "https://fourminutebooks.com/book-summaries/",
		Topics: []string{"self-help", "productivity"},
	},
}

// aliases map common phrasings onto catalog ids. Keys are normalized
// (lower-case, trimmed) before lookup.
var aliases = map[string]string{
	"medium.com":     "medium",
	"tech":           "google_news_tech",
	"tech news":      "google_news_tech",
	"technology":     "google_news_tech",
	"google news":    "google_news_tech",
	"business":       "google_news_business",
	"business news":  "google_news_business",
	"world":          "google_news_world",
	"world news":     "google_news_world",
	"books":          "book_summaries",
	"book summaries": "book_summaries",
}

// Resolve matches a user-supplied name or URL against the catalog.
// Lookup order: exact id, alias, id with separators normalized, then
// absolute-URL parsing. Pure; no side effects.
func Resolve(nameOrURL string) Match {
	normalized := strings.ToLower(strings.TrimSpace(nameOrURL))
	if normalized == "" {
		return Match{Kind: MatchUnresolved}
	}

	if _, ok := sources[normalized]; ok {
		return Match{Kind: MatchCatalog, ID: normalized}
	}
	if id, ok := aliases[normalized]; ok {
		return Match{Kind: MatchCatalog, ID: id}
	}

	// "google news tech" and "google-news-tech" should hit google_news_tech.
	idForm := strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	if _, ok := sources[idForm]; ok {
		return Match{Kind: MatchCatalog, ID: idForm}
	}

	if u := parseAbsoluteURL(strings.TrimSpace(nameOrURL)); u != "" {
		return Match{Kind: MatchCandidateURL, URL: u}
	}

	return Match{Kind: MatchUnresolved}
}

// Get returns the catalog entry for an id.
func Get(id string) (Source, bool) {
	s, ok := sources[id]
	return s, ok
}

// IDs returns all catalog ids in sorted order, for user-facing listings.
func IDs() []string {
	ids := make([]string, 0, len(sources))
	for id := range sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns every catalog entry, sorted by id.
func All() []Source {
	all := make([]Source, 0, len(sources))
	for _, id := range IDs() {
		all = append(all, sources[id])
	}
	return all
}

// NormalizeURL produces the canonical form used for duplicate detection
// across a subscription's source list.
func NormalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(raw))
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return strings.TrimSuffix(u.String(), "/")
}

// parseAbsoluteURL returns the canonical string form of the input when it is
// a syntactically valid absolute http(s) URL, otherwise "".
func parseAbsoluteURL(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	return u.String()
}
