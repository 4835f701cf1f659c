package knowledge

import (
	"slices"
	"strings"
)

// DefaultCategory is assigned to entries that do not name one.
const DefaultCategory = "general"

// Entry is one article, FAQ or document in the corpus.
type Entry struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Tags     []string `json:"tags,omitempty"`
	Category string   `json:"category"`
}

// Summary is the lightweight view of an entry used in listings and search
// results.
type Summary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags,omitempty"`
}

// Hit is a search result.
type Hit struct {
	Entry Entry   `json:"entry"`
	Score float64 `json:"score"`
}

// Summary returns the entry's summary.
func (e Entry) Summary() Summary {
	return Summary{
		ID:       e.ID,
		Title:    e.Title,
		Category: e.Category,
		Tags:     slices.Clone(e.Tags),
	}
}

// Normalized returns a copy with trimmed fields, lower-cased sorted unique
// tags and the default category filled in.
func (e Entry) Normalized() Entry {
	out := Entry{
		ID:       strings.TrimSpace(e.ID),
		Title:    strings.TrimSpace(e.Title),
		Body:     strings.TrimSpace(e.Body),
		Tags:     NormalizeTags(e.Tags),
		Category: strings.ToLower(strings.TrimSpace(e.Category)),
	}
	if out.Category == "" {
		out.Category = DefaultCategory
	}
	return out
}

// NormalizeTags lower-cases, trims, de-duplicates and sorts tags. Empty
// tags are dropped; nil is returned when nothing is left. Unlike
// model.NormalizeTags it keeps spaces and non-ASCII letters and does not
// cap the count, since knowledge tags are matched as article text.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (e Entry) clone() Entry {
	e.Tags = slices.Clone(e.Tags)
	return e
}
