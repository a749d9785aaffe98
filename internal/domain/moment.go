package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// Source names the upstream platform a post was collected from.
type Source string

const (
	SourceReddit     Source = "Reddit"
	SourceHackerNews Source = "HackerNews"
)

// Layer is the category of realization described by a moment.
type Layer string

const (
	LayerWow  Layer = "wow"
	LayerHow  Layer = "how"
	LayerWhat Layer = "what"
)

// Layers lists every known layer in display order.
var Layers = []Layer{LayerWow, LayerHow, LayerWhat}

// GrowthLever is a business objective a moment may support.
type GrowthLever string

const (
	LeverActivation      GrowthLever = "activation"
	LeverRetention       GrowthLever = "retention"
	LeverDifferentiation GrowthLever = "differentiation"
	LeverB2B             GrowthLever = "b2b"
)

// GrowthLevers lists every known lever in display order.
var GrowthLevers = []GrowthLever{LeverActivation, LeverRetention, LeverDifferentiation, LeverB2B}

// DefaultAITool is assigned when no tool keyword matches.
const DefaultAITool = "General"

// RawItem is a candidate post as collected from a source. Identity is URL.
type RawItem struct {
	Source      Source      `json:"source"`
	Subreddit   string      `json:"subreddit,omitempty"`
	Title       string      `json:"title"`
	Text        string      `json:"text"`
	URL         string      `json:"url"`
	HNURL       string      `json:"hn_url,omitempty"`
	Score       int         `json:"score"`
	NumComments int         `json:"num_comments"`
	CreatedUTC  UnixSeconds `json:"created_utc"`
	Author      string      `json:"author"`
	AITool      string      `json:"ai_tool"`
	ScrapedAt   Timestamp   `json:"scraped_at"`
}

// ClassificationResult is the structured verdict returned by the oracle.
type ClassificationResult struct {
	IsValidAhaMoment bool          `json:"is_valid_aha_moment"`
	Layer            Layer         `json:"layer"`
	GrowthLevers     []GrowthLever `json:"growth_levers"`
	UseCase          string        `json:"use_case"`
	Quote            string        `json:"quote"`
	Realization      string        `json:"realization"`
	Provocation      string        `json:"provocation"`
	Confidence       Confidence    `json:"confidence"`
}

// Accepted reports whether the result passes the acceptance criteria.
func (r ClassificationResult) Accepted(minConfidence int) bool {
	return r.IsValidAhaMoment && int(r.Confidence) >= minConfidence
}

// ClassifiedItem is written to the audit log for every successful oracle call,
// accepted or not.
type ClassifiedItem struct {
	RawItem
	ClassificationResult
	ClassifiedAt Timestamp `json:"classified_at"`
}

// AcceptedMoment is a classified item that passed acceptance. Curated is set
// by hand after the fact and only affects ordering.
type AcceptedMoment struct {
	ClassifiedItem
	Curated bool `json:"curated,omitempty"`
}

// Excerpt cuts s to at most limit runes. A non-positive limit disables it.
func Excerpt(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}

// Timestamp is a UTC instant that tolerates the naive ISO-8601 strings found
// in older log files.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// NewTimestamp wraps t in UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// MarshalJSON renders RFC 3339 or an empty string for the zero value.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON never fails on a well-formed JSON value; unknown formats yield
// the zero time.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = time.Time{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return nil
}
