package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/pacing"
	"AhaAggregator/internal/scanner"
	"AhaAggregator/internal/vocab"
)

const (
	algoliaAPIURL  = "https://hn.algolia.com"
	firebaseAPIURL = "https://hacker-news.firebaseio.com"
	hnItemURL      = "https://news.ycombinator.com/item?id="

	hnItemDelay   = 100 * time.Millisecond
	hnItemTimeout = 10 * time.Second
)

// HackerNewsScanner searches stories through Algolia and, for listings, walks
// the Firebase top/new story feeds item by item.
type HackerNewsScanner struct {
	client     *http.Client
	itemClient *http.Client
	vocab      *vocab.Vocabulary
	sleep      pacing.Sleeper
	logger     *slog.Logger
}

var _ scanner.Scanner = (*HackerNewsScanner)(nil)

// NewHackerNewsScanner wires HTTP clients; a nil client gets a 30s timeout and
// item lookups always use a 10s budget.
func NewHackerNewsScanner(client *http.Client, v *vocab.Vocabulary, log *slog.Logger) *HackerNewsScanner {
	itemClient := &http.Client{Timeout: hnItemTimeout}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	} else {
		itemClient.Transport = client.Transport
	}
	return &HackerNewsScanner{
		client:     client,
		itemClient: itemClient,
		vocab:      v,
		sleep:      pacing.Sleep,
		logger:     log,
	}
}

// Name identifies the strategy inside the registry.
func (h *HackerNewsScanner) Name() string {
	return "hackernews"
}

// Scan dispatches on the request mode.
func (h *HackerNewsScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if strings.TrimSpace(req.Term) == "" {
		return nil, fmt.Errorf("hackernews: empty term for site %s", req.SiteName)
	}
	if req.Listing {
		return h.scanFeed(ctx, req)
	}
	return h.search(ctx, req)
}

func (h *HackerNewsScanner) search(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	base := strings.TrimRight(req.BaseURL, "/")
	if base == "" {
		base = algoliaAPIURL
	}
	query := url.Values{}
	query.Set("query", req.Term)
	query.Set("tags", "story")
	query.Set("hitsPerPage", strconv.Itoa(limitOrDefault(req.Limit)))
	endpoint := base + "/api/v1/search?" + query.Encode()

	var resp algoliaResponse
	if err := getJSON(ctx, h.client, endpoint, &resp); err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		text := htmlText(hit.StoryText)
		full := vocab.FullText(hit.Title, text)
		if !h.vocab.Admit(false, full) {
			continue
		}
		discussion := hnItemURL + hit.ObjectID
		link := hit.URL
		if link == "" {
			link = discussion
		}
		items = append(items, domain.RawItem{
			Source:      domain.SourceHackerNews,
			Title:       hit.Title,
			Text:        domain.Excerpt(text, defaultExcerptLimit),
			URL:         link,
			HNURL:       discussion,
			Score:       hit.Points,
			NumComments: hit.NumComments,
			CreatedUTC:  domain.UnixSeconds(hit.CreatedAtI),
			Author:      hit.Author,
			AITool:      h.vocab.ToolFor(full),
		})
	}
	return items, nil
}

// scanFeed reads topstories or newstories and inspects each story. A failed
// item lookup only drops that item.
func (h *HackerNewsScanner) scanFeed(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	base := strings.TrimRight(req.BaseURL, "/")
	if base == "" {
		base = firebaseAPIURL
	}

	var ids []int64
	if err := getJSON(ctx, h.client, fmt.Sprintf("%s/v0/%s.json", base, url.PathEscape(req.Term)), &ids); err != nil {
		return nil, err
	}
	if limit := limitOrDefault(req.Limit); len(ids) > limit {
		ids = ids[:limit]
	}
	h.debug("checking hacker news feed", "feed", req.Term, "stories", len(ids))

	var items []domain.RawItem
	for i, id := range ids {
		if i > 0 {
			if err := h.sleep(ctx, hnItemDelay); err != nil {
				return items, err
			}
		}

		var item firebaseItem
		if err := getJSON(ctx, h.itemClient, fmt.Sprintf("%s/v0/item/%d.json", base, id), &item); err != nil {
			h.debug("skip hacker news item", "id", id, "error", err)
			continue
		}
		if item.Type != "story" {
			continue
		}

		text := htmlText(item.Text)
		full := vocab.FullText(item.Title, text)
		if !h.vocab.Admit(true, full) {
			continue
		}

		discussion := hnItemURL + strconv.FormatInt(id, 10)
		link := item.URL
		if link == "" {
			link = discussion
		}
		items = append(items, domain.RawItem{
			Source:      domain.SourceHackerNews,
			Title:       item.Title,
			Text:        domain.Excerpt(text, defaultExcerptLimit),
			URL:         link,
			HNURL:       discussion,
			Score:       item.Score,
			NumComments: item.Descendants,
			CreatedUTC:  domain.UnixSeconds(item.Time),
			Author:      item.By,
			AITool:      h.vocab.ToolFor(full),
		})
	}
	return items, nil
}

func (h *HackerNewsScanner) debug(msg string, args ...any) {
	if h.logger != nil {
		h.logger.Debug(msg, args...)
	}
}

type algoliaResponse struct {
	Hits []algoliaHit `json:"hits"`
}

type algoliaHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	StoryText   string `json:"story_text"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAtI  int64  `json:"created_at_i"`
}

type firebaseItem struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Text        string `json:"text"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	Time        int64  `json:"time"`
	By          string `json:"by"`
}
