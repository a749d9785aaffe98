package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/scanner"
	"AhaAggregator/internal/vocab"
)

const (
	redditAPIURL  = "https://www.reddit.com"
	redditLinkURL = "https://reddit.com"
)

// RedditScanner runs keyword searches and subreddit listings against the
// public JSON endpoints.
type RedditScanner struct {
	client *http.Client
	vocab  *vocab.Vocabulary
}

var _ scanner.Scanner = (*RedditScanner)(nil)

// NewRedditScanner wires an HTTP client; a nil client gets a 30s timeout.
func NewRedditScanner(client *http.Client, v *vocab.Vocabulary) *RedditScanner {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &RedditScanner{client: client, vocab: v}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

// Scan performs one search or listing call and returns admitted posts.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.RawItem, error) {
	if strings.TrimSpace(req.Term) == "" {
		return nil, fmt.Errorf("reddit: empty term for site %s", req.SiteName)
	}

	endpoint, err := redditEndpoint(req)
	if err != nil {
		return nil, err
	}

	var listing redditListing
	if err := getJSON(ctx, r.client, endpoint, &listing); err != nil {
		return nil, err
	}

	items := make([]domain.RawItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		full := vocab.FullText(post.Title, post.Selftext)
		if !r.vocab.Admit(req.Listing, full) {
			continue
		}

		subreddit := post.Subreddit
		if subreddit == "" && req.Listing {
			subreddit = req.Term
		}

		items = append(items, domain.RawItem{
			Source:      domain.SourceReddit,
			Subreddit:   subreddit,
			Title:       post.Title,
			Text:        domain.Excerpt(post.Selftext, defaultExcerptLimit),
			URL:         redditLinkURL + post.Permalink,
			Score:       post.Score,
			NumComments: post.NumComments,
			CreatedUTC:  domain.UnixSeconds(post.CreatedUTC),
			Author:      post.Author,
			AITool:      r.vocab.ToolFor(full),
		})
	}

	return items, nil
}

func redditEndpoint(req scanner.Request) (string, error) {
	base := strings.TrimRight(req.BaseURL, "/")
	if base == "" {
		base = redditAPIURL
	}
	limit := strconv.Itoa(limitOrDefault(req.Limit))

	var raw string
	query := url.Values{}
	query.Set("limit", limit)
	if req.Listing {
		raw = base + "/r/" + url.PathEscape(req.Term) + "/new.json"
	} else {
		raw = base + "/search.json"
		query.Set("q", req.Term)
		query.Set("sort", "relevance")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid reddit url %s: %w", raw, err)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Permalink   string  `json:"permalink"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
	Author      string  `json:"author"`
}
