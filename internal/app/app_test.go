package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"AhaAggregator/internal/config"
	"AhaAggregator/internal/infrastructure/storage"
	"AhaAggregator/internal/logging"
)

const redditSearchBody = `{"data":{"children":[
	{"data":{"title":"Claude finally clicked for me","selftext":"It refactored my service on the first try.","permalink":"/r/ClaudeAI/comments/1/a/","subreddit":"ClaudeAI","score":42,"num_comments":7,"created_utc":1700000000,"author":"dev1"}},
	{"data":{"title":"Cooking tips","selftext":"no assistants here","permalink":"/r/cooking/comments/2/b/","subreddit":"cooking","score":99}},
	{"data":{"title":"ChatGPT is ok","selftext":"meh","permalink":"/r/ChatGPT/comments/3/c/","subreddit":"ChatGPT","score":1}}
]}}`

const oracleReply = "```json\n{\"is_valid_aha_moment\": true, \"layer\": \"how\", \"growth_levers\": [\"activation\"], \"use_case\": \"Code generation\", \"quote\": \"first try\", \"realization\": \"First-try accuracy builds trust\", \"provocation\": \"Show it?\", \"confidence\": 88}\n```"

func testConfig(t *testing.T, redditURL, oracleURL string) config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Data.Dir = filepath.Join(dir, "data")
	cfg.Render.Output = filepath.Join(dir, "site", "index.html")
	cfg.Sites = []config.SiteConfig{{
		Name:    "reddit-search",
		Scanner: "reddit",
		Mode:    config.ModeSearch,
		Terms:   []string{"aha moment"},
		Limit:   10,
		BaseURL: redditURL,
	}}
	cfg.Classifier.Delay = 0
	cfg.Oracle.Provider = "anthropic"
	cfg.Oracle.Endpoint = oracleURL
	cfg.Oracle.APIKey = "test-key"
	cfg.Notifications = config.NotificationConfig{}
	return cfg
}

func TestApplicationRunEndToEnd(t *testing.T) {
	t.Parallel()

	reddit := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, redditSearchBody)
	}))
	t.Cleanup(reddit.Close)

	var oracleCalls atomic.Int32
	oracle := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		oracleCalls.Add(1)
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":`+quoteJSON(oracleReply)+`}]}`)
	}))
	t.Cleanup(oracle.Close)

	cfg := testConfig(t, reddit.URL, oracle.URL)
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	summary, err := application.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The cooking post has no AI mention; the ChatGPT post is below the score floor.
	if summary.Collected != 2 {
		t.Fatalf("expected 2 collected, got %+v", summary)
	}
	if got := oracleCalls.Load(); got != 1 {
		t.Fatalf("expected 1 oracle call, got %d", got)
	}
	if summary.TotalAccepted != 1 || summary.Output != cfg.Render.Output {
		t.Fatalf("unexpected summary %+v", summary)
	}

	html, err := os.ReadFile(cfg.Render.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !strings.Contains(string(html), "First-try accuracy builds trust") {
		t.Fatalf("document missing realization")
	}

	again, err := application.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if again.Collected != 0 || oracleCalls.Load() != 1 {
		t.Fatalf("re-run should be a no-op, got %+v calls=%d", again, oracleCalls.Load())
	}

	stats, err := application.Export(context.Background(), filepath.Join(t.TempDir(), "moments.db"))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if stats.Exported != 1 || stats.ByLayer["how"] != 1 {
		t.Fatalf("unexpected export stats %+v", stats)
	}
}

func TestApplicationRefusesConcurrentRuns(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1", "http://127.0.0.1:1")
	application, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	lock, err := storage.AcquireRunLock(cfg.Data.LockPath())
	if err != nil {
		t.Fatalf("AcquireRunLock: %v", err)
	}
	t.Cleanup(func() { _ = lock.Release() })

	if _, err := application.Collect(context.Background()); !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestNewRejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "", "")
	cfg.Oracle.Provider = "llama"
	if _, err := New(context.Background(), cfg, logging.Discard()); err == nil {
		t.Fatalf("expected provider error")
	}
}

func quoteJSON(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
