package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/infrastructure/storage"
	"AhaAggregator/internal/pacing"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

type fakeSource struct {
	items []domain.RawItem
	calls int
}

func (f *fakeSource) FetchCandidates(context.Context) ([]domain.RawItem, error) {
	f.calls++
	out := make([]domain.RawItem, len(f.items))
	copy(out, f.items)
	return out, nil
}

type fakeOracle struct {
	results map[string]domain.ClassificationResult
	errs    map[string]error
	calls   []string
}

func (f *fakeOracle) Classify(_ context.Context, item domain.RawItem) (domain.ClassificationResult, error) {
	f.calls = append(f.calls, item.URL)
	if err, ok := f.errs[item.URL]; ok {
		return domain.ClassificationResult{}, err
	}
	return f.results[item.URL], nil
}

type fakeRenderer struct {
	got []domain.AcceptedMoment
}

func (f *fakeRenderer) Render(_ context.Context, moments []domain.AcceptedMoment) (string, error) {
	f.got = moments
	return "out.html", nil
}

type fakeNotifier struct {
	digests []string
}

func (f *fakeNotifier) PublishDigest(_ context.Context, digest string) error {
	f.digests = append(f.digests, digest)
	return nil
}

type logs struct {
	raw        *storage.JSONLLog[domain.RawItem]
	classified *storage.JSONLLog[domain.ClassifiedItem]
	accepted   *storage.JSONLLog[domain.AcceptedMoment]
}

func newLogs(t *testing.T) logs {
	t.Helper()
	dir := t.TempDir()
	return logs{
		raw:        storage.NewJSONLLog[domain.RawItem](filepath.Join(dir, "raw.jsonl"), nil),
		classified: storage.NewJSONLLog[domain.ClassifiedItem](filepath.Join(dir, "classified.jsonl"), nil),
		accepted:   storage.NewJSONLLog[domain.AcceptedMoment](filepath.Join(dir, "accepted.jsonl"), nil),
	}
}

func newClassifier(l logs, oracle *fakeOracle, rec *pacing.Recorder) *Classifier {
	return NewClassifier(ClassifierDeps{
		RawLog:        l.raw,
		ClassifiedLog: l.classified,
		AcceptedLog:   l.accepted,
		Oracle:        oracle,
		MinConfidence: 60,
		MinScore:      5,
		Delay:         500 * time.Millisecond,
		Sleep:         rec.Sleep,
		Now:           func() time.Time { return fixedNow },
	})
}

func urlsOf[T any](t *testing.T, load func(context.Context) ([]T, error), url func(T) string) []string {
	t.Helper()
	records, err := load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, url(r))
	}
	return out
}

func classifiedURLs(t *testing.T, l logs) []string {
	return urlsOf(t, l.classified.Load, func(c domain.ClassifiedItem) string { return c.URL })
}

func acceptedURLs(t *testing.T, l logs) []string {
	return urlsOf(t, l.accepted.Load, func(m domain.AcceptedMoment) string { return m.URL })
}

func TestDeduplicateKeepsFirstSeenOrder(t *testing.T) {
	t.Parallel()

	items := []domain.RawItem{
		{URL: "u1", Title: "first"},
		{URL: "u2"},
		{URL: "u1", Title: "second"},
		{URL: ""},
		{URL: "u3"},
		{URL: "u2"},
	}
	got := Deduplicate(items)

	var urls []string
	for _, it := range got {
		urls = append(urls, it.URL)
	}
	if diff := cmp.Diff([]string{"u1", "u2", "u3"}, urls); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if got[0].Title != "first" {
		t.Fatalf("expected first occurrence to win, got %q", got[0].Title)
	}
}

func TestSelectNewDropsExisting(t *testing.T) {
	t.Parallel()

	got := SelectNew([]domain.RawItem{{URL: "a"}, {URL: "b"}, {URL: "c"}}, map[string]struct{}{"b": {}})
	if len(got) != 2 || got[0].URL != "a" || got[1].URL != "c" {
		t.Fatalf("unexpected selection %+v", got)
	}
}

func TestCollectIsIdempotentAcrossRuns(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	src := &fakeSource{items: []domain.RawItem{{URL: "a", Score: 10}, {URL: "b", Score: 3}, {URL: "a", Score: 99}}}
	c := NewCollector(CollectorDeps{Source: src, RawLog: l.raw, Now: func() time.Time { return fixedNow }})

	first, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("first Collect: %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("expected 2 new items, got %d", len(first))
	}
	if !first[0].ScrapedAt.Equal(fixedNow) {
		t.Fatalf("expected scraped_at stamp, got %v", first[0].ScrapedAt)
	}

	src.items = append(src.items, domain.RawItem{URL: "c"})
	second, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("second Collect: %v", err)
	}
	if len(second) != 1 || second[0].URL != "c" {
		t.Fatalf("expected only c on re-run, got %+v", second)
	}

	got := urlsOf(t, l.raw.Load, func(r domain.RawItem) string { return r.URL })
	if diff := cmp.Diff([]string{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("raw log mismatch (-want +got):\n%s", diff)
	}
}

func TestClassifyAcceptedScenario(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	if err := l.raw.Append(context.Background(), domain.RawItem{URL: "a", Score: 10}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	oracle := &fakeOracle{results: map[string]domain.ClassificationResult{
		"a": {IsValidAhaMoment: true, Confidence: 80, Layer: domain.LayerWow},
	}}

	got, err := newClassifier(l, oracle, &pacing.Recorder{}).ClassifyAll(context.Background())
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(got) != 1 || got[0].URL != "a" {
		t.Fatalf("expected a to be accepted, got %+v", got)
	}
	if diff := cmp.Diff([]string{"a"}, classifiedURLs(t, l)); diff != "" {
		t.Fatalf("classified log (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, acceptedURLs(t, l)); diff != "" {
		t.Fatalf("accepted log (-want +got):\n%s", diff)
	}
}

func TestClassifyRejectedScenario(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	if err := l.raw.Append(context.Background(), domain.RawItem{URL: "a", Score: 10}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	oracle := &fakeOracle{results: map[string]domain.ClassificationResult{
		"a": {IsValidAhaMoment: false, Confidence: 95},
	}}

	got, err := newClassifier(l, oracle, &pacing.Recorder{}).ClassifyAll(context.Background())
	if err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected nothing accepted, got %+v", got)
	}
	if diff := cmp.Diff([]string{"a"}, classifiedURLs(t, l)); diff != "" {
		t.Fatalf("classified log (-want +got):\n%s", diff)
	}
	if n := len(acceptedURLs(t, l)); n != 0 {
		t.Fatalf("expected empty accepted log, got %d", n)
	}
}

func TestClassifyLowScoreMakesNoCalls(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	if err := l.raw.Append(context.Background(), domain.RawItem{URL: "b", Score: 2}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	oracle := &fakeOracle{}
	rec := &pacing.Recorder{}

	_, stats, err := newClassifier(l, oracle, rec).Classify(context.Background())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(oracle.calls) != 0 {
		t.Fatalf("expected zero oracle calls, got %v", oracle.calls)
	}
	if stats.LowEngagement != 1 {
		t.Fatalf("expected one low-engagement skip, got %+v", stats)
	}
	if len(classifiedURLs(t, l)) != 0 || len(acceptedURLs(t, l)) != 0 {
		t.Fatalf("low-score item must not be written")
	}
	if len(rec.Delays) != 0 {
		t.Fatalf("skips must not be paced, got %v", rec.Delays)
	}
}

func TestClassifySkipsFailuresAndPacesBetweenCalls(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	seed := []domain.RawItem{
		{URL: "ok1", Score: 50},
		{URL: "bad", Score: 50},
		{URL: "low", Score: 1},
		{URL: "ok1", Score: 50},
		{URL: "down", Score: 50},
		{URL: "ok2", Score: 50},
	}
	if err := l.raw.Append(context.Background(), seed...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	oracle := &fakeOracle{
		results: map[string]domain.ClassificationResult{
			"ok1": {IsValidAhaMoment: true, Confidence: 60},
			"ok2": {IsValidAhaMoment: true, Confidence: 59},
		},
		errs: map[string]error{
			"bad":  &domain.ParseError{Input: "not json", Err: errors.New("invalid character")},
			"down": errors.New("503 overloaded"),
		},
	}
	rec := &pacing.Recorder{}

	got, stats, err := newClassifier(l, oracle, rec).Classify(context.Background())
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	if diff := cmp.Diff([]string{"ok1", "bad", "down", "ok2"}, oracle.calls); diff != "" {
		t.Fatalf("oracle calls (-want +got):\n%s", diff)
	}
	if len(rec.Delays) != 3 {
		t.Fatalf("expected a delay between each of 4 calls, got %v", rec.Delays)
	}
	if diff := cmp.Diff([]string{"ok1", "ok2"}, classifiedURLs(t, l)); diff != "" {
		t.Fatalf("classified log (-want +got):\n%s", diff)
	}
	if len(got) != 1 || got[0].URL != "ok1" {
		t.Fatalf("expected only ok1 accepted at threshold, got %+v", got)
	}
	want := ClassifyStats{Pending: 5, LowEngagement: 1, Failed: 2, Classified: 2, Accepted: 1}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Fatalf("stats (-want +got):\n%s", diff)
	}

	// A second run must not call the oracle for anything already classified.
	oracle.calls = nil
	if _, err := newClassifier(l, oracle, &pacing.Recorder{}).ClassifyAll(context.Background()); err != nil {
		t.Fatalf("second ClassifyAll: %v", err)
	}
	if diff := cmp.Diff([]string{"bad", "down"}, oracle.calls); diff != "" {
		t.Fatalf("second run calls (-want +got):\n%s", diff)
	}
}

func TestAcceptedAlwaysHasMatchingClassifiedRecord(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	oracle := &fakeOracle{results: map[string]domain.ClassificationResult{}}
	var seed []domain.RawItem
	for i, conf := range []int{10, 59, 60, 61, 100, 75} {
		url := string(rune('a' + i))
		seed = append(seed, domain.RawItem{URL: url, Score: 10})
		oracle.results[url] = domain.ClassificationResult{IsValidAhaMoment: i%2 == 0, Confidence: domain.Confidence(conf)}
	}
	if err := l.raw.Append(context.Background(), seed...); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := newClassifier(l, oracle, &pacing.Recorder{}).ClassifyAll(context.Background()); err != nil {
		t.Fatalf("ClassifyAll: %v", err)
	}

	classified, err := l.classified.Load(context.Background())
	if err != nil {
		t.Fatalf("load classified: %v", err)
	}
	byURL := make(map[string]domain.ClassifiedItem, len(classified))
	for _, c := range classified {
		byURL[c.URL] = c
	}
	accepted, err := l.accepted.Load(context.Background())
	if err != nil {
		t.Fatalf("load accepted: %v", err)
	}
	if len(accepted) == 0 {
		t.Fatalf("expected some accepted moments")
	}
	for _, m := range accepted {
		c, ok := byURL[m.URL]
		if !ok {
			t.Fatalf("accepted %s has no classified record", m.URL)
		}
		if !c.IsValidAhaMoment || c.Confidence < 60 {
			t.Fatalf("accepted %s does not meet criteria: %+v", m.URL, c.ClassificationResult)
		}
	}
}

func TestPipelineRunSkipsClassifyWhenNothingNew(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	if err := l.raw.Append(context.Background(), domain.RawItem{URL: "old", Score: 50}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	oracle := &fakeOracle{}
	renderer := &fakeRenderer{}
	p := NewPipeline(PipelineDeps{
		Collector:   NewCollector(CollectorDeps{Source: &fakeSource{items: []domain.RawItem{{URL: "old"}}}, RawLog: l.raw}),
		Classifier:  newClassifier(l, oracle, &pacing.Recorder{}),
		AcceptedLog: l.accepted,
		Renderer:    renderer,
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Collected != 0 || len(oracle.calls) != 0 {
		t.Fatalf("expected no classification, summary=%+v calls=%v", summary, oracle.calls)
	}
	if summary.Output != "out.html" || summary.TotalAccepted != 0 {
		t.Fatalf("expected render of empty set, got %+v", summary)
	}
}

func TestPipelineRunEndToEnd(t *testing.T) {
	t.Parallel()

	l := newLogs(t)
	oracle := &fakeOracle{results: map[string]domain.ClassificationResult{
		"a": {IsValidAhaMoment: true, Confidence: 90, Layer: domain.LayerHow, Realization: "It writes tests"},
	}}
	renderer := &fakeRenderer{}
	notifier := &fakeNotifier{}
	p := NewPipeline(PipelineDeps{
		Collector: NewCollector(CollectorDeps{
			Source: &fakeSource{items: []domain.RawItem{{URL: "a", Score: 10, Title: "Claude nailed it", AITool: "Claude"}, {URL: "b", Score: 1}}},
			RawLog: l.raw,
		}),
		Classifier:  newClassifier(l, oracle, &pacing.Recorder{}),
		AcceptedLog: l.accepted,
		Renderer:    renderer,
		Notifier:    notifier,
	})

	summary, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Collected != 2 || summary.Classify.Accepted != 1 || summary.TotalAccepted != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(renderer.got) != 1 || renderer.got[0].URL != "a" {
		t.Fatalf("renderer got %+v", renderer.got)
	}
	if len(notifier.digests) != 1 || !strings.Contains(notifier.digests[0], "Claude nailed it") {
		t.Fatalf("unexpected digests %q", notifier.digests)
	}
}
