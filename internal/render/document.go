package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var documentTemplate = template.Must(
	template.New("document.html.tmpl").
		Funcs(template.FuncMap{
			"title":  titleCase,
			"label":  leverLabel,
			"levers": joinLevers,
		}).
		ParseFS(templateFS, "templates/document.html.tmpl"),
)

// Gaps and Opportunities are editorial notes shown beside the computed
// patterns.
var (
	Gaps = []string{
		"No 'aha' stories about MCP or advanced features",
		"B2B end-user moments are missing entirely",
		"Claude Code 'wow' moments underrepresented",
		"Upgrade-triggering moments not captured",
	}
	Opportunities = []string{
		"'Upload your longest PDF' as onboarding prompt",
		"Side-by-side comparison demos vs. competitors",
		"'Have a conversation' vs. 'give commands'",
		"Code that works on first try, showcased",
	}
)

// SearchLink is a pre-built query for finding more stories by hand.
type SearchLink struct {
	Label string
	URL   string
}

// SearchLinks appear in the "find more" section.
var SearchLinks = []SearchLink{
	{`Reddit: "aha moment"`, "https://www.reddit.com/search/?q=%22aha%20moment%22%20AI%20OR%20ChatGPT%20OR%20Claude&type=link&sort=relevance"},
	{`Reddit: "finally clicked"`, "https://www.reddit.com/search/?q=%22finally%20clicked%22%20AI%20OR%20LLM&type=link&sort=relevance"},
	{`Reddit: "game changer"`, "https://www.reddit.com/search/?q=%22game%20changer%22%20Claude%20OR%20ChatGPT%20OR%20Gemini&type=link&sort=relevance"},
	{"Hacker News", "https://hn.algolia.com/?q=aha%20moment%20AI%20LLM"},
	{"Substack", "https://www.google.com/search?q=site:substack.com+%22changed+how+I%22+AI"},
	{"YouTube", "https://www.youtube.com/results?search_query=%22AI+changed+everything%22+workflow"},
	{"X / Twitter", "https://twitter.com/search?q=%22blown%20away%22%20(claude%20OR%20chatgpt%20OR%20gemini%20OR%20grok)&src=typed_query&f=live"},
}

type documentData struct {
	Title         string
	GeneratedAt   string
	Analysis      Analysis
	Moments       []domain.AcceptedMoment
	Layers        []domain.Layer
	Levers        []domain.GrowthLever
	Gaps          []string
	Opportunities []string
	SearchLinks   []SearchLink
}

// Document writes the full page for moments. Moments are sorted here; the
// caller passes them in log order.
func Document(w io.Writer, title string, moments []domain.AcceptedMoment, generatedAt time.Time) error {
	data := documentData{
		Title:         title,
		GeneratedAt:   generatedAt.UTC().Format("2006-01-02 15:04 UTC"),
		Analysis:      Analyze(moments),
		Moments:       Sort(moments),
		Layers:        domain.Layers,
		Levers:        domain.GrowthLevers,
		Gaps:          Gaps,
		Opportunities: Opportunities,
		SearchLinks:   SearchLinks,
	}
	if err := documentTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("execute document template: %w", err)
	}
	return nil
}

// FileRenderer implements ports.Renderer by writing Document to a file.
type FileRenderer struct {
	output string
	title  string
	now    func() time.Time
}

var _ ports.Renderer = (*FileRenderer)(nil)

// NewFileRenderer renders to output. An empty title uses "Aha-ggregator".
func NewFileRenderer(output, title string) *FileRenderer {
	if title == "" {
		title = "Aha-ggregator"
	}
	return &FileRenderer{output: output, title: title, now: time.Now}
}

// Render replaces the output file atomically and returns its path.
func (r *FileRenderer) Render(ctx context.Context, moments []domain.AcceptedMoment) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := Document(&buf, r.title, moments, r.now()); err != nil {
		return "", err
	}
	if err := writeFileAtomic(r.output, buf.Bytes()); err != nil {
		return "", err
	}
	return r.output, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// titleCase accepts any string-kinded value so templates can pass Layer and
// GrowthLever directly.
func titleCase(v any) string {
	return cases.Title(language.English).String(fmt.Sprint(v))
}

func leverLabel(lever domain.GrowthLever) string {
	if lever == domain.LeverB2B {
		return "B2B"
	}
	return titleCase(lever)
}

func joinLevers(levers []domain.GrowthLever) string {
	parts := make([]string, len(levers))
	for i, l := range levers {
		parts[i] = string(l)
	}
	return strings.Join(parts, " ")
}
