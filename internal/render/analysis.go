// Package render turns the accepted log into a self-contained HTML dashboard.
// Aggregation lives here as pure functions; document.go only serializes.
package render

import (
	"sort"
	"strings"

	"AhaAggregator/internal/domain"
)

// RealizationPhrases are scanned for in each realization, case-insensitively.
var RealizationPhrases = []string{
	"conversation", "dialogue", "partner", "thinking", "first-try",
	"accuracy", "trust", "time", "speed", "document", "pdf",
}

const (
	topPatterns  = 5
	unknownLayer = "unknown"
	unknownTool  = "Unknown"
)

// Count is one bucket of a frequency table.
type Count struct {
	Name  string
	Count int
}

// Analysis is the aggregate insight panel data.
type Analysis struct {
	Total    int
	Patterns []Count
	Layers   []Count
	Levers   []Count
	Tools    []Count
}

// Sort returns a copy ordered curated first, then by confidence descending.
// Ties keep their log order.
func Sort(moments []domain.AcceptedMoment) []domain.AcceptedMoment {
	out := make([]domain.AcceptedMoment, len(moments))
	copy(out, moments)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Curated != out[j].Curated {
			return out[i].Curated
		}
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Analyze computes the frequency tables for the insight panel.
func Analyze(moments []domain.AcceptedMoment) Analysis {
	patterns := map[string]int{}
	layers := map[string]int{}
	levers := map[string]int{}
	tools := map[string]int{}

	for _, m := range moments {
		realization := strings.ToLower(m.Realization)
		for _, phrase := range RealizationPhrases {
			if strings.Contains(realization, phrase) {
				patterns[phrase]++
			}
		}

		layer := string(m.Layer)
		if layer == "" {
			layer = unknownLayer
		}
		layers[layer]++

		for _, lever := range m.GrowthLevers {
			levers[string(lever)]++
		}

		tool := m.AITool
		if tool == "" {
			tool = unknownTool
		}
		tools[tool]++
	}

	top := ranked(patterns)
	if len(top) > topPatterns {
		top = top[:topPatterns]
	}

	return Analysis{
		Total:    len(moments),
		Patterns: top,
		Layers:   ranked(layers),
		Levers:   ranked(levers),
		Tools:    ranked(tools),
	}
}

// ranked orders buckets by count descending, then name.
func ranked(counts map[string]int) []Count {
	out := make([]Count, 0, len(counts))
	for name, n := range counts {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
