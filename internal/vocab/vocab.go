// Package vocab holds the keyword vocabularies used to pre-filter candidate
// posts before they are sent to the classification oracle.
package vocab

import (
	"strings"

	"AhaAggregator/internal/domain"
)

// ToolMapping assigns Label when any of Keywords occurs in the text.
type ToolMapping struct {
	Keywords []string
	Label    string
}

// Vocabulary is immutable after construction; callers receive copies.
type Vocabulary struct {
	ahaPhrases  []string
	aiTools     []string
	mappings    []ToolMapping
	defaultTool string
}

// New lower-cases and copies every input list. An empty defaultTool falls back
// to domain.DefaultAITool.
func New(ahaPhrases, aiTools []string, mappings []ToolMapping, defaultTool string) *Vocabulary {
	if strings.TrimSpace(defaultTool) == "" {
		defaultTool = domain.DefaultAITool
	}
	copied := make([]ToolMapping, 0, len(mappings))
	for _, m := range mappings {
		copied = append(copied, ToolMapping{Keywords: normalize(m.Keywords), Label: m.Label})
	}
	return &Vocabulary{
		ahaPhrases:  normalize(ahaPhrases),
		aiTools:     normalize(aiTools),
		mappings:    copied,
		defaultTool: defaultTool,
	}
}

// HasAhaSignal reports whether text contains any breakthrough phrase.
func (v *Vocabulary) HasAhaSignal(text string) bool {
	return containsAny(strings.ToLower(text), v.ahaPhrases)
}

// HasAIMention reports whether text names any AI tool.
func (v *Vocabulary) HasAIMention(text string) bool {
	return containsAny(strings.ToLower(text), v.aiTools)
}

// ToolFor returns the label of the first mapping that matches.
func (v *Vocabulary) ToolFor(text string) string {
	lower := strings.ToLower(text)
	for _, m := range v.mappings {
		if containsAny(lower, m.Keywords) {
			return m.Label
		}
	}
	return v.defaultTool
}

// Admit applies the mode-specific filter. Search queries already encode the
// aha signal, so only listings need both predicates.
func (v *Vocabulary) Admit(listing bool, text string) bool {
	if !v.HasAIMention(text) {
		return false
	}
	return !listing || v.HasAhaSignal(text)
}

// FullText joins a title and body the way every predicate expects.
func FullText(title, body string) string {
	return title + " " + body
}

func containsAny(lower string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(lower, n) {
			return true
		}
	}
	return false
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
