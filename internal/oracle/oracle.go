// Package oracle turns raw posts into structured classifications using a
// language-model completer. It owns the prompt and the response contract.
package oracle

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"text/template"

	"AhaAggregator/internal/domain"
	"AhaAggregator/internal/ports"
)

// DefaultExcerptLimit bounds the post body sent to the model, in runes.
const DefaultExcerptLimit = 1500

//go:embed prompt.tmpl
var promptSource string

var promptTemplate = template.Must(template.New("prompt").Parse(promptSource))

// Oracle implements ports.Oracle on top of any Completer.
type Oracle struct {
	completer    ports.Completer
	excerptLimit int
}

var _ ports.Oracle = (*Oracle)(nil)

// New wraps completer; a non-positive excerptLimit uses DefaultExcerptLimit.
func New(completer ports.Completer, excerptLimit int) *Oracle {
	if excerptLimit <= 0 {
		excerptLimit = DefaultExcerptLimit
	}
	return &Oracle{completer: completer, excerptLimit: excerptLimit}
}

// Classify makes exactly one completion call. Unparseable replies surface as
// *domain.ParseError.
func (o *Oracle) Classify(ctx context.Context, item domain.RawItem) (domain.ClassificationResult, error) {
	if o.completer == nil {
		return domain.ClassificationResult{}, errors.New("oracle has no completer")
	}

	prompt, err := o.Prompt(item)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	reply, err := o.completer.Complete(ctx, prompt)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("oracle completion: %w", err)
	}

	return ParseResult(reply)
}

// Prompt renders the instruction template for item.
func (o *Oracle) Prompt(item domain.RawItem) (string, error) {
	tool := item.AITool
	if tool == "" {
		tool = domain.DefaultAITool
	}

	var buf bytes.Buffer
	err := promptTemplate.Execute(&buf, struct {
		Source string
		Title  string
		Text   string
		AITool string
	}{
		Source: string(item.Source),
		Title:  item.Title,
		Text:   domain.Excerpt(item.Text, o.excerptLimit),
		AITool: tool,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
