package oracle

import (
	"encoding/json"
	"errors"
	"math"
	"strings"

	"AhaAggregator/internal/domain"
)

const fence = "```"

// UnwrapFenced strips a surrounding ``` or ```json code fence, if any.
func UnwrapFenced(reply string) string {
	text := strings.TrimSpace(reply)
	if !strings.HasPrefix(text, fence) {
		return text
	}
	body := text[len(fence):]
	if end := strings.Index(body, fence); end >= 0 {
		body = body[:end]
	}
	body = strings.TrimLeft(body, " \t")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	return strings.TrimSpace(body)
}

type wireResult struct {
	IsValidAhaMoment bool        `json:"is_valid_aha_moment"`
	Layer            string      `json:"layer"`
	GrowthLevers     []string    `json:"growth_levers"`
	UseCase          string      `json:"use_case"`
	Quote            string      `json:"quote"`
	Realization      string      `json:"realization"`
	Provocation      string      `json:"provocation"`
	Confidence       json.Number `json:"confidence"`
}

// ParseResult unwraps and decodes a model reply into a ClassificationResult.
// Anything other than a single JSON object is a *domain.ParseError.
func ParseResult(reply string) (domain.ClassificationResult, error) {
	body := UnwrapFenced(reply)
	if !strings.HasPrefix(body, "{") {
		return domain.ClassificationResult{}, &domain.ParseError{Input: reply, Err: errors.New("reply is not a JSON object")}
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(body), &wire); err != nil {
		return domain.ClassificationResult{}, &domain.ParseError{Input: reply, Err: err}
	}

	confidence, err := confidenceValue(wire.Confidence)
	if err != nil {
		return domain.ClassificationResult{}, &domain.ParseError{Input: reply, Err: err}
	}

	return domain.ClassificationResult{
		IsValidAhaMoment: wire.IsValidAhaMoment,
		Layer:            domain.Layer(strings.ToLower(strings.TrimSpace(wire.Layer))),
		GrowthLevers:     normalizeLevers(wire.GrowthLevers),
		UseCase:          strings.TrimSpace(wire.UseCase),
		Quote:            strings.TrimSpace(wire.Quote),
		Realization:      strings.TrimSpace(wire.Realization),
		Provocation:      strings.TrimSpace(wire.Provocation),
		Confidence:       domain.Confidence(confidence),
	}, nil
}

func confidenceValue(n json.Number) (int, error) {
	if n == "" {
		return 0, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, err
	}
	v := int(math.Round(f))
	switch {
	case v < 0:
		return 0, nil
	case v > 100:
		return 100, nil
	}
	return v, nil
}

func normalizeLevers(values []string) []domain.GrowthLever {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]domain.GrowthLever, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, domain.GrowthLever(v))
	}
	return out
}
