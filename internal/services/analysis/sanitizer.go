package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/greattrades/internal/models"
)

// ExtractCandidate returns the text from the first '{' to the last '}' inclusive.
// Models are asked for bare JSON but may wrap it in prose or markdown fences.
func ExtractCandidate(raw string) (string, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoJSONObject
	}
	return raw[start : end+1], nil
}

// ParseStrict decodes candidate as a single JSON object. No repair is attempted.
func ParseStrict(candidate string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(candidate), &result); err != nil {
		return nil, fmt.Errorf("failed to parse analysis JSON: %w", err)
	}
	return &result, nil
}

// Sanitize runs extract, parse and validate over raw model text. The only
// correction applied is clamping confidence into [0, 100].
func Sanitize(raw string) (*models.AnalysisResult, error) {
	candidate, err := ExtractCandidate(raw)
	if err != nil {
		return nil, err
	}

	result, err := ParseStrict(candidate)
	if err != nil {
		return nil, err
	}

	if !result.IsChart {
		return nil, ErrNotAChart
	}

	result.ClampConfidence()
	return result, nil
}
