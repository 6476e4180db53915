package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseStrategy selects the response format requested from the model and how it is read back
type ParseStrategy string

const (
	// StrategyJSON asks for a JSON object and falls back to markers when it does not decode
	StrategyJSON ParseStrategy = "json"
	// StrategyMarkers asks for HEADLINE:/LEAD:/BODY:/CONCLUSION: sections
	StrategyMarkers ParseStrategy = "markers"
)

// ParseStrategyName returns the strategy for a name; empty means json
func ParseStrategyName(name string) (ParseStrategy, error) {
	switch ParseStrategy(strings.ToLower(strings.TrimSpace(name))) {
	case "", StrategyJSON:
		return StrategyJSON, nil
	case StrategyMarkers:
		return StrategyMarkers, nil
	default:
		return "", fmt.Errorf("unknown parse strategy %q (want json or markers)", name)
	}
}

var sectionMarkers = []string{"HEADLINE:", "LEAD:", "BODY:", "CONCLUSION:"}

// sections holds the raw fields extracted from a model response
type sections struct {
	Headline   string   `json:"headline"`
	Lead       string   `json:"lead"`
	Body       string   `json:"body"`
	Conclusion string   `json:"conclusion"`
	Tags       []string `json:"tags"`
	WordCount  int      `json:"word_count"`
}

// parseResponse reads a model response using the given strategy
func parseResponse(text string, strategy ParseStrategy) sections {
	if strategy == StrategyJSON {
		parsed, err := parseJSONSections(text)
		if err == nil {
			return parsed
		}
		debugLog("JSON parse failed, falling back to markers: %v", err)
	}
	return extractSections(text)
}

// parseJSONSections strips optional code fences and decodes the JSON object
func parseJSONSections(text string) (sections, error) {
	var parsed sections
	cleaned := stripCodeFence(text)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return sections{}, fmt.Errorf("decoding JSON response: %w", err)
	}
	if parsed.empty() {
		return sections{}, errors.New("JSON response has no headline or body")
	}
	return parsed, nil
}

func (s sections) empty() bool {
	return strings.TrimSpace(s.Headline) == "" && strings.TrimSpace(s.Body) == ""
}

// isEmptyJSON reports whether text is valid JSON that carries no article,
// such as null, {} or an object without headline and body
func isEmptyJSON(text string) bool {
	cleaned := stripCodeFence(text)
	if !json.Valid([]byte(cleaned)) {
		return false
	}
	var parsed sections
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return true
	}
	return parsed.empty()
}

// stripCodeFence removes a leading ``` or ```json line and a trailing ``` fence
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(strings.TrimPrefix(text, "```json"), "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// extractSections scans for line-prefixed markers. Each field runs from its
// marker to the next recognised marker or the end of the text. The first
// occurrence of a marker wins.
func extractSections(text string) sections {
	found := make(map[string]*strings.Builder, len(sectionMarkers))
	var current *strings.Builder

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if marker, rest, ok := cutMarker(trimmed); ok {
			if _, seen := found[marker]; seen {
				current = nil
				continue
			}
			current = &strings.Builder{}
			current.WriteString(rest)
			found[marker] = current
			continue
		}
		if current != nil {
			current.WriteString("\n")
			current.WriteString(line)
		}
	}

	field := func(marker string) string {
		if b, ok := found[marker]; ok {
			return strings.TrimSpace(b.String())
		}
		return ""
	}
	return sections{
		Headline:   field("HEADLINE:"),
		Lead:       field("LEAD:"),
		Body:       field("BODY:"),
		Conclusion: field("CONCLUSION:"),
	}
}

func cutMarker(line string) (marker, rest string, ok bool) {
	for _, m := range sectionMarkers {
		if strings.HasPrefix(line, m) {
			return m, line[len(m):], true
		}
	}
	return "", "", false
}
