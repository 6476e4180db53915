package main

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

// fakeGenerator returns canned responses and records prompts
type fakeGenerator struct {
	response string
	err      error
	requests []GenerationRequest
}

func (f *fakeGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	f.requests = append(f.requests, req)
	return f.response, f.err
}

func (f *fakeGenerator) Name() string {
	return "fake"
}

func newTestRewriter(t *testing.T, gen TextGenerator, strategy ParseStrategy) *Rewriter {
	t.Helper()
	prompt := defaultJSONPrompt
	if strategy == StrategyMarkers {
		prompt = defaultMarkersPrompt
	}
	r, err := NewRewriter(gen, prompt, strategy, GeneratorSettings{MaxTokens: 2000, Temperature: 0.7})
	if err != nil {
		t.Fatalf("NewRewriter() error = %v", err)
	}
	r.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	return r
}

var sampleArticle = RawArticle{
	Title:       "Original Title",
	Body:        "Original body text.",
	URL:         "https://example.com/story",
	PublishedAt: "2025-01-01T10:00:00Z",
	Source:      "Example News",
	Categories:  []string{"a", "b", "c", "d", "e", "f"},
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name     string
		expected Style
	}{
		{"professional", StyleProfessional},
		{"casual", StyleCasual},
		{"ACADEMIC", StyleAcademic},
		{"", StyleProfessional},
		{"pirate", StyleProfessional},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := ParseStyle(tt.name); result != tt.expected {
				t.Errorf("ParseStyle(%q) = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

func TestNewRewriterValidatesPrompt(t *testing.T) {
	gen := &fakeGenerator{}

	if _, err := NewRewriter(gen, "no content variable", StrategyJSON, GeneratorSettings{}); err == nil {
		t.Error("expected error for prompt without {{.Content}}")
	}
	if _, err := NewRewriter(nil, defaultJSONPrompt, StrategyJSON, GeneratorSettings{}); err == nil {
		t.Error("expected error for nil generator")
	}
}

func TestRewriterPrompt(t *testing.T) {
	gen := &fakeGenerator{response: "HEADLINE: H\nBODY: B"}
	r := newTestRewriter(t, gen, StrategyMarkers)

	article := sampleArticle
	article.Body = strings.Repeat("x", 2500)
	r.Generate(context.Background(), article, "casual")

	if len(gen.requests) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.requests))
	}
	req := gen.requests[0]

	if req.MaxTokens != 2000 || req.Temperature != 0.7 {
		t.Errorf("request settings = %d/%v, want 2000/0.7", req.MaxTokens, req.Temperature)
	}
	for _, want := range []string{"Original Title", "Example News", "2025-01-01T10:00:00Z", styleInstructions[StyleCasual]} {
		if !strings.Contains(req.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(req.Prompt, strings.Repeat("x", 2001)) {
		t.Error("prompt body not truncated to 2000 characters")
	}
	if !strings.Contains(req.Prompt, strings.Repeat("x", 2000)+"...") {
		t.Error("prompt body should be the first 2000 characters followed by ...")
	}
	if strings.Contains(req.Prompt, "{{.") {
		t.Error("prompt still contains template variables")
	}
}

func TestRewriterJSONResponse(t *testing.T) {
	gen := &fakeGenerator{response: "```json\n{\"headline\":\"H\",\"lead\":\"L\",\"body\":\"B\",\"conclusion\":\"\",\"tags\":[\"x\"],\"word_count\":2}\n```"}
	r := newTestRewriter(t, gen, StrategyJSON)

	result := r.Generate(context.Background(), sampleArticle, StyleProfessional)

	if !result.OK() {
		t.Fatalf("Generate() failed: %v", result.Failure)
	}
	a := result.Article
	if a.Headline != "H" || a.Lead != "L" || a.Body != "B" || a.Conclusion != "" {
		t.Errorf("unexpected article fields: %+v", a)
	}
	if !reflect.DeepEqual(a.Tags, []string{"x"}) || a.WordCount != 2 {
		t.Errorf("tags/word count = %v/%d, want [x]/2", a.Tags, a.WordCount)
	}
	if a.SourceRef != sampleArticle.URL || a.SourceName != sampleArticle.Source {
		t.Errorf("source metadata not carried over: %+v", a)
	}
	if a.Style != StyleProfessional {
		t.Errorf("style = %q", a.Style)
	}
	if !a.GeneratedAt.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("GeneratedAt = %v", a.GeneratedAt)
	}
}

func TestRewriterMarkerFallbacks(t *testing.T) {
	gen := &fakeGenerator{response: "LEAD: Just a lead paragraph here."}
	r := newTestRewriter(t, gen, StrategyMarkers)

	result := r.Generate(context.Background(), sampleArticle, StyleAcademic)

	if !result.OK() {
		t.Fatalf("Generate() failed: %v", result.Failure)
	}
	a := result.Article
	if a.Headline != sampleArticle.Title {
		t.Errorf("headline = %q, want original title", a.Headline)
	}
	if a.Body != gen.response {
		t.Errorf("body = %q, want full response text", a.Body)
	}
	if a.Lead != "Just a lead paragraph here." {
		t.Errorf("lead = %q", a.Lead)
	}
	if !reflect.DeepEqual(a.Tags, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("tags = %v, want first 5 categories", a.Tags)
	}
	if a.WordCount != countWords(a.Lead, a.Body) {
		t.Errorf("word count = %d", a.WordCount)
	}
}

func TestRewriterFailures(t *testing.T) {
	tests := []struct {
		name     string
		gen      *fakeGenerator
		contains string
	}{
		{"remote error", &fakeGenerator{err: errors.New("quota exceeded")}, "quota exceeded"},
		{"empty response", &fakeGenerator{response: ""}, "empty response"},
		{"whitespace response", &fakeGenerator{response: "  \n\t"}, "empty response"},
		{"null response", &fakeGenerator{response: "null"}, "no article content"},
		{"empty object response", &fakeGenerator{response: "```json\n{}\n```"}, "no article content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRewriter(t, tt.gen, StrategyJSON)

			result := r.Generate(context.Background(), sampleArticle, StyleProfessional)

			if result.OK() || result.Article != nil {
				t.Fatal("expected failure result")
			}
			if result.Failure.SourceRef != sampleArticle.URL {
				t.Errorf("SourceRef = %q, want %q", result.Failure.SourceRef, sampleArticle.URL)
			}
			if !strings.Contains(result.Failure.Reason, tt.contains) {
				t.Errorf("Reason = %q, want it to contain %q", result.Failure.Reason, tt.contains)
			}
		})
	}
}

func TestLimitContent(t *testing.T) {
	if got := limitContent("short", 10); got != "short" {
		t.Errorf("limitContent() = %q", got)
	}
	if got := limitContent("héllo wörld", 5); got != "héllo..." {
		t.Errorf("limitContent() = %q, want rune-safe cut", got)
	}
}
