package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// maxBodyChars bounds the article text sent to the model
const maxBodyChars = 2000

const maxFallbackTags = 5

// Style is the tone requested for a rewrite
type Style string

const (
	StyleProfessional Style = "professional"
	StyleCasual       Style = "casual"
	StyleAcademic     Style = "academic"
)

var styleInstructions = map[Style]string{
	StyleProfessional: "Use a professional, journalistic tone suitable for business publications.",
	StyleCasual:       "Write in a conversational, accessible tone for general readers.",
	StyleAcademic:     "Use a formal, analytical tone with detailed explanations.",
}

// ParseStyle maps a name to a Style; unknown names fall back to professional
func ParseStyle(name string) Style {
	style := Style(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := styleInstructions[style]; ok {
		return style
	}
	return StyleProfessional
}

// Instruction returns the fixed prompt instruction for the style
func (s Style) Instruction() string {
	return styleInstructions[ParseStyle(string(s))]
}

// ArticleRewriter turns a fetched article into a rewritten one. Failures are
// returned in the result, never as a panic or error.
type ArticleRewriter interface {
	Generate(ctx context.Context, article RawArticle, style Style) RewriteResult
}

// Rewriter rewrites articles with a TextGenerator
type Rewriter struct {
	generator   TextGenerator
	prompt      string
	strategy    ParseStrategy
	maxTokens   int
	temperature float64
	now         func() time.Time
}

// NewRewriter creates a Rewriter. The prompt template must contain {{.Content}}.
func NewRewriter(generator TextGenerator, prompt string, strategy ParseStrategy, settings GeneratorSettings) (*Rewriter, error) {
	if generator == nil {
		return nil, fmt.Errorf("rewriter requires a text generator")
	}
	if !strings.Contains(prompt, "{{.Content}}") {
		return nil, fmt.Errorf("rewriter prompt template must contain {{.Content}} variable")
	}
	return &Rewriter{
		generator:   generator,
		prompt:      prompt,
		strategy:    strategy,
		maxTokens:   settings.MaxTokens,
		temperature: settings.Temperature,
		now:         time.Now,
	}, nil
}

// Generate asks the model for a rewrite and parses the response
func (r *Rewriter) Generate(ctx context.Context, article RawArticle, style Style) RewriteResult {
	style = ParseStyle(string(style))
	log.Printf("→ Writing (%s): %s", style, truncateRunes(article.Title, 60))

	text, err := r.generator.Generate(ctx, GenerationRequest{
		Prompt:      r.buildPrompt(article, style),
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	})
	if err != nil {
		return rewriteFailed(article.URL, "%s: %v", r.generator.Name(), err)
	}
	if strings.TrimSpace(text) == "" {
		return rewriteFailed(article.URL, "%s: empty response", r.generator.Name())
	}
	if isEmptyJSON(text) {
		return rewriteFailed(article.URL, "%s: response has no article content", r.generator.Name())
	}

	rewritten := r.buildArticle(article, style, text)
	log.Printf("✓ Writing completed: %s", rewritten.Headline)
	return rewriteOK(rewritten)
}

func (r *Rewriter) buildPrompt(article RawArticle, style Style) string {
	replacer := strings.NewReplacer(
		"{{.Style}}", style.Instruction(),
		"{{.Title}}", valueOr(article.Title, "N/A"),
		"{{.Source}}", valueOr(article.Source, "N/A"),
		"{{.Date}}", valueOr(article.PublishedAt, "N/A"),
		"{{.Content}}", limitContent(article.Body, maxBodyChars),
	)
	return replacer.Replace(r.prompt)
}

func (r *Rewriter) buildArticle(article RawArticle, style Style, text string) *RewrittenArticle {
	parsed := parseResponse(text, r.strategy)

	headline := strings.TrimSpace(parsed.Headline)
	if headline == "" {
		headline = article.Title
	}
	body := strings.TrimSpace(parsed.Body)
	if body == "" {
		body = strings.TrimSpace(text)
	}
	tags := parsed.Tags
	if len(tags) == 0 && len(article.Categories) > 0 {
		n := min(len(article.Categories), maxFallbackTags)
		tags = append([]string(nil), article.Categories[:n]...)
	}
	lead := strings.TrimSpace(parsed.Lead)
	conclusion := strings.TrimSpace(parsed.Conclusion)
	wordCount := parsed.WordCount
	if wordCount <= 0 {
		wordCount = countWords(lead, body, conclusion)
	}

	return &RewrittenArticle{
		Headline:    headline,
		Lead:        lead,
		Body:        body,
		Conclusion:  conclusion,
		Tags:        tags,
		WordCount:   wordCount,
		SourceRef:   article.URL,
		SourceName:  article.Source,
		PublishedAt: article.PublishedAt,
		Style:       style,
		GeneratedAt: r.now(),
	}
}

// limitContent cuts content to maxChars characters
func limitContent(content string, maxChars int) string {
	runes := []rune(content)
	if len(runes) <= maxChars {
		return content
	}
	return string(runes[:maxChars]) + "..."
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func countWords(parts ...string) int {
	total := 0
	for _, p := range parts {
		total += len(strings.Fields(p))
	}
	return total
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
