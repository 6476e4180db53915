package main

import (
	"fmt"
	"time"
)

// RawArticle is a news article as returned by the search service
type RawArticle struct {
	Title       string   `json:"title"`
	Body        string   `json:"body"`
	URL         string   `json:"url"`
	PublishedAt string   `json:"published_at"`
	Source      string   `json:"source"`
	Authors     []string `json:"authors"`
	Categories  []string `json:"categories"`
}

// RewrittenArticle represents the generated article written to disk
type RewrittenArticle struct {
	Headline    string    `json:"headline"`
	Lead        string    `json:"lead"`
	Body        string    `json:"body"`
	Conclusion  string    `json:"conclusion"`
	Tags        []string  `json:"tags"`
	WordCount   int       `json:"word_count"`
	SourceRef   string    `json:"original_url"`
	SourceName  string    `json:"original_source"`
	PublishedAt string    `json:"original_date"`
	Style       Style     `json:"style"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GenerationFailure records why a rewrite attempt produced no article
type GenerationFailure struct {
	Reason    string `json:"reason"`
	SourceRef string `json:"source_ref"`
}

func (f *GenerationFailure) Error() string {
	return fmt.Sprintf("generation failed for %s: %s", f.SourceRef, f.Reason)
}

// RewriteResult holds exactly one of Article or Failure
type RewriteResult struct {
	Article *RewrittenArticle
	Failure *GenerationFailure
}

// OK reports whether the rewrite produced an article
func (r RewriteResult) OK() bool {
	return r.Article != nil && r.Failure == nil
}

func rewriteOK(article *RewrittenArticle) RewriteResult {
	return RewriteResult{Article: article}
}

func rewriteFailed(sourceRef, format string, args ...any) RewriteResult {
	return RewriteResult{Failure: &GenerationFailure{
		Reason:    fmt.Sprintf(format, args...),
		SourceRef: sourceRef,
	}}
}

// SavedFile links a written Markdown file to its article
type SavedFile struct {
	Path    string            `json:"path"`
	Article *RewrittenArticle `json:"-"`
}

// IOFailure is returned when an article cannot be persisted
type IOFailure struct {
	Path string
	Err  error
}

func (e *IOFailure) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error {
	return e.Err
}

// ProcessingStatus represents the outcome status of processing an article
type ProcessingStatus string

const (
	StatusSuccess ProcessingStatus = "success"
	StatusError   ProcessingStatus = "error"
)

// ProcessingResult tracks the outcome of processing each fetched article
type ProcessingResult struct {
	URL      string
	Status   ProcessingStatus
	Filename string
	Error    error
}

// RunSummary aggregates the outcome of one run. It is not modified after Run returns.
type RunSummary struct {
	RunID        string
	Keyword      string
	Category     string
	Style        Style
	GeneratedAt  time.Time
	Fetched      int
	Files        []SavedFile
	Failures     []string
	SuccessCount int
	FailureCount int
}

// Failed reports whether the run produced no articles at all
func (s *RunSummary) Failed() bool {
	return s.SuccessCount == 0
}

// Subject returns the keyword, or the category when no keyword was given
func (s *RunSummary) Subject() string {
	if s.Keyword != "" {
		return s.Keyword
	}
	if s.Category != "" {
		return s.Category
	}
	return "latest"
}
