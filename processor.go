package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ArticleWriter persists a rewritten article
type ArticleWriter interface {
	Save(article *RewrittenArticle, filenameHint string) (SavedFile, error)
}

// RunOptions selects what a single run fetches and how it is written
type RunOptions struct {
	Criteria    Criteria
	Style       Style
	Credentials *Credentials
	Publish     bool
}

// ArticleProcessor runs the fetch, rewrite, save and publish pipeline for one criteria set
type ArticleProcessor struct {
	source       ArticleSource
	rewriter     ArticleRewriter
	writer       ArticleWriter
	publisher    ReportPublisher
	delay        time.Duration
	outputDir    string
	writeSummary bool

	sleep    func(ctx context.Context, d time.Duration)
	now      func() time.Time
	newRunID func() string
}

// NewArticleProcessor wires the pipeline components together
func NewArticleProcessor(source ArticleSource, rewriter ArticleRewriter, writer ArticleWriter, publisher ReportPublisher, settings *Settings) *ArticleProcessor {
	return &ArticleProcessor{
		source:       source,
		rewriter:     rewriter,
		writer:       writer,
		publisher:    publisher,
		delay:        settings.Delay,
		outputDir:    settings.OutputDirectory,
		writeSummary: settings.WriteSummary,
		sleep:        sleepContext,
		now:          time.Now,
		newRunID:     uuid.NewString,
	}
}

// Run processes every fetched article in order and returns the run summary.
// Failures of individual articles are recorded and never stop the run.
func (ap *ArticleProcessor) Run(ctx context.Context, opts RunOptions) (*RunSummary, PublishResult) {
	style := ParseStyle(string(opts.Style))
	summary := &RunSummary{
		RunID:       ap.newRunID(),
		Keyword:     opts.Criteria.Keyword,
		Category:    opts.Criteria.Category,
		Style:       style,
		GeneratedAt: ap.now(),
	}
	log.Printf("Run %s started", summary.RunID)

	articles := ap.source.Fetch(ctx, opts.Criteria)
	summary.Fetched = len(articles)
	if len(articles) == 0 {
		log.Printf("✗ No articles found")
	} else {
		log.Printf("Processing %d articles...", len(articles))
	}

	var generated []*RewrittenArticle
	for i, article := range articles {
		if i > 0 && ap.delay > 0 {
			debugLog("waiting %s before next generation call", ap.delay)
			ap.sleep(ctx, ap.delay)
		}

		log.Printf("[%d/%d] Processing: %s", i+1, len(articles), article.URL)
		result, saved := ap.processArticle(ctx, article, style)
		switch result.Status {
		case StatusSuccess:
			summary.SuccessCount++
			summary.Files = append(summary.Files, saved)
			generated = append(generated, saved.Article)
			log.Printf("✓ Generated: %s", result.Filename)
		default:
			summary.FailureCount++
			summary.Failures = append(summary.Failures, result.Error.Error())
			log.Printf("✗ Failed %s: %v", result.URL, result.Error)
		}
	}

	log.Printf("Run %s: %d succeeded, %d failed", summary.RunID, summary.SuccessCount, summary.FailureCount)

	if ap.writeSummary && summary.SuccessCount > 0 {
		if path, err := ap.saveSummary(summary, generated); err != nil {
			log.Printf("✗ Failed to save summary: %v", err)
		} else {
			log.Printf("✓ Summary saved: %s", path)
		}
	}

	publish := PublishResult{Status: PublishSkipped}
	if opts.Publish && ap.publisher != nil && summary.SuccessCount > 0 {
		publish = ap.publisher.Publish(ctx, summary, opts.Credentials)
	}
	return summary, publish
}

// processArticle generates and saves one article
func (ap *ArticleProcessor) processArticle(ctx context.Context, article RawArticle, style Style) (ProcessingResult, SavedFile) {
	rewrite := ap.rewriter.Generate(ctx, article, style)
	if !rewrite.OK() {
		failure := rewrite.Failure
		if failure == nil {
			failure = &GenerationFailure{Reason: "no article returned", SourceRef: article.URL}
		}
		return ProcessingResult{URL: article.URL, Status: StatusError, Error: failure}, SavedFile{}
	}

	saved, err := ap.writer.Save(rewrite.Article, "")
	if err != nil {
		return ProcessingResult{
			URL:    article.URL,
			Status: StatusError,
			Error:  fmt.Errorf("saving article: %w", err),
		}, SavedFile{}
	}

	return ProcessingResult{URL: article.URL, Status: StatusSuccess, Filename: saved.Path}, saved
}

type summaryDocument struct {
	RunID             string              `json:"run_id"`
	Date              string              `json:"date"`
	Keyword           string              `json:"keyword,omitempty"`
	Category          string              `json:"category,omitempty"`
	Style             Style               `json:"style"`
	ArticlesGenerated int                 `json:"articles_generated"`
	SuccessCount      int                 `json:"success_count"`
	FailureCount      int                 `json:"failure_count"`
	Files             []string            `json:"files"`
	Articles          []*RewrittenArticle `json:"articles"`
	Failures          []string            `json:"failures,omitempty"`
}

// saveSummary writes news_summary_YYYYMMDD.json into the output directory
func (ap *ArticleProcessor) saveSummary(summary *RunSummary, articles []*RewrittenArticle) (string, error) {
	doc := summaryDocument{
		RunID:             summary.RunID,
		Date:              summary.GeneratedAt.Format("2006-01-02"),
		Keyword:           summary.Keyword,
		Category:          summary.Category,
		Style:             summary.Style,
		ArticlesGenerated: summary.SuccessCount,
		SuccessCount:      summary.SuccessCount,
		FailureCount:      summary.FailureCount,
		Files:             make([]string, 0, len(summary.Files)),
		Articles:          articles,
		Failures:          summary.Failures,
	}
	for _, file := range summary.Files {
		doc.Files = append(doc.Files, file.Path)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}

	if err := os.MkdirAll(ap.outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(ap.outputDir, fmt.Sprintf("news_summary_%s.json", summary.GeneratedAt.Format("20060102")))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}
	return path, nil
}

// sleepContext waits for d or until ctx is done
func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
