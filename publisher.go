package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
)

const (
	maxPreviewLines = 3
	maxErrorBody    = 4096
)

// PublishStatus is the outcome of a publish attempt
type PublishStatus string

const (
	PublishPublished PublishStatus = "published"
	PublishSkipped   PublishStatus = "skipped"
	PublishFailed    PublishStatus = "failed"
)

// PublishResult describes what happened when publishing a run summary
type PublishResult struct {
	Status      PublishStatus
	StatusCode  int
	Body        string
	IssueNumber int
	IssueURL    string
	Err         error
}

// Credentials authenticate against the issue tracker
type Credentials struct {
	Token      string
	Repository string // owner/repo
}

// CredentialsFromEnv reads GITHUB_TOKEN and GITHUB_REPOSITORY; nil when either is missing
func CredentialsFromEnv() *Credentials {
	token := os.Getenv("GITHUB_TOKEN")
	repo := os.Getenv("GITHUB_REPOSITORY")
	if token == "" || repo == "" {
		return nil
	}
	return &Credentials{Token: token, Repository: repo}
}

func (c *Credentials) valid() bool {
	return c != nil && c.Token != "" && c.Repository != ""
}

// ReportPublisher pushes a run summary to an external tracker
type ReportPublisher interface {
	Publish(ctx context.Context, summary *RunSummary, creds *Credentials) PublishResult
}

// IssuePublisher creates one GitHub issue per run
type IssuePublisher struct {
	apiURL    string
	labels    []string
	runNumber string
	client    *http.Client
	now       func() time.Time
}

// NewIssuePublisher creates a publisher for the given API base URL
func NewIssuePublisher(apiURL string, labels []string, runNumber string) *IssuePublisher {
	if runNumber == "" {
		runNumber = "local"
	}
	return &IssuePublisher{
		apiURL:    strings.TrimRight(apiURL, "/"),
		labels:    labels,
		runNumber: runNumber,
		client:    &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

type issueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

type issueResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// Publish creates the issue. Missing credentials skip without any network call.
func (p *IssuePublisher) Publish(ctx context.Context, summary *RunSummary, creds *Credentials) PublishResult {
	if !creds.valid() {
		log.Printf("Issue tracker credentials not found, skipping issue creation")
		return PublishResult{Status: PublishSkipped}
	}

	log.Printf("→ Creating issue for %d articles...", len(summary.Files))
	payload, err := json.Marshal(issueRequest{
		Title:  p.title(summary),
		Body:   p.body(summary),
		Labels: p.labels,
	})
	if err != nil {
		return PublishResult{Status: PublishFailed, Err: fmt.Errorf("encoding issue: %w", err)}
	}

	url := fmt.Sprintf("%s/repos/%s/issues", p.apiURL, creds.Repository)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return PublishResult{Status: PublishFailed, Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+creds.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("✗ Issue creation failed: %v", err)
		return PublishResult{Status: PublishFailed, Err: fmt.Errorf("posting issue: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		log.Printf("✗ Issue creation failed: reading response: %v", err)
		return PublishResult{
			Status:     PublishFailed,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        fmt.Errorf("reading issue response: %w", err),
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("✗ Issue creation failed: HTTP %d", resp.StatusCode)
		debugLog("issue tracker response: %s", body)
		return PublishResult{
			Status:     PublishFailed,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        &HTTPError{StatusCode: resp.StatusCode, URL: url},
		}
	}

	var created issueResponse
	if err := json.Unmarshal(body, &created); err != nil {
		debugLog("decoding issue response: %v", err)
	}
	log.Printf("✓ Created issue #%d %s", created.Number, created.HTMLURL)
	return PublishResult{
		Status:      PublishPublished,
		StatusCode:  resp.StatusCode,
		IssueNumber: created.Number,
		IssueURL:    created.HTMLURL,
	}
}

func (p *IssuePublisher) title(summary *RunSummary) string {
	return fmt.Sprintf("📰 News Bot: %s (Run %s)", summary.Subject(), p.runNumber)
}

// body renders the issue body with a preview of every saved article
func (p *IssuePublisher) body(summary *RunSummary) string {
	doc := markdown.NewMarkdown(io.Discard)

	doc.H1("📰 News Bot Results").PlainText("")
	if summary.Keyword != "" {
		doc.PlainTextf("**Keyword:** `%s`  ", summary.Keyword)
	}
	if summary.Category != "" {
		doc.PlainTextf("**Category:** `%s`  ", summary.Category)
	}
	doc.PlainTextf("**Style:** %s  ", summary.Style).
		PlainTextf("**Run:** %s  ", p.runNumber).
		PlainTextf("**Articles Generated:** %d  ", summary.SuccessCount).
		PlainTextf("**Date:** %s", p.now().UTC().Format("2006-01-02 15:04:05 UTC")).
		PlainText("").
		HorizontalRule().
		PlainText("").
		H2("📋 Generated Articles").
		PlainText("")

	for i, file := range summary.Files {
		content, err := os.ReadFile(file.Path)
		if err != nil {
			log.Printf("Warning: reading %s: %v", file.Path, err)
			doc.H3(fmt.Sprintf("Article %d", i+1)).
				PlainText("").
				PlainTextf("*Error reading file: %v*", err).
				PlainText("").
				HorizontalRule().
				PlainText("")
			continue
		}

		title := extractTitle(string(content))
		if title == "" {
			title = fmt.Sprintf("Article %d", i+1)
		}
		doc.H3("📄 " + title).
			PlainText("").
			PlainText(strings.Join(previewLines(string(content), maxPreviewLines), "\n") + "...").
			PlainText("").
			PlainText("*[Full article available in workflow artifacts]*").
			PlainText("").
			HorizontalRule().
			PlainText("")
	}

	doc.H2("📊 Summary").
		PlainText("").
		BulletList(
			"**Subject:** "+summary.Subject(),
			"**Articles Generated:** "+strconv.Itoa(summary.SuccessCount),
			"**Failures:** "+strconv.Itoa(summary.FailureCount),
			"**Workflow Run:** "+p.runNumber,
			"**Run ID:** "+summary.RunID,
		)

	return doc.String()
}

// extractTitle returns the text of the first "# " heading
func extractTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}

// previewLines returns up to n lines that are not blank, headings, metadata or rules
func previewLines(content string, n int) []string {
	var lines []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "",
			strings.HasPrefix(trimmed, "#"),
			strings.HasPrefix(trimmed, "*"),
			strings.HasPrefix(trimmed, "---"):
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) >= n {
			break
		}
	}
	return lines
}
