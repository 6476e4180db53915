package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func articleContent(headline, url string) string {
	return "# " + headline + "\n\n## Summary\n\nLead\n\n---\n\n*Generated by news-bot*  \n**Original URL:** " + url + "\n"
}

func writeArticle(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseArticle(t *testing.T) {
	file := parseArticle("/tmp/Robots_20250102_030405.md", articleContent("Robots Rising", "https://example.com/r"))

	if file.Headline != "Robots Rising" {
		t.Errorf("Headline = %q", file.Headline)
	}
	if file.OriginalURL != "https://example.com/r" {
		t.Errorf("OriginalURL = %q", file.OriginalURL)
	}
	if file.Timestamp != "20250102_030405" {
		t.Errorf("Timestamp = %q", file.Timestamp)
	}
}

func TestListArticles(t *testing.T) {
	dir := t.TempDir()
	writeArticle(t, dir, "B_20250102_000000.md", articleContent("Second", "https://example.com/b"))
	writeArticle(t, dir, "A_20250101_000000.md", articleContent("First", "https://example.com/a"))
	writeArticle(t, dir, "news_summary_20250101.json", "{}")

	var out bytes.Buffer
	if err := listArticles(dir, &out); err != nil {
		t.Fatalf("listArticles() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("output = %q", out.String())
	}
	if lines[0] != "A_20250101_000000.md\tFirst\thttps://example.com/a" {
		t.Errorf("first line = %q", lines[0])
	}
	if lines[2] != "2 articles" {
		t.Errorf("last line = %q", lines[2])
	}
}

func TestRemoveDuplicates(t *testing.T) {
	dir := t.TempDir()
	oldest := writeArticle(t, dir, "A_20250101_000000.md", articleContent("A", "https://example.com/dup"))
	middle := writeArticle(t, dir, "A_20250102_000000.md", articleContent("A again", "https://example.com/dup"))
	newest := writeArticle(t, dir, "A_20250103_000000.md", articleContent("A third", "https://example.com/dup"))
	unique := writeArticle(t, dir, "B_20250101_000000.md", articleContent("B", "https://example.com/b"))

	var out bytes.Buffer
	if err := removeDuplicates(dir, strings.NewReader("y\nn\n"), &out); err != nil {
		t.Fatalf("removeDuplicates() error = %v", err)
	}

	for path, shouldExist := range map[string]bool{oldest: true, middle: false, newest: true, unique: true} {
		_, err := os.Stat(path)
		if exists := err == nil; exists != shouldExist {
			t.Errorf("%s exists = %v, want %v", filepath.Base(path), exists, shouldExist)
		}
	}
	for _, want := range []string{"KEEP: A_20250101_000000.md", "REMOVED: A_20250102_000000.md", "SKIP: A_20250103_000000.md", "Removed 1 duplicate files"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestRemoveDuplicatesEOFKeepsFiles(t *testing.T) {
	dir := t.TempDir()
	writeArticle(t, dir, "A_20250101_000000.md", articleContent("A", "https://example.com/dup"))
	second := writeArticle(t, dir, "A_20250102_000000.md", articleContent("A", "https://example.com/dup"))

	var out bytes.Buffer
	if err := removeDuplicates(dir, strings.NewReader(""), &out); err != nil {
		t.Fatalf("removeDuplicates() error = %v", err)
	}
	if _, err := os.Stat(second); err != nil {
		t.Error("file removed without confirmation")
	}
}
