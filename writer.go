package main

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"
)

const (
	maxTitleRunes    = 50
	filenameTimeFmt  = "20060102_150405"
	markdownExt      = ".md"
	fallbackBaseName = "article"
	maxNameAttempts  = 1000
)

// MarkdownWriter renders rewritten articles and persists them under a directory
type MarkdownWriter struct {
	outputDir string
	tmpl      *template.Template
	now       func() time.Time
}

// NewMarkdownWriter parses the article template and returns a writer for outputDir
func NewMarkdownWriter(outputDir, templateText string) (*MarkdownWriter, error) {
	tmpl, err := template.New("article").
		Funcs(template.FuncMap{"join": strings.Join}).
		Parse(templateText)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}
	return &MarkdownWriter{
		outputDir: outputDir,
		tmpl:      tmpl,
		now:       time.Now,
	}, nil
}

// Save writes the article to disk. The filename is derived from the headline
// unless a hint is given. The only error returned is *IOFailure.
func (w *MarkdownWriter) Save(article *RewrittenArticle, filenameHint string) (SavedFile, error) {
	name := w.filename(article, filenameHint)
	path := filepath.Join(w.outputDir, name)

	content, err := w.Render(article)
	if err != nil {
		return SavedFile{}, &IOFailure{Path: path, Err: err}
	}

	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return SavedFile{}, &IOFailure{Path: path, Err: err}
	}
	path, err = w.writeNew(name, content)
	if err != nil {
		return SavedFile{}, &IOFailure{Path: path, Err: err}
	}

	log.Printf("✓ Saved: %s", path)
	return SavedFile{Path: path, Article: article}, nil
}

// Render executes the article template
func (w *MarkdownWriter) Render(article *RewrittenArticle) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.tmpl.Execute(&buf, article); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}

func (w *MarkdownWriter) filename(article *RewrittenArticle, hint string) string {
	if hint = strings.TrimSpace(hint); hint != "" {
		hint = filepath.Base(hint)
		if !strings.HasSuffix(hint, markdownExt) {
			hint += markdownExt
		}
		return hint
	}

	base := sanitizeTitle(article.Headline)
	if base == "" {
		base = fallbackBaseName
	}
	return fmt.Sprintf("%s_%s%s", base, w.now().Format(filenameTimeFmt), markdownExt)
}

// writeNew writes content to a file that does not exist yet. When name is
// taken, _2, _3, ... is inserted before the extension.
func (w *MarkdownWriter) writeNew(name string, content []byte) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	for n := 1; n <= maxNameAttempts; n++ {
		candidate := name
		if n > 1 {
			candidate = fmt.Sprintf("%s_%d%s", base, n, ext)
		}
		path := filepath.Join(w.outputDir, candidate)

		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			debugLog("%s exists, trying next name", path)
			continue
		}
		if err != nil {
			return path, err
		}
		if _, err := file.Write(content); err != nil {
			file.Close()
			return path, err
		}
		return path, file.Close()
	}
	return filepath.Join(w.outputDir, name), fmt.Errorf("no free filename after %d attempts", maxNameAttempts)
}

// sanitizeTitle keeps letters, digits, spaces, hyphens and underscores and
// limits the result to maxTitleRunes. Applying it twice gives the same result.
func sanitizeTitle(title string) string {
	filtered := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			return r
		}
		return -1
	}, title)

	filtered = strings.TrimSpace(filtered)
	if runes := []rune(filtered); len(runes) > maxTitleRunes {
		filtered = strings.TrimSpace(string(runes[:maxTitleRunes]))
	}
	return filtered
}
