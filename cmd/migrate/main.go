package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	originalURLRegex = regexp.MustCompile(`(?m)^\*\*Original URL:\*\*\s*(\S+)\s*$`)
	headingRegex     = regexp.MustCompile(`(?m)^# (.+)$`)
	timestampRegex   = regexp.MustCompile(`_(\d{8}_\d{6})\.md$`)
)

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <list|remove-duplicates> <articles-directory>")
	}

	command := os.Args[1]
	articlesDir := os.Args[2]

	switch command {
	case "list":
		if err := listArticles(articlesDir, os.Stdout); err != nil {
			log.Fatal(err)
		}
	case "remove-duplicates":
		if err := removeDuplicates(articlesDir, os.Stdin, os.Stdout); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("Unknown command %q", command)
	}
}

type articleFile struct {
	Path        string
	Headline    string
	OriginalURL string
	Timestamp   string
}

// scanArticles reads every generated .md file below articlesDir
func scanArticles(articlesDir string) ([]articleFile, error) {
	var files []articleFile
	err := filepath.WalkDir(articlesDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Continue on errors
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			log.Printf("Error reading %s: %v", path, err)
			return nil
		}
		files = append(files, parseArticle(path, string(content)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Timestamp != files[j].Timestamp {
			return files[i].Timestamp < files[j].Timestamp
		}
		return files[i].Path < files[j].Path
	})
	return files, nil
}

func parseArticle(path, content string) articleFile {
	file := articleFile{Path: path}
	if m := headingRegex.FindStringSubmatch(content); len(m) >= 2 {
		file.Headline = strings.TrimSpace(m[1])
	}
	if m := originalURLRegex.FindStringSubmatch(content); len(m) >= 2 {
		file.OriginalURL = m[1]
	}
	if m := timestampRegex.FindStringSubmatch(filepath.Base(path)); len(m) >= 2 {
		file.Timestamp = m[1]
	}
	return file
}

func listArticles(articlesDir string, out io.Writer) error {
	files, err := scanArticles(articlesDir)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintf(out, "%s\t%s\t%s\n", filepath.Base(f.Path), f.Headline, f.OriginalURL)
	}
	fmt.Fprintf(out, "%d articles\n", len(files))
	return nil
}

// removeDuplicates keeps the oldest article per original URL and asks before deleting the rest
func removeDuplicates(articlesDir string, in io.Reader, out io.Writer) error {
	files, err := scanArticles(articlesDir)
	if err != nil {
		return err
	}

	var urls []string
	urlToFiles := make(map[string][]articleFile)
	for _, f := range files {
		if f.OriginalURL == "" {
			continue
		}
		if _, ok := urlToFiles[f.OriginalURL]; !ok {
			urls = append(urls, f.OriginalURL)
		}
		urlToFiles[f.OriginalURL] = append(urlToFiles[f.OriginalURL], f)
	}

	reader := bufio.NewReader(in)
	totalRemoved := 0
	for _, url := range urls {
		group := urlToFiles[url]
		if len(group) <= 1 {
			continue
		}

		fmt.Fprintf(out, "\nFound %d duplicates for %s:\n", len(group), url)
		for i, f := range group {
			fileName := filepath.Base(f.Path)
			if i == 0 {
				fmt.Fprintf(out, "  KEEP: %s\n", fileName)
				continue
			}

			if confirmDelete(reader, out, f.Path) {
				if err := os.Remove(f.Path); err != nil {
					log.Printf("Error removing %s: %v", f.Path, err)
				} else {
					totalRemoved++
					fmt.Fprintf(out, "  REMOVED: %s\n", fileName)
				}
			} else {
				fmt.Fprintf(out, "  SKIP: %s\n", fileName)
			}
		}
	}

	fmt.Fprintf(out, "\nRemoved %d duplicate files\n", totalRemoved)
	return nil
}

func confirmDelete(reader *bufio.Reader, out io.Writer, path string) bool {
	for {
		fmt.Fprintf(out, "  DELETE %s? [y/N]: ", filepath.Base(path))
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			if err != io.EOF {
				log.Printf("Error reading input: %v", err)
			}
			return false
		}
		response := strings.ToLower(strings.TrimSpace(input))
		switch response {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Fprintln(out, "  Please enter y or n.")
			if err != nil {
				return false
			}
		}
	}
}
