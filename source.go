package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

const (
	getArticlesPath  = "/api/v1/article/getArticles"
	maxArticlesCount = 100
)

// categoryURIs maps the friendly category names to provider category URIs
var categoryURIs = map[string]string{
	"technology": "dmoz/Computers",
	"business":   "dmoz/Business",
	"health":     "dmoz/Health",
	"science":    "dmoz/Science",
	"sports":     "dmoz/Sports",
	"politics":   "dmoz/Society/Politics",
}

var htmlTagRegex = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// Criteria selects which articles to fetch
type Criteria struct {
	Keyword    string
	Category   string
	Language   string
	WindowDays int
	MaxResults int
}

// ArticleSource returns recent articles for a set of criteria. Implementations
// never fail: problems are logged and an empty list is returned.
type ArticleSource interface {
	Fetch(ctx context.Context, criteria Criteria) []RawArticle
}

// NewsFetcher queries the EventRegistry article search API
type NewsFetcher struct {
	apiKey    string
	baseURL   string
	client    *http.Client
	converter *md.Converter
	now       func() time.Time
}

// NewNewsFetcher creates a fetcher for the given API base URL
func NewNewsFetcher(apiKey, baseURL string) *NewsFetcher {
	return &NewsFetcher{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
		converter: md.NewConverter("", true, nil),
		now:       time.Now,
	}
}

type articlesRequest struct {
	Action            string   `json:"action"`
	ResultType        string   `json:"resultType"`
	Keyword           string   `json:"keyword,omitempty"`
	KeywordLoc        string   `json:"keywordLoc,omitempty"`
	CategoryURI       string   `json:"categoryUri,omitempty"`
	Lang              string   `json:"lang,omitempty"`
	DateStart         string   `json:"dateStart"`
	DateEnd           string   `json:"dateEnd"`
	DataType          []string `json:"dataType"`
	ArticlesPage      int      `json:"articlesPage"`
	ArticlesCount     int      `json:"articlesCount"`
	ArticlesSortBy    string   `json:"articlesSortBy"`
	ArticlesSortByAsc bool     `json:"articlesSortByAsc"`
	ArticleBodyLen    int      `json:"articleBodyLen"`
	IncludeAuthors    bool     `json:"includeArticleAuthors"`
	IncludeCategories bool     `json:"includeArticleCategories"`
	APIKey            string   `json:"apiKey"`
}

type articlesResponse struct {
	Error    string `json:"error"`
	Articles struct {
		Results []articleRecord `json:"results"`
	} `json:"articles"`
}

type articleRecord struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	URL      string `json:"url"`
	Date     string `json:"date"`
	DateTime string `json:"dateTime"`
	Source   struct {
		Title string `json:"title"`
	} `json:"source"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	Categories []struct {
		Label string `json:"label"`
	} `json:"categories"`
}

// Fetch returns up to criteria.MaxResults articles, most recent first
func (f *NewsFetcher) Fetch(ctx context.Context, criteria Criteria) []RawArticle {
	if criteria.MaxResults <= 0 {
		return nil
	}

	log.Printf("→ Fetching news for: %s", describeCriteria(criteria))
	articles, err := f.fetch(ctx, criteria)
	if err != nil {
		log.Printf("Warning: fetching news failed: %v", err)
		return nil
	}

	log.Printf("✓ Found %d articles", len(articles))
	return articles
}

func (f *NewsFetcher) fetch(ctx context.Context, criteria Criteria) ([]RawArticle, error) {
	payload, err := json.Marshal(f.buildRequest(criteria))
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	url := f.baseURL + getArticlesPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	debugLog("news API response: %d bytes", len(body))

	var parsed articlesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("news API error: %s", parsed.Error)
	}

	articles := make([]RawArticle, 0, len(parsed.Articles.Results))
	for _, record := range parsed.Articles.Results {
		if strings.TrimSpace(record.Title) == "" || strings.TrimSpace(record.Body) == "" {
			continue
		}
		articles = append(articles, f.toRawArticle(record))
		if len(articles) >= criteria.MaxResults {
			break
		}
	}
	return articles, nil
}

func (f *NewsFetcher) buildRequest(criteria Criteria) articlesRequest {
	windowDays := criteria.WindowDays
	if windowDays < 0 {
		windowDays = 0
	}
	end := f.now()
	start := end.AddDate(0, 0, -windowDays)

	count := criteria.MaxResults
	if count > maxArticlesCount {
		count = maxArticlesCount
	}

	req := articlesRequest{
		Action:            "getArticles",
		ResultType:        "articles",
		Lang:              criteria.Language,
		DateStart:         start.Format("2006-01-02"),
		DateEnd:           end.Format("2006-01-02"),
		DataType:          []string{"news"},
		ArticlesPage:      1,
		ArticlesCount:     count,
		ArticlesSortBy:    "date",
		ArticlesSortByAsc: false,
		ArticleBodyLen:    -1,
		IncludeAuthors:    true,
		IncludeCategories: true,
		APIKey:            f.apiKey,
	}
	if criteria.Keyword != "" {
		req.Keyword = criteria.Keyword
		req.KeywordLoc = "body,title"
	}
	if criteria.Category != "" {
		req.CategoryURI = categoryURI(criteria.Category)
	}
	return req
}

func (f *NewsFetcher) toRawArticle(record articleRecord) RawArticle {
	published := record.DateTime
	if published == "" {
		published = record.Date
	}

	article := RawArticle{
		Title:       strings.TrimSpace(record.Title),
		Body:        f.normalizeBody(record.Body),
		URL:         record.URL,
		PublishedAt: published,
		Source:      record.Source.Title,
	}
	for _, author := range record.Authors {
		if author.Name != "" {
			article.Authors = append(article.Authors, author.Name)
		}
	}
	for _, category := range record.Categories {
		if category.Label != "" {
			article.Categories = append(article.Categories, category.Label)
		}
	}
	return article
}

// normalizeBody converts bodies that carry HTML markup to Markdown
func (f *NewsFetcher) normalizeBody(body string) string {
	body = strings.TrimSpace(body)
	if !htmlTagRegex.MatchString(body) {
		return body
	}
	converted, err := f.converter.ConvertString(body)
	if err != nil {
		debugLog("converting HTML body to markdown: %v", err)
		return body
	}
	return strings.TrimSpace(converted)
}

// categoryURI maps a category name to a provider URI; unknown names pass through
func categoryURI(category string) string {
	if uri, ok := categoryURIs[strings.ToLower(strings.TrimSpace(category))]; ok {
		return uri
	}
	return category
}

func describeCriteria(criteria Criteria) string {
	var parts []string
	if criteria.Keyword != "" {
		parts = append(parts, fmt.Sprintf("keyword=%q", criteria.Keyword))
	}
	if criteria.Category != "" {
		parts = append(parts, fmt.Sprintf("category=%q", criteria.Category))
	}
	if len(parts) == 0 {
		parts = append(parts, "latest")
	}
	parts = append(parts, fmt.Sprintf("lang=%s", criteria.Language), fmt.Sprintf("days=%d", criteria.WindowDays))
	return strings.Join(parts, " ")
}
