package main

import (
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

const (
	appName          = "news-bot"
	defaultConfigDir = ".news-bot"
)

// ConfigOverrides allows overriding embedded defaults with file paths
type ConfigOverrides struct {
	SettingsPath *string
	PromptPath   *string
	TemplatePath *string
}

// Embedded configuration files
//
//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/rewriter-prompt-json.md
var defaultJSONPrompt string

//go:embed config/rewriter-prompt-markers.md
var defaultMarkersPrompt string

//go:embed config/article-template.md
var defaultTemplate string

// NewsSettings configures the news search service
type NewsSettings struct {
	APIURL      string `yaml:"api_url"`
	Keyword     string `yaml:"keyword"`
	Category    string `yaml:"category"`
	Language    string `yaml:"language"`
	WindowDays  int    `yaml:"window_days"`
	MaxArticles int    `yaml:"max_articles"`
}

// GeneratorSettings configures the text generation service
type GeneratorSettings struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Strategy    string  `yaml:"strategy"`
}

// TrackerSettings configures the issue tracker
type TrackerSettings struct {
	APIURL string   `yaml:"api_url"`
	Labels []string `yaml:"labels"`
}

// Settings represents the YAML configuration structure
type Settings struct {
	OutputDirectory string            `yaml:"output_directory"`
	WriteSummary    bool              `yaml:"write_summary"`
	Style           string            `yaml:"style"`
	Delay           time.Duration     `yaml:"delay"`
	News            NewsSettings      `yaml:"news"`
	Generator       GeneratorSettings `yaml:"generator"`
	Tracker         TrackerSettings   `yaml:"tracker"`
}

// Config holds configuration and overrides
type Config struct {
	Settings  *Settings
	Overrides *ConfigOverrides
}

// NewConfig creates a new Config with settings and overrides
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	var explicit string
	if overrides != nil && overrides.SettingsPath != nil {
		explicit = *overrides.SettingsPath
	}

	settings, err := loadSettings(explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	return &Config{
		Settings:  settings,
		Overrides: overrides,
	}, nil
}

// GetPrompt returns the rewriter prompt for the strategy (from override file or embedded)
func (c *Config) GetPrompt(strategy ParseStrategy) (string, error) {
	if c.Overrides != nil && c.Overrides.PromptPath != nil {
		content, err := os.ReadFile(*c.Overrides.PromptPath)
		if err != nil {
			return "", fmt.Errorf("reading prompt file %s: %w", *c.Overrides.PromptPath, err)
		}
		return string(content), nil
	}
	if strategy == StrategyMarkers {
		return defaultMarkersPrompt, nil
	}
	return defaultJSONPrompt, nil
}

// GetTemplate returns the article template (from override file or embedded)
func (c *Config) GetTemplate() (string, error) {
	if c.Overrides != nil && c.Overrides.TemplatePath != nil {
		content, err := os.ReadFile(*c.Overrides.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("reading template file %s: %w", *c.Overrides.TemplatePath, err)
		}
		return string(content), nil
	}
	return defaultTemplate, nil
}

// loadSettings decodes the embedded defaults and then layers the first settings
// file found on top. An explicit path must exist.
func loadSettings(explicit string) (*Settings, error) {
	var settings Settings
	if err := yaml.Unmarshal([]byte(defaultSettings), &settings); err != nil {
		return nil, fmt.Errorf("failed to parse embedded settings: %w", err)
	}

	path := explicit
	if path == "" {
		path = findSettingsFile()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return nil, fmt.Errorf("failed to parse settings YAML %s: %w", path, err)
		}
		debugLog("loaded settings from %s", path)
	}

	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// findSettingsFile looks in the working directory first, then in the XDG config home
func findSettingsFile() string {
	local := getConfigPath("settings.yaml")
	if _, err := os.Stat(local); err == nil {
		return local
	}
	if path, err := xdg.SearchConfigFile(filepath.Join(appName, "settings.yaml")); err == nil {
		return path
	}
	return ""
}

// getConfigPath returns the path to a config file in .news-bot directory
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

func (s *Settings) validate() error {
	if s.OutputDirectory == "" {
		return errors.New("output_directory must not be empty")
	}
	if s.News.MaxArticles < 0 {
		return fmt.Errorf("news.max_articles must be >= 0, got %d", s.News.MaxArticles)
	}
	if s.News.WindowDays < 0 {
		log.Printf("Warning: news.window_days is %d, defaulting to 0", s.News.WindowDays)
		s.News.WindowDays = 0
	}
	if s.Delay < 0 {
		log.Printf("Warning: delay is %s, defaulting to 0s", s.Delay)
		s.Delay = 0
	}
	if _, err := ParseStrategyName(s.Generator.Strategy); err != nil {
		return err
	}
	switch s.Generator.Provider {
	case ProviderAnthropic, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown generator provider %q", s.Generator.Provider)
	}
	return nil
}
