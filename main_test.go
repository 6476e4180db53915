package main

import (
	"testing"
	"time"
)

func TestResolveString(t *testing.T) {
	t.Setenv("INPUT_KEYWORD", "")
	t.Setenv("KEYWORD", "from-env")

	if got := resolveString(true, "from-flag", "fallback", "INPUT_KEYWORD", "KEYWORD"); got != "from-flag" {
		t.Errorf("explicit flag: got %q", got)
	}
	if got := resolveString(false, "", "fallback", "INPUT_KEYWORD", "KEYWORD"); got != "from-env" {
		t.Errorf("env fallback: got %q", got)
	}

	t.Setenv("INPUT_KEYWORD", "from-input")
	if got := resolveString(false, "", "fallback", "INPUT_KEYWORD", "KEYWORD"); got != "from-input" {
		t.Errorf("first env var should win: got %q", got)
	}

	t.Setenv("INPUT_KEYWORD", "")
	t.Setenv("KEYWORD", "")
	if got := resolveString(false, "", "fallback", "INPUT_KEYWORD", "KEYWORD"); got != "fallback" {
		t.Errorf("settings fallback: got %q", got)
	}
}

func TestGeneratorAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ant")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "goog")

	if key, name := generatorAPIKey(ProviderAnthropic); key != "ant" || name != "ANTHROPIC_API_KEY" {
		t.Errorf("anthropic = %q/%q", key, name)
	}
	if key, name := generatorAPIKey(ProviderOpenAI); key != "goog" || name != "GOOGLE_API_KEY" {
		t.Errorf("openai without OPENAI_API_KEY = %q/%q", key, name)
	}

	t.Setenv("OPENAI_API_KEY", "oai")
	if key, name := generatorAPIKey(ProviderOpenAI); key != "oai" || name != "OPENAI_API_KEY" {
		t.Errorf("openai = %q/%q", key, name)
	}
}

func TestApplyFlags(t *testing.T) {
	for _, name := range []string{"INPUT_KEYWORD", "KEYWORD", "INPUT_CATEGORY", "CATEGORY", "INPUT_STYLE", "STYLE"} {
		t.Setenv(name, "")
	}
	t.Setenv("INPUT_STYLE", "casual")
	t.Setenv("MAX_ARTICLES", "7")

	if err := rootCmd.Flags().Set("keyword", "robots"); err != nil {
		t.Fatal(err)
	}
	if err := rootCmd.Flags().Set("delay", "5s"); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		keyword = ""
		delay = 0
		rootCmd.Flags().Lookup("keyword").Changed = false
		rootCmd.Flags().Lookup("delay").Changed = false
	})

	settings := &Settings{
		OutputDirectory: "articles",
		Style:           "professional",
		Delay:           2 * time.Second,
		News:            NewsSettings{Keyword: "ai", Category: "science", MaxArticles: 3},
	}
	applyFlags(rootCmd, settings)

	if settings.News.Keyword != "robots" {
		t.Errorf("keyword = %q", settings.News.Keyword)
	}
	if settings.News.Category != "science" {
		t.Errorf("category = %q, want settings value", settings.News.Category)
	}
	if settings.Style != "casual" {
		t.Errorf("style = %q, want env value", settings.Style)
	}
	if settings.News.MaxArticles != 7 {
		t.Errorf("max articles = %d", settings.News.MaxArticles)
	}
	if settings.Delay != 5*time.Second {
		t.Errorf("delay = %s", settings.Delay)
	}
}
