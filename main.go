package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	keyword      string
	category     string
	style        string
	language     string
	maxArticles  int
	windowDays   int
	delay        time.Duration
	outputDir    string
	settingsPath string
	promptPath   string
	templatePath string
	strategy     string
	provider     string
	noSummary    bool
	noPublish    bool
	debugMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "news-bot",
	Short: "Fetch recent news and rewrite it into Markdown articles using AI",
	Long: `Fetches recent articles for a keyword or category from EventRegistry,
rewrites each one with a text generation model, saves the results as Markdown
and optionally reports the run as a GitHub issue.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if debugMode {
			SetDebugMode(true)
		}

		// Local runs keep secrets in .env; real environment variables win
		if err := godotenv.Load(); err == nil {
			debugLog("loaded environment from .env")
		}

		overrides := &ConfigOverrides{}
		if settingsPath != "" {
			overrides.SettingsPath = &settingsPath
		}
		if promptPath != "" {
			overrides.PromptPath = &promptPath
		}
		if templatePath != "" {
			overrides.TemplatePath = &templatePath
		}

		config, err := NewConfig(overrides)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		applyFlags(cmd, config.Settings)

		newsKey := os.Getenv("EVENTREGISTRY_API_KEY")
		generatorKey, generatorKeyName := generatorAPIKey(config.Settings.Generator.Provider)
		logSecret("EVENTREGISTRY_API_KEY", newsKey)
		logSecret(generatorKeyName, generatorKey)
		if newsKey == "" || generatorKey == "" {
			log.Fatalf("API keys required: set EVENTREGISTRY_API_KEY and %s", generatorKeyName)
		}

		processor, err := buildProcessor(config, newsKey, generatorKey)
		if err != nil {
			log.Fatalf("Failed to create processor: %v", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		opts := runOptions(config.Settings)
		summary, published := processor.Run(ctx, opts)

		switch published.Status {
		case PublishFailed:
			log.Printf("Warning: issue creation failed: %v", published.Err)
		case PublishSkipped:
			debugLog("issue creation skipped")
		}

		if summary.Failed() {
			log.Printf("✗ No articles were generated successfully")
			stop()
			os.Exit(1)
		}
		log.Printf("✓ Successfully generated %d articles", summary.SuccessCount)
	},
}

func init() {
	rootCmd.Flags().StringVar(&keyword, "keyword", "", "Search keyword (env INPUT_KEYWORD)")
	rootCmd.Flags().StringVar(&category, "category", "", "News category, e.g. technology (env INPUT_CATEGORY)")
	rootCmd.Flags().StringVar(&style, "style", "", "Writing style: professional, casual or academic (env INPUT_STYLE)")
	rootCmd.Flags().StringVar(&language, "language", "", "Article language code, e.g. eng")
	rootCmd.Flags().IntVar(&maxArticles, "max-articles", 0, "Maximum articles to generate (env MAX_ARTICLES)")
	rootCmd.Flags().IntVar(&windowDays, "window-days", 0, "Only fetch articles from the last N days")
	rootCmd.Flags().DurationVar(&delay, "delay", 0, "Delay between generation calls")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "Output directory for articles")
	rootCmd.Flags().StringVar(&settingsPath, "settings", "", "Path to settings YAML file")
	rootCmd.Flags().StringVar(&promptPath, "prompt", "", "Path to custom rewriter prompt file")
	rootCmd.Flags().StringVar(&templatePath, "template", "", "Path to custom article template file")
	rootCmd.Flags().StringVar(&strategy, "strategy", "", "Response parse strategy: json or markers")
	rootCmd.Flags().StringVar(&provider, "provider", "", "Generator provider: anthropic or openai")
	rootCmd.Flags().BoolVar(&noSummary, "no-summary", false, "Do not write the JSON run summary")
	rootCmd.Flags().BoolVar(&noPublish, "no-publish", false, "Do not create an issue for the run")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// applyFlags layers explicitly set flags and GitHub Actions inputs over settings
func applyFlags(cmd *cobra.Command, settings *Settings) {
	flags := cmd.Flags()

	settings.News.Keyword = resolveString(flags.Changed("keyword"), keyword, settings.News.Keyword, "INPUT_KEYWORD", "KEYWORD")
	settings.News.Category = resolveString(flags.Changed("category"), category, settings.News.Category, "INPUT_CATEGORY", "CATEGORY")
	settings.Style = resolveString(flags.Changed("style"), style, settings.Style, "INPUT_STYLE", "STYLE")

	if flags.Changed("max-articles") {
		settings.News.MaxArticles = maxArticles
	} else if n, err := strconv.Atoi(os.Getenv("MAX_ARTICLES")); err == nil {
		settings.News.MaxArticles = n
	}
	if settings.News.MaxArticles < 0 {
		settings.News.MaxArticles = 0
	}

	if flags.Changed("language") {
		settings.News.Language = language
	}
	if flags.Changed("window-days") && windowDays >= 0 {
		settings.News.WindowDays = windowDays
	}
	if flags.Changed("delay") && delay >= 0 {
		settings.Delay = delay
	}
	if flags.Changed("output") && outputDir != "" {
		settings.OutputDirectory = outputDir
	}
	if flags.Changed("strategy") {
		settings.Generator.Strategy = strategy
	}
	if flags.Changed("provider") {
		settings.Generator.Provider = provider
	}
	if noSummary {
		settings.WriteSummary = false
	}
}

// resolveString prefers an explicit flag, then the first non-empty env var, then the fallback
func resolveString(changed bool, flagValue, fallback string, envNames ...string) string {
	if changed {
		return flagValue
	}
	for _, name := range envNames {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return fallback
}

// generatorAPIKey returns the key for the provider and the env var it came from
func generatorAPIKey(providerName string) (string, string) {
	if providerName == ProviderOpenAI {
		if key := os.Getenv("OPENAI_API_KEY"); key != "" {
			return key, "OPENAI_API_KEY"
		}
		return os.Getenv("GOOGLE_API_KEY"), "GOOGLE_API_KEY"
	}
	return os.Getenv("ANTHROPIC_API_KEY"), "ANTHROPIC_API_KEY"
}

func logSecret(name, value string) {
	if value == "" {
		log.Printf("✗ %s not found", name)
		return
	}
	log.Printf("✓ %s found (%d chars)", name, len(value))
}

func buildProcessor(config *Config, newsKey, generatorKey string) (*ArticleProcessor, error) {
	settings := config.Settings

	parseStrategy, err := ParseStrategyName(settings.Generator.Strategy)
	if err != nil {
		return nil, err
	}
	generator, err := NewTextGenerator(settings.Generator, generatorKey)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	prompt, err := config.GetPrompt(parseStrategy)
	if err != nil {
		return nil, err
	}
	rewriter, err := NewRewriter(generator, prompt, parseStrategy, settings.Generator)
	if err != nil {
		return nil, fmt.Errorf("creating rewriter: %w", err)
	}

	tmpl, err := config.GetTemplate()
	if err != nil {
		return nil, err
	}
	writer, err := NewMarkdownWriter(settings.OutputDirectory, tmpl)
	if err != nil {
		return nil, fmt.Errorf("creating writer: %w", err)
	}

	source := NewNewsFetcher(newsKey, settings.News.APIURL)
	publisher := NewIssuePublisher(settings.Tracker.APIURL, settings.Tracker.Labels, os.Getenv("GITHUB_RUN_NUMBER"))

	log.Printf("Using generator %s with %s parsing", generator.Name(), parseStrategy)
	return NewArticleProcessor(source, rewriter, writer, publisher, settings), nil
}

func runOptions(settings *Settings) RunOptions {
	return RunOptions{
		Criteria: Criteria{
			Keyword:    settings.News.Keyword,
			Category:   settings.News.Category,
			Language:   settings.News.Language,
			WindowDays: settings.News.WindowDays,
			MaxResults: settings.News.MaxArticles,
		},
		Style:       ParseStyle(settings.Style),
		Credentials: CredentialsFromEnv(),
		Publish:     !noPublish,
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
