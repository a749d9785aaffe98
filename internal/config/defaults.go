package config

import "time"

// Pause after each upstream request when a site does not set one.
const (
	redditDelay     = 2 * time.Second
	hackerNewsDelay = time.Second
)

// DefaultSiteDelay returns the pause applied after every request made by the
// named scanner.
func DefaultSiteDelay(scanner string) time.Duration {
	if scanner == "reddit" {
		return redditDelay
	}
	return hackerNewsDelay
}

// Default returns the built-in configuration used when no file is supplied.
func Default() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "auto"},
		Data: DataConfig{
			Dir:           "data",
			RawLog:        "aha_moments_raw.jsonl",
			ClassifiedLog: "aha_moments_classified.jsonl",
			AcceptedLog:   "aha_moments.jsonl",
			LockFile:      ".ahaggregator.lock",
		},
		Vocabulary: VocabularyConfig{
			AhaPhrases: []string{
				"aha moment",
				"finally clicked",
				"finally understood",
				"mind blown",
				"game changer",
				"changed everything",
				"holy shit",
				"blew my mind",
				"lightbulb moment",
				"eureka",
				"finally get it",
				"now i understand",
				"changed how i",
				"never going back",
				"completely changed",
				"revelation",
				"breakthrough",
				"wow moment",
			},
			AITools: []string{
				"claude",
				"chatgpt",
				"gpt-4",
				"gpt4",
				"gemini",
				"grok",
				"perplexity",
				"copilot",
				"cursor",
				"anthropic",
				"openai",
				"llm",
				"ai assistant",
				"ai tool",
			},
			ToolMappings: []ToolMappingConfig{
				{Keywords: []string{"claude", "anthropic"}, Label: "Claude"},
				{Keywords: []string{"chatgpt", "gpt-4", "gpt4", "openai"}, Label: "ChatGPT"},
				{Keywords: []string{"gemini", "bard"}, Label: "Gemini"},
				{Keywords: []string{"grok"}, Label: "Grok"},
				{Keywords: []string{"perplexity"}, Label: "Perplexity"},
				{Keywords: []string{"copilot"}, Label: "Copilot"},
				{Keywords: []string{"cursor"}, Label: "Cursor"},
			},
			DefaultTool: "General",
		},
		Sites: []SiteConfig{
			{
				Name:    "reddit-search",
				Scanner: "reddit",
				Mode:    ModeSearch,
				Terms: []string{
					"aha moment AI",
					"finally clicked AI",
					"mind blown ChatGPT",
					"mind blown Claude",
					"game changer AI",
				},
				Limit: 50,
				Delay: redditDelay,
			},
			{
				Name:    "reddit-subreddits",
				Scanner: "reddit",
				Mode:    ModeListing,
				Terms:   []string{"ChatGPT", "ClaudeAI", "LocalLLaMA", "artificial", "MachineLearning"},
				Limit:   50,
				Delay:   redditDelay,
			},
			{
				Name:    "hn-search",
				Scanner: "hackernews",
				Mode:    ModeSearch,
				Terms:   []string{"aha moment AI", "LLM changed", "Claude AI", "ChatGPT workflow"},
				Limit:   50,
				Delay:   hackerNewsDelay,
			},
		},
		Classifier: ClassifierConfig{
			MinConfidence: 60,
			MinScore:      5,
			Delay:         500 * time.Millisecond,
			ExcerptLimit:  1500,
		},
		Oracle: OracleConfig{
			Provider:  "anthropic",
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 1024,
			Timeout:   60 * time.Second,
		},
		Render: RenderConfig{
			Output: "index.html",
			Title:  "Aha-ggregator",
		},
	}
}
