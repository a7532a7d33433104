package config

const (
	defaultNotionBaseURL        = "https://api.notion.com/v1"
	defaultNotionVersion        = "2022-06-28"
	defaultNotionTimeoutSeconds = 30
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "anthropic/claude-3.5-haiku"
	defaultLLMReferer           = "https://github.com/five82/flashdeck"
	defaultLLMTitle             = "Flashdeck Generator"
	defaultLLMTimeoutSeconds    = 60
	defaultCardsPerConcept      = 3
	defaultMaxRetries           = 2
	defaultWorkers              = 3
	defaultMaxFieldLength       = 2000
	defaultHeadingLevel         = 1
	defaultSectionCharBudget    = 4000
	defaultMinSections          = 3
	defaultMaxSections          = 20
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Notion: Notion{
			BaseURL:        defaultNotionBaseURL,
			Version:        defaultNotionVersion,
			TimeoutSeconds: defaultNotionTimeoutSeconds,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Generation: Generation{
			CardsPerConcept: defaultCardsPerConcept,
			MaxRetries:      defaultMaxRetries,
			Workers:         defaultWorkers,
			MaxFieldLength:  defaultMaxFieldLength,
		},
		Normalize: Normalize{
			HeadingLevel:      defaultHeadingLevel,
			SectionCharBudget: defaultSectionCharBudget,
			MinSections:       defaultMinSections,
			MaxSections:       defaultMaxSections,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
