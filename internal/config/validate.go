package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNotion(); err != nil {
		return err
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateGeneration(); err != nil {
		return err
	}
	if err := c.validateNormalize(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotion() error {
	if c.Notion.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/flashdeck/config.toml"
		}
		return fmt.Errorf("notion.token is required. Set NOTION_TOKEN env var or edit %s (create with 'flashdeck config init')", defaultPath)
	}
	if c.Notion.BaseURL == "" {
		return errors.New("notion.base_url must be set")
	}
	if c.Notion.Version == "" {
		return errors.New("notion.version must be set")
	}
	if c.Notion.TimeoutSeconds <= 0 {
		return errors.New("notion.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/flashdeck/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set FLASHDECK_LLM_API_KEY env var or edit %s", defaultPath)
	}
	if c.LLM.BaseURL == "" {
		return errors.New("llm.base_url must be set")
	}
	if c.LLM.Model == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateGeneration() error {
	if c.Generation.CardsPerConcept < 1 || c.Generation.CardsPerConcept > 20 {
		return errors.New("generation.cards_per_concept must be between 1 and 20")
	}
	if c.Generation.MaxRetries < 0 {
		return errors.New("generation.max_retries must not be negative")
	}
	if c.Generation.Workers < 1 {
		return errors.New("generation.workers must be at least 1")
	}
	if c.Generation.MaxFieldLength < 100 {
		return errors.New("generation.max_field_length must be at least 100")
	}
	return nil
}

func (c *Config) validateNormalize() error {
	if c.Normalize.HeadingLevel < 1 || c.Normalize.HeadingLevel > 3 {
		return errors.New("normalize.heading_level must be between 1 and 3")
	}
	if c.Normalize.SectionCharBudget < 500 {
		return errors.New("normalize.section_char_budget must be at least 500")
	}
	if c.Normalize.MinSections < 1 {
		return errors.New("normalize.min_sections must be at least 1")
	}
	if c.Normalize.MaxSections < c.Normalize.MinSections {
		return errors.New("normalize.max_sections must not be below normalize.min_sections")
	}
	return nil
}
