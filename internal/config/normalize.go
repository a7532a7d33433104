package config

import (
	"os"
	"strings"
)

// normalize trims whitespace, applies environment fallbacks for credentials,
// and expands the output directory.
func (c *Config) normalize() error {
	c.Notion.Token = strings.TrimSpace(c.Notion.Token)
	c.Notion.BaseURL = strings.TrimRight(strings.TrimSpace(c.Notion.BaseURL), "/")
	c.Notion.Version = strings.TrimSpace(c.Notion.Version)
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)

	if c.Notion.Token == "" {
		c.Notion.Token = strings.TrimSpace(os.Getenv("NOTION_TOKEN"))
	}
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("FLASHDECK_LLM_API_KEY"))
	}

	if dir := strings.TrimSpace(c.Output.Dir); dir != "" {
		expanded, err := expandPath(dir)
		if err != nil {
			return err
		}
		c.Output.Dir = expanded
	} else {
		c.Output.Dir = ""
	}

	return nil
}
