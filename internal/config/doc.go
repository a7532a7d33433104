// Package config loads, validates, and defaults the TOML configuration for
// flashdeck.
//
// Configuration resolution order: explicit --config path, then
// ~/.config/flashdeck/config.toml, then ./flashdeck.toml, then built-in
// defaults. Credentials may also come from the NOTION_TOKEN and
// FLASHDECK_LLM_API_KEY environment variables so tokens stay out of config
// files checked into dotfile repos.
package config
