package testsupport

import (
	"path/filepath"
	"testing"

	"flashdeck/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with a unique temp output directory per
// test and placeholder credentials. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	cfgVal := config.Default()
	cfgVal.Notion.Token = "test-token"
	cfgVal.LLM.APIKey = "test-key"
	cfgVal.Output.Dir = filepath.Join(t.TempDir(), "out")

	builder := &configBuilder{t: t, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithNotionToken sets the Notion integration token on the test config.
func WithNotionToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notion.Token = token
	}
}

// WithLLMKey sets the generation backend API key on the test config.
func WithLLMKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.LLM.APIKey = key
	}
}

// WithOutputDir overrides the artifact directory on the test config.
func WithOutputDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Dir = dir
	}
}
