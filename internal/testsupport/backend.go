package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// ScriptedBackend is a deterministic generation backend for tests. Responses
// are keyed by the concept title found in the user prompt; unmatched prompts
// fall back to a single synthetic card derived from the concept.
type ScriptedBackend struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     []string
}

// NewScriptedBackend returns an empty backend that synthesizes cards.
func NewScriptedBackend() *ScriptedBackend {
	return &ScriptedBackend{
		responses: make(map[string]string),
		errs:      make(map[string]error),
	}
}

// Respond scripts a raw payload for a concept title.
func (b *ScriptedBackend) Respond(concept, payload string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[concept] = payload
}

// Fail scripts an error for a concept title.
func (b *ScriptedBackend) Fail(concept string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[concept] = err
}

// Calls returns the concept titles requested so far, in call order.
func (b *ScriptedBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Generate implements the generation backend contract.
func (b *ScriptedBackend) Generate(_ context.Context, _, userPrompt string) (string, error) {
	concept := conceptFromPrompt(userPrompt)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, concept)
	if err, ok := b.errs[concept]; ok {
		return "", err
	}
	if payload, ok := b.responses[concept]; ok {
		return payload, nil
	}
	return fmt.Sprintf(`{"cards": [{"front": "What is %s?", "back": "Synthesized notes on %s"}]}`,
		concept, concept), nil
}

func conceptFromPrompt(userPrompt string) string {
	for _, line := range strings.Split(userPrompt, "\n") {
		if after, ok := strings.CutPrefix(line, "Concept: "); ok {
			return after
		}
	}
	return "unknown"
}
