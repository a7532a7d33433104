package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"flashdeck/internal/card"
	"flashdeck/internal/logging"
	"flashdeck/internal/normalize"
	"flashdeck/internal/services"
	"flashdeck/internal/services/llm"
)

// Backend produces a raw JSON payload for a prompt pair. *llm.Client
// satisfies it.
type Backend interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Options controls orchestration. Zero values fall back to defaults.
type Options struct {
	// CardsPerConcept is the card count requested for a full-length section.
	CardsPerConcept int
	// MaxRetries bounds re-requests after a malformed or invalid response.
	// A concept is attempted at most MaxRetries+1 times, then skipped.
	MaxRetries int
	// Workers bounds concurrent generation requests.
	Workers int
	// MaxFieldLength clips card fronts and backs, in runes.
	MaxFieldLength int
}

const (
	defaultCardsPerConcept = 3
	defaultMaxRetries      = 2
	defaultWorkers         = 3
	defaultMaxFieldLength  = 2000
)

func (o Options) withDefaults() Options {
	if o.CardsPerConcept <= 0 {
		o.CardsPerConcept = defaultCardsPerConcept
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.MaxFieldLength <= 0 {
		o.MaxFieldLength = defaultMaxFieldLength
	}
	return o
}

// ConceptOutcome records how one section fared, in document order.
type ConceptOutcome struct {
	Index      int
	Title      string
	Requested  int
	Attempts   int
	Accepted   int
	Duplicates int
	Truncated  bool
	Skipped    bool
	Err        error
}

// Orchestrator fans concept sections out to the backend and assembles the
// accepted card list.
type Orchestrator struct {
	backend Backend
	logger  *slog.Logger
	opts    Options
}

// New constructs an orchestrator. A nil logger disables logging.
func New(backend Backend, logger *slog.Logger, opts Options) *Orchestrator {
	return &Orchestrator{
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "generate"),
		opts:    opts.withDefaults(),
	}
}

type conceptResult struct {
	cards    []card.Flashcard
	attempts int
	err      error
}

// Run generates cards for every section. Concept-level failures are recorded
// in the outcomes and skipped, so Run itself does not fail. Cancellation
// stops dispatching new requests; concepts that already completed keep their
// cards and the rest are marked skipped. Accepted cards come back in document
// order with duplicates removed.
func (o *Orchestrator) Run(ctx context.Context, deckName string, sections []normalize.Section) ([]card.Flashcard, []ConceptOutcome, error) {
	results := make([]conceptResult, len(sections))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)
	for i, section := range sections {
		g.Go(func() error {
			results[i] = o.generateConcept(gctx, deckName, section, i)
			return nil
		})
	}
	_ = g.Wait()

	return o.assemble(sections, results)
}

// assemble walks results in document order, deduplicating by content
// signature. The first occurrence of a signature is accepted; later ones are
// counted against their concept.
func (o *Orchestrator) assemble(sections []normalize.Section, results []conceptResult) ([]card.Flashcard, []ConceptOutcome, error) {
	var accepted []card.Flashcard
	outcomes := make([]ConceptOutcome, len(sections))
	seen := make(map[string]struct{})

	for i, section := range sections {
		res := results[i]
		outcome := ConceptOutcome{
			Index:     i,
			Title:     section.Title,
			Requested: requestedCards(o.opts.CardsPerConcept, section),
			Attempts:  res.attempts,
			Truncated: section.Truncated,
		}
		if res.err != nil {
			outcome.Skipped = true
			outcome.Err = res.err
			o.logger.Warn("concept skipped",
				logging.Int(logging.FieldConceptIndex, i),
				logging.String(logging.FieldConcept, section.Title),
				logging.Int(logging.FieldAttempt, res.attempts),
				logging.Error(res.err))
			outcomes[i] = outcome
			continue
		}
		for _, c := range res.cards {
			if _, dup := seen[c.Signature]; dup {
				outcome.Duplicates++
				continue
			}
			seen[c.Signature] = struct{}{}
			c.Status = card.StatusAccepted
			accepted = append(accepted, c)
			outcome.Accepted++
		}
		outcomes[i] = outcome
	}

	o.logger.Info("generation complete",
		logging.Int("concepts", len(sections)),
		logging.Int("accepted", len(accepted)))
	return accepted, outcomes, nil
}

func (o *Orchestrator) generateConcept(ctx context.Context, deckName string, section normalize.Section, index int) conceptResult {
	requested := requestedCards(o.opts.CardsPerConcept, section)
	maxAttempts := o.opts.MaxRetries + 1

	var result conceptResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.attempts = attempt
		if err := ctx.Err(); err != nil {
			result.err = err
			return result
		}

		prompt := buildUserPrompt(deckName, section, requested, attempt > 1)
		raw, err := o.backend.Generate(ctx, systemPrompt, prompt)
		if err != nil {
			result.err = classifyBackendError(section.Title, err)
			return result
		}

		cards, err := o.parseCards(section, index, requested, raw)
		if err == nil {
			result.cards = cards
			result.err = nil
			return result
		}
		result.err = err
		if !services.IsRetryable(err) {
			return result
		}
		o.logger.Debug("retrying concept",
			logging.Int(logging.FieldConceptIndex, index),
			logging.String(logging.FieldConcept, section.Title),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(err))
	}
	return result
}

type rawCard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type cardsPayload struct {
	Cards []rawCard `json:"cards"`
}

// parseCards decodes and validates one generation response. The payload may
// be the documented object shape or a bare array of cards. The response must
// carry exactly the requested number of cards with non-empty fronts and
// backs; any count mismatch is a validation failure and consumes a retry.
func (o *Orchestrator) parseCards(section normalize.Section, index, requested int, raw string) ([]card.Flashcard, error) {
	var payload cardsPayload
	if err := llm.DecodeLLMJSON(raw, &payload); err != nil || len(payload.Cards) == 0 {
		var bare []rawCard
		if bareErr := llm.DecodeLLMJSON(raw, &bare); bareErr == nil && len(bare) > 0 {
			payload.Cards = bare
		} else if err != nil {
			return nil, services.Wrap(services.ErrMalformedGeneration, "generate", section.Title, "decode response", err)
		}
	}
	if len(payload.Cards) != requested {
		return nil, services.Wrap(services.ErrValidation, "generate", section.Title,
			fmt.Sprintf("expected %d cards, got %d", requested, len(payload.Cards)), nil)
	}

	cards := make([]card.Flashcard, 0, len(payload.Cards))
	for _, rc := range payload.Cards {
		front := clipField(strings.TrimSpace(rc.Front), o.opts.MaxFieldLength)
		back := clipField(strings.TrimSpace(rc.Back), o.opts.MaxFieldLength)
		if front == "" || back == "" {
			return nil, services.Wrap(services.ErrValidation, "generate", section.Title, "card with empty front or back", nil)
		}
		cards = append(cards, card.Flashcard{
			Front:        front,
			Back:         back,
			Concept:      section.Title,
			ConceptIndex: index,
			Signature:    card.Signature(front, back),
		})
	}
	return cards, nil
}

func clipField(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}

// classifyBackendError tags transport failures with the matching sentinel so
// callers can distinguish rate limiting and timeouts in outcome reports. The
// backend has already exhausted its own transport retries by the time an
// error surfaces here.
func classifyBackendError(concept string, err error) error {
	var rateErr *llm.RateLimitedError
	switch {
	case errors.As(err, &rateErr):
		return services.Wrap(services.ErrRateLimited, "generate", concept, "backend rejected request", err)
	case errors.Is(err, context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "generate", concept, "request deadline exceeded", err)
	default:
		return fmt.Errorf("generate: %s: backend request failed: %w", concept, err)
	}
}
