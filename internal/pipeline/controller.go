package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"flashdeck/internal/anki"
	"flashdeck/internal/card"
	"flashdeck/internal/config"
	"flashdeck/internal/generate"
	"flashdeck/internal/logging"
	"flashdeck/internal/normalize"
	"flashdeck/internal/notion"
	"flashdeck/internal/services"
)

// ContentSource fetches pages and media. *notion.Client satisfies it.
type ContentSource interface {
	FetchPage(ctx context.Context, reference string) (*notion.Page, error)
	FetchMedia(ctx context.Context, assetURL string) ([]byte, error)
}

// Request describes one pipeline run.
type Request struct {
	// PageRef is a page URL or bare page ID.
	PageRef string
	// DeckName overrides the page title as the deck name.
	DeckName string
	// OutputPath overrides the default artifact location.
	OutputPath string
	// CardsPerConcept overrides the configured per-concept card count.
	CardsPerConcept int
	// Workers overrides the configured generation parallelism.
	Workers int
}

// Result summarizes a completed run.
type Result struct {
	RunID             string
	PageTitle         string
	DeckName          string
	OutputPath        string
	Sections          int
	Accepted          int
	Duplicates        int
	SkippedConcepts   int
	TruncatedConcepts int
	MediaCount        int
	Outcomes          []generate.ConceptOutcome
	// Empty reports a run that completed but produced no cards. The
	// artifact still exists; it just holds an empty deck.
	Empty bool
}

// Controller wires the pipeline stages together.
type Controller struct {
	cfg     *config.Config
	source  ContentSource
	backend generate.Backend
	logger  *slog.Logger
}

// New constructs a controller. A nil logger disables logging.
func New(cfg *config.Config, source ContentSource, backend generate.Backend, logger *slog.Logger) (*Controller, error) {
	if cfg == nil || source == nil || backend == nil {
		return nil, errors.New("pipeline requires config, content source, and generation backend")
	}
	return &Controller{
		cfg:     cfg,
		source:  source,
		backend: backend,
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}, nil
}

// Run executes the full pipeline for one page. Failures before serialization
// leave no artifact behind.
func (c *Controller) Run(ctx context.Context, req Request) (*Result, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	log := logging.WithContext(ctx, c.logger)

	log.Info("run started", logging.String("page_ref", req.PageRef))

	page, err := c.source.FetchPage(services.WithStage(ctx, "fetch"), req.PageRef)
	if err != nil {
		return nil, err
	}

	deckName := req.DeckName
	if deckName == "" {
		deckName = page.Title
	}
	if deckName == "" {
		deckName = "Untitled"
	}

	norm := normalize.Normalize(*page, normalize.Options{
		HeadingLevel: c.cfg.Normalize.HeadingLevel,
		CharBudget:   c.cfg.Normalize.SectionCharBudget,
		MinSections:  c.cfg.Normalize.MinSections,
		MaxSections:  c.cfg.Normalize.MaxSections,
	})
	log.Info("page normalized",
		logging.String("title", page.Title),
		logging.Int("sections", len(norm.Sections)),
		logging.Int("media_refs", len(norm.Media)))

	genOpts := generate.Options{
		CardsPerConcept: c.cfg.Generation.CardsPerConcept,
		MaxRetries:      c.cfg.Generation.MaxRetries,
		Workers:         c.cfg.Generation.Workers,
		MaxFieldLength:  c.cfg.Generation.MaxFieldLength,
	}
	if req.CardsPerConcept > 0 {
		genOpts.CardsPerConcept = req.CardsPerConcept
	}
	if req.Workers > 0 {
		genOpts.Workers = req.Workers
	}

	orch := generate.New(c.backend, c.logger, genOpts)
	cards, outcomes, err := orch.Run(services.WithStage(ctx, "generate"), deckName, norm.Sections)
	if err != nil {
		return nil, err
	}

	media := c.fetchMedia(services.WithStage(ctx, "media"), norm.Media, log)

	outputPath, err := c.resolveOutputPath(req.OutputPath, deckName)
	if err != nil {
		return nil, err
	}

	deck := card.Deck{Name: deckName, Cards: cards, Media: media}
	// Serialization runs even when the request context was cancelled mid
	// generation, so the concepts that completed still reach the artifact.
	serializeCtx := services.WithStage(context.WithoutCancel(ctx), "serialize")
	if err := c.writeArtifact(serializeCtx, outputPath, deck); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      runID,
		PageTitle:  page.Title,
		DeckName:   deckName,
		OutputPath: outputPath,
		Sections:   len(norm.Sections),
		Accepted:   len(cards),
		MediaCount: len(media),
		Outcomes:   outcomes,
		Empty:      len(cards) == 0,
	}
	for _, outcome := range outcomes {
		result.Duplicates += outcome.Duplicates
		if outcome.Skipped {
			result.SkippedConcepts++
		}
		if outcome.Truncated {
			result.TruncatedConcepts++
		}
	}

	log.Info("run complete",
		logging.String("output", outputPath),
		logging.Int("cards", result.Accepted),
		logging.Int("skipped_concepts", result.SkippedConcepts),
		logging.Int("truncated_concepts", result.TruncatedConcepts),
		logging.Bool("empty", result.Empty))
	return result, nil
}

// fetchMedia downloads referenced images. A failed download drops the asset
// and logs it; the card text still carries the image placeholder.
func (c *Controller) fetchMedia(ctx context.Context, refs []normalize.MediaRef, log *slog.Logger) []card.MediaAsset {
	assets := make([]card.MediaAsset, 0, len(refs))
	for _, ref := range refs {
		if ctx.Err() != nil {
			break
		}
		data, err := c.source.FetchMedia(ctx, ref.URL)
		if err != nil {
			log.Warn("media skipped",
				logging.String("asset", ref.Name),
				logging.Error(err))
			continue
		}
		assets = append(assets, card.MediaAsset{Name: ref.Name, Data: data})
	}
	return assets
}

func (c *Controller) resolveOutputPath(override, deckName string) (string, error) {
	if override != "" {
		return config.ExpandPath(override)
	}
	name := anki.DefaultPackageName(deckName)
	dir := c.cfg.Output.Dir
	if dir == "" {
		dir = "."
	}
	return config.ExpandPath(filepath.Join(dir, name))
}

// writeArtifact serializes the deck next to the destination and renames it
// into place. The destination's lock file serializes concurrent runs
// targeting the same path.
func (c *Controller) writeArtifact(ctx context.Context, path string, deck card.Deck) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "create output directory", dir, err)
	}

	lock := flock.New(path + ".lock")
	acquired, err := lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "acquire output lock", path, err)
	}
	if !acquired {
		return services.Wrap(services.ErrSerialization, "serialize", "acquire output lock",
			fmt.Sprintf("%s is being written by another run", path), nil)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	tmpPath := path + ".partial"
	if err := anki.WritePackage(ctx, tmpPath, deck, c.logger); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return services.Wrap(services.ErrSerialization, "serialize", "place artifact", path, err)
	}
	return nil
}
