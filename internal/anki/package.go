package anki

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"flashdeck/internal/card"
	"flashdeck/internal/logging"
	"flashdeck/internal/services"
	"flashdeck/internal/textutil"
)

const collectionFileName = "collection.anki2"

// DefaultPackageName derives the artifact filename from the deck name.
func DefaultPackageName(deckName string) string {
	name := textutil.SanitizeFileName(deckName)
	if name == "" {
		name = "deck"
	}
	return name + ".apkg"
}

// WritePackage serializes the deck into a .apkg archive at path. The
// collection database is built in a private temp directory and zipped
// together with the deck's media; nothing is left behind on failure. The
// deck is consumed exactly once, empty decks included.
func WritePackage(ctx context.Context, path string, deck card.Deck, logger *slog.Logger) error {
	log := logging.NewComponentLogger(logger, "anki")

	if deck.Name == "" {
		return services.Wrap(services.ErrSerialization, "serialize", "write package", "deck name required", nil)
	}

	tmpDir, err := os.MkdirTemp(filepath.Dir(path), ".flashdeck-apkg-*")
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "create staging dir", "", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, collectionFileName)
	if err := buildCollectionFile(ctx, dbPath, deck); err != nil {
		return err
	}

	if err := writeArchive(ctx, path, dbPath, deck.Media); err != nil {
		return err
	}

	log.Info("package written",
		logging.String("path", path),
		logging.Int("cards", len(deck.Cards)),
		logging.Int("media", len(deck.Media)))
	return nil
}

func buildCollectionFile(ctx context.Context, dbPath string, deck card.Deck) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "open collection db", "", err)
	}
	defer db.Close()

	// DELETE journaling keeps the collection in a single file for zipping.
	pragmas := []string{
		"PRAGMA journal_mode=DELETE",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			return services.Wrap(services.ErrSerialization, "serialize", "apply pragma", pragma, execErr)
		}
	}

	if _, err := db.ExecContext(ctx, collectionSchema); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "create schema", "", err)
	}

	if err := writeCollection(ctx, db, deck, NewAssigner(), time.Now()); err != nil {
		return err
	}
	if err := db.Close(); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "close collection db", "", err)
	}
	return nil
}

// writeArchive assembles the final zip: the collection database, each media
// asset under an integer name, and the manifest mapping those names back to
// the original filenames.
func writeArchive(ctx context.Context, path, dbPath string, media []card.MediaAsset) error {
	out, err := os.Create(path)
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "create archive", path, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	if err := addFileEntry(zw, collectionFileName, dbPath); err != nil {
		_ = zw.Close()
		return err
	}

	manifest := make(map[string]string, len(media))
	for i, asset := range media {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			return err
		}
		entryName := strconv.Itoa(i)
		manifest[entryName] = asset.Name
		w, err := zw.Create(entryName)
		if err != nil {
			return services.Wrap(services.ErrSerialization, "serialize", "add media entry", asset.Name, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return services.Wrap(services.ErrSerialization, "serialize", "write media entry", asset.Name, err)
		}
	}

	encoded, err := json.Marshal(manifest)
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "encode media manifest", "", err)
	}
	w, err := zw.Create("media")
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "add media manifest", "", err)
	}
	if _, err := w.Write(encoded); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "write media manifest", "", err)
	}

	if err := zw.Close(); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "finalize archive", "", err)
	}
	if err := out.Close(); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "close archive", "", err)
	}
	return nil
}

func addFileEntry(zw *zip.Writer, entryName, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "open collection file", "", err)
	}
	defer src.Close()

	w, err := zw.Create(entryName)
	if err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "add collection entry", "", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return services.Wrap(services.ErrSerialization, "serialize", "copy collection entry", "", err)
	}
	return nil
}

// ReadPackageCardCount opens an existing package and reports how many cards
// it holds. Used by callers that want to confirm a written artifact.
func ReadPackageCardCount(path string) (int, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return 0, fmt.Errorf("open package: %w", err)
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != collectionFileName {
			continue
		}
		tmpDir, err := os.MkdirTemp("", "flashdeck-inspect-*")
		if err != nil {
			return 0, fmt.Errorf("inspect package: %w", err)
		}
		defer os.RemoveAll(tmpDir)

		dbPath := filepath.Join(tmpDir, collectionFileName)
		if err := extractEntry(f, dbPath); err != nil {
			return 0, err
		}
		db, err := sql.Open("sqlite", dbPath)
		if err != nil {
			return 0, fmt.Errorf("inspect package: %w", err)
		}
		defer db.Close()

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&count); err != nil {
			return 0, fmt.Errorf("inspect package: %w", err)
		}
		return count, nil
	}
	return 0, errors.New("inspect package: collection missing from archive")
}

func extractEntry(f *zip.File, dest string) error {
	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("inspect package: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("inspect package: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("inspect package: %w", err)
	}
	return out.Close()
}
