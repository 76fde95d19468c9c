package exp

import (
	"fmt"
	"os"
)

// Defragment rewrites one experience file in place: a synchronous full load
// into a fresh book followed by a full-rewrite save. Duplicate chain
// fragments accumulated by repeated incremental saves collapse into canonical
// per-key chains, and the file shrinks to the deduplicated,
// depth-filtered data.
func Defragment(cfg Config, path string) error {
	book := NewBook(cfg)

	stats, err := book.Load(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	cfg.Logger.Info().
		Str("file", path).
		Int("entries", stats.Entries).
		Float64("fragmentation_pct", stats.Fragmentation()).
		Msg("defragmenting experience file")

	if _, err := book.Save(path, true); err != nil {
		return fmt.Errorf("rewrite %s: %w", path, err)
	}
	return nil
}

// MergeFiles loads target (when present) and then every source into a single
// book, so deduplication happens across all inputs, and rewrites target with
// the merged result. A source that fails to load is reported and skipped; it
// does not abort the merge.
func MergeFiles(cfg Config, target string, sources ...string) error {
	book := NewBook(cfg)

	if _, err := os.Stat(target); err == nil {
		if _, err := book.Load(target); err != nil {
			return fmt.Errorf("load target %s: %w", target, err)
		}
	}

	for _, src := range sources {
		if _, err := book.Load(src); err != nil {
			cfg.Logger.Warn().Err(err).Str("file", src).Msg("skipping experience file")
		}
	}

	if book.Positions() == 0 {
		return fmt.Errorf("no experience data to merge into %s", target)
	}

	cfg.Logger.Info().
		Str("target", target).
		Int("sources", len(sources)).
		Int("positions", book.Positions()).
		Int("entries", book.Entries()).
		Msg("merging experience files")

	if _, err := book.Save(target, true); err != nil {
		return fmt.Errorf("rewrite %s: %w", target, err)
	}
	return nil
}
