package exp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

const readBufferSize = 64 * 1024

// ErrLoadCanceled is reported by a load stopped through CancelLoad. Entries
// linked before the signal was observed remain in the index.
var ErrLoadCanceled = errors.New("experience load canceled")

// LoadStats summarizes one load.
type LoadStats struct {
	Entries      int // entries read from the file
	NewPositions int // keys that were not previously in the index
	Duplicates   int // same-move entries merged instead of inserted
}

// Fragmentation is the percentage of file entries that were duplicate moves.
func (s LoadStats) Fragmentation() float64 {
	if s.Entries == 0 {
		return 0
	}
	return 100 * float64(s.Duplicates) / float64(s.Entries)
}

// Load reads the experience file at path into the index on the calling
// goroutine, waiting first for any outstanding background load.
func (b *Book) Load(path string) (LoadStats, error) {
	b.WaitForLoadFinished()
	stats, err := b.load(path)
	b.mu.Lock()
	b.lastStats, b.lastErr, b.loaded = stats, err, true
	b.mu.Unlock()
	return stats, err
}

// StartLoad begins loading path on a background goroutine and returns
// immediately. The outcome is retrieved with WaitForLoadFinished or LastLoad.
// Loads on one Book are serialized, never concurrent.
func (b *Book) StartLoad(path string) {
	b.WaitForLoadFinished()
	done := make(chan struct{})
	b.mu.Lock()
	b.loadDone = done
	b.mu.Unlock()

	go func() {
		defer close(done)
		stats, err := b.load(path)
		b.mu.Lock()
		b.lastStats, b.lastErr, b.loaded = stats, err, true
		b.loadDone = nil
		b.mu.Unlock()
	}()
}

// WaitForLoadFinished blocks until no load is in flight and returns the most
// recent load's outcome.
func (b *Book) WaitForLoadFinished() error {
	b.mu.Lock()
	done := b.loadDone
	b.mu.Unlock()
	if done != nil {
		<-done
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// LoadInFlight reports whether a background load is still running.
func (b *Book) LoadInFlight() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadDone != nil
}

// LastLoad returns the stats and outcome of the most recently finished load
// without blocking.
func (b *Book) LastLoad() (LoadStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastStats, b.lastErr
}

// LoadSucceeded reports whether a load has finished without error.
func (b *Book) LoadSucceeded() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded && b.lastErr == nil
}

// CancelLoad signals an in-flight load to stop after the record it is
// currently reading. The signal is one-shot and instance-wide, intended only
// for fast teardown; this is not a pause/resume mechanism.
func (b *Book) CancelLoad() {
	b.abort.Store(true)
}

// LoadProgress reports how many entries the current or most recent load has
// read so far. Unlike the other queries it is safe to call while a background
// load is running.
func (b *Book) LoadProgress() int {
	return int(b.progress.Load())
}

func (b *Book) load(path string) (LoadStats, error) {
	var stats LoadStats
	b.progress.Store(0)

	f, err := os.Open(path)
	if err != nil {
		b.log.Warn().Err(err).Str("file", path).Msg("could not open experience file")
		return stats, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return stats, err
	}
	count, err := EntryCount(fi.Size())
	if err != nil {
		b.log.Warn().Err(err).Str("file", path).Int64("size", fi.Size()).Msg("experience file has invalid size")
		return stats, err
	}

	r := bufio.NewReaderSize(f, readBufferSize)

	if err := readSignature(r); err != nil {
		b.log.Warn().Err(err).Str("file", path).Msg("experience file rejected")
		return stats, err
	}

	prevPositions := len(b.index)
	buf := make([]byte, EntrySize)

	for i := 0; i < count; i++ {
		// Cancellation is partial, not transactional: entries linked before
		// the signal stay in the index.
		if b.abort.Load() {
			stats.NewPositions = len(b.index) - prevPositions
			b.log.Info().Str("file", path).Int("entries", stats.Entries).Msg("experience load canceled")
			return stats, ErrLoadCanceled
		}

		if _, err := io.ReadFull(r, buf); err != nil {
			stats.NewPositions = len(b.index) - prevPositions
			return stats, fmt.Errorf("%w: short read at entry %d of %d: %v", ErrCorrupt, i+1, count, err)
		}

		if !b.linkEntry(DecodeEntry(buf)) {
			stats.Duplicates++
		}
		stats.Entries++
		b.progress.Add(1)
	}

	stats.NewPositions = len(b.index) - prevPositions

	b.log.Info().
		Str("file", path).
		Int("entries", stats.Entries).
		Int("new_positions", stats.NewPositions).
		Int("duplicate_moves", stats.Duplicates).
		Float64("fragmentation_pct", stats.Fragmentation()).
		Msg("experience file loaded")

	return stats, nil
}
