package exp

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const writeBufferSize = 64 * 1024

// createFile is swapped by tests to inject write failures into a rewrite.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// SaveStats summarizes one save.
type SaveStats struct {
	FullRewrite bool
	Positions   int // full rewrite: positions serialized
	Entries     int // full rewrite: chain entries serialized
	PV          int // pending PV entries written
	MultiPV     int // pending MultiPV entries written
}

// Save persists the book to path. A full rewrite replaces the file with the
// complete deduplicated index plus the pending queues, taking a .bak backup
// first and restoring it if the write fails; when the backup of an existing
// file cannot be taken the rewrite is aborted rather than risking the only
// copy. Otherwise the pending queues are appended to the existing file, which
// is the steady-state incremental save.
//
// Entries below the minimum persist depth are never written. On success both
// pending queues are cleared unconditionally, so filtered entries are
// discarded for good; they are not retried by a later save. On failure the
// queues are left intact.
func (b *Book) Save(path string, full bool) (SaveStats, error) {
	stats := SaveStats{FullRewrite: full}

	if !b.HasPending() && (!full || len(b.index) == 0) {
		return stats, nil
	}

	// A save never races a load.
	b.WaitForLoadFinished()

	if full {
		backup, err := b.createBackup(path)
		if err != nil {
			b.log.Warn().Err(err).Str("file", path).Msg("could not back up experience file")
			return stats, err
		}
		if err := b.writeFull(path, &stats); err != nil {
			b.restoreBackup(path, backup)
			return stats, err
		}
	} else {
		if err := b.appendPending(path, &stats); err != nil {
			return stats, err
		}
	}

	b.newPV = b.newPV[:0]
	b.newMultiPV = b.newMultiPV[:0]

	if full {
		b.log.Info().
			Str("file", path).
			Int("positions", stats.Positions).
			Int("entries", stats.Entries).
			Msg("saved experience file")
	} else {
		b.log.Info().
			Str("file", path).
			Int("pv", stats.PV).
			Int("multipv", stats.MultiPV).
			Msg("appended new experience entries")
	}
	return stats, nil
}

// createBackup moves path aside to path.bak, replacing any previous backup,
// and returns the backup path. A missing file means there is nothing to back
// up and the rewrite proceeds; a failed rename is an error, so an existing
// file is never truncated without a backup.
func (b *Book) createBackup(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	backup := path + ".bak"
	if err := os.Rename(path, backup); err != nil {
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return backup, nil
}

// restoreBackup puts the backup back at path after a failed rewrite. Best
// effort: a failed restore is reported, not retried.
func (b *Book) restoreBackup(path, backup string) {
	if backup == "" {
		return
	}
	if err := os.Rename(backup, path); err != nil {
		b.log.Error().Err(err).Str("backup", backup).Str("file", path).Msg("could not restore experience backup")
	}
}

// writeFull writes the signature, every chain node meeting the depth filter,
// and the filtered pending queues to a fresh file at path.
func (b *Book) writeFull(path string, stats *SaveStats) error {
	f, err := createFile(path)
	if err != nil {
		b.log.Warn().Err(err).Str("file", path).Msg("could not open experience file for writing")
		return err
	}

	w := bufio.NewWriterSize(f, writeBufferSize)
	err = b.writeAll(w, stats)
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func (b *Book) writeAll(w io.Writer, stats *SaveStats) error {
	if _, err := io.WriteString(w, Signature); err != nil {
		return err
	}

	for _, head := range b.index {
		stats.Positions++
		for i := head; i != nilNode; i = b.arena[i].next {
			if b.arena[i].Depth < b.minDepth {
				continue
			}
			if _, err := w.Write(EncodeEntry(b.arena[i].Entry)); err != nil {
				return err
			}
			stats.Entries++
		}
	}

	var err error
	if stats.PV, err = writeFiltered(w, b.newPV, b.minDepth); err != nil {
		return err
	}
	if stats.MultiPV, err = writeFiltered(w, b.newMultiPV, b.minDepth); err != nil {
		return err
	}
	return nil
}

// appendPending appends the filtered pending queues to path, creating the
// file with a signature when it does not exist yet.
func (b *Book) appendPending(path string, stats *SaveStats) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		b.log.Warn().Err(err).Str("file", path).Msg("could not open experience file for appending")
		return err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}

	w := bufio.NewWriterSize(f, writeBufferSize)
	if fi.Size() == 0 {
		_, err = io.WriteString(w, Signature)
	}
	if err == nil {
		stats.PV, err = writeFiltered(w, b.newPV, b.minDepth)
	}
	if err == nil {
		stats.MultiPV, err = writeFiltered(w, b.newMultiPV, b.minDepth)
	}
	if err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

func writeFiltered(w io.Writer, entries []Entry, minDepth int32) (int, error) {
	written := 0
	for i := range entries {
		if entries[i].Depth < minDepth {
			continue
		}
		if _, err := w.Write(EncodeEntry(entries[i])); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
