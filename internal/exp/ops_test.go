package exp_test

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/expbook/expbook/internal/exp"
)

func TestDefragmentShrinksFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.exp")

	key := exp.Key(1)
	mv := exp.EncodeMove(12, 28, exp.PromoNone)
	dup := exp.Entry{Key: key, Move: mv, Value: 40, Depth: 10}
	other := exp.Entry{Key: 2, Move: mv, Value: 15, Depth: 8}
	writeExpFile(t, path, dup, dup, dup, dup, other)

	cfg := exp.Config{Logger: zerolog.Nop()}
	if err := exp.Defragment(cfg, path); err != nil {
		t.Fatalf("Defragment: %v", err)
	}

	if got, want := fileSize(t, path), int64(exp.SignatureSize+2*exp.EntrySize); got != want {
		t.Errorf("defragmented size = %d, want %d", got, want)
	}

	b := newTestBook(t)
	stats, err := b.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stats.Duplicates != 0 {
		t.Errorf("defragmented file still has %d duplicates", stats.Duplicates)
	}
	got := collect(b.Probe(key))
	if len(got) != 1 || got[0] != dup {
		t.Errorf("entry after defragment = %+v, want %+v", got, dup)
	}
}

func TestDefragmentDropsShallowEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.exp")

	writeExpFile(t, path,
		exp.Entry{Key: 1, Move: exp.EncodeMove(12, 28, exp.PromoNone), Value: 40, Depth: 10},
		exp.Entry{Key: 2, Move: exp.EncodeMove(11, 27, exp.PromoNone), Value: 15, Depth: 2},
	)

	cfg := exp.Config{Logger: zerolog.Nop(), MinDepth: 5}
	if err := exp.Defragment(cfg, path); err != nil {
		t.Fatalf("Defragment: %v", err)
	}
	if got, want := fileSize(t, path), int64(exp.SignatureSize+exp.EntrySize); got != want {
		t.Errorf("defragmented size = %d, want %d", got, want)
	}
}

func TestDefragmentMissingFile(t *testing.T) {
	cfg := exp.Config{Logger: zerolog.Nop()}
	if err := exp.Defragment(cfg, filepath.Join(t.TempDir(), "absent.exp")); err == nil {
		t.Fatal("defragmenting a missing file should fail")
	}
}

func TestMergeFilesDeduplicatesAcrossSources(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "merged.exp")
	src1 := filepath.Join(dir, "a.exp")
	src2 := filepath.Join(dir, "b.exp")

	key := exp.Key(1)
	mv := exp.EncodeMove(12, 28, exp.PromoNone)
	writeExpFile(t, src1, exp.Entry{Key: key, Move: mv, Value: 100, Depth: 10})
	writeExpFile(t, src2,
		exp.Entry{Key: key, Move: mv, Value: 50, Depth: 10},
		exp.Entry{Key: 2, Move: mv, Value: 0, Depth: 6},
	)

	cfg := exp.Config{Logger: zerolog.Nop()}
	if err := exp.MergeFiles(cfg, target, src1, src2); err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}

	b := newTestBook(t)
	if _, err := b.Load(target); err != nil {
		t.Fatalf("loading merged file: %v", err)
	}
	if b.Positions() != 2 {
		t.Errorf("merged positions = %d, want 2", b.Positions())
	}
	got := collect(b.Probe(key))
	if len(got) != 1 {
		t.Fatalf("chain length = %d, want 1", len(got))
	}
	if got[0].Value != 75 || got[0].Depth != 10 {
		t.Errorf("merged entry = depth %d value %d, want depth 10 value 75", got[0].Depth, got[0].Value)
	}
}

func TestMergeFilesIncludesExistingTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "merged.exp")
	src := filepath.Join(dir, "a.exp")

	mv := exp.EncodeMove(12, 28, exp.PromoNone)
	writeExpFile(t, target, exp.Entry{Key: 1, Move: mv, Value: 10, Depth: 10})
	writeExpFile(t, src, exp.Entry{Key: 2, Move: mv, Value: 20, Depth: 10})

	cfg := exp.Config{Logger: zerolog.Nop()}
	if err := exp.MergeFiles(cfg, target, src); err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}

	b := newTestBook(t)
	if _, err := b.Load(target); err != nil {
		t.Fatalf("loading merged file: %v", err)
	}
	if b.Positions() != 2 {
		t.Errorf("merged positions = %d, want 2", b.Positions())
	}
}

func TestMergeFilesSkipsUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "merged.exp")
	good := filepath.Join(dir, "good.exp")
	writeExpFile(t, good, exp.Entry{Key: 1, Move: exp.EncodeMove(12, 28, exp.PromoNone), Value: 10, Depth: 10})

	cfg := exp.Config{Logger: zerolog.Nop()}
	err := exp.MergeFiles(cfg, target, filepath.Join(dir, "absent.exp"), good)
	if err != nil {
		t.Fatalf("MergeFiles: %v", err)
	}

	b := newTestBook(t)
	if _, err := b.Load(target); err != nil {
		t.Fatalf("loading merged file: %v", err)
	}
	if b.Positions() != 1 {
		t.Errorf("merged positions = %d, want 1", b.Positions())
	}
}

func TestMergeFilesNothingToMerge(t *testing.T) {
	dir := t.TempDir()
	cfg := exp.Config{Logger: zerolog.Nop()}
	err := exp.MergeFiles(cfg, filepath.Join(dir, "merged.exp"), filepath.Join(dir, "absent.exp"))
	if err == nil {
		t.Fatal("merging nothing should fail")
	}
}

func TestMergeIdempotent(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "merged.exp")
	src := filepath.Join(dir, "a.exp")

	mv := exp.EncodeMove(12, 28, exp.PromoNone)
	writeExpFile(t, src,
		exp.Entry{Key: 1, Move: mv, Value: 10, Depth: 10},
		exp.Entry{Key: 2, Move: mv, Value: 20, Depth: 8},
	)

	cfg := exp.Config{Logger: zerolog.Nop()}
	if err := exp.MergeFiles(cfg, target, src); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	size1 := fileSize(t, target)

	// Merging the same source again must not change the result.
	if err := exp.MergeFiles(cfg, target, src); err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if size2 := fileSize(t, target); size2 != size1 {
		t.Errorf("repeated merge changed size: %d -> %d", size1, size2)
	}
}
