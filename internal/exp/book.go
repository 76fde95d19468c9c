package exp

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Config configures a Book.
type Config struct {
	Logger zerolog.Logger

	// MinDepth is the minimum depth an entry must have to be persisted.
	// Defaults to MinDepth.
	MinDepth int32
}

// Book is the in-memory experience store for one file: a map from position
// key to its chain of recorded moves, plus the two queues of entries produced
// since the last save.
//
// Probe, AddPV, AddMultiPV and Save must be serialized by the caller (the
// engine funnels them through one coordinating goroutine). Only the load
// completion handshake is synchronized internally: Save waits for an
// in-flight load, but Probe reads the index directly and must not be called
// until WaitForLoadFinished has returned.
type Book struct {
	log      zerolog.Logger
	minDepth int32

	index map[Key]int32
	arena []node

	newPV      []Entry
	newMultiPV []Entry

	mu        sync.Mutex    // guards loadDone and the last load outcome
	loadDone  chan struct{} // non-nil while a background load is in flight
	lastStats LoadStats
	lastErr   error
	loaded    bool
	abort     atomic.Bool
	progress  atomic.Int64 // entries read by the current or latest load
}

// NewBook creates an empty Book.
func NewBook(cfg Config) *Book {
	if cfg.MinDepth == 0 {
		cfg.MinDepth = MinDepth
	}
	return &Book{
		log:      cfg.Logger,
		minDepth: cfg.MinDepth,
		index:    make(map[Key]int32),
	}
}

// Probe returns an iterator over the chain recorded for key, best entry
// first, or nil if the position has never been seen. Callers must wait for
// any background load to finish before probing.
func (b *Book) Probe(key Key) *ChainIterator {
	head, ok := b.index[key]
	if !ok {
		return nil
	}
	return &ChainIterator{book: b, next: head}
}

// AddPV queues an entry produced from the primary line of a search.
func (b *Book) AddPV(key Key, move Move, value, depth int32) {
	b.newPV = append(b.newPV, Entry{Key: key, Move: move, Value: value, Depth: depth})
}

// AddMultiPV queues an entry produced from an alternate search line.
func (b *Book) AddMultiPV(key Key, move Move, value, depth int32) {
	b.newMultiPV = append(b.newMultiPV, Entry{Key: key, Move: move, Value: value, Depth: depth})
}

// HasPending reports whether any queued entries have not been saved yet.
func (b *Book) HasPending() bool {
	return len(b.newPV) > 0 || len(b.newMultiPV) > 0
}

// Positions returns the number of distinct position keys in the index.
func (b *Book) Positions() int {
	return len(b.index)
}

// Entries returns the total number of chain nodes in the index.
func (b *Book) Entries() int {
	return len(b.arena)
}
