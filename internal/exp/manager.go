package exp

import "github.com/rs/zerolog"

// ManagerConfig is the externally supplied process configuration for the
// experience store. The core only reads it.
type ManagerConfig struct {
	Enabled  bool
	Path     string
	ReadOnly bool
	MinDepth int32
	Logger   zerolog.Logger
}

// Manager owns the lifecycle of the engine's experience book: construction
// and background load at startup, periodic flushes during play, and teardown
// at exit. Like the Book it manages, its methods are meant to be called from
// one coordinating goroutine.
type Manager struct {
	cfg  ManagerConfig
	book *Book
}

// NewManager returns a Manager with no book; call Init to configure it.
func NewManager() *Manager {
	return &Manager{}
}

// Init applies cfg. Disabling tears down any current book. Re-initializing
// with the same file after a successful load is a no-op; any other change
// tears down the current book and starts an asynchronous load of the
// configured file.
func (m *Manager) Init(cfg ManagerConfig) {
	if !cfg.Enabled {
		m.Teardown()
		m.cfg = cfg
		return
	}

	if m.book != nil && m.cfg.Path == cfg.Path && m.book.LoadSucceeded() {
		m.cfg = cfg
		return
	}

	m.Teardown()
	m.cfg = cfg
	m.book = NewBook(Config{Logger: cfg.Logger, MinDepth: cfg.MinDepth})
	m.book.StartLoad(cfg.Path)
}

// Teardown cancels any outstanding load, flushes pending entries unless the
// store is read-only, and destroys the book.
func (m *Manager) Teardown() {
	if m.book == nil {
		return
	}
	m.book.CancelLoad()
	m.book.WaitForLoadFinished()
	m.Flush()
	m.book = nil
}

// Flush appends pending entries to the configured file. It is a no-op when
// there is no book, nothing is pending, or the store is read-only.
func (m *Manager) Flush() {
	if m.book == nil || m.cfg.ReadOnly || !m.book.HasPending() {
		return
	}
	if _, err := m.book.Save(m.cfg.Path, false); err != nil {
		m.cfg.Logger.Error().Err(err).Str("file", m.cfg.Path).Msg("experience flush failed")
	}
}

// WaitForLoadFinished blocks until the startup load completes and returns its
// outcome.
func (m *Manager) WaitForLoadFinished() error {
	if m.book == nil {
		return nil
	}
	return m.book.WaitForLoadFinished()
}

// Enabled reports whether the experience store is active.
func (m *Manager) Enabled() bool {
	return m.cfg.Enabled && m.book != nil
}

// Probe returns the chain recorded for key, or nil when the position is
// unknown. It waits for the startup load first, so a probe never races the
// loader. Probing a disabled store is a programming error.
func (m *Manager) Probe(key Key) *ChainIterator {
	if m.book == nil {
		panic("exp: Probe called while the experience store is disabled")
	}
	m.book.WaitForLoadFinished()
	return m.book.Probe(key)
}

// AddPV queues a primary-line entry. Adding to a read-only store is a
// programming error.
func (m *Manager) AddPV(key Key, move Move, value, depth int32) {
	if m.cfg.ReadOnly {
		panic("exp: AddPV called on a read-only experience store")
	}
	if m.book == nil {
		return
	}
	m.book.AddPV(key, move, value, depth)
}

// AddMultiPV queues an alternate-line entry. Adding to a read-only store is a
// programming error.
func (m *Manager) AddMultiPV(key Key, move Move, value, depth int32) {
	if m.cfg.ReadOnly {
		panic("exp: AddMultiPV called on a read-only experience store")
	}
	if m.book == nil {
		return
	}
	m.book.AddMultiPV(key, move, value, depth)
}
