package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/winkeep/winkeep/internal/config"
	"github.com/winkeep/winkeep/internal/platform"
)

// Store owns the mapping from window kind to its state record and the
// persisted representation on disk. Geometry updates are coalesced:
// every Update (re)starts a single debounce timer, and only a quiet
// period triggers an actual write. Explicit callers (reset, topology
// reconciliation, shutdown) use Flush for a synchronous write.
type Store struct {
	path      string
	cfg       *config.Config
	displays  platform.DisplayProvider
	logger    *slog.Logger
	scheduler Scheduler
	debounce  time.Duration
	now       func() time.Time

	mu            sync.Mutex
	records       map[Kind]Record
	cancelPending func() bool
}

// Option customizes a Store.
type Option func(*Store)

// WithScheduler replaces the wall-clock debounce scheduler.
func WithScheduler(s Scheduler) Option {
	return func(st *Store) { st.scheduler = s }
}

// WithClock replaces the time source used for LastSaved stamps.
func WithClock(now func() time.Time) Option {
	return func(st *Store) { st.now = now }
}

// NewStore creates a store persisting to path. Call Load before use.
func NewStore(path string, cfg *config.Config, displays platform.DisplayProvider, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		path:      path,
		cfg:       cfg,
		displays:  displays,
		logger:    logger,
		scheduler: NewTimerScheduler(),
		debounce:  cfg.Debounce(),
		now:       time.Now,
		records:   make(map[Kind]Record),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted document and validates every entry against
// the current configuration and display topology. Load never fails:
// a missing file means defaults, a corrupt file is logged and replaced
// by defaults on the next flush. Corrupted state must not block
// startup.
func (s *Store) Load() {
	displays := s.listDisplays()

	raw := map[string]json.RawMessage{}
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		// First run.
	case err != nil:
		s.logger.Warn("failed to read state document, using defaults", "path", s.path, "error", err)
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			s.logger.Warn("state document is corrupt, using defaults", "path", s.path, "error", err)
			raw = map[string]json.RawMessage{}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[Kind]Record, len(Kinds()))
	for _, kind := range Kinds() {
		wc, _ := s.cfg.Window(kind.String())
		var cand candidate
		if rawRec, ok := raw[kind.String()]; ok {
			cand = decodeCandidate(rawRec)
		}
		s.records[kind] = validateRecord(kind, cand, wc, displays)
	}
}

// Get returns a copy of the kind's record, creating the default record
// on first access.
func (s *Store) Get(kind Kind) (Record, error) {
	if !kind.Valid() {
		return Record{}, fmt.Errorf("unknown window kind: %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked(kind), nil
}

// Update merges patch into the kind's record and requests a debounced
// flush. This is the high-frequency path fed by drag/resize reporting;
// callers are fire-and-forget with respect to the disk write.
func (s *Store) Update(kind Kind, patch Patch) error {
	if err := s.Apply(kind, patch); err != nil {
		return err
	}
	s.scheduleFlush()
	return nil
}

// Apply merges patch into the kind's record without scheduling a
// flush. Callers on the explicit path follow up with Flush themselves.
func (s *Store) Apply(kind Kind, patch Patch) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown window kind: %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.recordLocked(kind)

	if patch.Width != nil {
		rec.Width = *patch.Width
	}
	if patch.Height != nil {
		rec.Height = *patch.Height
	}
	if patch.X != nil {
		rec.X = *patch.X
	}
	if patch.Y != nil {
		rec.Y = *patch.Y
	}
	if patch.Maximized != nil {
		rec.Maximized = *patch.Maximized
	}
	if patch.Minimized != nil {
		rec.Minimized = *patch.Minimized
	}
	if patch.FullScreen != nil {
		rec.FullScreen = *patch.FullScreen
	}
	if patch.Visible != nil {
		rec.Visible = *patch.Visible
	}
	if patch.AlwaysOnTop != nil {
		rec.AlwaysOnTop = *patch.AlwaysOnTop
	}
	if patch.DisplayID != nil {
		rec.DisplayID = *patch.DisplayID
	}
	if patch.WorkArea != nil {
		rec.WorkArea = *patch.WorkArea
	}

	// LastSaved never goes backwards, even under clock adjustments.
	if now := s.now(); now.After(rec.LastSaved) {
		rec.LastSaved = now
	}

	s.records[kind] = rec
	return nil
}

// Replace overwrites the kind's record wholesale. Used by topology
// reconciliation, which computes a fully-validated record.
func (s *Store) Replace(kind Kind, rec Record) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown window kind: %q", kind)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if now := s.now(); now.After(rec.LastSaved) {
		rec.LastSaved = now
	}
	s.records[kind] = rec
	return nil
}

// Reset restores the kind's record to its defaults and flushes
// immediately.
func (s *Store) Reset(kind Kind) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown window kind: %q", kind)
	}
	displays := s.listDisplays()
	wc, _ := s.cfg.Window(kind.String())

	s.mu.Lock()
	rec := DefaultRecord(kind, wc, displays)
	if now := s.now(); now.After(rec.LastSaved) {
		rec.LastSaved = now
	}
	s.records[kind] = rec
	s.mu.Unlock()

	return s.Flush()
}

// SetConfig swaps the active configuration, e.g. after a reload.
// Callers follow up with Revalidate to re-clamp existing records.
func (s *Store) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.debounce = cfg.Debounce()
}

// Revalidate runs every record through validation against the current
// topology and configuration. Used after a config reload.
func (s *Store) Revalidate() {
	displays := s.listDisplays()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, kind := range Kinds() {
		wc, _ := s.cfg.Window(kind.String())
		rec := s.recordLocked(kind)
		s.records[kind] = validateRecord(kind, recordCandidate(rec), wc, displays)
	}
}

// Flush cancels any pending debounced write and synchronously writes
// the full document, atomically (write-temp-then-rename) so a crash
// mid-write never leaves a truncated document. I/O failures are logged
// and returned; the in-memory state remains the source of truth.
func (s *Store) Flush() error {
	s.mu.Lock()
	if s.cancelPending != nil {
		s.cancelPending()
		s.cancelPending = nil
	}
	doc := make(map[string]Record, len(s.records))
	for kind, rec := range s.records {
		doc[kind.String()] = rec
	}
	path := s.path
	s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		s.logger.Error("failed to encode state document", "error", err)
		return fmt.Errorf("failed to encode state document: %w", err)
	}

	if err := writeFileAtomic(path, append(data, '\n')); err != nil {
		s.logger.Error("failed to write state document", "path", path, "error", err)
		return err
	}
	return nil
}

// Stats describes the store for diagnostics surfaces.
type Stats struct {
	Records   int
	LastSaved map[Kind]time.Time
}

// Stats returns record count and last-saved timestamps.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Stats{
		Records:   len(s.records),
		LastSaved: make(map[Kind]time.Time, len(s.records)),
	}
	for kind, rec := range s.records {
		st.LastSaved[kind] = rec.LastSaved
	}
	return st
}

func (s *Store) recordLocked(kind Kind) Record {
	if rec, ok := s.records[kind]; ok {
		return rec
	}
	wc, _ := s.cfg.Window(kind.String())
	rec := DefaultRecord(kind, wc, s.listDisplays())
	s.records[kind] = rec
	return rec
}

func (s *Store) scheduleFlush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelPending != nil {
		s.cancelPending()
	}
	s.cancelPending = s.scheduler.Schedule(s.debounce, func() {
		// Flush logs its own failures; nothing to do for the timer.
		_ = s.Flush()
	})
}

func (s *Store) listDisplays() []platform.Display {
	displays, err := s.displays.Displays()
	if err != nil {
		s.logger.Warn("failed to list displays", "error", err)
		return nil
	}
	return displays
}

// recordCandidate re-wraps an in-memory record for revalidation.
func recordCandidate(rec Record) candidate {
	id := int(rec.DisplayID)
	return candidate{
		Width:       &rec.Width,
		Height:      &rec.Height,
		X:           &rec.X,
		Y:           &rec.Y,
		Maximized:   &rec.Maximized,
		Minimized:   &rec.Minimized,
		FullScreen:  &rec.FullScreen,
		Visible:     &rec.Visible,
		AlwaysOnTop: &rec.AlwaysOnTop,
		DisplayID:   &id,
		LastSaved:   &rec.LastSaved,
	}
}

// writeFileAtomic writes data to a temp file in the target directory
// and renames it over path, so readers never observe a partial write.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".window-state-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}
