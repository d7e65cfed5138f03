// ============================================================================
// Vaani - Scan, Translate, Speak
// ============================================================================
//
// Package:     history
// Description: Bounded, durable list of the most recent translations
// Author:      Mike Stoffels
// Created:     2026-10-04
// License:     MIT
// ============================================================================

// Package history keeps the last few translation results and persists them
// under a single key so they survive a restart.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	vaerr "github.com/msto63/vaani/pkg/core/error"
	"github.com/msto63/vaani/pkg/core/logging"
)

const (
	// MaxEntries is the number of entries kept
	MaxEntries = 5

	// Key is the storage key holding the serialized list
	Key = "history"

	// DateLayout is the display format of Entry.CreatedAt
	DateLayout = "02 Jan 2006 15:04"
)

// ErrEntryNotFound is returned by Get for unknown IDs
var ErrEntryNotFound = vaerr.New("history entry not found").WithCode(vaerr.CodeNotFound)

// Entry is one immutable translation result
type Entry struct {
	ID        int64  `json:"id"`
	Text      string `json:"text"`
	Language  string `json:"lang"`
	CreatedAt string `json:"date"`
}

// Store holds up to MaxEntries entries, newest first
type Store struct {
	backend Backend
	logger  *logging.Logger
	now     func() time.Time

	mu      sync.RWMutex
	entries []Entry
	lastID  int64
}

// NewStore creates a store on top of backend. Call LoadAll before use.
func NewStore(backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  logging.New("history"),
		now:     time.Now,
	}
}

// LoadAll reads the persisted list. Missing data yields an empty list;
// corrupt data is logged, removed and also yields an empty list.
func (s *Store) LoadAll(ctx context.Context) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil

	data, err := s.backend.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		s.logger.Warn("Failed to read history", "error", err)
		return nil
	}

	entries, err := decode(data)
	if err != nil {
		s.logger.Warn("Discarding corrupt history", "error", err, "bytes", len(data))
		if derr := s.backend.Delete(ctx, Key); derr != nil {
			s.logger.Warn("Failed to remove corrupt history", "error", derr)
		}
		return nil
	}

	if len(entries) > MaxEntries {
		s.logger.Info("Truncating persisted history", "count", len(entries))
		entries = entries[:MaxEntries]
	}

	s.entries = entries
	for _, e := range entries {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
	return s.snapshot()
}

// NewEntry builds an entry stamped with the current time. IDs are
// millisecond timestamps, bumped when needed so they stay strictly increasing.
func (s *Store) NewEntry(text, lang string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	return Entry{
		ID:        id,
		Text:      text,
		Language:  lang,
		CreatedAt: now.Format(DateLayout),
	}
}

// Record prepends entry, drops anything beyond MaxEntries and persists
// the result before returning.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Entry, 0, MaxEntries)
	next = append(next, entry)
	next = append(next, s.entries...)
	if len(next) > MaxEntries {
		next = next[:MaxEntries]
	}

	data, err := json.Marshal(next)
	if err != nil {
		return vaerr.Wrap(err, "failed to encode history").WithCode(vaerr.CodeStorageError)
	}
	if err := s.backend.Put(ctx, Key, data); err != nil {
		return vaerr.Wrap(err, "failed to persist history").WithCode(vaerr.CodeStorageError)
	}

	s.entries = next
	if entry.ID > s.lastID {
		s.lastID = entry.ID
	}
	s.logger.Debug("History recorded", "id", entry.ID, "lang", entry.Language, "count", len(next))
	return nil
}

// Entries returns a copy of the current list, newest first
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Get returns the entry with the given ID
func (s *Store) Get(id int64) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, vaerr.Wrap(ErrEntryNotFound, "lookup failed").WithDetail("id", id)
}

// Clear removes every entry and the persisted key
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Delete(ctx, Key); err != nil {
		return vaerr.Wrap(err, "failed to clear history").WithCode(vaerr.CodeStorageError)
	}
	s.entries = nil
	return nil
}

// Preview shortens text for list displays
func Preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	r := []rune(text)
	if max <= 0 || len(r) <= max {
		return text
	}
	return string(r[:max]) + "..."
}

func (s *Store) snapshot() []Entry {
	if len(s.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}
