// Package layout holds the board's column layout: the single source of truth
// the board view renders from.
//
// Two writers touch it: drag drops patch it in place through MoveCard, and the
// poller replaces it wholesale through ReplaceFromCards. Both go through the
// store's mutex. Version increases on every mutation.
package layout

import (
	"errors"
	"fmt"
	"sync"

	"kanban-cli/internal/model"
)

var (
	ErrUnknownStatus  = errors.New("unknown status")
	ErrStatusMismatch = errors.New("card status differs from its column")
	ErrDuplicateCard  = errors.New("card appears more than once")
)

// Snapshot is a deep copy of the layout at one version.
type Snapshot struct {
	Columns []model.Column `json:"columns"`
	Version uint64         `json:"version"`

	// Dropped counts cards skipped by the last replace because their status
	// matched no column.
	Dropped int `json:"dropped,omitempty"`
}

// Column returns the column with id s.
func (s Snapshot) Column(st model.Status) (model.Column, bool) {
	for _, c := range s.Columns {
		if c.ID == st {
			return c, true
		}
	}
	return model.Column{}, false
}

// Cards returns every card in column order.
func (s Snapshot) Cards() []model.Card {
	var out []model.Card
	for _, c := range s.Columns {
		out = append(out, c.Cards...)
	}
	return out
}

type Store struct {
	mu      sync.RWMutex
	columns []model.Column
	version uint64
	dropped int
}

// New returns a store holding the three empty default columns.
func New() *Store {
	return &Store{columns: EmptyColumns()}
}

// EmptyColumns is the fallback layout: one empty column per status.
func EmptyColumns() []model.Column {
	out := make([]model.Column, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		out = append(out, model.Column{ID: st, Name: st.Label(), Cards: []model.Card{}})
	}
	return out
}

// ReplaceFromCards rebuilds the layout from the server's flat card list,
// keeping server order within each column.
func (s *Store) ReplaceFromCards(cards []model.Card) Snapshot {
	cols := EmptyColumns()
	idx := map[model.Status]int{}
	for i, c := range cols {
		idx[c.ID] = i
	}
	dropped := 0
	for _, card := range cards {
		i, ok := idx[card.Status]
		if !ok {
			dropped++
			continue
		}
		cols[i].Cards = append(cols[i].Cards, card.Clone())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = cols
	s.dropped = dropped
	s.version++
	return s.snapshotLocked()
}

// Reset restores the three empty default columns.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.columns = EmptyColumns()
	s.dropped = 0
	s.version++
}

// MoveCard removes the card at srcIndex of column src and inserts it into
// column dst at dstIndex, clamped to the column bounds. Changing column sets
// the card's status to dst.
//
// It is a no-op returning false when srcIndex does not hold cardID, which
// happens when a poll replaced the layout between pick-up and drop.
func (s *Store) MoveCard(cardID string, src model.Status, srcIndex int, dst model.Status, dstIndex int) (model.Card, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	si := s.columnIndexLocked(src)
	di := s.columnIndexLocked(dst)
	if si < 0 || di < 0 {
		return model.Card{}, false
	}
	from := s.columns[si].Cards
	if srcIndex < 0 || srcIndex >= len(from) || from[srcIndex].ID != cardID {
		return model.Card{}, false
	}

	moved := from[srcIndex]
	s.columns[si].Cards = append(append([]model.Card{}, from[:srcIndex]...), from[srcIndex+1:]...)
	if src != dst {
		moved.Status = dst
	}

	to := s.columns[di].Cards
	dstIndex = clamp(dstIndex, 0, len(to))
	next := make([]model.Card, 0, len(to)+1)
	next = append(next, to[:dstIndex]...)
	next = append(next, moved)
	next = append(next, to[dstIndex:]...)
	s.columns[di].Cards = next

	s.version++
	return moved.Clone(), true
}

// MoveTask does not touch the layout: task lists live per card and are
// reloaded once the move is persisted. It returns the card ids to reload.
func (s *Store) MoveTask(taskID, srcCardID, dstCardID string) []string {
	if taskID == "" || srcCardID == "" {
		return nil
	}
	if dstCardID == "" || dstCardID == srcCardID {
		return []string{srcCardID}
	}
	return []string{srcCardID, dstCardID}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *Store) Card(id string) (model.Card, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, col := range s.columns {
		for _, c := range col.Cards {
			if c.ID == id {
				return c.Clone(), true
			}
		}
	}
	return model.Card{}, false
}

// StatusOf returns the id of the column currently holding cardID.
func (s *Store) StatusOf(cardID string) (model.Status, bool) {
	st, _, ok := s.Locate(cardID)
	return st, ok
}

// Locate returns the column and index of cardID.
func (s *Store) Locate(cardID string) (model.Status, int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, col := range s.columns {
		for i, c := range col.Cards {
			if c.ID == cardID {
				return col.ID, i, true
			}
		}
	}
	return "", -1, false
}

func (s *Store) snapshotLocked() Snapshot {
	cols := make([]model.Column, len(s.columns))
	for i, col := range s.columns {
		cards := make([]model.Card, len(col.Cards))
		for j, c := range col.Cards {
			cards[j] = c.Clone()
		}
		cols[i] = model.Column{ID: col.ID, Name: col.Name, Cards: cards}
	}
	return Snapshot{Columns: cols, Version: s.version, Dropped: s.dropped}
}

func (s *Store) columnIndexLocked(st model.Status) int {
	for i, c := range s.columns {
		if c.ID == st {
			return i
		}
	}
	return -1
}

// CheckInvariants verifies that every column is a known status, every card's
// status equals its column id, and no card appears twice.
func CheckInvariants(snap Snapshot) error {
	seen := map[string]model.Status{}
	for _, col := range snap.Columns {
		if !col.ID.Valid() {
			return fmt.Errorf("column %q: %w", col.ID, ErrUnknownStatus)
		}
		for _, c := range col.Cards {
			if c.Status != col.ID {
				return fmt.Errorf("card %s has status %q in column %q: %w", c.ID, c.Status, col.ID, ErrStatusMismatch)
			}
			if prev, ok := seen[c.ID]; ok {
				return fmt.Errorf("card %s in %q and %q: %w", c.ID, prev, col.ID, ErrDuplicateCard)
			}
			seen[c.ID] = col.ID
		}
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
