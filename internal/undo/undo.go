// Package undo records proxy modifications as transactions that can be
// undone and redone.
package undo

import (
	"errors"
	"reflect"
	"sync"

	"github.com/ProjectAether/navlink/internal/smartlink"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxHistory is used when a non-positive history size is configured.
const DefaultMaxHistory = 100

type entry struct {
	target smartlink.Modifiable
	before any
	after  any
}

// Transaction is one committed group of modifications.
type Transaction struct {
	Description string
	entries     []entry
}

// Manager implements smartlink.ModificationTracker.
// Begin/End pairs may nest; only the outermost End commits.
type Manager struct {
	mu         sync.Mutex
	maxHistory int
	depth      int
	current    *Transaction
	undo       []*Transaction
	redo       []*Transaction
}

var _ smartlink.ModificationTracker = (*Manager)(nil)

// NewManager creates a manager keeping at most maxHistory transactions.
func NewManager(maxHistory int) *Manager {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{maxHistory: maxHistory}
}

// Begin opens a transaction, or joins the one already open.
func (m *Manager) Begin(description string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depth == 0 {
		m.current = &Transaction{Description: description}
	}
	m.depth++
}

// Modify captures target's state the first time it is seen in the open
// transaction. Calls outside a transaction are ignored.
func (m *Manager) Modify(target smartlink.Modifiable) {
	if target == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	for _, e := range m.current.entries {
		if e.target == target {
			return
		}
	}
	m.current.entries = append(m.current.entries, entry{target: target, before: target.Snapshot()})
}

// End closes the transaction. A transaction whose targets did not change is
// dropped instead of committed.
func (m *Manager) End() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.depth == 0 {
		return
	}
	m.depth--
	if m.depth > 0 {
		return
	}

	tx := m.current
	m.current = nil

	changed := false
	for i := range tx.entries {
		e := &tx.entries[i]
		e.after = e.target.Snapshot()
		if !reflect.DeepEqual(e.before, e.after) {
			changed = true
		}
	}
	if !changed {
		return
	}

	m.undo = append(m.undo, tx)
	if len(m.undo) > m.maxHistory {
		m.undo = m.undo[len(m.undo)-m.maxHistory:]
	}
	m.redo = nil
}

// Undo reverts the most recent transaction and returns its description.
func (m *Manager) Undo() (string, error) {
	m.mu.Lock()
	if len(m.undo) == 0 {
		m.mu.Unlock()
		return "", ErrNothingToUndo
	}
	tx := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, tx)
	m.mu.Unlock()

	for i := len(tx.entries) - 1; i >= 0; i-- {
		tx.entries[i].target.Restore(tx.entries[i].before)
	}
	return tx.Description, nil
}

// Redo re-applies the most recently undone transaction.
func (m *Manager) Redo() (string, error) {
	m.mu.Lock()
	if len(m.redo) == 0 {
		m.mu.Unlock()
		return "", ErrNothingToRedo
	}
	tx := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, tx)
	m.mu.Unlock()

	for _, e := range tx.entries {
		e.target.Restore(e.after)
	}
	return tx.Description, nil
}

// Forget drops every transaction touching target, e.g. when a proxy is
// deleted.
func (m *Manager) Forget(target smartlink.Modifiable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = without(m.undo, target)
	m.redo = without(m.redo, target)
}

// Reset clears the history. An open transaction is discarded.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth = 0
	m.current = nil
	m.undo = nil
	m.redo = nil
}

// Depths returns the number of undoable and redoable transactions.
func (m *Manager) Depths() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}

func without(txs []*Transaction, target smartlink.Modifiable) []*Transaction {
	out := txs[:0]
	for _, tx := range txs {
		keep := true
		for _, e := range tx.entries {
			if e.target == target {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, tx)
		}
	}
	return out
}
