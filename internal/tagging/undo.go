package tagging

import "github.com/dgallion1/dragonfly/internal/grid"

// DefaultUndoCapacity is the number of undo levels kept when none is configured.
const DefaultUndoCapacity = 10

type snapshot struct {
	row, col int
	tag      string
	inferred bool
}

// UndoLevel holds the state of every token touched by one user action, as
// it was immediately before the action began.
type UndoLevel struct {
	snaps []snapshot
	seen  map[string]bool
}

func newUndoLevel() *UndoLevel {
	return &UndoLevel{seen: make(map[string]bool)}
}

// add records the token unless this level already holds a snapshot of it.
func (l *UndoLevel) add(tok *grid.Token) {
	id := tok.ID()
	if l.seen[id] {
		return
	}
	l.seen[id] = true
	l.snaps = append(l.snaps, snapshot{row: tok.Row, col: tok.Col, tag: tok.Tag, inferred: tok.Inferred})
}

// Len returns the number of tokens recorded in the level.
func (l *UndoLevel) Len() int {
	return len(l.snaps)
}

// Apply restores every recorded token in g.
func (l *UndoLevel) Apply(g *grid.Grid) {
	for _, s := range l.snaps {
		if tok := g.Token(s.row, s.col); tok != nil {
			tok.Tag = s.tag
			tok.Inferred = s.inferred
		}
	}
}

// UndoManager is a bounded stack of undo levels, newest first.
type UndoManager struct {
	capacity int
	levels   []*UndoLevel
	active   bool
}

// NewUndoManager creates a manager that keeps at most capacity levels.
// Recording starts inactive.
func NewUndoManager(capacity int) *UndoManager {
	if capacity <= 0 {
		capacity = DefaultUndoCapacity
	}
	return &UndoManager{capacity: capacity}
}

// SetActive turns snapshot recording on or off.
func (u *UndoManager) SetActive(active bool) {
	u.active = active
}

// Active reports whether Record stores snapshots.
func (u *UndoManager) Active() bool {
	return u.active
}

// Begin starts a new level, dropping the oldest levels beyond capacity.
func (u *UndoManager) Begin() *UndoLevel {
	l := newUndoLevel()
	u.levels = append([]*UndoLevel{l}, u.levels...)
	if len(u.levels) > u.capacity {
		u.levels = u.levels[:u.capacity]
	}
	return l
}

// Record snapshots tok into the current level. The first snapshot of a
// token within a level wins.
func (u *UndoManager) Record(tok *grid.Token) {
	if !u.active || len(u.levels) == 0 {
		return
	}
	u.levels[0].add(tok)
}

// Pop removes and returns the newest level, or nil when there is none.
func (u *UndoManager) Pop() *UndoLevel {
	if len(u.levels) == 0 {
		return nil
	}
	l := u.levels[0]
	u.levels = u.levels[1:]
	return l
}

// Discard removes a specific level wherever it sits in the stack. It
// reports false if the level was already popped or evicted.
func (u *UndoManager) Discard(l *UndoLevel) bool {
	for i, cur := range u.levels {
		if cur == l {
			u.levels = append(u.levels[:i], u.levels[i+1:]...)
			return true
		}
	}
	return false
}

// Len returns the number of retained levels.
func (u *UndoManager) Len() int {
	return len(u.levels)
}
