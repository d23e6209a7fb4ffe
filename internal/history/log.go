package history

import (
	"github.com/sirupsen/logrus"
)

// Values holds the effective value of every axis at once.
type Values struct {
	Rotation float64
	Zoom     float64
	FlipH    float64
	FlipV    float64
}

// Log is the undo/redo-capable sequence of manipulation actions.
//
// Entries before the cursor are applied; entries from the cursor on form the
// redo buffer. Appending truncates the redo buffer. A Log is not safe for
// concurrent use.
type Log struct {
	actions []Action
	cursor  int
	limit   int
}

// Option configures a Log.
type Option func(*Log)

// WithLimit bounds the number of applied actions retained. Zero means unbounded.
func WithLimit(n int) Option { return func(l *Log) { l.limit = n } }

// New returns an empty Log.
func New(opts ...Option) *Log {
	l := &Log{}
	for _, o := range opts {
		o(l)
	}
	if l.limit < 0 {
		l.limit = 0
	}
	return l
}

// Append validates and applies a, discarding any redo entries.
func (l *Log) Append(a Action) error {
	if err := a.Validate(); err != nil {
		return err
	}
	if l.cursor < len(l.actions) {
		l.actions = l.actions[:l.cursor]
	}
	l.actions = append(l.actions, a)
	if l.limit > 0 && len(l.actions) > l.limit {
		l.actions = append([]Action(nil), l.actions[len(l.actions)-l.limit:]...)
	}
	l.cursor = len(l.actions)
	logrus.WithFields(logrus.Fields{"action": a.String(), "cursor": l.cursor}).Debug("history: append")
	return nil
}

// LastValue returns the value of the most recently applied action of kind,
// or the kind's default.
func (l *Log) LastValue(kind Kind) float64 {
	for i := l.cursor - 1; i >= 0; i-- {
		if l.actions[i].Kind == kind {
			return l.actions[i].Value
		}
	}
	return kind.Default()
}

// LastRotation returns the effective rotation in degrees.
func (l *Log) LastRotation() float64 { return l.LastValue(KindRotate) }

// LastZoom returns the effective zoom factor.
func (l *Log) LastZoom() float64 { return l.LastValue(KindZoom) }

// LastHorizontalFlip returns the effective horizontal flip sign.
func (l *Log) LastHorizontalFlip() float64 { return l.LastValue(KindFlipHorizontal) }

// LastVerticalFlip returns the effective vertical flip sign.
func (l *Log) LastVerticalFlip() float64 { return l.LastValue(KindFlipVertical) }

// Effective returns the effective value of all four axes.
func (l *Log) Effective() Values {
	return Values{
		Rotation: l.LastRotation(),
		Zoom:     l.LastZoom(),
		FlipH:    l.LastHorizontalFlip(),
		FlipV:    l.LastVerticalFlip(),
	}
}

// AddRotation appends a rotation.
func (l *Log) AddRotation(deg float64) error { return l.Append(Rotate(deg)) }

// AddZoom appends a zoom factor.
func (l *Log) AddZoom(factor float64) error { return l.Append(Zoom(factor)) }

// ToggleHorizontalFlip appends the negation of the current horizontal flip.
func (l *Log) ToggleHorizontalFlip() error {
	return l.Append(FlipHorizontal(-l.LastHorizontalFlip()))
}

// ToggleVerticalFlip appends the negation of the current vertical flip.
func (l *Log) ToggleVerticalFlip() error {
	return l.Append(FlipVertical(-l.LastVerticalFlip()))
}

// Undo steps the cursor back by one. On an empty log it behaves like Reset
// so that no redo entry survives, and reports false.
func (l *Log) Undo() bool {
	if l.cursor == 0 {
		l.Reset()
		return false
	}
	l.cursor--
	logrus.WithField("cursor", l.cursor).Debug("history: undo")
	return true
}

// Redo re-applies the action at the cursor. It reports false when there is
// nothing to redo.
func (l *Log) Redo() bool {
	if l.cursor >= len(l.actions) {
		return false
	}
	l.cursor++
	logrus.WithField("cursor", l.cursor).Debug("history: redo")
	return true
}

// Reset empties the log and the redo buffer.
func (l *Log) Reset() {
	l.actions = nil
	l.cursor = 0
}

// Applied returns a copy of the applied actions in application order.
func (l *Log) Applied() []Action {
	out := make([]Action, l.cursor)
	copy(out, l.actions[:l.cursor])
	return out
}

// Len returns the number of applied actions.
func (l *Log) Len() int { return l.cursor }

// RedoLen returns the number of actions available to Redo.
func (l *Log) RedoLen() int { return len(l.actions) - l.cursor }

// CanUndo reports whether Undo has an action to step back over.
func (l *Log) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether Redo has an action to reapply.
func (l *Log) CanRedo() bool { return l.cursor < len(l.actions) }
