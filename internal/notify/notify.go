// Package notify reports human-readable outcomes of session operations.
package notify

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/retouch/internal/platform"
)

// Severity classifies a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
)

// DisplayDuration is how long a notification stays visible in the editor.
const DisplayDuration = 4 * time.Second

// Notification is a single message.
type Notification struct {
	Severity Severity
	Message  string
	At       time.Time
}

// Sink receives notifications.
type Sink interface {
	Notify(sev Severity, message string)
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title   string
	Desktop bool
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	return Preferences{Title: "Retouch"}
}

// LoadPreferences applies environment overrides on top of prefs.
func LoadPreferences(prefs Preferences) Preferences {
	if v := strings.TrimSpace(os.Getenv("RETOUCH_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("RETOUCH_NOTIFY_DESKTOP"))) {
	case "1", "true", "yes", "on":
		prefs.Desktop = true
	case "0", "false", "no", "off":
		prefs.Desktop = false
	}
	return prefs
}

// Notifier logs every notification and, when enabled, forwards it to the
// desktop notification service.
type Notifier struct {
	prefs   Preferences
	deliver func(title, body string, opts platform.Options) error
}

// New creates a Notifier using the provided preferences.
func New(prefs Preferences) *Notifier {
	if prefs.Title == "" {
		prefs.Title = DefaultPreferences().Title
	}
	return &Notifier{prefs: prefs, deliver: platform.Notify}
}

// Notify reports message with the given severity.
func (n *Notifier) Notify(sev Severity, message string) {
	if n == nil {
		return
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	entry := logrus.WithField("severity", string(sev))
	if sev == Error {
		entry.Warn(message)
	} else {
		entry.Info(message)
	}
	if !n.prefs.Desktop || n.deliver == nil {
		return
	}
	if err := n.deliver(n.prefs.Title, message, platform.Options{Critical: sev == Error, Timeout: DisplayDuration}); err != nil {
		logrus.WithError(err).Debug("desktop notification failed")
	}
}

// Errorf is shorthand for Notify(Error, fmt.Sprintf(format, args...)).
func Errorf(s Sink, format string, args ...any) {
	if s != nil {
		s.Notify(Error, fmt.Sprintf(format, args...))
	}
}

// Recorder keeps notifications in memory. The editor reads the latest one
// for its status line.
type Recorder struct {
	mu    sync.Mutex
	items []Notification
	next  Sink
	now   func() time.Time
}

// NewRecorder returns a Recorder that also forwards to next when non-nil.
func NewRecorder(next Sink) *Recorder {
	return &Recorder{next: next, now: time.Now}
}

func (r *Recorder) Notify(sev Severity, message string) {
	r.mu.Lock()
	r.items = append(r.items, Notification{Severity: sev, Message: message, At: r.now()})
	r.mu.Unlock()
	if r.next != nil {
		r.next.Notify(sev, message)
	}
}

// All returns every recorded notification in order.
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Latest returns the most recent notification still within DisplayDuration.
func (r *Recorder) Latest() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	last := r.items[len(r.items)-1]
	if r.now().Sub(last.At) > DisplayDuration {
		return Notification{}, false
	}
	return last, true
}
