// Package notify holds the toast queue and the loading indicators.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Header is the title shown on every toast.
const Header = "Certificate Dashboard"

// DefaultTTL is how long a toast stays before it is dropped.
const DefaultTTL = 5 * time.Second

// Class returns the background class for a severity.
func (s Severity) Class() string {
	switch s {
	case Error:
		return "bg-danger"
	case Success:
		return "bg-success"
	case Warning:
		return "bg-warning"
	default:
		return "bg-info"
	}
}

type Toast struct {
	ID       string    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Class    string    `json:"class"`
	Header   string    `json:"header"`
	Created  time.Time `json:"created"`
}

// Notifier is a per-session toast queue.
type Notifier struct {
	mu      sync.Mutex
	toasts  []Toast
	ttl     time.Duration
	now     func() time.Time
	publish func(Toast)
}

func NewNotifier(ttl time.Duration, publish func(Toast)) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Notifier{ttl: ttl, now: time.Now, publish: publish}
}

// Push queues a toast and hands it to the publish hook.
func (n *Notifier) Push(message string, sev Severity) Toast {
	if sev == "" {
		sev = Info
	}
	t := Toast{
		ID:       uuid.NewString(),
		Message:  message,
		Severity: sev,
		Class:    sev.Class(),
		Header:   Header,
		Created:  n.now(),
	}
	n.mu.Lock()
	n.prune()
	n.toasts = append(n.toasts, t)
	publish := n.publish
	n.mu.Unlock()
	if publish != nil {
		publish(t)
	}
	return t
}

// Pending returns the toasts that have not expired or been dismissed.
func (n *Notifier) Pending() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prune()
	out := make([]Toast, len(n.toasts))
	copy(out, n.toasts)
	return out
}

// Dismiss removes a toast; unknown ids are ignored.
func (n *Notifier) Dismiss(id string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, t := range n.toasts {
		if t.ID == id {
			n.toasts = append(n.toasts[:i], n.toasts[i+1:]...)
			return true
		}
	}
	return false
}

func (n *Notifier) prune() {
	cutoff := n.now().Add(-n.ttl)
	kept := n.toasts[:0]
	for _, t := range n.toasts {
		if t.Created.After(cutoff) {
			kept = append(kept, t)
		}
	}
	n.toasts = kept
}
