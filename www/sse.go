package www

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"certdash/dashboard"
)

type SSEEvent struct {
	Event string
	Data  string
}

type routed struct {
	session string
	evt     SSEEvent
}

// EventHub fans session events out to that session's SSE clients. A
// browser may hold several streams for one session (several tabs).
type EventHub struct {
	mu        sync.RWMutex
	clients   map[chan SSEEvent]string
	broadcast chan routed
	stopChan  chan struct{}
	stopOnce  sync.Once
	log       *zap.Logger
}

func NewEventHub(log *zap.Logger) *EventHub {
	return &EventHub{
		clients:   make(map[chan SSEEvent]string),
		broadcast: make(chan routed, 256),
		stopChan:  make(chan struct{}),
		log:       log,
	}
}

func (h *EventHub) Start() {
	go h.run()
}

func (h *EventHub) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

func (h *EventHub) run() {
	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-h.stopChan:
			return
		case m := <-h.broadcast:
			h.mu.RLock()
			for ch, session := range h.clients {
				if session != m.session {
					continue
				}
				select {
				case ch <- m.evt:
				default:
					// drop if full
				}
			}
			h.mu.RUnlock()
		case <-keepalive.C:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- SSEEvent{Event: "keepalive", Data: "ping"}:
				default:
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues an event for one session's clients.
func (h *EventHub) Publish(session, event, data string) {
	select {
	case h.broadcast <- routed{session: session, evt: SSEEvent{Event: event, Data: data}}:
	default:
	}
}

func (h *EventHub) AddClient(session string) chan SSEEvent {
	ch := make(chan SSEEvent, 64)
	h.mu.Lock()
	h.clients[ch] = session
	h.mu.Unlock()
	return ch
}

func (h *EventHub) RemoveClient(ch chan SSEEvent) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Attach wires a session's event bus to SSE publishes.
func (h *EventHub) Attach(s *dashboard.Session) {
	send := func(event string, v any) {
		data, err := json.Marshal(v)
		if err != nil {
			h.log.Warn("encode event", zap.String("event", event), zap.Error(err))
			return
		}
		h.Publish(s.ID, event, string(data))
	}

	s.Events.Subscribe(func(evt dashboard.Event) {
		ev := evt.Payload.(dashboard.SectionUpdatedEvent)
		send("section", map[string]any{"gen": ev.Gen, "target": ev.Target, "html": ev.HTML})
	}, dashboard.EventSectionUpdated)

	s.Events.Subscribe(func(evt dashboard.Event) {
		ev := evt.Payload.(dashboard.ClassChangedEvent)
		send("class", map[string]any{"gen": ev.Gen, "target": ev.Target, "class": ev.Class, "added": ev.Added})
	}, dashboard.EventClassChanged)

	s.Events.Subscribe(func(evt dashboard.Event) {
		send("toast", evt.Payload.(dashboard.ToastEvent).Toast)
	}, dashboard.EventToast)

	s.Events.Subscribe(func(evt dashboard.Event) {
		ev := evt.Payload.(dashboard.PageLoaderEvent)
		send("loader", map[string]any{"visible": ev.Visible, "style": ev.Style})
	}, dashboard.EventPageLoader)

	s.Events.Subscribe(func(evt dashboard.Event) {
		ev := evt.Payload.(dashboard.NavigatedEvent)
		send("navigated", map[string]any{"view": ev.ViewID, "title": ev.Title, "location": ev.Location, "gen": ev.Gen})
	}, dashboard.EventNavigated)

	s.Events.Subscribe(func(evt dashboard.Event) {
		ev := evt.Payload.(dashboard.NavigationFailedEvent)
		send("navigation-failed", map[string]any{"view": ev.ViewID, "error": ev.Err.Error()})
	}, dashboard.EventNavigationFailed)

	s.Events.Subscribe(func(evt dashboard.Event) {
		send("charts", map[string]any{"live": evt.Payload.(dashboard.ChartsChangedEvent).Live})
	}, dashboard.EventChartsChanged)
}

// handleEvents streams the caller's session events.
func (h *Handlers) handleEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.existing(r)
	if !ok {
		http.Error(w, "no session", http.StatusNotFound)
		return
	}
	h.eventHub.serve(w, r, s.ID)
}

func (h *EventHub) serve(w http.ResponseWriter, r *http.Request, session string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.AddClient(session)
	defer h.RemoveClient(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.stopChan:
			return
		case evt := <-ch:
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data); err != nil {
				h.log.Debug("write error", zap.String("session", session), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}
