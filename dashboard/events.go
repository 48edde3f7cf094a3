package dashboard

import "certdash/notify"

const (
	EventSectionUpdated EventType = iota + 1
	EventClassChanged
	EventToast
	EventPageLoader
	EventNavigated
	EventNavigationFailed
	EventChartsChanged
)

// --- Event payloads ---

// SectionUpdatedEvent carries the new inner markup of one region element.
// Target is the content root when the whole region was replaced.
type SectionUpdatedEvent struct {
	Gen    uint64
	Target string
	HTML   string
}

type ClassChangedEvent struct {
	Gen    uint64
	Target string
	Class  string
	Added  bool
}

type ToastEvent struct {
	Toast notify.Toast
}

type PageLoaderEvent struct {
	Visible bool
	Style   string
}

type NavigatedEvent struct {
	ViewID   string
	Title    string
	Location string
	Gen      uint64
}

type NavigationFailedEvent struct {
	ViewID string
	Err    error
}

type ChartsChangedEvent struct {
	Live int
}
