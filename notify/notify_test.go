package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityClass(t *testing.T) {
	assert.Equal(t, "bg-danger", Error.Class())
	assert.Equal(t, "bg-success", Success.Class())
	assert.Equal(t, "bg-warning", Warning.Class())
	assert.Equal(t, "bg-info", Info.Class())
	assert.Equal(t, "bg-info", Severity("other").Class())
}

func TestNotifier_PushPublishesAndQueues(t *testing.T) {
	var published []Toast
	n := NewNotifier(time.Minute, func(t Toast) { published = append(published, t) })

	toast := n.Push("Welcome to Certificate Analytics Dashboard", Info)
	require.Len(t, published, 1)
	assert.Equal(t, toast.ID, published[0].ID)
	assert.Equal(t, Header, toast.Header)
	assert.Equal(t, "bg-info", toast.Class)
	assert.NotEmpty(t, toast.ID)

	n.Push("failed", Error)
	pending := n.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, Error, pending[1].Severity)

	assert.True(t, n.Dismiss(toast.ID))
	assert.False(t, n.Dismiss(toast.ID))
	assert.Len(t, n.Pending(), 1)
}

func TestNotifier_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	n := NewNotifier(5*time.Second, nil)
	n.now = func() time.Time { return now }

	n.Push("first", "")
	now = now.Add(3 * time.Second)
	n.Push("second", Warning)
	assert.Len(t, n.Pending(), 2)

	now = now.Add(3 * time.Second)
	pending := n.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "second", pending[0].Message)
	assert.Equal(t, Info, NewNotifier(0, nil).Push("x", "").Severity)
}

// --- Mock target ---

type classTarget struct {
	mu      sync.Mutex
	classes map[string]map[string]bool
	inner   map[string]string
	tags    map[string]string
}

func newTarget() *classTarget {
	return &classTarget{classes: map[string]map[string]bool{}, inner: map[string]string{}, tags: map[string]string{}}
}

func (c *classTarget) Tag(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if tag, ok := c.tags[id]; ok {
		return tag
	}
	return "div"
}

func (c *classTarget) SetInner(id, html string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner[id] = html
	return nil
}

func (c *classTarget) Inner(id string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner[id], nil
}

func (c *classTarget) AddClass(id, class string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.classes[id] == nil {
		c.classes[id] = map[string]bool{}
	}
	c.classes[id][class] = true
	return nil
}

func (c *classTarget) RemoveClass(id, class string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.classes[id], class)
	return nil
}

func (c *classTarget) has(id, class string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classes[id][class]
}

func TestLoaders_Nesting(t *testing.T) {
	target := newTarget()
	l := NewLoaders(target, false)

	l.Show("stats")
	l.Show("stats")
	assert.True(t, target.has("stats", LoaderClass))
	inner, _ := target.Inner("stats")
	assert.Empty(t, inner, "blob style leaves content alone")

	l.Hide("stats")
	assert.True(t, target.has("stats", LoaderClass), "still one fetch outstanding")
	assert.True(t, l.Active("stats"))

	l.Hide("stats")
	assert.False(t, target.has("stats", LoaderClass))
	assert.False(t, l.Active("stats"))

	// unmatched hide is a no-op
	l.Hide("stats")
	assert.False(t, l.Active("stats"))
}

func TestLoaders_SpinnerStyle(t *testing.T) {
	target := newTarget()
	target.inner["stats"] = `<div id="total">-</div>`
	l := NewLoaders(target, true)
	l.Show("stats")
	l.Show("stats")
	inner, _ := target.Inner("stats")
	assert.Equal(t, SectionLoader, inner, "content replaced by the spinner")
	assert.Contains(t, inner, "spinner-border")
	assert.True(t, target.has("stats", LoaderClass))
	l.Hide("stats")
	inner, _ = target.Inner("stats")
	assert.Equal(t, SectionLoader, inner, "still one fetch outstanding")
	l.Hide("stats")
	inner, _ = target.Inner("stats")
	assert.Equal(t, `<div id="total">-</div>`, inner, "content restored")
	assert.False(t, target.has("stats", LoaderClass))

	// table sections get a spinner row
	target.tags["rows"] = "tbody"
	l.Show("rows")
	inner, _ = target.Inner("rows")
	assert.Equal(t, SectionLoaderRow, inner)
	// data painted before the hide is kept
	target.SetInner("rows", "<tr><td>new</td></tr>")
	l.Hide("rows")
	inner, _ = target.Inner("rows")
	assert.Equal(t, "<tr><td>new</td></tr>", inner)

	l.Show("rows")
	l.Reset()
	assert.False(t, l.Active("rows"))
}

func TestPageLoader(t *testing.T) {
	var flips []bool
	p := NewPageLoader("blob", func(v bool) { flips = append(flips, v) })
	p.Show()
	p.Show()
	assert.True(t, p.Visible())
	p.Hide()
	assert.False(t, p.Visible())
	assert.Equal(t, []bool{true, false}, flips)
	assert.Equal(t, "blob", p.Style())
}
