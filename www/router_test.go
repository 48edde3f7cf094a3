package www

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"certdash/analytics"
	"certdash/config"
	"certdash/dashboard"
	"certdash/metrics"
	"certdash/notify"
	"certdash/views"
)

var upstream = map[string]string{
	analytics.EndpointOverview: `{"total": 3, "active": 2, "expired": 1, "expiring_soon": 1,
		"types": [{"_id": "SSL", "count": 3}],
		"status_distribution": [{"_id": "Active", "count": 2}, {"_id": "Expired", "count": 1}]}`,
	analytics.EndpointCertificates: `[
		{"certificate_id": "c1", "name": "alpha.example.com", "type": "SSL", "issuer": "DigiCert", "status": "Active",
		 "issue_date": "2024-01-10", "expiry_date": "2030-01-10"}]`,
	analytics.EndpointAnomalies: `{"anomalies": []}`,
}

type testServer struct {
	*httptest.Server
	client   *http.Client
	sessions *dashboard.Sessions
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := upstream[r.URL.Path]
		if !ok {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(api.Close)

	cfg := config.Defaults()
	cfg.API.BaseURL = api.URL
	for _, m := range mutate {
		m(cfg)
	}
	reg := dashboard.NewRegistry()
	require.NoError(t, views.Register(reg))
	m := metrics.New()
	log := zaptest.NewLogger(t)
	sessions := dashboard.NewSessions(dashboard.Config{
		App:      cfg,
		Views:    reg,
		API:      analytics.NewClient(api.URL, 2*time.Second, analytics.WithObserver(m.Upstream())),
		Logger:   log,
		Observer: m.Observer(),
	})
	router, stop := NewRouter(Deps{
		Config:   cfg,
		Sessions: sessions,
		Views:    reg,
		Logger:   log,
		Metrics:  m.Handler(),
		Version:  "test",
	})
	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		stop()
		sessions.Stop()
	})

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{
		Jar:     jar,
		Timeout: 5 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testServer{Server: srv, client: client, sessions: sessions}
}

func (ts *testServer) do(t *testing.T, method, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, nil)
	require.NoError(t, err)
	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (ts *testServer) toasts(t *testing.T) []notify.Toast {
	t.Helper()
	_, body := ts.do(t, http.MethodGet, "/toasts")
	var out []notify.Toast
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func messages(toasts []notify.Toast) []string {
	out := make([]string, len(toasts))
	for i, t := range toasts {
		out[i] = t.Message
	}
	return out
}

func TestIndexRedirectsToDefaultThenLastView(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/view/overview", resp.Header.Get("Location"))

	resp, _ = ts.do(t, http.MethodGet, "/view/san-analytics")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = ts.do(t, http.MethodGet, "/")
	assert.Equal(t, "/view/san-analytics", resp.Header.Get("Location"))
	assert.Equal(t, 1, ts.sessions.Len())
}

func TestViewRendersLayoutWithData(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/view/overview")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	assert.Contains(t, body, "<title>Certificates Overview | Certificate Analytics Dashboard</title>")
	assert.Contains(t, body, `id="dashboard-content"`)
	assert.Contains(t, body, `id="total-certificates">3</div>`)
	assert.Contains(t, body, "alpha.example.com")
	assert.Contains(t, body, `/charts/status-chart.svg?v=`)
	assert.Contains(t, body, dashboard.WelcomeMessage)
	assert.Regexp(t, `class="nav-link active" href="/view/overview"`, body)
	assert.Contains(t, body, "Regions &amp; Departments", "every view is in the nav")
}

func TestUnknownViewFallsBackToDefault(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/view/nope")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>Certificates Overview")

	resp, _ = ts.do(t, http.MethodGet, "/")
	assert.Equal(t, "/view/overview", resp.Header.Get("Location"))
}

func TestFragmentReturnsContentRegion(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/view/overview/fragment")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "overview", resp.Header.Get("X-View-ID"))
	assert.Equal(t, "/view/overview", resp.Header.Get("X-Location"))
	assert.Equal(t, "Certificates Overview", resp.Header.Get("X-View-Title"))
	assert.True(t, strings.HasPrefix(body, `<div id="dashboard-content"`))
	assert.NotContains(t, body, "<html")
}

func TestChartSVG(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/charts/status-chart.svg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no session yet")

	ts.do(t, http.MethodGet, "/view/overview")
	resp, body := ts.do(t, http.MethodGet, "/charts/status-chart.svg")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "<svg")

	resp, _ = ts.do(t, http.MethodGet, "/charts/nothing-here.svg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ts.do(t, http.MethodGet, "/view/san-analytics")
	resp, _ = ts.do(t, http.MethodGet, "/charts/status-chart.svg")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "released with the view")
}

func TestPredictionsFailureToast(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/ml/predictions")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body, predictionsFailed)
	assert.Contains(t, body, "alert-danger")
	assert.Contains(t, messages(ts.toasts(t)), predictionsFailed)
}

func TestAnomaliesEmpty(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/ml/anomalies")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "No anomalies detected.")
}

func TestCertificateDetails(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/certificates/c1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "alpha.example.com")

	resp, body = ts.do(t, http.MethodGet, "/certificates/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "Certificate not found")
}

func TestToastDismiss(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/view/overview")
	var id string
	for _, toast := range ts.toasts(t) {
		if toast.Message == dashboard.WelcomeMessage {
			id = toast.ID
		}
	}
	require.NotEmpty(t, id)

	resp, _ := ts.do(t, http.MethodPost, "/toasts/"+id+"/dismiss")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, "/toasts/"+id+"/dismiss")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotContains(t, messages(ts.toasts(t)), dashboard.WelcomeMessage)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/view/overview")

	resp, body := ts.do(t, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 1.0, health["sessions"])

	resp, body = ts.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `certdash_navigations_total{outcome="ok",view="overview"} 1`)
	assert.Contains(t, body, `certdash_upstream_requests_total{code="200",endpoint="/api/overview"} 1`)
	assert.Contains(t, body, "certdash_sessions_active 1")
}

func TestStaticAssets(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodGet, "/static/app.js")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "EventSource")
}

func TestEventHubRoutesBySession(t *testing.T) {
	hub := NewEventHub(zap.NewNop())
	hub.Start()
	defer hub.Stop()

	a := hub.AddClient("a")
	b := hub.AddClient("b")
	assert.Equal(t, 2, hub.ClientCount())

	hub.Publish("a", "toast", `{"message":"hi"}`)
	select {
	case evt := <-a:
		assert.Equal(t, "toast", evt.Event)
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
	select {
	case evt := <-b:
		t.Fatalf("session b got %v", evt)
	case <-time.After(50 * time.Millisecond):
	}

	hub.RemoveClient(a)
	hub.RemoveClient(b)
	assert.Zero(t, hub.ClientCount())
}

func TestEventHubAttachForwardsSessionEvents(t *testing.T) {
	hub := NewEventHub(zap.NewNop())
	hub.Start()
	defer hub.Stop()

	sessions := dashboard.NewSessions(dashboard.Config{Views: dashboard.NewRegistry(), API: analytics.NewClient("http://127.0.0.1:1", time.Second)})
	defer sessions.Stop()
	s, _ := sessions.GetOrCreate("")
	hub.Attach(s)
	ch := hub.AddClient(s.ID)
	defer hub.RemoveClient(ch)

	s.Notifier.Push("hello", notify.Success)
	select {
	case evt := <-ch:
		assert.Equal(t, "toast", evt.Event)
		var toast notify.Toast
		require.NoError(t, json.Unmarshal([]byte(evt.Data), &toast))
		assert.Equal(t, "hello", toast.Message)
		assert.Equal(t, notify.Success, toast.Severity)
	case <-time.After(time.Second):
		t.Fatal("toast not forwarded")
	}
}
