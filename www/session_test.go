package www

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"certdash/config"
)

// saveCookie saves an id with a fresh store and returns the cookie and a
// reader bound to that store.
func saveCookie(t *testing.T, cfg config.WebConfig, log *zap.Logger) (*http.Cookie, func(*http.Cookie) (string, error)) {
	t.Helper()
	store := newCookieStore(cfg, log)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	cs, err := store.New(req, sessionName)
	require.NoError(t, err)
	cs.Values[keyID] = "abc"
	require.NoError(t, cs.Save(req, rec))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	read := func(c *http.Cookie) (string, error) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(c)
		cs, err := store.Get(req, sessionName)
		if err != nil {
			return "", err
		}
		id, _ := cs.Values[keyID].(string)
		return id, nil
	}
	return cookies[0], read
}

func TestCookieStoreEmptySecretUsesRandomKey(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	cfg := config.Defaults().Web
	cfg.SessionSecret = ""

	c1, read1 := saveCookie(t, cfg, zap.New(core))
	c2, read2 := saveCookie(t, cfg, zap.New(core))
	assert.Equal(t, 2, logs.FilterMessageSnippet("session_secret is empty").Len())

	id, err := read1(c1)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	// each store has its own key
	_, err = read2(c1)
	assert.Error(t, err)
	_, err = read1(c2)
	assert.Error(t, err)
}

func TestCookieStoreConfiguredSecretIsShared(t *testing.T) {
	cfg := config.Defaults().Web
	cfg.SessionSecret = "a-long-enough-secret-for-tests"

	c1, _ := saveCookie(t, cfg, zap.NewNop())
	_, read2 := saveCookie(t, cfg, zap.NewNop())
	id, err := read2(c1)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)
}
