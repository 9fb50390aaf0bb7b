package cli

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/zenstory/internal/config"
	"github.com/alexanderramin/zenstory/internal/fetch"
	"github.com/alexanderramin/zenstory/internal/web"
)

func newTestWebServer(t *testing.T, app *App) *web.Server {
	t.Helper()
	srv := newWebServer(app, true)
	t.Cleanup(srv.Close)
	return srv
}

func TestServe_RejectsBadAddress(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "serve", "--addr", "256.0.0.1:-1")
	require.Error(t, err)
}

func TestReload_AppliesLevelAndLimit(t *testing.T) {
	app := testApp(t)
	srv := newTestWebServer(t, app)

	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.RateLimit.Requests = 3
	cfg.Bedtime.Hour = 19
	reload(app, srv, cfg)

	assert.Equal(t, "debug", app.Log.Level.Level().String())
	assert.Equal(t, 3, app.Config.RateLimit.Requests)
	assert.Equal(t, 19, app.Config.Bedtime.Hour)

	cfg.Log.Level = "loud"
	reload(app, srv, cfg)
	assert.Equal(t, "debug", app.Log.Level.Level().String())
}

func TestNewWebServer_ExposesFetchCache(t *testing.T) {
	cache := fetch.NewCache(time.Minute)
	cache.Set(7, "sirius")
	app := testApp(t, func(a *App) { a.Cache = cache })
	srv := newTestWebServer(t, app)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":1,"hits":0,"misses":0,"ttl_seconds":60}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/cache", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, cache.Stats().Entries)
}
