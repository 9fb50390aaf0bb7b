package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alexanderramin/zenstory/internal/astro"
	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/fetch"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/repository"
	"github.com/alexanderramin/zenstory/internal/service"
	"github.com/alexanderramin/zenstory/internal/testutil"
)

type fakeTonight struct {
	result *service.TonightResult
	err    error
	lines  []string
	got    service.TonightRequest
}

func (f *fakeTonight) Generate(ctx context.Context, req service.TonightRequest, progress service.ProgressFunc) (*service.TonightResult, error) {
	f.got = req
	for _, l := range f.lines {
		if progress != nil {
			progress(service.ProgressEvent{
				Time:    time.Date(2026, 10, 17, 21, 0, 0, 0, time.UTC),
				Icon:    "🔭",
				Message: l,
			})
		}
	}
	return f.result, f.err
}

func tonightResult() *service.TonightResult {
	return &service.TonightResult{
		Location:  geo.Location{Name: "Rome, Italy", Lat: 41.9, Lon: 12.5},
		Object:    astro.CelestialObject{Name: "Vega", Type: astro.TypeStar},
		StoryHTML: `<h1 class="story-title">The Lullaby of Vega</h1>`,
		ShareText: "🌌 The Lullaby of Vega",
		Language:  "en",
	}
}

type serverOption func(*Deps, *Options)

func withTonight(t service.TonightService) serverOption {
	return func(d *Deps, _ *Options) { d.Tonight = t }
}

func withRateLimit(n int) serverOption {
	return func(_ *Deps, o *Options) {
		o.RateLimit = n
		o.RateWindow = time.Minute
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *Server {
	t.Helper()
	c := catalog.Default()
	r, err := render.New(c)
	require.NoError(t, err)

	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	deps := Deps{
		Catalog:  c,
		Resolver: geo.NewResolver(c.Cities, c.Sky.PopularCities),
		Renderer: r,
		Tonight:  &fakeTonight{result: tonightResult()},
		Library:  service.NewLibraryService(repository.NewSQLiteStoryRepo(database), uow, r, c),
		Canvases: service.NewCanvasService(repository.NewSQLiteCanvasRepo(database), uow, r, c),
	}
	options := Options{}
	for _, o := range opts {
		o(&deps, &options)
	}
	s := New(deps, options)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndex_NegotiatesLanguage(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "it-IT,it;q=0.9,en;q=0.5")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<option value="it" selected>`)
}

func TestLanguage(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		target string
		accept string
		want   string
	}{
		{"query wins", "/?lang=fr", "es", "fr"},
		{"accept language", "/", "es-MX,es;q=0.8", "es"},
		{"unsupported falls back", "/", "ja-JP", "en"},
		{"malformed header", "/", ";;;", "en"},
		{"nothing given", "/", "", "en"},
		{"unknown query", "/?lang=xx", "it", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			assert.Equal(t, tt.want, s.language(req))
		})
	}
}

func TestStory_ReturnsResult(t *testing.T) {
	fake := &fakeTonight{result: tonightResult()}
	s := newTestServer(t, withTonight(fake))

	rec := do(t, s, http.MethodPost, "/api/v1/story?lang=it", `{"location":"Rome"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decode[map[string]any](t, rec)
	assert.Contains(t, got["story_html"], "The Lullaby of Vega")
	assert.Equal(t, "Rome", fake.got.Location)
	assert.Equal(t, "it", fake.got.Language)
}

func TestStory_LocationErrorIsLocalized(t *testing.T) {
	fake := &fakeTonight{err: service.ErrLocationUnresolved}
	s := newTestServer(t, withTonight(fake))

	rec := do(t, s, http.MethodPost, "/api/v1/story", `{"location":"Atlantis","language":"en"}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorResponse](t, rec)
	assert.Contains(t, body.HTML, "Oh my!")
	assert.NotEmpty(t, body.Error)
}

func TestStory_BadBody(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/story", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStory_RateLimited(t *testing.T) {
	s := newTestServer(t, withRateLimit(2))

	for range 2 {
		rec := do(t, s, http.MethodPost, "/api/v1/story", `{"location":"Rome"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := do(t, s, http.MethodPost, "/api/v1/story", `{"location":"Rome"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other routes are not limited.
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", "").Code)
}

func TestStory_RateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	post := func(s *Server, xff string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/story", strings.NewReader(`{"location":"Rome"}`))
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("X-Forwarded-For", xff)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		return rec.Code
	}

	s := newTestServer(t, withRateLimit(1))
	require.Equal(t, http.StatusOK, post(s, "203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(s, "203.0.113.2"))

	trusted := newTestServer(t, withRateLimit(1), func(_ *Deps, o *Options) { o.TrustProxy = true })
	require.Equal(t, http.StatusOK, post(trusted, "203.0.113.1"))
	assert.Equal(t, http.StatusOK, post(trusted, "203.0.113.2"))
	assert.Equal(t, http.StatusTooManyRequests, post(trusted, "203.0.113.1"))
}

func TestCacheEndpoints(t *testing.T) {
	cache := fetch.NewCache(30 * time.Minute)
	cache.Set(1, "vega")
	cache.Set(2, "deneb")
	_, _ = cache.Get(1)
	_, _ = cache.Get(3)

	s := newTestServer(t, func(d *Deps, _ *Options) { d.Cache = cache })

	rec := do(t, s, http.MethodGet, "/api/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"entries":2,"hits":1,"misses":1,"ttl_seconds":1800}`, rec.Body.String())

	rec = do(t, s, http.MethodDelete, "/api/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"cleared":2}`, rec.Body.String())
	assert.Equal(t, 0, cache.Stats().Entries)
}

func TestCacheEndpoints_AbsentWithoutCache(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/api/v1/cache", "").Code)
}

func TestStoriesLifecycle(t *testing.T) {
	s := newTestServer(t)

	payload := `{"story_html":"<h1 class=\"story-title\">The Lullaby of Vega</h1><p>Once.</p>","location":"Rome, Italy","language":"en","object_name":"Vega"}`
	rec := do(t, s, http.MethodPost, "/api/v1/stories", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, service.SavedMessage(1), decode[messageResponse](t, rec).Message)

	rec = do(t, s, http.MethodGet, "/api/v1/stories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]libraryItem](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "The Lullaby of Vega", list[0].Title)
	assert.Equal(t, 1, list[0].Index)
	assert.Empty(t, list[0].StoryHTML)

	rec = do(t, s, http.MethodGet, "/api/v1/stories/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[libraryItem](t, rec).StoryHTML, "Once.")

	rec = do(t, s, http.MethodGet, "/api/v1/stories/1/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "The Lullaby of Vega")

	rec = do(t, s, http.MethodDelete, "/api/v1/stories/5", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decode[errorResponse](t, rec).Error, "between 1 and 1")

	rec = do(t, s, http.MethodGet, "/api/v1/stories/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/stories/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.StoryDeletedMessage("Rome, Italy"), decode[messageResponse](t, rec).Message)

	rec = do(t, s, http.MethodDelete, "/api/v1/stories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ℹ️ No stories to delete.", decode[messageResponse](t, rec).Message)

	rec = do(t, s, http.MethodGet, "/api/v1/stories", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSaveStory_NothingToSave(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/stories", `{"story_html":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.NothingToSaveMessage, decode[errorResponse](t, rec).Error)
}

func TestCanvasesLifecycle(t *testing.T) {
	s := newTestServer(t)

	payload := `{"story_html":"<h1 class=\"story-title\">Star Song</h1><div class=\"haiku-box\"><h3 class=\"haiku-title\">🌸 Haiku</h3><div class=\"haiku-lines\"><p>Blue star hums softly</p></div></div>","location":"Paris, France","language":"fr"}`
	rec := do(t, s, http.MethodPost, "/api/v1/canvases", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, service.CanvasCreatedMessage(1), decode[messageResponse](t, rec).Message)

	rec = do(t, s, http.MethodGet, "/api/v1/canvases/1/html", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Blue star hums softly")
	assert.Contains(t, rec.Body.String(), `class="starfield"`)

	rec = do(t, s, http.MethodDelete, "/api/v1/canvases/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, service.CanvasDeletedMessage("Paris, France"), decode[messageResponse](t, rec).Message)

	rec = do(t, s, http.MethodGet, "/api/v1/canvases/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCities(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/cities?q=rome", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[[]string](t, rec), "Rome, Italy")

	rec = do(t, s, http.MethodGet, "/api/v1/cities?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]string](t, rec), 3)

	rec = do(t, s, http.MethodGet, "/api/v1/cities?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShare(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/share?platform=whatsapp&text=good+night", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://wa.me/?text=good%20night", decode[map[string]string](t, rec)["url"])

	rec = do(t, s, http.MethodGet, "/api/v1/share?platform=myspace&text=x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDictionaryAndAbout(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/dictionary?lang=es", "/api/v1/about?lang=es"} {
		rec := do(t, s, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)
		assert.NotEmpty(t, decode[htmlResponse](t, rec).HTML, path)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(_ *Deps, o *Options) { o.CORSOrigins = []string{"https://zen.example"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/story", nil)
	req.Header.Set("Origin", "https://zen.example")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://zen.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMCPMounted(t *testing.T) {
	var hit bool
	s := newTestServer(t, func(d *Deps, _ *Options) {
		d.MCP = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit = true
			w.WriteHeader(http.StatusAccepted)
		})
	})
	rec := do(t, s, http.MethodPost, "/mcp", `{}`)
	assert.True(t, hit)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func dialStory(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/story?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readAll(t *testing.T, conn *websocket.Conn) []streamMessage {
	t.Helper()
	var msgs []streamMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var m streamMessage
		if err := conn.ReadJSON(&m); err != nil {
			var ce *websocket.CloseError
			require.True(t, errors.As(err, &ce), "unexpected read error: %v", err)
			assert.Equal(t, websocket.CloseNormalClosure, ce.Code)
			return msgs
		}
		msgs = append(msgs, m)
	}
}

func TestStoryStream_ProgressThenResult(t *testing.T) {
	fake := &fakeTonight{result: tonightResult(), lines: []string{"Parsing location", "Selected: Vega"}}
	s := newTestServer(t, withTonight(fake))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	msgs := readAll(t, dialStory(t, ts, "location=Rome&lang=fr"))

	require.Len(t, msgs, 3)
	assert.Equal(t, "progress", msgs[0].Type)
	assert.Equal(t, "21:00:00 🔭 Parsing location", msgs[0].Line)
	assert.Equal(t, "progress", msgs[1].Type)
	assert.Equal(t, "result", msgs[2].Type)
	require.NotNil(t, msgs[2].Result)
	assert.Equal(t, "Vega", msgs[2].Result.Object.Name)
	assert.Equal(t, "Rome", fake.got.Location)
	assert.Equal(t, "fr", fake.got.Language)
}

func TestStoryStream_Error(t *testing.T) {
	fake := &fakeTonight{err: context.DeadlineExceeded, lines: []string{"Parsing location"}}
	s := newTestServer(t, withTonight(fake))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	msgs := readAll(t, dialStory(t, ts, "location=Rome"))

	require.Len(t, msgs, 2)
	assert.Equal(t, "error", msgs[1].Type)
	assert.Contains(t, msgs[1].HTML, "Oh my!")
}

func TestStoryStream_RejectsForeignOrigin(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/story"
	_, resp, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	require.Eventually(t, func() bool {
		resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
