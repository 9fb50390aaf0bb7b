// Package web serves the browser UI and its JSON API, including the
// websocket that streams story generation progress.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/alexanderramin/zenstory/internal/catalog"
	"github.com/alexanderramin/zenstory/internal/fetch"
	"github.com/alexanderramin/zenstory/internal/geo"
	"github.com/alexanderramin/zenstory/internal/render"
	"github.com/alexanderramin/zenstory/internal/service"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
	maxBodyBytes      = 1 << 20
	suggestLimit      = 10
)

type Deps struct {
	Catalog  *catalog.Catalog
	Resolver *geo.Resolver
	Renderer *render.Renderer
	Tonight  service.TonightService
	Library  service.LibraryService
	Canvases service.CanvasService
	// Cache exposes /api/v1/cache when set.
	Cache *fetch.Cache
	// MCP is mounted at /mcp when set.
	MCP http.Handler
	Log *zap.Logger
}

type Options struct {
	CORSOrigins []string
	RateLimit   int
	RateWindow  time.Duration
	// StoryTimeout bounds one generation; zero means no extra bound.
	StoryTimeout time.Duration
	// TrustProxy honors X-Forwarded-For when keying rate limits and logs.
	TrustProxy bool
}

type Server struct {
	deps     Deps
	opts     Options
	limiter  *RateLimiter
	matcher  language.Matcher
	codes    []string
	upgrader websocket.Upgrader
	handler  http.Handler
}

func New(deps Deps, opts Options) *Server {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	s := &Server{
		deps:    deps,
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimit, opts.RateWindow),
	}
	s.limiter.trustProxy = opts.TrustProxy
	s.matcher, s.codes = newMatcher(deps.Catalog)
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /api/v1/story", s.limiter.Limit(s.handleStory))
	mux.HandleFunc("GET /ws/story", s.limiter.Limit(s.handleStoryStream))
	mux.HandleFunc("GET /api/v1/cities", s.handleCities)
	mux.HandleFunc("GET /api/v1/share", s.handleShare)
	mux.HandleFunc("GET /api/v1/dictionary", s.handleDictionary)
	mux.HandleFunc("GET /api/v1/about", s.handleAbout)

	mux.HandleFunc("GET /api/v1/stories", s.handleListStories)
	mux.HandleFunc("POST /api/v1/stories", s.handleSaveStory)
	mux.HandleFunc("DELETE /api/v1/stories", s.handleClearStories)
	mux.HandleFunc("GET /api/v1/stories/{n}", s.handleGetStory)
	mux.HandleFunc("DELETE /api/v1/stories/{n}", s.handleDeleteStory)
	mux.HandleFunc("GET /api/v1/stories/{n}/html", s.handleExportStory)

	mux.HandleFunc("GET /api/v1/canvases", s.handleListCanvases)
	mux.HandleFunc("POST /api/v1/canvases", s.handleCreateCanvas)
	mux.HandleFunc("DELETE /api/v1/canvases", s.handleClearCanvases)
	mux.HandleFunc("GET /api/v1/canvases/{n}", s.handleGetCanvas)
	mux.HandleFunc("DELETE /api/v1/canvases/{n}", s.handleDeleteCanvas)
	mux.HandleFunc("GET /api/v1/canvases/{n}/html", s.handleExportCanvas)

	if s.deps.Cache != nil {
		mux.HandleFunc("GET /api/v1/cache", s.handleCacheStats)
		mux.HandleFunc("DELETE /api/v1/cache", s.handleClearCache)
	}
	if s.deps.MCP != nil {
		mux.Handle("/mcp", s.deps.MCP)
	}

	return recoverer(s.deps.Log, requestLog(s.deps.Log, s.opts.TrustProxy, cors(s.opts.CORSOrigins, mux)))
}

func (s *Server) Handler() http.Handler { return s.handler }

// Limiter is exposed so a config reload can change the limit.
func (s *Server) Limiter() *RateLimiter { return s.limiter }

// Close releases the limiter's background sweep.
func (s *Server) Close() { s.limiter.Stop() }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: readHeaderTimeout}
	s.deps.Log.Info("http server starting", zap.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.deps.Log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// checkOrigin accepts same-host pages and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && u.Host == r.Host {
		return true
	}
	for _, o := range s.opts.CORSOrigins {
		if o == origin || o == "*" {
			return true
		}
	}
	return false
}
