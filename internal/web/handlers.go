package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/domain"
	"github.com/alexanderramin/zenstory/internal/service"
)

// libraryItem is the JSON shape of a saved story or dream canvas.
type libraryItem struct {
	Index      int       `json:"index"`
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Location   string    `json:"location"`
	Language   string    `json:"language"`
	ObjectName string    `json:"object_name,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	ShareText  string    `json:"share_text,omitempty"`
	StoryHTML  string    `json:"story_html,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func storyItem(i int, s *domain.SavedStory, full bool) libraryItem {
	it := libraryItem{
		Index:      i,
		ID:         s.ID,
		Title:      s.Title,
		Location:   s.Location,
		Language:   s.Language,
		ObjectName: s.ObjectName,
		ImageURL:   s.ImageURL,
		ShareText:  s.ShareText,
		CreatedAt:  s.CreatedAt,
	}
	if full {
		it.StoryHTML = s.StoryHTML
	}
	return it
}

func canvasItem(i int, c *domain.DreamCanvas, full bool) libraryItem {
	it := libraryItem{
		Index:     i,
		ID:        c.ID,
		Title:     c.Title,
		Location:  c.Location,
		Language:  c.Language,
		ImageURL:  c.ImageURL,
		CreatedAt: c.CreatedAt,
	}
	if full {
		it.StoryHTML = c.StoryHTML
	}
	return it
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type cacheStatsResponse struct {
	Entries    int `json:"entries"`
	Hits       int `json:"hits"`
	Misses     int `json:"misses"`
	TTLSeconds int `json:"ttl_seconds"`
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Cache.Stats()
	writeJSON(w, http.StatusOK, cacheStatsResponse{
		Entries:    st.Entries,
		Hits:       st.Hits,
		Misses:     st.Misses,
		TTLSeconds: int(st.TTL.Seconds()),
	})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	n := s.deps.Cache.Clear()
	s.deps.Log.Info("fetch cache cleared", zap.Int("entries", n))
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := s.deps.Renderer.Index(s.language(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeHTML(w, page)
}

// storyContext applies the per-generation timeout.
func (s *Server) storyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.StoryTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.StoryTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Server) handleStory(w http.ResponseWriter, r *http.Request) {
	var req service.TonightRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Language == "" {
		req.Language = s.language(r)
	}

	ctx, cancel := s.storyContext(r.Context())
	defer cancel()

	res, err := s.deps.Tonight.Generate(ctx, req, nil)
	if err != nil {
		s.storyError(w, req.Language, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) storyError(w http.ResponseWriter, lang string, err error) {
	key := service.ErrorKey(err)
	html, herr := s.deps.Renderer.ErrorHTML(lang, key)
	if herr != nil {
		s.deps.Log.Error("rendering error message", zap.Error(herr))
	}
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, service.ErrLocationUnresolved):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), HTML: string(html)})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	limit := suggestLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	cities := s.deps.Resolver.Suggest(r.URL.Query().Get("q"), limit)
	if cities == nil {
		cities = []string{}
	}
	writeJSON(w, http.StatusOK, cities)
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	link := service.ShareLink(q.Get("text"), q.Get("platform"))
	if link == "" {
		writeError(w, http.StatusBadRequest, "unknown platform")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (s *Server) handleDictionary(w http.ResponseWriter, r *http.Request) {
	html, err := s.deps.Renderer.Dictionary(s.language(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, htmlResponse{HTML: string(html)})
}

func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	html, err := s.deps.Renderer.About(s.language(r))
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, htmlResponse{HTML: string(html)})
}

// Saved stories.

func (s *Server) handleListStories(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Library.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]libraryItem, len(list))
	for i, st := range list {
		out[i] = storyItem(i+1, st, false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSaveStory(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSaveInput(w, r)
	if !ok {
		return
	}
	_, total, err := s.deps.Library.Save(r.Context(), in)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: service.SavedMessage(total), Total: total})
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	n, ok := pathIndex(w, r)
	if !ok {
		return
	}
	st, err := s.deps.Library.Get(r.Context(), n)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, storyItem(n, st, true))
}

func (s *Server) handleDeleteStory(w http.ResponseWriter, r *http.Request) {
	n, ok := pathIndex(w, r)
	if !ok {
		return
	}
	st, err := s.deps.Library.Delete(r.Context(), n)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: service.StoryDeletedMessage(st.Location)})
}

func (s *Server) handleClearStories(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Library.DeleteAll(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: service.StoriesClearedMessage(n), Total: n})
}

func (s *Server) handleExportStory(w http.ResponseWriter, r *http.Request) {
	n, ok := pathIndex(w, r)
	if !ok {
		return
	}
	page, err := s.deps.Library.ExportHTML(r.Context(), n)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeHTML(w, page)
}

// Dream canvases.

func (s *Server) handleListCanvases(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Canvases.List(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	out := make([]libraryItem, len(list))
	for i, c := range list {
		out[i] = canvasItem(i+1, c, false)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCanvas(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeSaveInput(w, r)
	if !ok {
		return
	}
	_, total, err := s.deps.Canvases.Create(r.Context(), in)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: service.CanvasCreatedMessage(total), Total: total})
}

func (s *Server) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	n, ok := pathIndex(w, r)
	if !ok {
		return
	}
	c, err := s.deps.Canvases.Get(r.Context(), n)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, canvasItem(n, c, true))
}

func (s *Server) handleDeleteCanvas(w http.ResponseWriter, r *http.Request) {
	n, ok := pathIndex(w, r)
	if !ok {
		return
	}
	c, err := s.deps.Canvases.Delete(r.Context(), n)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: service.CanvasDeletedMessage(c.Location)})
}

func (s *Server) handleClearCanvases(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Canvases.DeleteAll(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: service.CanvasesClearedMessage(n), Total: n})
}

func (s *Server) handleExportCanvas(w http.ResponseWriter, r *http.Request) {
	n, ok := pathIndex(w, r)
	if !ok {
		return
	}
	page, err := s.deps.Canvases.ExportHTML(r.Context(), n)
	if err != nil {
		s.libraryError(w, r, err)
		return
	}
	writeHTML(w, page)
}

func decodeSaveInput(w http.ResponseWriter, r *http.Request) (service.SaveInput, bool) {
	var in service.SaveInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return in, false
	}
	return in, true
}

func pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "index must be a number")
		return 0, false
	}
	return n, true
}

func (s *Server) libraryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrIndexOutOfRange):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNothingToSave):
		writeError(w, http.StatusBadRequest, service.NothingToSaveMessage)
	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.deps.Log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
