package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/alexanderramin/zenstory/internal/service"
)

const writeWait = 10 * time.Second

// streamMessage is one websocket frame of the story stream.
type streamMessage struct {
	Type   string                 `json:"type"` // progress, result or error
	Line   string                 `json:"line,omitempty"`
	Event  *service.ProgressEvent `json:"event,omitempty"`
	Result *service.TonightResult `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
	HTML   string                 `json:"html,omitempty"`
}

// handleStoryStream generates a story and pushes each progress line over a
// websocket, finishing with the result or a localized error.
func (s *Server) handleStoryStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.TonightRequest{
		Location: q.Get("location"),
		Language: s.language(r),
		Date:     q.Get("date"),
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client.
		s.deps.Log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := func(m streamMessage) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(m); err != nil {
			s.deps.Log.Debug("websocket write failed", zap.Error(err))
			return false
		}
		return true
	}

	ctx, cancel := s.storyContext(r.Context())
	defer cancel()

	res, err := s.deps.Tonight.Generate(ctx, req, func(e service.ProgressEvent) {
		if !send(streamMessage{Type: "progress", Line: e.Line(), Event: &e}) {
			cancel()
		}
	})
	if err != nil {
		html, herr := s.deps.Renderer.ErrorHTML(req.Language, service.ErrorKey(err))
		if herr != nil {
			s.deps.Log.Error("rendering error message", zap.Error(herr))
		}
		send(streamMessage{Type: "error", Error: err.Error(), HTML: string(html)})
	} else {
		send(streamMessage{Type: "result", Result: res})
	}

	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}
