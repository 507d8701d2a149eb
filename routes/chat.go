package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"nova/controllers"
	"nova/services/session"
	"nova/services/suggest"
	"nova/utils/logging"
)

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func ChatRoutes(ctrl *controllers.ChatController) chi.Router {
	r := chi.NewRouter()

	// POST /session : provision a widget session
	r.Post("/session", func(w http.ResponseWriter, req *http.Request) {
		sess := ctrl.CreateSession(nil)
		respondJSON(w, http.StatusCreated, map[string]string{"session_id": sess.ID})
	})

	// DELETE /session/{session_id} : explicit destroy
	r.Delete("/session/{session_id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "session_id")
		if err := ctrl.DestroySession(id); err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// GET /session/{session_id}/messages : transcript so far
	r.Get("/session/{session_id}/messages", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "session_id")
		transcript, err := ctrl.Transcript(id)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"messages": transcript})
	})

	// POST /ask : one blocking turn
	r.Post("/ask", func(w http.ResponseWriter, req *http.Request) {
		var input struct {
			Question  string `json:"question"`
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sessionID := req.Header.Get("X-Session-ID")
		if sessionID == "" {
			sessionID = input.SessionID
		}

		ctx := context.WithValue(req.Context(), logging.SessionIDKey, sessionID)
		answer, err := ctrl.Ask(ctx, sessionID, input.Question)
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, session.ErrBusy):
			respondError(w, http.StatusConflict, err.Error())
		case err != nil:
			respondError(w, http.StatusInternalServerError, err.Error())
		default:
			respondJSON(w, http.StatusOK, map[string]string{"answer": answer})
		}
	})

	// GET /suggestions?q= : ranked suggestion chips
	r.Get("/suggestions", func(w http.ResponseWriter, req *http.Request) {
		query := req.URL.Query().Get("q")
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"suggestions": ctrl.Suggestions(req.Context(), query),
		})
	})

	// GET /ws : streaming widget connection; turn events (typing, reveal
	// words, suggestion updates) arrive as JSON frames.
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := req.Context()
		sink := &wsSink{ctx: ctx, conn: conn}
		sess := ctrl.CreateSession(sink)
		defer ctrl.DestroySession(sess.ID)

		sink.send(wsFrame{Type: "session", SessionID: sess.ID})

		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				// Client closed or connection dropped; either way the
				// deferred CloseNow releases the socket.
				return
			}
			if typ != websocket.MessageText {
				conn.Close(websocket.StatusUnsupportedData, "unsupported data")
				return
			}
			var input struct {
				Type     string `json:"type"`
				Question string `json:"question"`
				Query    string `json:"query"`
			}
			if err := json.Unmarshal(data, &input); err != nil {
				sink.send(wsFrame{Type: "error", Error: "invalid json"})
				continue
			}

			switch input.Type {
			case "filter":
				sink.send(wsFrame{
					Type:        "suggestions",
					Suggestions: sess.Suggestions(ctx, input.Query),
				})
				continue
			case "online":
				ctrl.SetOnline(true)
				continue
			case "offline":
				ctrl.SetOnline(false)
				continue
			}

			// Submit blocks through the reveal; keep reading so a
			// resubmit can cancel the in-flight request.
			go func(question string) {
				if err := sess.Submit(ctx, question); errors.Is(err, session.ErrBusy) {
					sink.send(wsFrame{Type: "busy"})
				}
			}(input.Question)
		}
	})

	return r
}

type wsFrame struct {
	Type        string               `json:"type"`
	SessionID   string               `json:"session_id,omitempty"`
	Active      bool                 `json:"active"`
	Message     *session.Message     `json:"message,omitempty"`
	Word        string               `json:"word,omitempty"`
	Suggestions []suggest.Suggestion `json:"suggestions,omitempty"`
	Error       string               `json:"error,omitempty"`
}

// wsSink adapts session render events to websocket frames.
type wsSink struct {
	ctx  context.Context
	mu   sync.Mutex
	conn *websocket.Conn
}

func (s *wsSink) send(frame wsFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.Write(s.ctx, websocket.MessageText, data); err != nil {
		logging.AppLogger.Debug("ws write failed", zap.Error(err))
	}
}

func (s *wsSink) TypingStarted() { s.send(wsFrame{Type: "typing", Active: true}) }
func (s *wsSink) TypingStopped() { s.send(wsFrame{Type: "typing", Active: false}) }
func (s *wsSink) MessageAppended(m session.Message) {
	s.send(wsFrame{Type: "message", Message: &m})
}
func (s *wsSink) WordRevealed(word string) { s.send(wsFrame{Type: "word", Word: word}) }
func (s *wsSink) SuggestionsReplaced(sug []suggest.Suggestion) {
	s.send(wsFrame{Type: "suggestions", Suggestions: sug})
}
