package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"nova/controllers"
	"nova/services/connmon"
	"nova/services/session"
	"nova/services/suggest"
	"nova/utils/logging"
)

func init() {
	logging.InitTestLogger()
}

// newTestAPI wires the chat routes over a stub answer backend.
func newTestAPI(t *testing.T, backend http.Handler) (*httptest.Server, *connmon.Monitor) {
	t.Helper()
	upstream := httptest.NewServer(backend)
	t.Cleanup(upstream.Close)

	asker := &session.HTTPAsker{Endpoint: upstream.URL + "/api/v1/chat/ask", Client: upstream.Client()}
	ranker := suggest.NewRanker(upstream.URL+"/api/v1/chat/suggestions", upstream.Client(), time.Minute, nil)
	monitor := connmon.NewMonitor(func(connmon.Notification) {})
	manager := session.NewManager(asker, ranker, monitor)
	ctrl := controllers.NewChatController(manager, ranker, monitor)

	r := chi.NewRouter()
	r.Mount("/api/v1/chat", ChatRoutes(ctrl))

	api := httptest.NewServer(r)
	t.Cleanup(api.Close)
	return api, monitor
}

func stubAnswer(answer string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"answer": answer})
	})
}

func postJSON(t *testing.T, url string, payload interface{}, headers map[string]string) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func createSession(t *testing.T, api *httptest.Server) string {
	t.Helper()
	resp := postJSON(t, api.URL+"/api/v1/chat/session", nil, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: status %d", resp.StatusCode)
	}
	var out struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode session response: %v", err)
	}
	if out.SessionID == "" {
		t.Fatal("create session returned an empty id")
	}
	return out.SessionID
}

func TestAskRoundTrip(t *testing.T) {
	api, _ := newTestAPI(t, stubAnswer("Atendemos de 9am a 9pm"))
	id := createSession(t, api)

	resp := postJSON(t, api.URL+"/api/v1/chat/ask",
		map[string]string{"question": "¿Cuál es el horario?"},
		map[string]string{"X-Session-ID": id})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ask: status %d", resp.StatusCode)
	}
	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	if out.Answer != "Atendemos de 9am a 9pm" {
		t.Fatalf("unexpected answer: %q", out.Answer)
	}

	// The transcript now holds the question and the answer.
	msgResp, err := http.Get(api.URL + "/api/v1/chat/session/" + id + "/messages")
	if err != nil {
		t.Fatalf("fetch messages: %v", err)
	}
	defer msgResp.Body.Close()
	var transcript struct {
		Messages []session.Message `json:"messages"`
	}
	if err := json.NewDecoder(msgResp.Body).Decode(&transcript); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if len(transcript.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript.Messages))
	}
}

func TestAskSessionIDFromBody(t *testing.T) {
	api, _ := newTestAPI(t, stubAnswer("ok"))
	id := createSession(t, api)

	resp := postJSON(t, api.URL+"/api/v1/chat/ask",
		map[string]string{"question": "hola", "session_id": id}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ask with body session id: status %d", resp.StatusCode)
	}
}

func TestAskUnknownSession(t *testing.T) {
	api, _ := newTestAPI(t, stubAnswer("nunca"))

	resp := postJSON(t, api.URL+"/api/v1/chat/ask",
		map[string]string{"question": "hola", "session_id": "no-such-session"}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.StatusCode)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // no remote suggestions
	}))

	resp, err := http.Get(api.URL + "/api/v1/chat/suggestions?q=talla")
	if err != nil {
		t.Fatalf("fetch suggestions: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode suggestions: %v", err)
	}
	if len(out.Suggestions) == 0 {
		t.Fatal("expected static matches for 'talla'")
	}
	if out.Suggestions[0].Text != "Guía de tallas" {
		t.Fatalf("unexpected first suggestion: %q", out.Suggestions[0].Text)
	}
}

func TestDestroySession(t *testing.T) {
	api, _ := newTestAPI(t, stubAnswer("ok"))
	id := createSession(t, api)

	req, _ := http.NewRequest(http.MethodDelete, api.URL+"/api/v1/chat/session/"+id, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete session: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	// The session is gone for every later call.
	again := postJSON(t, api.URL+"/api/v1/chat/ask",
		map[string]string{"question": "hola", "session_id": id}, nil)
	again.Body.Close()
	if again.StatusCode != http.StatusNotFound {
		t.Fatalf("destroyed session must 404, got %d", again.StatusCode)
	}
}
