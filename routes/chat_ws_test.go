package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"nova/services/connmon"
)

func dialWS(t *testing.T, ctx context.Context, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, url+"/api/v1/chat/ws", nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readFrame(t *testing.T, ctx context.Context, conn *websocket.Conn) wsFrame {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read frame: %v", err)
	}
	var frame wsFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame %q: %v", data, err)
	}
	return frame
}

func writeFrame(t *testing.T, ctx context.Context, conn *websocket.Conn, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, data); err != nil {
		t.Fatalf("write frame: %v", err)
	}
}

func TestWebSocketTurnStreaming(t *testing.T) {
	answer := "Esa talla está disponible"
	api, _ := newTestAPI(t, stubAnswer(answer))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, api.URL)

	hello := readFrame(t, ctx, conn)
	if hello.Type != "session" || hello.SessionID == "" {
		t.Fatalf("expected a session frame with an id, got %+v", hello)
	}

	writeFrame(t, ctx, conn, map[string]string{"question": "¿Tienen talla M?"})

	var (
		words        []string
		typingStarts int
		typingStops  int
		userText     string
		answerText   string
		suggestions  wsFrame
	)
	for suggestions.Type == "" {
		frame := readFrame(t, ctx, conn)
		switch frame.Type {
		case "typing":
			if frame.Active {
				typingStarts++
			} else {
				typingStops++
			}
		case "message":
			if frame.Message == nil {
				t.Fatalf("message frame without a message: %+v", frame)
			}
			switch frame.Message.Role {
			case "user":
				userText = frame.Message.Text
			case "assistant":
				answerText = frame.Message.Text
			}
		case "word":
			words = append(words, frame.Word)
		case "suggestions":
			suggestions = frame
		default:
			t.Fatalf("unexpected frame type %q", frame.Type)
		}
	}

	if userText != "¿Tienen talla M?" {
		t.Fatalf("user message frame missing, got %q", userText)
	}
	if answerText != answer {
		t.Fatalf("assistant message frame mismatch: %q", answerText)
	}
	if got := strings.Join(words, " "); got != answer {
		t.Fatalf("word frames do not reassemble the answer: %q", got)
	}
	if typingStarts != 1 || typingStops != 1 {
		t.Fatalf("typing edges must both be explicit: starts=%d stops=%d", typingStarts, typingStops)
	}
	if len(suggestions.Suggestions) != 3 {
		t.Fatalf("expected 3 contextual suggestions, got %+v", suggestions.Suggestions)
	}

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestWebSocketBusyOnRapidResubmit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		select {
		case <-release:
		case <-r.Context().Done():
			return
		}
		w.Write([]byte(`{"answer": "tarde"}`))
	}))
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, api.URL)
	readFrame(t, ctx, conn) // session frame

	writeFrame(t, ctx, conn, map[string]string{"question": "primera pregunta"})
	<-entered
	writeFrame(t, ctx, conn, map[string]string{"question": "segunda pregunta"})

	// The resubmit cancels the in-flight turn; a busy frame arrives among
	// the first turn's remaining events.
	for {
		frame := readFrame(t, ctx, conn)
		if frame.Type == "busy" {
			break
		}
		if frame.Type == "word" || frame.Type == "suggestions" {
			t.Fatalf("canceled turn must not reveal an answer, got %+v", frame)
		}
	}
}

func TestWebSocketFilterAndConnectivityFrames(t *testing.T) {
	api, monitor := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound) // no remote suggestions
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	conn := dialWS(t, ctx, api.URL)
	readFrame(t, ctx, conn) // session frame

	writeFrame(t, ctx, conn, map[string]string{"type": "filter", "query": "talla"})
	frame := readFrame(t, ctx, conn)
	if frame.Type != "suggestions" {
		t.Fatalf("expected a suggestions frame for filter, got %+v", frame)
	}
	if len(frame.Suggestions) == 0 || frame.Suggestions[0].Text != "Guía de tallas" {
		t.Fatalf("unexpected filtered suggestions: %+v", frame.Suggestions)
	}

	writeFrame(t, ctx, conn, map[string]string{"type": "offline"})
	waitForOnline(t, monitor, false)
	writeFrame(t, ctx, conn, map[string]string{"type": "online"})
	waitForOnline(t, monitor, true)
}

func waitForOnline(t *testing.T, m *connmon.Monitor, want bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.State().Online == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("monitor never reached online=%v", want)
}
