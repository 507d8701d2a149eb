package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	httputils "nova/utils/http"
	"nova/utils/logging"
)

// ErrorKind classifies a failed ask so the controller can pick the right
// user-facing fallback message.
type ErrorKind int

const (
	KindGeneric ErrorKind = iota
	KindNetwork
	KindServer
	KindRateLimit
)

// AskError wraps a failed backend ask with its classification.
type AskError struct {
	Kind  ErrorKind
	cause error
}

func (e *AskError) Error() string {
	return fmt.Sprintf("ask failed (kind=%d): %v", e.Kind, e.cause)
}

func (e *AskError) Unwrap() error { return e.cause }

// Asker submits one question to the answer backend.
type Asker interface {
	Ask(ctx context.Context, sessionID, question string) (string, error)
}

// HTTPAsker talks to the backend's /api/v1/chat/ask endpoint.
type HTTPAsker struct {
	Endpoint string
	Client   *http.Client
}

type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

// Ask posts the question with the session correlation header. Context
// cancellation surfaces as ctx.Err() so callers can treat a superseded
// request as silent.
func (a *HTTPAsker) Ask(ctx context.Context, sessionID, question string) (string, error) {
	defer logging.LogDuration(ctx, "assistant_ask")()

	resp, err := httputils.PostJSON(ctx, a.Client, a.Endpoint, askRequest{
		Question:  question,
		SessionID: sessionID,
		Timestamp: time.Now().UnixMilli(),
	}, map[string]string{"X-Session-ID": sessionID})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &AskError{Kind: KindNetwork, cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &AskError{Kind: KindRateLimit, cause: fmt.Errorf("status %d", resp.StatusCode)}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", &AskError{Kind: KindServer, cause: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var parsed askResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", &AskError{Kind: KindServer, cause: fmt.Errorf("decode answer: %w", err)}
	}
	if parsed.Error != "" {
		return "", &AskError{Kind: KindGeneric, cause: fmt.Errorf("backend error: %s", parsed.Error)}
	}
	if parsed.Answer == "" {
		return "", &AskError{Kind: KindGeneric, cause: fmt.Errorf("empty answer")}
	}
	return parsed.Answer, nil
}
