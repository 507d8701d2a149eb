package controllers

import (
	"context"
	"strings"

	"nova/services/connmon"
	"nova/services/session"
	"nova/services/suggest"
)

type ChatController struct {
	manager *session.Manager
	ranker  *suggest.Ranker
	monitor *connmon.Monitor
}

func NewChatController(manager *session.Manager, ranker *suggest.Ranker, monitor *connmon.Monitor) *ChatController {
	return &ChatController{manager: manager, ranker: ranker, monitor: monitor}
}

// SetOnline forwards a client connectivity signal to the monitor.
func (c *ChatController) SetOnline(online bool) {
	c.monitor.SetOnline(online)
}

// CreateSession provisions a controller with the given sink (nil for plain
// HTTP clients) and returns its id.
func (c *ChatController) CreateSession(sink session.Sink) *session.Controller {
	return c.manager.Create(session.Options{Sink: sink})
}

func (c *ChatController) DestroySession(id string) error {
	return c.manager.Destroy(id)
}

// Ask submits one turn and returns the resolved assistant text. An empty
// question resolves to an empty answer; backend failures resolve to the
// transcript-visible fallback message, never an error.
func (c *ChatController) Ask(ctx context.Context, sessionID, question string) (string, error) {
	ctrl, err := c.manager.Get(sessionID)
	if err != nil {
		return "", err
	}

	if err := ctrl.Submit(ctx, question); err != nil {
		return "", err
	}

	if strings.TrimSpace(question) == "" {
		return "", nil
	}

	transcript := ctrl.Transcript()
	if len(transcript) == 0 {
		return "", nil
	}
	last := transcript[len(transcript)-1]
	if last.Role != session.RoleAssistant {
		// Canceled turn: nothing was appended after the user message.
		return "", nil
	}
	return last.Text, nil
}

// Transcript returns the session's message history.
func (c *ChatController) Transcript(sessionID string) ([]session.Message, error) {
	ctrl, err := c.manager.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return ctrl.Transcript(), nil
}

// Suggestions ranks the merged suggestion sets against the partial query.
func (c *ChatController) Suggestions(ctx context.Context, query string) []suggest.Suggestion {
	return c.ranker.Filter(ctx, query)
}
