package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nova/services/connmon"
	"nova/services/suggest"
	"nova/utils/logging"
)

// User-facing fallback strings, one per error class.
const (
	msgNetwork   = "Parece que hay un problema de conexión. Por favor, verifica tu internet y vuelve a intentar."
	msgServer    = "El servidor está teniendo problemas. Por favor, intenta de nuevo en unos momentos."
	msgGeneral   = "Ocurrió un error inesperado. Por favor, intenta de nuevo."
	msgRateLimit = "Has enviado muchas consultas. Espera un momento antes de intentar de nuevo."
)

// ErrBusy reports that a submission arrived while a turn was in progress.
// If a request was still in flight it has been canceled; nothing is queued.
var ErrBusy = errors.New("session busy")

// Sink receives render events from a turn, decoupling the controller from
// any particular client binding.
type Sink interface {
	TypingStarted()
	TypingStopped()
	MessageAppended(Message)
	WordRevealed(word string)
	SuggestionsReplaced([]suggest.Suggestion)
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) TypingStarted()                           {}
func (NopSink) TypingStopped()                           {}
func (NopSink) MessageAppended(Message)                  {}
func (NopSink) WordRevealed(string)                      {}
func (NopSink) SuggestionsReplaced([]suggest.Suggestion) {}

type turnState int

const (
	stateIdle turnState = iota
	stateAwaiting
	stateRevealing
)

// Controller owns one logical conversation: its transcript, the single
// in-flight request, the reveal pacing, and the per-session metrics.
type Controller struct {
	ID string

	mu            sync.Mutex
	transcript    []Message
	state         turnState
	cancelPending context.CancelFunc

	asker   Asker
	ranker  *suggest.Ranker
	monitor *connmon.Monitor
	sink    Sink
	metrics *Metrics
	delay   DelayFunc
}

// Options tunes a Controller; zero values fall back to defaults.
type Options struct {
	Sink  Sink
	Delay DelayFunc
}

func NewController(asker Asker, ranker *suggest.Ranker, monitor *connmon.Monitor, opts Options) *Controller {
	sink := opts.Sink
	if sink == nil {
		sink = NopSink{}
	}
	delay := opts.Delay
	if delay == nil {
		delay = DefaultDelay
	}
	return &Controller{
		ID:      uuid.NewString(),
		asker:   asker,
		ranker:  ranker,
		monitor: monitor,
		sink:    sink,
		metrics: NewMetrics(),
		delay:   delay,
	}
}

// Transcript returns a copy of the message history.
func (c *Controller) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Metrics exposes the rolling diagnostics window.
func (c *Controller) Metrics() MetricsSnapshot {
	return c.metrics.Snapshot()
}

// Suggestions ranks the merged suggestion sets against the user's partial
// input, for input-change filtering.
func (c *Controller) Suggestions(ctx context.Context, query string) []suggest.Suggestion {
	return c.ranker.Filter(ctx, query)
}

// Cancel aborts the in-flight request, if any. Canceling during the reveal
// phase is a no-op: the reveal always runs to completion.
func (c *Controller) Cancel() {
	c.mu.Lock()
	cancel := c.cancelPending
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Submit runs one turn to completion: append the user message, ask the
// backend, reveal the answer, refresh contextual suggestions.
//
// A trimmed-empty question is silently rejected. Submitting while a turn is
// in progress cancels the outstanding request (it never queues) and returns
// ErrBusy; at most one request is ever in flight per session. Backend
// failures never escape: they become transcript-visible fallback messages.
func (c *Controller) Submit(ctx context.Context, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil
	}

	c.mu.Lock()
	if c.state != stateIdle {
		cancel := c.cancelPending
		c.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		return ErrBusy
	}
	turnCtx, cancel := context.WithCancel(ctx)
	c.state = stateAwaiting
	c.cancelPending = cancel
	userMsg := Message{Role: RoleUser, Text: question, CreatedAt: time.Now().UTC()}
	c.transcript = append(c.transcript, userMsg)
	c.mu.Unlock()
	defer cancel()

	c.sink.MessageAppended(userMsg)
	c.sink.TypingStarted()

	start := time.Now()
	answer, err := c.asker.Ask(turnCtx, c.ID, question)
	elapsed := time.Since(start)

	c.mu.Lock()
	c.cancelPending = nil
	c.mu.Unlock()

	c.sink.TypingStopped()

	if err != nil {
		c.metrics.Record(elapsed, true)
		c.finishErrorTurn(err)
		return nil
	}

	c.metrics.Record(elapsed, false)
	c.monitor.MarkHealthy()

	assistantMsg := Message{Role: RoleAssistant, Text: answer, CreatedAt: time.Now().UTC()}
	c.mu.Lock()
	c.state = stateRevealing
	c.transcript = append(c.transcript, assistantMsg)
	c.mu.Unlock()

	c.sink.MessageAppended(assistantMsg)
	for word := range Reveal(ctx, answer, c.delay) {
		c.sink.WordRevealed(word)
	}

	if followUps := suggest.Contextual(answer); len(followUps) > 0 {
		c.sink.SuggestionsReplaced(followUps)
	}

	c.setIdle()
	return nil
}

// finishErrorTurn converts a failed ask into transcript state. A canceled
// request is silent: the placeholder is gone and nothing is appended.
func (c *Controller) finishErrorTurn(err error) {
	defer c.setIdle()

	if errors.Is(err, context.Canceled) {
		logging.AppLogger.Info("turn canceled", zap.String("session_id", c.ID))
		return
	}

	c.monitor.MarkUnhealthy()
	logging.ErrorLogger.Error("turn failed",
		zap.String("session_id", c.ID),
		zap.Error(err))

	fallback := Message{Role: RoleAssistant, Text: fallbackMessage(err), CreatedAt: time.Now().UTC()}
	c.mu.Lock()
	c.transcript = append(c.transcript, fallback)
	c.mu.Unlock()
	c.sink.MessageAppended(fallback)
}

func fallbackMessage(err error) string {
	var askErr *AskError
	if !errors.As(err, &askErr) {
		return msgGeneral
	}
	switch askErr.Kind {
	case KindRateLimit:
		return msgRateLimit
	case KindServer:
		return msgServer
	case KindNetwork:
		return msgNetwork
	default:
		return msgGeneral
	}
}

func (c *Controller) setIdle() {
	c.mu.Lock()
	c.state = stateIdle
	c.cancelPending = nil
	c.mu.Unlock()
}
