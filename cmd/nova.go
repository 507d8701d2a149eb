// Interactive terminal client for the assistant backend. Runs a real
// session controller locally: word-paced reveal, contextual suggestions and
// fallback messages behave exactly as they do behind the gateway.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"nova/config"
	"nova/services/connmon"
	"nova/services/session"
	"nova/services/suggest"
	"nova/utils/logging"
)

// terminalSink renders turn events to stdout.
type terminalSink struct {
	words int
}

func (s *terminalSink) TypingStarted() {
	s.words = 0
	fmt.Print("asistente: ")
}
func (s *terminalSink) TypingStopped()                 {}
func (s *terminalSink) MessageAppended(session.Message) {}
func (s *terminalSink) WordRevealed(word string) {
	s.words++
	fmt.Print(word + " ")
}
func (s *terminalSink) SuggestionsReplaced(sug []suggest.Suggestion) {
	texts := make([]string, 0, len(sug))
	for _, s := range sug {
		texts = append(texts, s.Text)
	}
	fmt.Printf("\n  sugerencias: %s\n", strings.Join(texts, " | "))
}

func main() {
	_ = godotenv.Load()
	cfg := config.LoadConfig()
	logging.InitLogger(cfg.LogDir)

	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout}
	monitor := connmon.NewMonitor(func(n connmon.Notification) {
		fmt.Printf("\n[%s] %s\n", n.Severity, n.Message)
	})
	static := make([]suggest.Suggestion, 0, len(cfg.Suggestions))
	for _, s := range cfg.Suggestions {
		static = append(static, suggest.Suggestion{Text: s.Text, Icon: s.Icon, Category: s.Category})
	}
	if len(static) == 0 {
		static = suggest.DefaultSuggestions()
	}
	ranker := suggest.NewRanker(cfg.BackendURL+"/api/v1/chat/suggestions", httpClient, cfg.SuggestionTTL, static)
	asker := &session.HTTPAsker{Endpoint: cfg.BackendURL + "/api/v1/chat/ask", Client: httpClient}

	sink := &terminalSink{}
	ctrl := session.NewController(asker, ranker, monitor, session.Options{Sink: sink})
	logging.AppLogger.Info("cli session started",
		zap.String("session_id", ctrl.ID),
		zap.String("backend", cfg.BackendURL))

	loopCtx, loopCancel := context.WithCancel(context.Background())
	defer loopCancel()
	session.StartHealthLoop(loopCtx, httpClient, cfg.BackendURL+"/health", cfg.HealthInterval, monitor)

	fmt.Println("Asistente Nova, sesión", ctrl.ID)
	fmt.Println("Escribe tu pregunta, o 'salir' para terminar.")
	if chips := ctrl.Suggestions(loopCtx, ""); len(chips) > 0 {
		texts := make([]string, 0, len(chips))
		for _, c := range chips {
			texts = append(texts, c.Text)
		}
		fmt.Println("sugerencias:", strings.Join(texts, " | "))
	}
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("tú: ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "salir" || question == "exit" {
			break
		}

		if err := ctrl.Submit(context.Background(), question); err != nil {
			fmt.Println("(hay una consulta en curso, fue cancelada)")
			continue
		}

		// Fallback messages are appended without a reveal; print them whole.
		transcript := ctrl.Transcript()
		if sink.words == 0 && len(transcript) > 0 {
			if last := transcript[len(transcript)-1]; last.Role == session.RoleAssistant {
				fmt.Print(last.Text)
			}
		}
		fmt.Println()
		fmt.Println()
	}

	snap := ctrl.Metrics()
	fmt.Printf("turnos: %d, errores: %d, latencia media: %s\n",
		snap.TotalRequests, snap.ErrorCount, snap.AverageLatency.Round(time.Millisecond))
}
