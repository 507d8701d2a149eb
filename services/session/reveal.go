package session

import (
	"context"
	"strings"
	"time"
)

// DelayFunc decides how long to pause after revealing a word.
type DelayFunc func(word string) time.Duration

// DefaultDelay paces long words slower than short ones so the reveal feels
// typed without making long answers sluggish.
func DefaultDelay(word string) time.Duration {
	if len([]rune(word)) > 5 {
		return 80 * time.Millisecond
	}
	return 50 * time.Millisecond
}

// Reveal streams the answer one whole word at a time, pausing per word.
// The channel closes when the text is exhausted or ctx is canceled; the
// consumer cancels by canceling ctx and draining.
func Reveal(ctx context.Context, text string, delay DelayFunc) <-chan string {
	if delay == nil {
		delay = DefaultDelay
	}

	ch := make(chan string)
	go func() {
		defer close(ch)
		words := strings.Split(text, " ")
		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		defer timer.Stop()

		for _, word := range words {
			select {
			case ch <- word:
			case <-ctx.Done():
				return
			}

			timer.Reset(delay(word))
			select {
			case <-timer.C:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
