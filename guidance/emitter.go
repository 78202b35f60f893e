// Package guidance turns session transitions into spoken instructions. The
// emitter maps every transition to exactly one message and hands it to the
// voice adapter through a bounded queue, so a slow or stuck speech engine can
// never stall the state machine.
package guidance

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"indoor-nav-server/graph"
	"indoor-nav-server/metrics"
	"indoor-nav-server/models"
	"indoor-nav-server/session"
)

// Speaker is the voice-output adapter contract. Implementations queue
// internally and never report errors back into navigation.
type Speaker interface {
	Speak(text string)
}

type Emitter struct {
	queue chan string

	closeOnce sync.Once
	done      chan struct{}
}

// NewEmitter starts the drain goroutine feeding the speaker. queueSize
// bounds how many undelivered messages may pile up; further ones are dropped
// and counted.
func NewEmitter(sp Speaker, queueSize int) *Emitter {
	if queueSize <= 0 {
		queueSize = 16
	}
	e := &Emitter{
		queue: make(chan string, queueSize),
		done:  make(chan struct{}),
	}
	go func() {
		for msg := range e.queue {
			sp.Speak(msg)
		}
		close(e.done)
	}()
	return e
}

// OnTransition implements session.Listener. Fire and forget: the message is
// enqueued or dropped, never awaited.
func (e *Emitter) OnTransition(t session.Transition) {
	if msg := Message(t); msg != "" {
		e.enqueue(msg)
	}
}

func (e *Emitter) enqueue(msg string) {
	select {
	case e.queue <- msg:
	default:
		metrics.GuidanceDroppedTotal.Inc()
	}
}

// Close drains outstanding messages and stops the worker.
func (e *Emitter) Close() {
	e.closeOnce.Do(func() {
		close(e.queue)
	})
	<-e.done
}

// Message renders the single guidance phrase for a transition.
func Message(t session.Transition) string {
	switch {
	case t.Reprompt:
		if t.To == models.StatusDeviated {
			return "Still off route. Please scan the nearest QR code."
		}
		return proceedPhrase(t)

	case t.Approaching:
		if t.Next != nil {
			return fmt.Sprintf("You are getting closer to %s. Look for the QR code.", t.Next.Label)
		}
		return "You are getting closer. Look for the QR code."

	case t.To == models.StatusAwaitingDestination && t.Err != nil:
		// Failed destination choice; the session stayed put.
		if errors.Is(t.Err, graph.ErrNoPath) {
			return "No path found to that destination. Please choose another code."
		}
		return fmt.Sprintf("You are already at %s. Please choose another destination.", t.Current.Label)

	case t.To == models.StatusAwaitingDestination:
		return fmt.Sprintf("Starting location detected: %s. Please say your destination code.", t.Current.Label)

	case t.To == models.StatusNavigating && len(t.Route) > 0:
		return fmt.Sprintf("Route found: %s. %s", joinIDs(t.Route), proceedPhrase(t))

	case t.To == models.StatusNavigating:
		return fmt.Sprintf("You are at %s. %s", t.Current.Label, proceedPhrase(t))

	case t.To == models.StatusDeviated:
		return "This is not the expected QR code. You are off route; rescanning."

	case t.To == models.StatusArrived:
		return "You have reached your destination. Navigation complete."

	case t.To == models.StatusAborted:
		if t.Reason == "cancelled" {
			return "Navigation cancelled."
		}
		return "No path to the destination from here. Navigation ended."
	}
	return ""
}

func proceedPhrase(t session.Transition) string {
	if t.Next == nil {
		return "Please scan the next QR code."
	}
	if t.Hint != "" {
		return fmt.Sprintf("Next, please proceed to %s. %s.", t.Next.Label, strings.TrimRight(t.Hint, "."))
	}
	return fmt.Sprintf("Next, please proceed to %s.", t.Next.Label)
}

func joinIDs(ids []models.WaypointID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
