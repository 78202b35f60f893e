// Package logstream keeps the rolling transcript of system and guidance
// messages shown on the monitoring page, and fans new lines out to SSE
// subscribers.
package logstream

import "sync"

type Buffer struct {
	mu    sync.Mutex
	lines []string
	max   int
	subs  map[chan string]struct{}
}

func New(max int) *Buffer {
	if max <= 0 {
		max = 500
	}
	return &Buffer{
		max:  max,
		subs: make(map[chan string]struct{}),
	}
}

// Append records a line and pushes it to every subscriber. Slow subscribers
// miss lines instead of blocking the writer.
func (b *Buffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
	for ch := range b.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Lines returns a copy of the retained transcript.
func (b *Buffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.lines...)
}

// Subscribe registers a live feed. The returned cancel function must be
// called when the consumer goes away.
func (b *Buffer) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}
