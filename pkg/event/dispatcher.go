package event

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Dispatcher is a routing-key-pattern → handler table. The broker binds a
// queue per registered pattern; Dispatch mirrors the broker's topic
// matching locally so one queue can feed multiple handlers.
type Dispatcher struct {
	mu      sync.RWMutex
	entries []entry
}

type entry struct {
	pattern string
	handler HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Register adds a handler for an exact routing key or a pattern with
// AMQP topic wildcards ("*" one word, "#" zero or more words).
func (d *Dispatcher) Register(pattern string, handler HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries = append(d.entries, entry{pattern: pattern, handler: handler})
}

// Patterns returns every registered pattern, in registration order,
// with duplicates removed. Used to bind the consuming queue.
func (d *Dispatcher) Patterns() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	seen := make(map[string]bool, len(d.entries))
	patterns := make([]string, 0, len(d.entries))
	for _, e := range d.entries {
		if seen[e.pattern] {
			continue
		}
		seen[e.pattern] = true
		patterns = append(patterns, e.pattern)
	}
	return patterns
}

// Dispatch invokes every handler whose pattern matches the event's routing
// key, sequentially, and returns the joined handler errors. A non-nil
// return means the delivery must be rejected for retry.
func (d *Dispatcher) Dispatch(ctx context.Context, e Event) error {
	d.mu.RLock()
	entries := make([]entry, len(d.entries))
	copy(entries, d.entries)
	d.mu.RUnlock()

	var errs []error
	for _, ent := range entries {
		if !MatchTopic(ent.pattern, string(e.Type)) {
			continue
		}
		if err := ent.handler(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MatchTopic reports whether an AMQP topic binding pattern matches a
// routing key: "*" substitutes exactly one word, "#" zero or more.
func MatchTopic(pattern, key string) bool {
	return matchWords(strings.Split(pattern, "."), strings.Split(key, "."))
}

func matchWords(pattern, key []string) bool {
	switch {
	case len(pattern) == 0:
		return len(key) == 0
	case pattern[0] == "#":
		if matchWords(pattern[1:], key) {
			return true
		}
		return len(key) > 0 && matchWords(pattern, key[1:])
	case len(key) == 0:
		return false
	case pattern[0] == "*" || pattern[0] == key[0]:
		return matchWords(pattern[1:], key[1:])
	default:
		return false
	}
}
