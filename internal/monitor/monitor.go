// Package monitor provides the narrow fire-and-forget event sink the engine
// emits through. Rendering and dashboards live outside this core.
package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level classifies emitted events.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Event is one recorded monitoring entry.
type Event struct {
	Ts      time.Time
	Level   Level
	Message string
}

// Sink receives engine events. Implementations must never block or panic the
// caller; the pipeline treats Log as fire-and-forget.
type Sink interface {
	Log(message string, level Level)
}

// LogSink forwards events to zerolog and keeps a bounded ring of recent
// events for monitoring snapshots.
type LogSink struct {
	log zerolog.Logger

	mu     sync.Mutex
	recent []Event
	cap    int
	subs   []func(Event)
}

// NewLogSink builds a sink retaining up to capacity recent events.
func NewLogSink(log zerolog.Logger, capacity int) *LogSink {
	if capacity <= 0 {
		capacity = 200
	}
	return &LogSink{log: log, cap: capacity}
}

// Log records the event. Subscriber panics are swallowed so a misbehaving
// consumer cannot take down the pipeline.
func (s *LogSink) Log(message string, level Level) {
	defer func() { _ = recover() }()

	switch level {
	case LevelError:
		s.log.Error().Msg(message)
	case LevelWarn:
		s.log.Warn().Msg(message)
	case LevelDebug:
		s.log.Debug().Msg(message)
	default:
		s.log.Info().Msg(message)
	}

	event := Event{Ts: time.Now(), Level: level, Message: message}

	s.mu.Lock()
	s.recent = append(s.recent, event)
	if len(s.recent) > s.cap {
		s.recent = s.recent[len(s.recent)-s.cap:]
	}
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// Subscribe registers a callback invoked for every event.
func (s *LogSink) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// Recent returns a copy of the retained events, oldest first.
func (s *LogSink) Recent() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.recent))
	copy(out, s.recent)
	return out
}
