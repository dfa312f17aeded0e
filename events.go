package chainsnap

import (
	"context"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is the severity of an Event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
)

func (l Level) zapLevel() zapcore.Level {
	if l <= LevelDebug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// EventType identifies the kind of event emitted by a build.
type EventType string

const (
	EventSessionPinned   EventType = "session.pinned"   // endpoint connected, reference block fixed
	EventKeysPage        EventType = "keys.page"        // one enumeration page received
	EventFetchProgress   EventType = "fetch.progress"   // periodic value-fetch progress
	EventModuleDone      EventType = "module.done"      // all pairs for one module retrieved
	EventSnapshotWritten EventType = "snapshot.written" // snapshot file renamed into place
	EventSnapshotLoaded  EventType = "snapshot.loaded"  // offline snapshot decoded
	EventInject          EventType = "inject"           // injected pairs appended
	EventSinkFilled      EventType = "sink.filled"      // final store populated
)

// Event is a structured observability event. Events carry no core semantics;
// dropping every event changes nothing about a build's result.
type Event struct {
	Type      EventType
	Level     Level
	Timestamp time.Time
	Data      map[string]any
}

// Observer receives events from a build for logging or metrics.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnEvent(context.Context, Event) {}

// MultiObserver fans out events to multiple observers.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver forwarding to all non-nil
// observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			filtered = append(filtered, obs)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) OnEvent(ctx context.Context, event Event) {
	for _, obs := range m.observers {
		obs.OnEvent(ctx, event)
	}
}

// ZapObserver emits events to a zap.Logger. The event type becomes the log
// message and Data keys become fields.
type ZapObserver struct {
	logger *zap.Logger
}

// NewZapObserver creates a ZapObserver emitting to the given logger.
func NewZapObserver(logger *zap.Logger) *ZapObserver {
	return &ZapObserver{logger: logger}
}

func (o *ZapObserver) OnEvent(_ context.Context, event Event) {
	fields := make([]zap.Field, 0, len(event.Data))
	for k, v := range event.Data {
		fields = append(fields, zap.Any(k, v))
	}
	o.logger.Log(event.Level.zapLevel(), string(event.Type), fields...)
}
