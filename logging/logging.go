package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mengelbart/mediarecorder"
)

type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

func NewFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case TextFormat, JSONFormat:
		return f, nil
	}
	return TextFormat, fmt.Errorf("unknown logging format: %q", s)
}

func Configure(format Format, level slog.Level, writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	ho := &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	}
	switch format {
	case JSONFormat:
		slog.SetDefault(slog.New(slog.NewJSONHandler(writer, ho)))
	case TextFormat:
		slog.SetDefault(slog.New(slog.NewTextHandler(writer, ho)))
	default:
		panic(fmt.Sprintf("unexpected logging.format: %#v", format))
	}
}

// EventLogger logs every recorder event it receives.
type EventLogger struct {
	logger *slog.Logger
}

func NewEventLogger(recorder string, logger *slog.Logger) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{
		logger: logger.With("recorder", recorder).WithGroup("event"),
	}
}

// Attach registers the logger for all event types of r.
func (l *EventLogger) Attach(r *mediarecorder.MediaRecorder) {
	for _, t := range []mediarecorder.EventType{
		mediarecorder.EventStart,
		mediarecorder.EventStop,
		mediarecorder.EventPause,
		mediarecorder.EventResume,
		mediarecorder.EventDataAvailable,
		mediarecorder.EventError,
	} {
		r.AddEventListener(t, l.LogEvent)
	}
}

func (l *EventLogger) LogEvent(e mediarecorder.Event) {
	attrs := []any{
		"type", e.Type,
		"time", e.Time,
	}
	if e.Data != nil {
		attrs = append(attrs, "size", e.Data.Size(), "mime-type", e.Data.Type)
	}
	if e.Err != nil {
		l.logger.Error("recorder event", append(attrs, "error", e.Err)...)
		return
	}
	l.logger.Info("recorder event", attrs...)
}
