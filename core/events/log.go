package events

import "log/slog"

// LogEmitter writes every event to a structured logger. The daemon installs it
// as the module emitter so state changes surface in the log stream without a
// dedicated subscriber bus.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter writing to the provided logger. A nil
// logger falls back to the process default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the Emitter interface.
func (e *LogEmitter) Emit(event Event) {
	if event == nil {
		return
	}
	e.logger.Info("ledger event", "type", event.EventType(), "event", event)
}
