package events

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogEmitterWritesEventType(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	emitter := NewLogEmitter(logger)

	var owner [20]byte
	owner[19] = 0x01
	emitter.Emit(ReferralMinted{ID: [32]byte{0x02}, Owner: owner, OG: true})

	line := buf.String()
	if !strings.Contains(line, TypeReferralMinted) {
		t.Fatalf("log line missing event type: %s", line)
	}
	if !strings.Contains(line, "ledger event") {
		t.Fatalf("log line missing message: %s", line)
	}
}

func TestLogEmitterIgnoresNilEvent(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(slog.New(slog.NewJSONHandler(&buf, nil)))
	emitter.Emit(nil)
	if buf.Len() != 0 {
		t.Fatalf("nil event must not log, got %s", buf.String())
	}
}
