package bridge

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/parleyhq/parley/pkg/bus"
)

// writeScript drops an executable shell script standing in for the llm CLI.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script fixture")
	}
	path := filepath.Join(t.TempDir(), "llm")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func nextEvent(t *testing.T, b *bus.Bus) any {
	t.Helper()
	select {
	case ev := <-b.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for bus event")
		return nil
	}
}

func TestSubmitStreamsChunksThenDone(t *testing.T) {
	script := writeScript(t, "printf 'The answer'\nsleep 0.05\nprintf ' is 4'\n")
	evbus := bus.New(16, nil)
	br := New(script, evbus, nil)

	req, err := br.Submit(1, 10, "2+2?", "haiku")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if req.ID == "" {
		t.Error("request should carry an id")
	}

	var text strings.Builder
	for {
		switch ev := nextEvent(t, evbus).(type) {
		case ReplyChunk:
			if ev.MessageID != 10 || ev.ConversationID != 1 {
				t.Fatalf("chunk routed to wrong message: %+v", ev)
			}
			text.WriteString(ev.Text)
		case ReplyDone:
			if got := text.String(); got != "The answer is 4" {
				t.Errorf("expected streamed text in order, got %q", got)
			}
			return
		case ReplyFailed:
			t.Fatalf("unexpected failure: %s", ev.Reason)
		}
	}
}

func TestSubmitArgvCarriesPromptVerbatim(t *testing.T) {
	// The script echoes its third argument, so shell metacharacters in
	// the prompt must come back literally.
	script := writeScript(t, `printf '%s' "$3"`)
	evbus := bus.New(16, nil)
	br := New(script, evbus, nil)

	prompt := `what does "rm -rf $HOME; echo done" do?`
	if _, err := br.Submit(1, 10, prompt, "haiku"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var text strings.Builder
	for {
		switch ev := nextEvent(t, evbus).(type) {
		case ReplyChunk:
			text.WriteString(ev.Text)
		case ReplyDone:
			if text.String() != prompt {
				t.Errorf("prompt mangled in transit: %q", text.String())
			}
			return
		case ReplyFailed:
			t.Fatalf("unexpected failure: %s", ev.Reason)
		}
	}
}

func TestNonZeroExitReportsFailureWithStderr(t *testing.T) {
	script := writeScript(t, "echo 'model not found' >&2\nexit 2\n")
	evbus := bus.New(16, nil)
	br := New(script, evbus, nil)

	if _, err := br.Submit(3, 30, "hi", "nope"); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	for {
		switch ev := nextEvent(t, evbus).(type) {
		case ReplyChunk:
			// Nothing expected on stdout, but tolerate it.
		case ReplyDone:
			t.Fatal("expected failure, got ReplyDone")
		case ReplyFailed:
			if ev.MessageID != 30 {
				t.Fatalf("failure routed to wrong message: %+v", ev)
			}
			if !strings.Contains(ev.Reason, "model not found") {
				t.Errorf("reason should carry stderr, got %q", ev.Reason)
			}
			return
		}
	}
}

func TestSpawnFailureReportsFailure(t *testing.T) {
	evbus := bus.New(16, nil)
	br := New(filepath.Join(t.TempDir(), "missing-llm"), evbus, nil)

	if _, err := br.Submit(5, 50, "hi", "haiku"); err != nil {
		t.Fatalf("Submit itself should not error on spawn failure: %v", err)
	}

	ev := nextEvent(t, evbus)
	failed, ok := ev.(ReplyFailed)
	if !ok {
		t.Fatalf("expected ReplyFailed, got %T", ev)
	}
	if !strings.Contains(failed.Reason, "spawn") {
		t.Errorf("reason should mention spawn, got %q", failed.Reason)
	}
	if br.Busy(5) {
		t.Error("failed request should release the conversation")
	}
}

func TestSecondSubmitSameConversationRejected(t *testing.T) {
	script := writeScript(t, "sleep 0.3\nprintf ok\n")
	evbus := bus.New(16, nil)
	br := New(script, evbus, nil)

	if _, err := br.Submit(7, 70, "first", "haiku"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := br.Submit(7, 71, "second", "haiku"); err != ErrBusy {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	// A different conversation is still accepted.
	if _, err := br.Submit(8, 80, "other", "haiku"); err != nil {
		t.Fatalf("other conversation rejected: %v", err)
	}
	if br.InFlight() != 2 {
		t.Errorf("expected 2 in flight, got %d", br.InFlight())
	}

	// Drain until both conversations settle so the temp dir can go away.
	settled := 0
	for settled < 2 {
		switch nextEvent(t, evbus).(type) {
		case ReplyDone, ReplyFailed:
			settled++
		}
	}
	if br.Busy(7) || br.Busy(8) {
		t.Error("settled conversations should not stay busy")
	}
}
