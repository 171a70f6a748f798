// Package bridge turns one outgoing prompt into one external subprocess
// invocation and streams its output back as bus events. Each submission
// gets its own goroutine and owns its process handle exclusively; the
// orchestrator never blocks on subprocess I/O.
package bridge

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/pkg/bus"
	"github.com/parleyhq/parley/pkg/logging"
)

// chunkSize bounds a single ReplyChunk payload.
const chunkSize = 4096

// stderrTailLimit caps how much captured stderr ends up in a failure
// reason.
const stderrTailLimit = 512

// ReplyChunk carries a piece of subprocess stdout. Chunks for one
// message are published in the order the subprocess produced them.
type ReplyChunk struct {
	ConversationID int64
	MessageID      int64
	Text           string
}

// ReplyDone reports a clean subprocess exit.
type ReplyDone struct {
	ConversationID int64
	MessageID      int64
}

// ReplyFailed reports a spawn failure or non-zero exit. Reason carries
// diagnostic text, including a stderr tail when there is one.
type ReplyFailed struct {
	ConversationID int64
	MessageID      int64
	Reason         string
}

// ErrBusy rejects a second submission for a conversation whose previous
// reply has not settled yet.
var ErrBusy = errors.New("conversation already has a request in flight")

// Request identifies one in-flight subprocess invocation.
type Request struct {
	ID             string
	ConversationID int64
	MessageID      int64
	Model          string
}

// Bridge spawns and tracks LLM CLI invocations.
type Bridge struct {
	binary string
	bus    *bus.Bus
	log    *logging.Logger

	mu       sync.Mutex
	inflight map[int64]*Request // conversation id -> request
}

// New creates a bridge that invokes the given CLI binary.
func New(binary string, b *bus.Bus, log *logging.Logger) *Bridge {
	return &Bridge{
		binary:   binary,
		bus:      b,
		log:      log,
		inflight: make(map[int64]*Request),
	}
}

// Submit starts one subprocess for the prompt and returns immediately.
// The prompt and model reach the tool as discrete argv entries, never
// through a shell, so user text cannot be reinterpreted as shell syntax.
// Progress and completion arrive on the bus as ReplyChunk, then exactly
// one of ReplyDone or ReplyFailed.
func (b *Bridge) Submit(convID, msgID int64, prompt, model string) (*Request, error) {
	req := &Request{
		ID:             uuid.NewString(),
		ConversationID: convID,
		MessageID:      msgID,
		Model:          model,
	}

	b.mu.Lock()
	if _, busy := b.inflight[convID]; busy {
		b.mu.Unlock()
		return nil, ErrBusy
	}
	b.inflight[convID] = req
	b.mu.Unlock()

	b.log.Info("bridge", "request submitted", map[string]any{
		"request_id":      req.ID,
		"conversation_id": convID,
		"message_id":      msgID,
		"model":           model,
	})

	go b.run(req, prompt)
	return req, nil
}

// Busy reports whether a conversation has an in-flight request.
func (b *Bridge) Busy(convID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, busy := b.inflight[convID]
	return busy
}

// InFlight returns the number of running requests.
func (b *Bridge) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight)
}

// run executes the subprocess and publishes its lifecycle. It is the only
// goroutine that touches this request's process handle. The conversation
// is released before the terminal event goes out so a consumer that sees
// ReplyDone can immediately submit again.
func (b *Bridge) run(req *Request, prompt string) {
	args := []string{"-m", req.Model, prompt}
	cmd := exec.Command(b.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		b.fail(req, fmt.Sprintf("stdout pipe: %v", err))
		return
	}
	if err := cmd.Start(); err != nil {
		b.fail(req, fmt.Sprintf("spawn %s: %v", b.binary, err))
		return
	}

	// Forward stdout as it arrives. A fixed read buffer instead of a
	// line scanner keeps partial lines streaming.
	buf := make([]byte, chunkSize)
	for {
		n, readErr := stdout.Read(buf)
		if n > 0 {
			b.bus.Publish(ReplyChunk{
				ConversationID: req.ConversationID,
				MessageID:      req.MessageID,
				Text:           string(buf[:n]),
			})
		}
		if readErr != nil {
			if readErr != io.EOF {
				b.log.Warn("bridge", "stdout read error", map[string]any{
					"request_id": req.ID,
					"error":      readErr.Error(),
				})
			}
			break
		}
	}

	if err := cmd.Wait(); err != nil {
		b.fail(req, failureReason(err, stderr.Bytes()))
		return
	}

	b.log.Info("bridge", "request completed", map[string]any{"request_id": req.ID})
	b.release(req.ConversationID)
	b.bus.Publish(ReplyDone{ConversationID: req.ConversationID, MessageID: req.MessageID})
}

func (b *Bridge) fail(req *Request, reason string) {
	b.log.Warn("bridge", "request failed", map[string]any{
		"request_id": req.ID,
		"reason":     reason,
	})
	b.release(req.ConversationID)
	b.bus.Publish(ReplyFailed{
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
		Reason:         reason,
	})
}

func (b *Bridge) release(convID int64) {
	b.mu.Lock()
	delete(b.inflight, convID)
	b.mu.Unlock()
}

// failureReason folds the exit error and a stderr tail into one line.
func failureReason(err error, stderr []byte) string {
	reason := err.Error()
	tail := strings.TrimSpace(string(stderr))
	if tail == "" {
		return reason
	}
	if len(tail) > stderrTailLimit {
		tail = "..." + tail[len(tail)-stderrTailLimit:]
	}
	return fmt.Sprintf("%s: %s", reason, tail)
}
