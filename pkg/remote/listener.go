// Package remote implements the TCP side channel that lets external
// processes drive the application. It binds loopback only, reads
// newline-delimited commands, and converts them to bus events; it never
// touches session state itself.
package remote

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/parleyhq/parley/pkg/bus"
	"github.com/parleyhq/parley/pkg/logging"
)

// statusTimeout bounds how long a connection waits for the orchestrator
// to answer a STATUS request.
const statusTimeout = 2 * time.Second

// CommandEvent is published for every accepted command. For STATUS,
// Reply is non-nil and the orchestrator must send exactly one line on
// it; the connection goroutine writes that line back to the client.
type CommandEvent struct {
	Conn  string // connection id, for log correlation
	Cmd   Command
	Reply chan<- string
}

// Listener accepts control connections until closed.
type Listener struct {
	ln  net.Listener
	bus *bus.Bus
	log *logging.Logger
}

// Listen binds addr and starts accepting in the background. A bind
// failure is returned to the caller, who runs degraded without remote
// control rather than aborting.
func Listen(addr string, b *bus.Bus, log *logging.Logger) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	l := &Listener{ln: ln, bus: b, log: log}
	log.Info("remote", "listener started", map[string]any{"addr": ln.Addr().String()})
	go l.serve()
	return l, nil
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close stops accepting. Connections already open drain on their own.
func (l *Listener) Close() error {
	return l.ln.Close()
}

func (l *Listener) serve() {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			// Closed listener; nothing to log beyond debug.
			l.log.Debug("remote", "accept loop done", map[string]any{"error": err.Error()})
			return
		}
		go l.handle(conn)
	}
}

// handle reads commands line by line for the lifetime of a connection.
// Malformed lines are dropped with a warning and the connection stays
// open for further commands.
func (l *Listener) handle(conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()[:8]
	l.log.Info("remote", "connection opened", map[string]any{
		"conn":   connID,
		"client": conn.RemoteAddr().String(),
	})

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Text()
		cmd := Parse(line)
		if cmd.Kind == KindUnknown {
			l.log.Warn("remote", "malformed command dropped", map[string]any{
				"conn": connID,
				"line": truncate(line, 120),
			})
			continue
		}

		if cmd.Kind == KindStatus {
			reply := make(chan string, 1)
			l.bus.Publish(CommandEvent{Conn: connID, Cmd: cmd, Reply: reply})
			select {
			case status := <-reply:
				fmt.Fprintln(conn, status)
			case <-time.After(statusTimeout):
				l.log.Warn("remote", "status reply timed out", map[string]any{"conn": connID})
			}
			continue
		}

		l.bus.Publish(CommandEvent{Conn: connID, Cmd: cmd})
		fmt.Fprintln(conn, "OK")
	}
	l.log.Info("remote", "connection closed", map[string]any{"conn": connID})
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
