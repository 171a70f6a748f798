package tui

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/parleyhq/parley/pkg/bridge"
	"github.com/parleyhq/parley/pkg/bus"
	"github.com/parleyhq/parley/pkg/config"
	"github.com/parleyhq/parley/pkg/logging"
	"github.com/parleyhq/parley/pkg/registry"
	"github.com/parleyhq/parley/pkg/remote"
	"github.com/parleyhq/parley/pkg/session"
)

// busSize is the event queue depth shared by the subprocess bridge and
// the remote listener.
const busSize = 256

// Run wires the whole application together and blocks until the UI
// exits. headless swaps the terminal for dummy input, for CI runs.
func Run(cfg config.Config, headless bool) error {
	log, err := logging.Open(cfg.LogPath())
	if err != nil {
		// A broken log path is not worth refusing to start over.
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		log = nil
	}
	defer log.Close()

	evbus := bus.New(busSize, log)
	store := session.NewStore(log)
	reg := registry.New(cfg.LLMBinary, log)
	br := bridge.New(cfg.LLMBinary, evbus, log)

	m := New(cfg, log, store, reg, br, evbus)

	if cfg.ListenAddr != "" {
		lst, err := remote.Listen(cfg.ListenAddr, evbus, log)
		if err != nil {
			// Degraded mode: the UI still works, only remote control
			// is unavailable.
			log.Warn("run", "remote listener disabled", map[string]any{"error": err.Error()})
			fmt.Fprintf(os.Stderr, "remote control disabled: %v\n", err)
		} else {
			m.SetRemoteOn(true)
			defer lst.Close()
		}
	}

	// Use tea.WithInputTTY() to open /dev/tty directly for input,
	// allowing the TUI to work even when stdin is not a terminal.
	opts := []tea.ProgramOption{}
	if headless {
		opts = append(opts, tea.WithInput(strings.NewReader("")), tea.WithOutput(os.Stderr))
	} else if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
		tty.Close()
		opts = append(opts, tea.WithAltScreen(), tea.WithInputTTY())
	}

	p := tea.NewProgram(m, opts...)
	if _, err := p.Run(); err != nil {
		log.Error("run", "program exited with error", map[string]any{"error": err.Error()})
		return err
	}
	log.Info("run", "program exited", nil)
	return nil
}
