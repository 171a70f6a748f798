// Package registry enumerates the models the external LLM CLI knows about.
// The snapshot is immutable between explicit reloads; only the orchestrator
// goroutine ever touches it.
package registry

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/parleyhq/parley/pkg/logging"
)

// Model is one entry from the external tool's alias listing.
type Model struct {
	// ID is the alias passed to the CLI with -m.
	ID string
	// Name is the full model name shown in the picker.
	Name string
}

// Registry holds the current model snapshot.
type Registry struct {
	binary string
	log    *logging.Logger
	models []Model
}

// New creates an empty registry for the given CLI binary. Call Reload to
// populate it.
func New(binary string, log *logging.Logger) *Registry {
	return &Registry{binary: binary, log: log}
}

// Fetch runs `<binary> aliases` and parses the output without touching
// the snapshot, so it may run off the orchestrator goroutine.
func (r *Registry) Fetch() ([]Model, error) {
	out, err := exec.Command(r.binary, "aliases").Output()
	if err != nil {
		r.log.Warn("registry", "alias listing failed", map[string]any{"binary": r.binary, "error": err.Error()})
		return nil, fmt.Errorf("run %s aliases: %w", r.binary, err)
	}
	return ParseAliases(string(out)), nil
}

// Install replaces the snapshot. Orchestrator goroutine only.
func (r *Registry) Install(models []Model) {
	r.models = models
	r.log.Info("registry", "models loaded", map[string]any{"count": len(models)})
}

// Reload fetches and installs in one step. On failure the previous
// snapshot is kept so a flaky CLI does not blank the picker.
func (r *Registry) Reload() error {
	models, err := r.Fetch()
	if err != nil {
		return err
	}
	r.Install(models)
	return nil
}

// Models returns the current snapshot. Callers must not mutate it.
func (r *Registry) Models() []Model {
	return r.models
}

// Contains reports whether id is a known model alias.
func (r *Registry) Contains(id string) bool {
	for _, m := range r.models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ParseAliases parses the `llm aliases` output, one "alias : full name"
// pair per line. Lines that do not match are skipped.
func ParseAliases(output string) []Model {
	var models []Model
	for _, line := range strings.Split(output, "\n") {
		alias, name, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		alias = strings.TrimSpace(alias)
		name = strings.TrimSpace(name)
		if alias == "" || name == "" {
			continue
		}
		models = append(models, Model{ID: alias, Name: name})
	}
	return models
}
