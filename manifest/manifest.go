// Package manifest handles strata.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/strata-lang/strata/vm"
)

// Manifest represents a strata.toml project configuration.
type Manifest struct {
	Program  Program            `toml:"program"`
	Ledger   Ledger             `toml:"ledger"`
	Mappings map[string]Mapping `toml:"mappings"`

	// Dir is the directory containing the strata.toml file (set at load time).
	Dir string `toml:"-"`
}

// Program contains program metadata.
type Program struct {
	ID      string `toml:"id"`
	Version string `toml:"version"`
	// Eval selects how async calls execute: "deferred" or "immediate".
	Eval string `toml:"eval"`
}

// Ledger configures where mapping state is persisted.
type Ledger struct {
	Path string `toml:"path"`
}

// Mapping declares one on-chain mapping of the program.
type Mapping struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// Load parses a strata.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "strata.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Ledger.Path == "" {
		m.Ledger.Path = filepath.Join(".strata", "ledger.db")
	}
	if m.Program.Eval == "" {
		m.Program.Eval = "deferred"
	}
	if m.Program.Eval != "deferred" && m.Program.Eval != "immediate" {
		return nil, fmt.Errorf("invalid eval mode %q in %s", m.Program.Eval, path)
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a strata.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "strata.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// LedgerPath returns the absolute path of the configured ledger database.
func (m *Manifest) LedgerPath() string {
	if filepath.IsAbs(m.Ledger.Path) {
		return m.Ledger.Path
	}
	return filepath.Join(m.Dir, m.Ledger.Path)
}

// EvalMode returns the configured async evaluation mode.
func (m *Manifest) EvalMode() vm.EvalMode {
	if m.Program.Eval == "immediate" {
		return vm.EvalImmediate
	}
	return vm.EvalDeferred
}
