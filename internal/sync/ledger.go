package sync

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/davsync/davsync/internal/utils"
)

// Ledger maps remote paths to content fingerprints. Full and pseudo
// fingerprints live in disjoint namespaces so the two modes never produce a
// false match against each other. Entries are written only after a confirmed
// upload and are never removed during a run.
//
// The YAML wire format has two top-level sections, `regular_hashes` and
// `pseudo_hashes`; a missing section loads as an empty namespace.
type Ledger struct {
	Full   map[string]string `yaml:"regular_hashes"`
	Pseudo map[string]string `yaml:"pseudo_hashes"`
}

func NewLedger() *Ledger {
	return &Ledger{
		Full:   make(map[string]string),
		Pseudo: make(map[string]string),
	}
}

// LoadLedger reads a ledger file. A missing file is not an error and yields
// an empty ledger; a malformed file is fatal.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewLedger(), nil
		}
		return nil, fmt.Errorf("ledger read %q: %w", path, err)
	}

	ledger := NewLedger()
	if err := yaml.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("ledger parse %q: %w", path, err)
	}
	if ledger.Full == nil {
		ledger.Full = make(map[string]string)
	}
	if ledger.Pseudo == nil {
		ledger.Pseudo = make(map[string]string)
	}
	return ledger, nil
}

// Save writes the ledger as YAML, creating the parent directory if needed.
func (l *Ledger) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("ledger marshal: %w", err)
	}
	if err := utils.EnsureParent(path); err != nil {
		return fmt.Errorf("ledger dir for %q: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("ledger write %q: %w", path, err)
	}
	return nil
}

// Get returns the stored fingerprint for a remote path under the given mode.
func (l *Ledger) Get(mode Mode, remotePath string) (string, bool) {
	v, ok := l.namespace(mode)[remotePath]
	return v, ok
}

// Set records a fingerprint for a remote path under the given mode. Last
// write wins.
func (l *Ledger) Set(mode Mode, remotePath, fingerprint string) {
	l.namespace(mode)[remotePath] = fingerprint
}

// Len returns the number of entries under the given mode.
func (l *Ledger) Len(mode Mode) int {
	return len(l.namespace(mode))
}

func (l *Ledger) namespace(mode Mode) map[string]string {
	if mode == ModePseudo {
		return l.Pseudo
	}
	return l.Full
}
