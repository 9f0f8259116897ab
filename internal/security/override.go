package security

import (
	"os"
	"regexp"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"silexa/brain/internal/wstate"
)

// overridePattern is the on-disk shape of one pattern-table row, mirroring
// Pattern but with a plain string instead of a compiled regexp and a
// method kind the loader maps back onto a constructor — grounded on the
// toml.Unmarshal(data, &payload) pattern used throughout tools/si/settings.go.
type overridePattern struct {
	Name   string `toml:"name"`
	Regex  string `toml:"regex"`
	Risk   string `toml:"risk"`
	Method string `toml:"method"` // "slider", "multibutton:<labels,comma,sep>", "hold:<seconds>"
}

type overrideFile struct {
	Patterns []overridePattern `toml:"patterns"`
}

// TableWatcher polls an optional TOML file for a user-supplied pattern table
// override, hot-reloading it into a Manager whenever its mtime changes. A
// missing file is not an error: the Manager simply keeps DefaultPatterns().
type TableWatcher struct {
	path    string
	mgr     *Manager
	mu      sync.Mutex
	lastMod time.Time
}

func NewTableWatcher(path string, mgr *Manager) *TableWatcher {
	return &TableWatcher{path: path, mgr: mgr}
}

// Poll checks the override file's mtime and reloads the pattern table if it
// changed. Safe to call on a timer from the same goroutine repeatedly.
func (w *TableWatcher) Poll() error {
	if w.path == "" {
		return nil
	}
	info, err := os.Stat(w.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	w.mu.Lock()
	unchanged := info.ModTime().Equal(w.lastMod)
	w.mu.Unlock()
	if unchanged {
		return nil
	}

	data, err := os.ReadFile(w.path)
	if err != nil {
		return err
	}
	var payload overrideFile
	if err := toml.Unmarshal(data, &payload); err != nil {
		return err
	}

	patterns := make([]Pattern, 0, len(payload.Patterns))
	for _, op := range payload.Patterns {
		p, err := op.compile()
		if err != nil {
			continue // a single malformed row must not take down the whole table
		}
		patterns = append(patterns, p)
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}

	w.mgr.mu.Lock()
	w.mgr.patterns = patterns
	w.mgr.mu.Unlock()

	w.mu.Lock()
	w.lastMod = info.ModTime()
	w.mu.Unlock()
	return nil
}

func (op overridePattern) compile() (Pattern, error) {
	re, err := regexp.Compile(op.Regex)
	if err != nil {
		return Pattern{}, err
	}
	risk := wstate.Risk(op.Risk)
	method, err := parseMethod(op.Method)
	if err != nil {
		return Pattern{}, err
	}
	return Pattern{Name: op.Name, Regexp: re, Risk: risk, Method: method}, nil
}
