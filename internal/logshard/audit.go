// Package logshard is the Brain's JSON-line event sink: an append-only file
// of one JSON object per line (cmd/brain shares one sink between the
// confirmation lifecycle and the deep-inspection audit trail), adapted
// directly from tools/si/internal/vault's JSONLAudit.
package logshard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONLAudit appends one JSON object per line to path, stamping "ts" when
// the caller didn't already set one.
type JSONLAudit struct {
	path string
	mu   sync.Mutex
}

// NewJSONLAudit prepares a sink writing to path; the directory is created
// lazily on first Log.
func NewJSONLAudit(path string) *JSONLAudit {
	return &JSONLAudit{path: filepath.Clean(path)}
}

func (l *JSONLAudit) Log(event map[string]any) {
	if l == nil || l.path == "" {
		return
	}
	if event == nil {
		event = map[string]any{}
	}
	if _, ok := event["ts"]; !ok {
		event["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	data = append(data, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o700); err != nil {
		return
	}
	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return
	}
	_, _ = file.Write(data)
	_ = file.Close()
}

// DailyPath returns the path for now's UTC day under dir, named
// YYYY-MM-DD.jsonl. A JSONLAudit keeps the path it was built with, so a sink
// built from DailyPath writes to that one day's file for its whole lifetime;
// nothing rolls over to a new file when the day changes.
func DailyPath(dir string, now time.Time) string {
	return filepath.Join(dir, now.UTC().Format("2006-01-02")+".jsonl")
}
