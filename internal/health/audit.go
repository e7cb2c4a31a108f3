package health

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// AuditEntry is one line in the health-check audit log.
type AuditEntry struct {
	CheckedAt     time.Time         `json:"checkedAt"`
	Status        Status            `json:"status"`
	Services      map[string]Status `json:"services"`
	UptimeSeconds int64             `json:"uptimeSeconds"`
	ErrorCount    int64             `json:"errorCount"`
}

// AuditOutcome records whether the audit line for a health check made it
// to disk. A failed write is a soft condition: it never affects the
// health result itself.
type AuditOutcome struct {
	Written bool   `json:"written"`
	Error   string `json:"error,omitempty"`
}

// AuditLogger appends JSONL entries to the health-check audit log.
type AuditLogger struct {
	mu   sync.Mutex
	path string
}

// NewAuditLogger creates an audit logger writing to dir/health-checks.jsonl.
func NewAuditLogger(dir string) *AuditLogger {
	if dir == "" {
		dir = "logs"
	}
	return &AuditLogger{path: filepath.Join(dir, "health-checks.jsonl")}
}

// Path returns the audit log file path.
func (l *AuditLogger) Path() string { return l.path }

// Append writes one entry as a single JSON line.
func (l *AuditLogger) Append(entry AuditEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}
