// Package audit keeps a local append-only trail of security events (login
// denials, rate-limit hits, admin mutations). It complements the
// activity_logs collection: the file survives even when the document store
// is the thing misbehaving.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Logger writes the append-only audit file. Write failures are deliberately
// swallowed; auditing must never take a request down with it.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates an audit logger writing to path.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Write records one event. actor is whoever triggered it (admin email,
// phone key, client IP); meta keys are emitted sorted so lines are stable.
func (l *Logger) Write(actor, action, status string, meta map[string]string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_ = os.MkdirAll(filepath.Dir(l.path), 0o755)
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return
	}
	defer f.Close()

	ts := time.Now().UTC().Format(time.RFC3339)
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	fmt.Fprintf(&b, "%s actor=%s action=%s status=%s", ts, actor, action, status)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%s", k, meta[k])
	}
	b.WriteByte('\n')
	_, _ = f.WriteString(b.String())
}
