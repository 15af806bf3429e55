package debuglog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger writes timestamped JSONL entries describing exchange activity.
// A nil Logger discards everything, so call sites never need to guard.
type Logger struct {
	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// Open creates a log file under the XDG state directory. Returns a nil
// logger when disabled.
func Open(enabled bool) (*Logger, error) {
	if !enabled {
		return nil, nil
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}

	dir := filepath.Join(stateHome, "openchat")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("debug-%s.jsonl", time.Now().Format("20060102-150405")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &Logger{f: f, enc: json.NewEncoder(f)}, nil
}

// Event appends one entry. Fields may be nil.
func (l *Logger) Event(kind string, fields map[string]any) {
	if l == nil {
		return
	}
	entry := map[string]any{
		"ts":   time.Now().Format(time.RFC3339Nano),
		"kind": kind,
	}
	for k, v := range fields {
		entry[k] = v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(entry)
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
