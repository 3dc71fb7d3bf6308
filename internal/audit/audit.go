// Package audit provides an append-only log of changes made to objects,
// whether through the API or picked up from the filesystem.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Operations recorded in the log.
const (
	OpInsert      = "insert"
	OpSave        = "save"
	OpRemove      = "remove"
	OpSetProperty = "set-property"
	OpRemoveProp  = "remove-property"
	OpAdded       = "added"
	OpRefreshed   = "refreshed"
	OpRemoved     = "removed"
)

// Sources of a change.
const (
	SourceAPI = "api"
	SourceFS  = "fs"
)

// Entry is a single audit log line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Operation string    `json:"op"`
	Source    string    `json:"source"`
	ID        string    `json:"id"`
	Property  string    `json:"property,omitempty"`
}

// Logger appends entries to <root>/.moodb/audit.log.
type Logger struct {
	path    string
	enabled bool
	mu      sync.Mutex
	now     func() time.Time
}

// New creates an audit logger for the store at root.
// If enabled is false, the logger is a no-op. A nil *Logger is also a no-op.
func New(root string, enabled bool) *Logger {
	if !enabled {
		return &Logger{enabled: false}
	}
	return &Logger{
		path:    filepath.Join(root, ".moodb", "audit.log"),
		enabled: true,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether entries are written.
func (l *Logger) Enabled() bool { return l != nil && l.enabled }

// Log appends an entry.
func (l *Logger) Log(entry Entry) error {
	if !l.Enabled() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create audit directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write audit entry: %w", err)
	}
	return nil
}

// LogAPI records a change made through the cache API.
func (l *Logger) LogAPI(op, id, property string) error {
	return l.Log(Entry{Operation: op, Source: SourceAPI, ID: id, Property: property})
}

// LogFS records a change picked up from the filesystem.
func (l *Logger) LogFS(op, id string) error {
	return l.Log(Entry{Operation: op, Source: SourceFS, ID: id})
}

// Read returns every entry in the log, skipping malformed lines.
func (l *Logger) Read() ([]Entry, error) {
	if !l.Enabled() {
		return nil, nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}

	var entries []Entry
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return entries, nil
}

// ReadForObject returns the entries for one object ID.
func (l *Logger) ReadForObject(id string) ([]Entry, error) {
	all, err := l.Read()
	if err != nil {
		return nil, err
	}
	var filtered []Entry
	for _, e := range all {
		if e.ID == id {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
