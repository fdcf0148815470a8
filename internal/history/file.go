// Package history records every gated query: the NDJSON log on disk and the
// in-memory session list the chat REPL shows.
package history

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/guillermoBallester/askdb/internal/core/port"
)

// FileRecorder writes entries as NDJSON (one JSON object per line) to a file.
type FileRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileRecorder opens (or creates) the file at path for append-only writing.
func NewFileRecorder(path string) (*FileRecorder, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &FileRecorder{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

func (r *FileRecorder) Record(_ context.Context, entry port.HistoryEntry) {
	entry.Time = entry.Time.UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(entry) // best-effort; don't fail the request for history I/O
}

func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// Noop discards all entries.
type Noop struct{}

func (Noop) Record(context.Context, port.HistoryEntry) {}
func (Noop) Close() error                              { return nil }
