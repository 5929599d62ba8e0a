package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/codacy/codacy-govet/internal/types"
)

// JSONLines writes one JSON object per record. Records of one Emit call are
// written contiguously; concurrent callers never interleave within a batch.
type JSONLines struct {
	mu     sync.Mutex
	enc    *json.Encoder
	closed bool
}

// NewJSONLines creates an emitter writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLines{enc: enc}
}

// Emit writes records. It is a no-op after Close.
func (j *JSONLines) Emit(records []types.Result) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	for _, r := range records {
		if err := j.enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// Close stops further output. A batch being written when Close is called
// completes first.
func (j *JSONLines) Close() error {
	j.mu.Lock()
	j.closed = true
	j.mu.Unlock()
	return nil
}
