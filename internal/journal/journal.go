// Package journal keeps an audit trail of every order the bot sends out.
package journal

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vh1572/alpaca-rebalance/internal/execution"
)

// Entry is one submitted order with its submission time.
type Entry struct {
	execution.Order
	SubmittedAt time.Time `json:"submitted_at"`
}

// JSONLRecorder appends submitted orders as JSON lines for later analysis.
type JSONLRecorder struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
	now  func() time.Time
}

// NewJSONLRecorder creates/opens the target file and returns a recorder.
func NewJSONLRecorder(path string) (*JSONLRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLRecorder{
		file: file,
		enc:  json.NewEncoder(file),
		now:  time.Now,
	}, nil
}

// Record writes a single order to the underlying JSONL file.
func (r *JSONLRecorder) Record(order execution.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.enc.Encode(Entry{Order: order, SubmittedAt: r.now().UTC()})
}

// Close flushes and closes the file handle.
func (r *JSONLRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// Ledger stores submitted orders in memory for quick inspection.
type Ledger struct {
	mu     sync.Mutex
	orders []execution.Order
}

// NewLedger creates an empty ledger optionally pre-sizing storage.
func NewLedger(capacity int) *Ledger {
	if capacity < 0 {
		capacity = 0
	}
	return &Ledger{orders: make([]execution.Order, 0, capacity)}
}

// Record appends an order to the ledger.
func (l *Ledger) Record(order execution.Order) {
	l.mu.Lock()
	l.orders = append(l.orders, order)
	l.mu.Unlock()
}

// Snapshot returns a copy of the recorded orders.
func (l *Ledger) Snapshot() []execution.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]execution.Order, len(l.orders))
	copy(out, l.orders)
	return out
}

// Reset clears all stored orders.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.orders = l.orders[:0]
	l.mu.Unlock()
}
