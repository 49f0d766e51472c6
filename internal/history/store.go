// Package history holds the bounded, ordered buffer of the most recent chat
// records kept by the relay for the lifetime of the process.
package history

import "sync"

// DefaultCapacity is the number of records retained when no capacity is configured.
const DefaultCapacity = 20

// Record is one stored chat message with its origin tag and timestamp.
// The JSON field names match what browser parties expect on the wire.
type Record struct {
	Text   string `json:"text"`
	Origin string `json:"ip"`
	Time   string `json:"time"`
}

// Store is an insertion-ordered buffer of records capped at a fixed capacity.
// Appending past capacity evicts the oldest records first.
// It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
}

// New creates an empty Store. A capacity of zero or less uses DefaultCapacity.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		records:  make([]Record, 0, capacity),
		capacity: capacity,
	}
}

// Append adds record to the tail and evicts from the head until the store
// is back within capacity.
func (s *Store) Append(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	if overflow := len(s.records) - s.capacity; overflow > 0 {
		// Shift in place so the backing array does not grow without bound.
		n := copy(s.records, s.records[overflow:])
		clear(s.records[n:])
		s.records = s.records[:n]
	}
}

// Clear empties the store.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.records)
	s.records = s.records[:0]
}

// Snapshot returns a copy of the current records, oldest first.
// The result is never nil and does not alias the store's buffer.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Capacity returns the maximum number of records retained.
func (s *Store) Capacity() int {
	return s.capacity
}
