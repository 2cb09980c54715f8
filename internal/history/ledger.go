// Package history keeps an append-only, hash-chained record of finished builds.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Ledger file format: JSON lines (one JSON record per line).
type Ledger struct {
	mu      sync.Mutex
	records []*Record
	path    string
}

// Open loads an existing ledger file or creates an empty one.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		records: make([]*Record, 0),
		path:    path,
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		_ = f.Close()
		return l, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode history entry: %w", err)
		}
		l.records = append(l.records, &rec)
	}
	return l, nil
}

// Append links a new record to the chain, persists it and keeps it in memory.
func (l *Ledger) Append(e Entry) (*Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	prev := ""
	if n := len(l.records); n > 0 {
		prev = l.records[n-1].Hash
	}
	rec, err := NewRecord(len(l.records), e, prev)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(rec); err != nil {
		return nil, fmt.Errorf("write history file: %w", err)
	}

	l.records = append(l.records, rec)
	return rec, nil
}

// Records returns a copy of the loaded records.
func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	for i, r := range l.records {
		out[i] = *r
	}
	return out
}

// NextIndex returns the next record index
func (l *Ledger) NextIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}
