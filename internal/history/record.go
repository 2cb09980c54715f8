package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"forcestatus/internal/result"
)

// Record is a tamper-evident entry for one finished build
type Record struct {
	Index     int           `json:"index"`
	Timestamp string        `json:"timestamp"`
	BuildID   string        `json:"buildId"`
	Number    int           `json:"number"`
	Pipeline  string        `json:"pipeline"`
	Result    result.Result `json:"result"`
	Forced    bool          `json:"forced"`
	AgentID   string        `json:"agentId"`
	LogPath   string        `json:"logPath"`
	LogHash   string        `json:"logHash"`
	PrevHash  string        `json:"prevHash"`
	Hash      string        `json:"hash"`
}

// Entry holds the caller-supplied fields of a Record.
type Entry struct {
	BuildID  string
	Number   int
	Pipeline string
	Result   result.Result
	Forced   bool
	AgentID  string
	LogPath  string
	LogHash  string
}

// canonicalData returns the JSON bytes used to compute the record hash.
// It excludes Hash itself.
func (r *Record) canonicalData() ([]byte, error) {
	view := *r
	view.Hash = ""
	return json.Marshal(view)
}

// ComputeHash calculates SHA256 over canonicalData
func (r *Record) ComputeHash() (string, error) {
	data, err := r.canonicalData()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// NewRecord constructs a record linked to prevHash and computes its hash
func NewRecord(index int, e Entry, prevHash string) (*Record, error) {
	rec := &Record{
		Index:     index,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		BuildID:   e.BuildID,
		Number:    e.Number,
		Pipeline:  e.Pipeline,
		Result:    e.Result,
		Forced:    e.Forced,
		AgentID:   e.AgentID,
		LogPath:   e.LogPath,
		LogHash:   e.LogHash,
		PrevHash:  prevHash,
	}

	h, err := rec.ComputeHash()
	if err != nil {
		return nil, fmt.Errorf("compute record hash: %w", err)
	}
	rec.Hash = h
	return rec, nil
}
