package history

import (
	"errors"
	"fmt"
)

// ErrTampered is wrapped by every VerifyChain failure.
var ErrTampered = errors.New("history chain broken")

// VerifyChain re-computes each record hash and link to detect tampering
func (l *Ledger) VerifyChain() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, rec := range l.records {
		h, err := rec.ComputeHash()
		if err != nil {
			return fmt.Errorf("compute hash for index %d: %w", rec.Index, err)
		}
		if h != rec.Hash {
			return fmt.Errorf("%w: hash mismatch at index %d", ErrTampered, rec.Index)
		}

		// Check link
		if i > 0 && rec.PrevHash != l.records[i-1].Hash {
			return fmt.Errorf("%w: prev hash mismatch at index %d", ErrTampered, rec.Index)
		}
		// index sanity
		if rec.Index != i {
			return fmt.Errorf("%w: index mismatch: expected %d got %d", ErrTampered, i, rec.Index)
		}
	}
	return nil
}
