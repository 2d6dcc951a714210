package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Domain-specific hash types
type (
	// SnapshotHash fingerprints the set of records bound to a task.
	SnapshotHash Hash
	// TaskFingerprint fingerprints a generated task for reproducibility audits:
	// identical (template, as-of, seed, snapshot) must reproduce it exactly.
	TaskFingerprint Hash
)

// Constructors
func NewSnapshotHash(data []byte) SnapshotHash       { return SnapshotHash(NewHash(data)) }
func NewTaskFingerprint(data []byte) TaskFingerprint { return TaskFingerprint(NewHash(data)) }

// String conversions
func (h SnapshotHash) String() string    { return Hash(h).String() }
func (h TaskFingerprint) String() string { return Hash(h).String() }

// ComputeSnapshotHash fingerprints a record set independent of fetch order.
func ComputeSnapshotHash(recordIDs []string, payloads map[string]string) SnapshotHash {
	ids := make([]string, len(recordIDs))
	copy(ids, recordIDs)
	sort.Strings(ids)

	var data strings.Builder
	for _, id := range ids {
		data.WriteString(id)
		data.WriteString(payloads[id])
	}
	return NewSnapshotHash([]byte(data.String()))
}

// ComputeTaskFingerprint combines the generation inputs and outputs into
// a single reproducibility fingerprint.
func ComputeTaskFingerprint(templateID string, asOf string, seed int64, prompt string, groundTruth string) TaskFingerprint {
	var data strings.Builder
	data.WriteString(templateID)
	data.WriteString(asOf)
	data.WriteString(fmt.Sprintf("%d", seed))
	data.WriteString(prompt)
	data.WriteString(groundTruth)
	return NewTaskFingerprint([]byte(data.String()))
}
