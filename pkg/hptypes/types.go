// Data types shared by the snapshot builder, state store and reconciler.
package hptypes

import (
	"bytes"
	"time"
)

// Entry records one file's content digest, and the modification time observed
// at the moment of hashing.
type Entry struct {
	Hash  []byte
	Mtime time.Time
}

func (e Entry) ContentEquals(other Entry) bool {
	return bytes.Equal(e.Hash, other.Hash)
}

// Snapshot is the recorded state of one root at one point in time: a mapping
// from absolute file path to Entry. The root directory itself is never an
// entry.
type Snapshot struct {
	Root    string
	Entries map[string]Entry
}

func NewSnapshot(root string) *Snapshot {
	return &Snapshot{
		Root:    root,
		Entries: map[string]Entry{},
	}
}

// Clone returns an independent copy, so merging corrected entries into a new
// snapshot is copy-and-extend instead of editing a snapshot a caller still
// holds.
func (s *Snapshot) Clone() *Snapshot {
	clone := NewSnapshot(s.Root)
	for path, entry := range s.Entries {
		clone.Entries[path] = entry
	}
	return clone
}
