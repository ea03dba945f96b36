// Persists snapshots to a fixed hidden state file directly inside the root,
// so recorded state is scoped per root and travels with the tree.
package hpstate

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/asdine/storm/codec/msgpack"
	"github.com/function61/hashprint/pkg/hptypes"
)

const (
	Filename = ".hashprint"

	// bumped when the encoding changes. old state files then fail fast
	// instead of being migrated.
	schemaVersion = 1
)

var (
	// first-run signal, not a failure. callers branch on this with errors.Is()
	ErrNotFound = errors.New("state file not found")

	// guards against trusting a state file copied over from a different directory
	ErrRootMismatch = errors.New("state file belongs to a different root")
)

type stateFile struct {
	SchemaVersion int
	Snapshot      *hptypes.Snapshot
}

func Location(root string) string {
	return filepath.Join(root, Filename)
}

func Load(root string) (*hptypes.Snapshot, error) {
	content, err := ioutil.ReadFile(Location(root))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}

		return nil, err
	}

	state := &stateFile{}
	if err := msgpack.Codec.Unmarshal(content, state); err != nil {
		return nil, fmt.Errorf("state deserialize: %v", err)
	}

	if state.SchemaVersion != schemaVersion {
		return nil, fmt.Errorf("state deserialize: unsupported schema version %d", state.SchemaVersion)
	}

	if state.Snapshot == nil {
		return nil, errors.New("state deserialize: empty envelope")
	}

	if state.Snapshot.Entries == nil {
		state.Snapshot.Entries = map[string]hptypes.Entry{}
	}

	if state.Snapshot.Root != root {
		return nil, fmt.Errorf("%w: %s (stored) vs %s (requested)", ErrRootMismatch, state.Snapshot.Root, root)
	}

	return state.Snapshot, nil
}

// Save overwrites the state file in place. intentionally not atomic - there
// is no transactional guarantee between mtime rewinds and state persistence
// anyway (see Reconcile).
func Save(snapshot *hptypes.Snapshot) error {
	content, err := msgpack.Codec.Marshal(&stateFile{
		SchemaVersion: schemaVersion,
		Snapshot:      snapshot,
	})
	if err != nil {
		return err
	}

	return ioutil.WriteFile(Location(snapshot.Root), content, 0600)
}
