// Finds files whose mtime advanced since the previous run without a content
// change, and rewinds their mtime back to the recorded value. Useful when
// checkouts, container builds etc. bump mtimes spuriously and cause
// unnecessary rebuilds.
package hprewind

import (
	"errors"
	"log"
	"os"
	"sort"
	"time"

	"github.com/function61/gokit/logex"
	"github.com/function61/hashprint/pkg/hpscan"
	"github.com/function61/hashprint/pkg/hpstate"
	"github.com/function61/hashprint/pkg/hptypes"
	"github.com/samber/lo"
)

type Summary struct {
	FilesHashed int
	Rewound     int // with dryRun, the count that would have been rewound
}

// Reconcile compares a fresh scan of root against the stored snapshot and
// rewinds the mtime of every file whose mtime advanced while its content hash
// stayed the same. Runs sequentially and aborts on the first error; an abort
// after some rewinds were already applied leaves those in place and the state
// file unpersisted for this run.
func Reconcile(root string, dryRun bool, logger *log.Logger) (*Summary, error) {
	logger = logex.NonNil(logger)
	logl := logex.Levels(logger)

	live, err := hpscan.Compute(root, logex.Prefix("scan", logger))
	if err != nil {
		return nil, err
	}

	stored, err := hpstate.Load(root)
	if err != nil {
		if errors.Is(err, hpstate.ErrNotFound) { // first run for this root
			logl.Info.Println("no previous state - writing baseline")

			if err := hpstate.Save(live); err != nil {
				return nil, err
			}

			return &Summary{FilesHashed: len(live.Entries)}, nil
		}

		return nil, err
	}

	rewound := map[string]hptypes.Entry{}

	paths := lo.Keys(stored.Entries)
	sort.Strings(paths)

	for _, path := range paths {
		storedEntry := stored.Entries[path]

		liveEntry, stillExists := live.Entries[path]
		if !stillExists { // deleted since previous run - nothing to do
			continue
		}

		logl.Debug.Printf(
			"%s: mtime %s (live) vs %s (stored)",
			path,
			liveEntry.Mtime.Format(time.RFC3339Nano),
			storedEntry.Mtime.Format(time.RFC3339Nano))

		if !liveEntry.Mtime.After(storedEntry.Mtime) { // equal counts as unchanged
			continue
		}

		if !liveEntry.ContentEquals(storedEntry) { // legitimate mtime advance
			logl.Info.Printf("%s was actually modified", path)
			continue
		}

		logl.Info.Printf(
			"rewinding %s from %s to %s as its content did not change",
			path,
			liveEntry.Mtime.Format(time.RFC3339Nano),
			storedEntry.Mtime.Format(time.RFC3339Nano))

		if dryRun {
			logl.Info.Println("dry run - not applying")
		} else {
			if err := os.Chtimes(path, time.Now(), storedEntry.Mtime); err != nil {
				return nil, err
			}
		}

		rewound[path] = storedEntry
	}

	logl.Info.Printf("%d file(s) rewound", len(rewound))

	// new state = live snapshot, with rewound files carrying the mtime they
	// were rewound to (not the pre-rewind one the scan observed)
	merged := live.Clone()
	for path, entry := range rewound {
		merged.Entries[path] = entry
	}

	if !dryRun {
		logl.Info.Println("saving new state")

		if err := hpstate.Save(merged); err != nil {
			return nil, err
		}
	}

	return &Summary{
		FilesHashed: len(live.Entries),
		Rewound:     len(rewound),
	}, nil
}
