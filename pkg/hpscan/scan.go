// Walks a directory tree and hashes every regular file's content, producing
// the snapshot that the reconciler compares against stored state.
package hpscan

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/djherbis/times"
	"github.com/function61/gokit/fileexists"
	"github.com/function61/gokit/logex"
	"github.com/function61/hashprint/pkg/hptypes"
	"github.com/minio/sha256-simd"
)

// directories carrying this marker file have opted out of scanning/backup:
// https://bford.info/cachedir/ (existence check only - content is not inspected)
const CacheMarkerFilename = "CACHEDIR.TAG"

// Compute scans the tree under root and returns a snapshot with one entry per
// regular file found. Hidden entries are skipped, and hidden or cache-marked
// directories are pruned as whole subtrees. Any open/read/stat failure aborts
// the whole scan - a snapshot is never partial.
func Compute(root string, logger *log.Logger) (*hptypes.Snapshot, error) {
	logl := logex.Levels(logex.NonNil(logger))

	logl.Info.Println("computing hashes ...")

	snapshot := hptypes.NewSnapshot(root)

	if err := filepath.Walk(root, func(path string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err // stop if encountering Walk() errors
		}

		if path == root { // the root itself is never an entry
			return nil
		}

		// hidden entries (this also keeps our own state file out of snapshots)
		if strings.HasPrefix(fileInfo.Name(), ".") {
			if fileInfo.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if fileInfo.IsDir() {
			cacheMarked, err := fileexists.Exists(filepath.Join(path, CacheMarkerFilename))
			if err != nil {
				return err
			}

			if cacheMarked { // e.g. cargo's target dirs
				return filepath.SkipDir
			}

			return nil
		}

		if !fileInfo.Mode().IsRegular() { // sockets, devices, symlinks etc.
			return nil
		}

		entry, err := scanFile(path, fileInfo)
		if err != nil {
			return err
		}

		snapshot.Entries[path] = *entry

		return nil
	}); err != nil {
		return nil, err
	}

	logl.Info.Printf("computed hashes for %d file(s)", len(snapshot.Entries))

	return snapshot, nil
}

func scanFile(path string, fileInfo os.FileInfo) (*hptypes.Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contentHash := sha256.New()
	if _, err := io.Copy(contentHash, file); err != nil {
		return nil, err
	}

	return &hptypes.Entry{
		Hash:  contentHash.Sum(nil),
		Mtime: times.Get(fileInfo).ModTime(),
	}, nil
}
