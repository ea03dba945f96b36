package hprewind

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/function61/gokit/assert"
	"github.com/function61/gokit/logex"
	"github.com/function61/hashprint/pkg/hpstate"
)

var (
	t0 = time.Date(2020, 3, 14, 15, 9, 26, 0, time.UTC)
	t1 = t0.Add(26 * time.Hour)
)

func TestFirstRunWritesBaseline(t *testing.T) {
	root := t.TempDir()

	writeFileWithMtime(t, filepath.Join(root, "a.txt"), "content a", t0)
	writeFileWithMtime(t, filepath.Join(root, "b.txt"), "content b", t0)

	summary, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	assert.Assert(t, summary.FilesHashed == 2)
	assert.Assert(t, summary.Rewound == 0)

	stored, err := hpstate.Load(root)
	assert.Ok(t, err)
	assert.Assert(t, len(stored.Entries) == 2)

	// baseline run never mutates mtimes
	assert.Assert(t, mtimeOf(t, filepath.Join(root, "a.txt")).Equal(t0))
}

func TestRewindOnTouchWithoutEdit(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")

	writeFileWithMtime(t, path, "same content", t0)

	_, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	// "touch": advance mtime without changing content
	assert.Ok(t, os.Chtimes(path, t1, t1))

	summary, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	assert.Assert(t, summary.Rewound == 1)
	assert.Assert(t, mtimeOf(t, path).Equal(t0))

	// new state records the rewound mtime, not the pre-rewind live one
	stored, err := hpstate.Load(root)
	assert.Ok(t, err)
	assert.Assert(t, stored.Entries[path].Mtime.Equal(t0))
}

func TestNoRewindOnGenuineEdit(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "b.txt")

	writeFileWithMtime(t, path, "first draft", t0)

	_, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	writeFileWithMtime(t, path, "second draft", t1)

	summary, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	assert.Assert(t, summary.Rewound == 0)
	assert.Assert(t, mtimeOf(t, path).Equal(t1))

	stored, err := hpstate.Load(root)
	assert.Ok(t, err)
	assert.Assert(t, stored.Entries[path].Mtime.Equal(t1))
}

func TestDryRunReportsWithoutTouchingAnything(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")

	writeFileWithMtime(t, path, "same content", t0)

	_, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	stateBefore, err := ioutil.ReadFile(hpstate.Location(root))
	assert.Ok(t, err)

	assert.Ok(t, os.Chtimes(path, t1, t1))

	summary, err := Reconcile(root, true, logex.Discard)
	assert.Ok(t, err)

	assert.Assert(t, summary.Rewound == 1)       // reported ..
	assert.Assert(t, mtimeOf(t, path).Equal(t1)) // .. but mtime not touched

	// .. and state not re-persisted
	assert.Assert(t, fileContentEquals(t, hpstate.Location(root), stateBefore))
}

func TestIdempotence(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")

	writeFileWithMtime(t, path, "stable", t0)

	_, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	first, err := hpstate.Load(root)
	assert.Ok(t, err)

	summary, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)
	assert.Assert(t, summary.Rewound == 0)

	second, err := hpstate.Load(root)
	assert.Ok(t, err)

	assert.Assert(t, len(second.Entries) == len(first.Entries))
	assert.Assert(t, second.Entries[path].Mtime.Equal(first.Entries[path].Mtime))
	assert.Assert(t, second.Entries[path].ContentEquals(first.Entries[path]))
	assert.Assert(t, mtimeOf(t, path).Equal(t0))
}

func TestDeletedFileCausesNoErrorAndDropsOut(t *testing.T) {
	root := t.TempDir()
	keep := filepath.Join(root, "keep.txt")
	goner := filepath.Join(root, "goner.txt")

	writeFileWithMtime(t, keep, "keep", t0)
	writeFileWithMtime(t, goner, "goner", t0)

	_, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)

	assert.Ok(t, os.Remove(goner))

	summary, err := Reconcile(root, false, logex.Discard)
	assert.Ok(t, err)
	assert.Assert(t, summary.Rewound == 0)

	stored, err := hpstate.Load(root)
	assert.Ok(t, err)

	assert.Assert(t, len(stored.Entries) == 1)

	_, found := stored.Entries[goner]
	assert.Assert(t, !found)
}

func writeFileWithMtime(t *testing.T, path string, content string, mtime time.Time) {
	t.Helper()

	assert.Ok(t, ioutil.WriteFile(path, []byte(content), 0755))
	assert.Ok(t, os.Chtimes(path, mtime, mtime))
}

func mtimeOf(t *testing.T, path string) time.Time {
	t.Helper()

	stat, err := os.Stat(path)
	assert.Ok(t, err)

	return stat.ModTime()
}

func fileContentEquals(t *testing.T, path string, expected []byte) bool {
	t.Helper()

	content, err := ioutil.ReadFile(path)
	assert.Ok(t, err)

	return bytes.Equal(content, expected)
}
