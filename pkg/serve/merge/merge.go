// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package merge builds merge commits: a PR-merge that takes the head
// branch's tree as-is (a fast-forward-style merge commit with two parents),
// and an update-branch merge that synthesizes a genuine three-way merged
// tree, detecting path-level conflicts with modules/diff3.
package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/antgroup/vaultgit/modules/diff3"
	"github.com/antgroup/vaultgit/modules/git/gitobj"
	"github.com/antgroup/vaultgit/modules/plumbing/filemode"
	"github.com/antgroup/vaultgit/pkg/serve/graph"
)

// Conflict describes one path that could not be merged automatically.
type Conflict struct {
	Path   string
	Reason string
}

// Result is the outcome of a three-way update-branch merge.
type Result struct {
	TreeOID   []byte
	Conflicts []Conflict
}

// PRMerge creates a merge commit whose tree is exactly the head branch's
// tree (SPEC_FULL.md §4.G's "PR merge" path: no new conflicts can be
// introduced because nothing is actually merged at the tree level, only at
// the commit-graph level).
func PRMerge(db *gitobj.Database, baseOID, headOID []byte, author, committer, message string) ([]byte, error) {
	head, err := db.Commit(headOID)
	if err != nil {
		return nil, fmt.Errorf("merge: head commit: %w", err)
	}
	commit := &gitobj.Commit{
		TreeID:    head.TreeID,
		ParentIDs: [][]byte{baseOID, headOID},
		Author:    author,
		Committer: committer,
		Message:   message,
	}
	return db.WriteCommit(commit)
}

// UpdateBranchMerge synthesizes a real three-way merge of headOID into
// baseOID against their merge-base, returning the new tree and any
// path-level conflicts. A non-empty Conflicts means the merge commit was
// not created; the caller must not write it.
func UpdateBranchMerge(ctx context.Context, db *gitobj.Database, baseOID, headOID []byte) (*Result, error) {
	baseCommit, err := db.Commit(baseOID)
	if err != nil {
		return nil, fmt.Errorf("merge: base commit: %w", err)
	}
	headCommit, err := db.Commit(headOID)
	if err != nil {
		return nil, fmt.Errorf("merge: head commit: %w", err)
	}

	mergeBase, err := graph.MergeBase(db, baseOID, headOID)
	if err != nil {
		return nil, fmt.Errorf("merge: merge-base: %w", err)
	}
	baseCommitAtMB, err := db.Commit(mergeBase)
	if err != nil {
		return nil, fmt.Errorf("merge: merge-base commit: %w", err)
	}

	oursDiff, err := graph.DiffTrees(db, baseCommitAtMB.TreeID, baseCommit.TreeID)
	if err != nil {
		return nil, err
	}
	theirsDiff, err := graph.DiffTrees(db, baseCommitAtMB.TreeID, headCommit.TreeID)
	if err != nil {
		return nil, err
	}

	oursByPath := indexByPath(oursDiff)
	theirsByPath := indexByPath(theirsDiff)

	changed := make(map[string]bool)
	for p := range oursByPath {
		changed[p] = true
	}
	for p := range theirsByPath {
		changed[p] = true
	}

	var conflicts []Conflict
	resolved := make(map[string][]byte) // path -> new blob oid, nil means deleted

	for p := range changed {
		ours, oursChanged := oursByPath[p]
		theirs, theirsChanged := theirsByPath[p]

		switch {
		case oursChanged && !theirsChanged:
			resolved[p] = ours.NewOID
		case !oursChanged && theirsChanged:
			resolved[p] = theirs.NewOID
		case sameOID(ours.NewOID, theirs.NewOID):
			resolved[p] = ours.NewOID
		case ours.Status == "removed" && theirs.Status == "removed":
			resolved[p] = nil
		default:
			merged, conflict, err := mergeBlob(ctx, db, p, ours, theirs)
			if err != nil {
				return nil, err
			}
			if conflict != nil {
				conflicts = append(conflicts, *conflict)
				continue
			}
			resolved[p] = merged
		}
	}

	if len(conflicts) > 0 {
		return &Result{Conflicts: conflicts}, nil
	}

	newTree, err := applyToTree(db, baseCommit.TreeID, resolved)
	if err != nil {
		return nil, err
	}
	return &Result{TreeOID: newTree}, nil
}

func sameOID(a, b []byte) bool {
	return a != nil && b != nil && bytes.Equal(a, b)
}

func indexByPath(entries []*graph.DiffEntry) map[string]*graph.DiffEntry {
	out := make(map[string]*graph.DiffEntry, len(entries))
	for _, e := range entries {
		out[e.Path] = e
	}
	return out
}

// mergeBlob three-way-merges a single text blob's content. Binary blobs (or
// blobs where either side was deleted while the other modified) are
// reported as conflicts rather than guessed at.
func mergeBlob(ctx context.Context, db *gitobj.Database, p string, ours, theirs *graph.DiffEntry) ([]byte, *Conflict, error) {
	if ours.Status == "removed" || theirs.Status == "removed" {
		return nil, &Conflict{Path: p, Reason: "modify/delete conflict"}, nil
	}

	baseText, err := blobText(db, ours.OldOID)
	if err != nil {
		return nil, &Conflict{Path: p, Reason: "binary or unreadable blob"}, nil
	}
	oursText, err := blobText(db, ours.NewOID)
	if err != nil {
		return nil, &Conflict{Path: p, Reason: "binary or unreadable blob"}, nil
	}
	theirsText, err := blobText(db, theirs.NewOID)
	if err != nil {
		return nil, &Conflict{Path: p, Reason: "binary or unreadable blob"}, nil
	}

	merged, hasConflict, err := diff3.SimpleMerge(ctx, baseText, oursText, theirsText, "base", "ours", "theirs")
	if err != nil {
		return nil, nil, fmt.Errorf("merge: %s: %w", p, err)
	}
	if hasConflict {
		return nil, &Conflict{Path: p, Reason: "content conflict"}, nil
	}

	blob := &gitobj.Blob{Contents: bytes.NewReader([]byte(merged)), Size: int64(len(merged))}
	oid, err := db.WriteBlob(blob)
	if err != nil {
		return nil, nil, err
	}
	return oid, nil, nil
}

func blobText(db *gitobj.Database, oid []byte) (string, error) {
	b, err := db.Blob(oid)
	if err != nil {
		return "", err
	}
	defer b.Close()
	data, err := io.ReadAll(b.Contents)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// applyToTree rebuilds baseTreeOID's tree with the given path -> blob-oid
// changes applied (nil value deletes the path), writing every touched
// subtree back through db.
func applyToTree(db *gitobj.Database, baseTreeOID []byte, changes map[string][]byte) ([]byte, error) {
	byTop := make(map[string]map[string][]byte)
	var rootChanges = make(map[string][]byte)
	for p, oid := range changes {
		dir, file := path.Split(p)
		if dir == "" {
			rootChanges[file] = oid
			continue
		}
		top := dir[:len(dir)-1]
		var sub, rest string
		if idx := indexByte(top, '/'); idx >= 0 {
			sub, rest = top[:idx], top[idx+1:]
		} else {
			sub, rest = top, ""
		}
		if byTop[sub] == nil {
			byTop[sub] = make(map[string][]byte)
		}
		if rest == "" {
			byTop[sub][file] = oid
		} else {
			byTop[sub][path.Join(rest, file)] = oid
		}
	}

	t, err := loadTree(db, baseTreeOID)
	if err != nil {
		return nil, err
	}

	for name, oid := range rootChanges {
		if oid == nil {
			t.removeEntry(name)
			continue
		}
		t.setEntry(name, filemode.Regular, oid)
	}

	for sub, subChanges := range byTop {
		existing := t.entryOID(sub)
		newSubOID, err := applyToTree(db, existing, subChanges)
		if err != nil {
			return nil, err
		}
		t.setEntry(sub, filemode.Dir, newSubOID)
	}

	return t.write(db)
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// mutableTree is a writable view over a gitobj.Tree's entries, keyed by
// name for O(1) set/remove before re-encoding and re-sorting on write.
type mutableTree struct {
	entries map[string]*gitobj.TreeEntry
}

func loadTree(db *gitobj.Database, oid []byte) (*mutableTree, error) {
	mt := &mutableTree{entries: make(map[string]*gitobj.TreeEntry)}
	if oid == nil {
		return mt, nil
	}
	t, err := db.Tree(oid)
	if err != nil {
		return nil, err
	}
	for _, e := range t.Entries {
		mt.entries[e.Name] = e
	}
	return mt, nil
}

func (t *mutableTree) setEntry(name string, mode filemode.FileMode, oid []byte) {
	t.entries[name] = &gitobj.TreeEntry{Name: name, Mode: mode, Oid: oid}
}

func (t *mutableTree) removeEntry(name string) {
	delete(t.entries, name)
}

func (t *mutableTree) entryOID(name string) []byte {
	if e, ok := t.entries[name]; ok {
		return e.Oid
	}
	return nil
}

func (t *mutableTree) write(db *gitobj.Database) ([]byte, error) {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	tree := &gitobj.Tree{Entries: make([]*gitobj.TreeEntry, 0, len(names))}
	for _, name := range names {
		tree.Entries = append(tree.Entries, t.entries[name])
	}
	gitobj.SortEntries(tree.Entries)
	return db.WriteTree(tree)
}

// Signature formats an author/committer line the way gitobj.Commit expects
// it: "Name <email> unixSeconds +HHMM".
func Signature(name, email string, when time.Time) string {
	return fmt.Sprintf("%s <%s> %d %s", name, email, when.Unix(), when.Format("-0700"))
}
