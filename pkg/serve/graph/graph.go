// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package graph walks commit ancestry and computes tree diffs against a
// gitobj.Database: merge-base discovery, "is ancestor" checks (used to
// enforce PreventForcePush), and path-level tree comparison for the merge
// engine.
package graph

import (
	"encoding/hex"
	"fmt"
	"path"

	"github.com/antgroup/vaultgit/modules/git/gitobj"
	"github.com/antgroup/vaultgit/modules/plumbing/filemode"
)

// Walk returns every commit reachable from start, nearest first, by
// following all parent edges (a full ancestry set, not a linear history).
func Walk(db *gitobj.Database, start []byte) (map[string]*gitobj.Commit, error) {
	seen := make(map[string]*gitobj.Commit)
	queue := [][]byte{start}
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		key := hex.EncodeToString(oid)
		if _, ok := seen[key]; ok {
			continue
		}
		c, err := db.Commit(oid)
		if err != nil {
			return nil, fmt.Errorf("graph: commit %s: %w", key, err)
		}
		seen[key] = c
		queue = append(queue, c.ParentIDs...)
	}
	return seen, nil
}

// IsAncestor reports whether ancestor is reachable from descendant by
// following parent edges — used to check that a force-protected branch's
// new tip still contains its old tip in its history.
func IsAncestor(db *gitobj.Database, ancestor, descendant []byte) (bool, error) {
	if hex.EncodeToString(ancestor) == hex.EncodeToString(descendant) {
		return true, nil
	}
	reachable, err := Walk(db, descendant)
	if err != nil {
		return false, err
	}
	_, ok := reachable[hex.EncodeToString(ancestor)]
	return ok, nil
}

// MergeBase returns the best common ancestor of a and b: the nearest commit
// reachable from both, found by intersecting their full ancestry sets. When
// several common ancestors exist at the same depth, any one may be
// returned — SPEC_FULL.md's merge semantics only require *a* valid base,
// not the unique lowest one Git itself would pick among several candidates.
func MergeBase(db *gitobj.Database, a, b []byte) ([]byte, error) {
	ancestorsA, err := Walk(db, a)
	if err != nil {
		return nil, err
	}
	ancestorsB, err := Walk(db, b)
	if err != nil {
		return nil, err
	}

	bestDepth := -1
	var best []byte
	depth, err := depths(db, a)
	if err != nil {
		return nil, err
	}
	for key := range ancestorsA {
		if _, ok := ancestorsB[key]; !ok {
			continue
		}
		d := depth[key]
		if d > bestDepth {
			bestDepth = d
			oidBytes, _ := hex.DecodeString(key)
			best = oidBytes
		}
	}
	if best == nil {
		return nil, fmt.Errorf("graph: no common ancestor")
	}
	return best, nil
}

// depths computes each ancestor's distance (in parent hops) from start, so
// MergeBase can prefer the nearest common ancestor among several.
func depths(db *gitobj.Database, start []byte) (map[string]int, error) {
	dist := map[string]int{hex.EncodeToString(start): 0}
	queue := [][]byte{start}
	for len(queue) > 0 {
		oid := queue[0]
		queue = queue[1:]
		key := hex.EncodeToString(oid)
		d := dist[key]
		c, err := db.Commit(oid)
		if err != nil {
			return nil, err
		}
		for _, p := range c.ParentIDs {
			pk := hex.EncodeToString(p)
			if existing, ok := dist[pk]; !ok || d+1 < existing {
				dist[pk] = d + 1
				queue = append(queue, p)
			}
		}
	}
	return dist, nil
}

// DiffEntry describes one changed path between two trees.
type DiffEntry struct {
	Path   string
	OldOID []byte
	NewOID []byte
	Status string // "added", "removed", "modified"
}

// DiffTrees walks two commit trees recursively and reports every path whose
// blob oid differs, whose mode differs, or that exists on only one side.
func DiffTrees(db *gitobj.Database, oldTreeOID, newTreeOID []byte) ([]*DiffEntry, error) {
	var out []*DiffEntry
	if err := diffTreesRec(db, "", oldTreeOID, newTreeOID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func diffTreesRec(db *gitobj.Database, prefix string, oldOID, newOID []byte, out *[]*DiffEntry) error {
	oldEntries, err := treeEntries(db, oldOID)
	if err != nil {
		return err
	}
	newEntries, err := treeEntries(db, newOID)
	if err != nil {
		return err
	}

	names := make(map[string]bool)
	for name := range oldEntries {
		names[name] = true
	}
	for name := range newEntries {
		names[name] = true
	}

	for name := range names {
		oe, oldOK := oldEntries[name]
		ne, newOK := newEntries[name]
		p := path.Join(prefix, name)

		switch {
		case oldOK && !newOK:
			*out = append(*out, &DiffEntry{Path: p, OldOID: oe.Oid, Status: "removed"})
		case !oldOK && newOK:
			if ne.Mode == filemode.Dir {
				if err := diffTreesRec(db, p, nil, ne.Oid, out); err != nil {
					return err
				}
				continue
			}
			*out = append(*out, &DiffEntry{Path: p, NewOID: ne.Oid, Status: "added"})
		case oe.Mode == filemode.Dir && ne.Mode == filemode.Dir:
			if hex.EncodeToString(oe.Oid) != hex.EncodeToString(ne.Oid) {
				if err := diffTreesRec(db, p, oe.Oid, ne.Oid, out); err != nil {
					return err
				}
			}
		case (oe.Mode == filemode.Dir) != (ne.Mode == filemode.Dir):
			*out = append(*out, &DiffEntry{Path: p, OldOID: oe.Oid, NewOID: ne.Oid, Status: "modified"})
		default:
			if hex.EncodeToString(oe.Oid) != hex.EncodeToString(ne.Oid) || oe.Mode != ne.Mode {
				*out = append(*out, &DiffEntry{Path: p, OldOID: oe.Oid, NewOID: ne.Oid, Status: "modified"})
			}
		}
	}
	return nil
}

func treeEntries(db *gitobj.Database, oid []byte) (map[string]*gitobj.TreeEntry, error) {
	out := make(map[string]*gitobj.TreeEntry)
	if oid == nil {
		return out, nil
	}
	t, err := db.Tree(oid)
	if err != nil {
		return nil, err
	}
	for _, e := range t.Entries {
		out[e.Name] = e
	}
	return out, nil
}
