// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package uploadpack implements git-upload-pack: given the set of commits
// the client wants and already has, it walks the reachable object graph
// and serializes everything the client is missing into a packfile.
package uploadpack

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/antgroup/vaultgit/modules/git/gitobj"
	"github.com/antgroup/vaultgit/modules/git/gitobj/pack"
	"github.com/antgroup/vaultgit/modules/plumbing/format/pktline"
	"github.com/antgroup/vaultgit/pkg/serve/packfile"
)

// ParseWantsAndHaves reads the client's "want"/"have" command list up to
// the flush that precedes "done".
func ParseWantsAndHaves(r io.Reader) (wants, haves []string, err error) {
	scanner := pktline.NewScanner(r)
	for scanner.Scan() {
		if scanner.IsFlush() {
			continue
		}
		line := strings.TrimRight(string(scanner.Bytes()), "\n")
		if line == "done" {
			break
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "want":
			wants = append(wants, fields[1])
		case "have":
			haves = append(haves, fields[1])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return wants, haves, nil
}

// Pack walks every object reachable from wants, excluding anything
// reachable from haves, and serializes the result as a packfile to w,
// preceded by the conventional "NAK\n" pkt-line and wrapped in the
// side-band-less ack/nak negotiation response.
func Pack(w io.Writer, db *gitobj.Database, wants, haves []string) error {
	enc := pktline.NewEncoder(w)
	if err := enc.EncodeString("NAK\n"); err != nil {
		return err
	}

	exclude := make(map[string]bool)
	for _, h := range haves {
		oid, err := hex.DecodeString(h)
		if err != nil {
			continue
		}
		if err := walk(db, oid, exclude); err != nil {
			return fmt.Errorf("uploadpack: walk have %s: %w", h, err)
		}
	}

	include := make(map[string][]byte)
	for _, want := range wants {
		oid, err := hex.DecodeString(want)
		if err != nil {
			return fmt.Errorf("uploadpack: bad want %q", want)
		}
		if err := walk(db, oid, include); err != nil {
			return fmt.Errorf("uploadpack: walk want %s: %w", want, err)
		}
	}
	for k := range exclude {
		delete(include, k)
	}

	entries := make([]*packfile.Entry, 0, len(include))
	for _, oid := range include {
		obj, err := db.Object(oid)
		if err != nil {
			return fmt.Errorf("uploadpack: read %x: %w", oid, err)
		}
		var buf bytes.Buffer
		if _, err := obj.Encode(&buf); err != nil {
			return err
		}
		entries = append(entries, &packfile.Entry{Type: packedType(obj.Type()), Data: buf.Bytes()})
	}

	return packfile.Encode(w, entries)
}

func packedType(t gitobj.ObjectType) pack.PackedObjectType {
	switch t {
	case gitobj.CommitObjectType:
		return pack.TypeCommit
	case gitobj.TreeObjectType:
		return pack.TypeTree
	case gitobj.TagObjectType:
		return pack.TypeTag
	default:
		return pack.TypeBlob
	}
}

// walk records every commit, tree, and blob reachable from start (oid hex
// -> raw oid) into seen, stopping at objects already present in seen so
// that exclusion sets and inclusion sets can both be built by calling walk
// repeatedly into the same map.
func walk(db *gitobj.Database, start []byte, seen map[string][]byte) error {
	key := hex.EncodeToString(start)
	if _, ok := seen[key]; ok {
		return nil
	}
	commit, err := db.Commit(start)
	if err != nil {
		return err
	}
	seen[key] = start
	if err := walkTree(db, commit.TreeID, seen); err != nil {
		return err
	}
	for _, p := range commit.ParentIDs {
		if err := walk(db, p, seen); err != nil {
			return err
		}
	}
	return nil
}

func walkTree(db *gitobj.Database, oid []byte, seen map[string][]byte) error {
	key := hex.EncodeToString(oid)
	if _, ok := seen[key]; ok {
		return nil
	}
	t, err := db.Tree(oid)
	if err != nil {
		return err
	}
	seen[key] = oid
	for _, e := range t.Entries {
		ekey := hex.EncodeToString(e.Oid)
		if _, ok := seen[ekey]; ok {
			continue
		}
		if e.Mode.ToOSFileMode().IsDir() {
			if err := walkTree(db, e.Oid, seen); err != nil {
				return err
			}
			continue
		}
		seen[ekey] = e.Oid
	}
	return nil
}

// AdvertiseRefs writes the pkt-line service-advertisement header used by
// the GET /info/refs?service=git-upload-pack|git-receive-pack response.
func AdvertiseRefs(w io.Writer, service string, refs map[string]string, capabilities string) error {
	enc := pktline.NewEncoder(w)
	if err := enc.EncodeString(fmt.Sprintf("# service=%s\n", service)); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	first := true
	if len(refs) == 0 {
		line := fmt.Sprintf("%s capabilities^{}\x00%s\n", strings.Repeat("0", 40), capabilities)
		if err := enc.EncodeString(line); err != nil {
			return err
		}
		return enc.Flush()
	}
	for name, oid := range refs {
		line := oid + " " + name
		if first {
			line += "\x00" + capabilities
			first = false
		}
		line += "\n"
		if err := enc.EncodeString(line); err != nil {
			return err
		}
	}
	return enc.Flush()
}
