// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package receive implements git-receive-pack: parsing the client's
// pkt-line command list, enforcing branch protection ahead of and after
// unpacking the pushed objects, storing the packfile's objects, updating
// refs, and reporting per-command status back to the client.
package receive

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/antgroup/vaultgit/modules/git/gitobj"
	"github.com/antgroup/vaultgit/modules/plumbing"
	"github.com/antgroup/vaultgit/modules/plumbing/format/pktline"
	"github.com/antgroup/vaultgit/pkg/serve/graph"
	"github.com/antgroup/vaultgit/pkg/serve/packfile"
	"github.com/antgroup/vaultgit/pkg/serve/refengine"
)

// Command is one ref update line from the client's command list:
// "<old-oid> <new-oid> <ref-name>".
type Command struct {
	OldOID plumbing.Hash
	NewOID plumbing.Hash
	Name   string
}

// CommandResult is the per-ref outcome reported back in the report-status
// pkt-lines.
type CommandResult struct {
	Name string
	Err  error
}

// ParseCommands reads the client's command list (and, if present, the
// client capability line attached to the first command) up to the flush
// that precedes the packfile.
func ParseCommands(r io.Reader) ([]*Command, error) {
	scanner := pktline.NewScanner(r)
	var cmds []*Command
	first := true
	for scanner.Scan() {
		if scanner.IsFlush() {
			break
		}
		line := string(scanner.Bytes())
		if first {
			if idx := strings.IndexByte(line, 0); idx >= 0 {
				line = line[:idx]
			}
			first = false
		}
		line = strings.TrimRight(line, "\n")
		fields := strings.SplitN(line, " ", 3)
		if len(fields) != 3 {
			return nil, fmt.Errorf("receive: malformed command line %q", line)
		}
		cmds = append(cmds, &Command{
			OldOID: plumbing.NewHash(fields[0]),
			NewOID: plumbing.NewHash(fields[1]),
			Name:   fields[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cmds, nil
}

// Protection is the subset of database.Branch's protection rules the
// receive-pack orchestration must enforce, looked up per ref.
type Protection struct {
	PreventDeletion   bool
	PreventDirectPush bool
	PreventForcePush  bool
}

// ProtectionLookup returns the protection rules in force for a branch ref
// name (e.g. "refs/heads/main"), or zero-value Protection if the ref is not
// a protected branch.
type ProtectionLookup func(ctx context.Context, refName string) (Protection, error)

// Process runs the full receive-pack sequence: parse commands, gate
// deletions/direct-pushes, unpack the packfile into db, gate force-pushes
// post-unpack, then apply ref updates via engine. It never partially
// applies a push that fails validation for any one ref — that ref is
// simply rejected while unrelated refs in the same push still succeed,
// matching real git-receive-pack's per-ref semantics.
func Process(ctx context.Context, r io.Reader, db *gitobj.Database, engine *refengine.Engine, lookup ProtectionLookup, mergeCommit bool) ([]*CommandResult, error) {
	br := bufio.NewReader(r)
	cmds, err := ParseCommands(br)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, nil
	}

	needsPack := false
	for _, c := range cmds {
		if !c.NewOID.IsZero() {
			needsPack = true
		}
	}
	if needsPack {
		objs, err := packfile.Unpack(br, nil)
		if err != nil {
			return nil, fmt.Errorf("receive: unpack: %w", err)
		}
		if err := packfile.Store(db, objs); err != nil {
			return nil, fmt.Errorf("receive: store: %w", err)
		}
	}

	results := make([]*CommandResult, 0, len(cmds))
	for _, cmd := range cmds {
		results = append(results, apply(ctx, db, engine, lookup, cmd, mergeCommit))
	}
	return results, nil
}

func apply(ctx context.Context, db *gitobj.Database, engine *refengine.Engine, lookup ProtectionLookup, cmd *Command, mergeCommit bool) *CommandResult {
	res := &CommandResult{Name: cmd.Name}

	prot, err := lookup(ctx, cmd.Name)
	if err != nil {
		res.Err = err
		return res
	}

	deleting := cmd.NewOID.IsZero()
	if deleting && prot.PreventDeletion {
		res.Err = fmt.Errorf("receive: %s: deletion is protected", cmd.Name)
		return res
	}
	if !deleting && !cmd.OldOID.IsZero() && prot.PreventDirectPush && !mergeCommit {
		res.Err = fmt.Errorf("receive: %s: direct push is protected", cmd.Name)
		return res
	}

	if !deleting && !cmd.OldOID.IsZero() && prot.PreventForcePush {
		ok, err := graph.IsAncestor(db, cmd.OldOID[:], cmd.NewOID[:])
		if err != nil {
			res.Err = fmt.Errorf("receive: %s: ancestry check: %w", cmd.Name, err)
			return res
		}
		if !ok {
			res.Err = fmt.Errorf("receive: %s: force push is protected", cmd.Name)
			return res
		}
	}

	if err := engine.Update(ctx, cmd.Name, cmd.OldOID, cmd.NewOID); err != nil {
		res.Err = err
	}
	return res
}

// WriteReportStatus writes the report-status side-band-less response
// git-receive-pack's protocol expects: "unpack ok", then one "ok <ref>" or
// "ng <ref> <reason>" line per command, terminated by a flush.
func WriteReportStatus(w io.Writer, results []*CommandResult) error {
	enc := pktline.NewEncoder(w)
	if err := enc.EncodeString("unpack ok\n"); err != nil {
		return err
	}
	for _, r := range results {
		if r.Err == nil {
			if err := enc.EncodeString(fmt.Sprintf("ok %s\n", r.Name)); err != nil {
				return err
			}
			continue
		}
		if err := enc.EncodeString(fmt.Sprintf("ng %s %s\n", r.Name, r.Err)); err != nil {
			return err
		}
	}
	return enc.Flush()
}
