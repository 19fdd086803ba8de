// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package refengine resolves, lists, and atomically updates Git references
// (branches, tags, HEAD) for a single repository, backed by a repofs.FS.
package refengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/antgroup/vaultgit/modules/plumbing"
	"github.com/antgroup/vaultgit/pkg/serve/blobstore"
	"github.com/antgroup/vaultgit/pkg/serve/repofs"
)

// Engine resolves and updates references for a repository rooted at fs.
type Engine struct {
	fs *repofs.FS
}

// New returns a ref engine operating on fs.
func New(fs *repofs.FS) *Engine {
	return &Engine{fs: fs}
}

// Resolve returns the oid a reference name points at, following HEAD's
// symbolic indirection when name is "HEAD".
func (e *Engine) Resolve(ctx context.Context, name string) (plumbing.Hash, error) {
	if name == string(plumbing.HEAD) {
		head, err := e.fs.ReadHead(ctx)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		head = strings.TrimSpace(head)
		if target, ok := strings.CutPrefix(head, "ref: "); ok {
			return e.Resolve(ctx, target)
		}
		return plumbing.NewHash(head), nil
	}
	hex, err := e.fs.ReadRef(ctx, name)
	if err != nil {
		if blobstore.IsNotExist(err) {
			return plumbing.ZeroHash, plumbing.ErrReferenceNotFound
		}
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(hex), nil
}

// ResolveHeadTarget returns the full reference name HEAD symbolically
// points at, e.g. "refs/heads/main".
func (e *Engine) ResolveHeadTarget(ctx context.Context) (string, error) {
	head, err := e.fs.ReadHead(ctx)
	if err != nil {
		return "", err
	}
	head = strings.TrimSpace(head)
	target, ok := strings.CutPrefix(head, "ref: ")
	if !ok {
		return "", fmt.Errorf("refengine: HEAD is not symbolic")
	}
	return target, nil
}

// List enumerates all refs/heads/* and refs/tags/* as plumbing.Reference
// values.
func (e *Engine) List(ctx context.Context) ([]*plumbing.Reference, error) {
	var out []*plumbing.Reference
	for _, prefix := range []string{"refs/heads", "refs/tags"} {
		names, err := e.fs.ListRefs(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			hex, err := e.fs.ReadRef(ctx, name)
			if err != nil {
				continue
			}
			out = append(out, plumbing.NewHashReference(plumbing.ReferenceName(name), plumbing.NewHash(hex)))
		}
	}
	return out, nil
}

// Update performs a compare-and-swap update of a single reference: it fails
// with ErrCAS if the current value does not match oldOID (plumbing.ZeroHash
// for "must not already exist" on create, or the expected current value
// otherwise). Passing plumbing.ZeroHash as newOID deletes the reference.
func (e *Engine) Update(ctx context.Context, name string, oldOID, newOID plumbing.Hash) error {
	current, err := e.currentOrZero(ctx, name)
	if err != nil {
		return err
	}
	if current != oldOID {
		return &ErrCAS{Reference: name, Expected: oldOID, Actual: current}
	}
	if newOID.IsZero() {
		return e.fs.DeleteRef(ctx, name)
	}
	return e.fs.WriteRef(ctx, name, newOID.String())
}

func (e *Engine) currentOrZero(ctx context.Context, name string) (plumbing.Hash, error) {
	hex, err := e.fs.ReadRef(ctx, name)
	if err != nil {
		if blobstore.IsNotExist(err) {
			return plumbing.ZeroHash, nil
		}
		return plumbing.ZeroHash, err
	}
	return plumbing.NewHash(hex), nil
}

// ErrCAS reports that a reference update's expected old value did not match
// the reference's actual current value — a concurrent update won the race.
type ErrCAS struct {
	Reference string
	Expected  plumbing.Hash
	Actual    plumbing.Hash
}

func (e *ErrCAS) Error() string {
	return fmt.Sprintf("refengine: %s: expected %s, got %s", e.Reference, e.Expected, e.Actual)
}
