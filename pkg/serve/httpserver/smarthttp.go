// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/antgroup/vaultgit/modules/git/gitobj"
	"github.com/antgroup/vaultgit/modules/plumbing"
	"github.com/antgroup/vaultgit/pkg/serve/database"
	"github.com/antgroup/vaultgit/pkg/serve/protocol"
	"github.com/antgroup/vaultgit/pkg/serve/receive"
	"github.com/antgroup/vaultgit/pkg/serve/refengine"
	"github.com/antgroup/vaultgit/pkg/serve/uploadpack"
	"github.com/sirupsen/logrus"
)

const (
	uploadPackService  = "git-upload-pack"
	receivePackService = "git-receive-pack"
	gitPackContentType = "application/x-%s-result"
)

// InfoRefsHandler serves GET .../info/refs?service=git-upload-pack|git-receive-pack,
// the first request any Smart HTTP client makes. The requested service
// decides which access level (download or upload) the caller must hold.
func (s *Server) InfoRefsHandler(w http.ResponseWriter, req *http.Request) {
	service := req.URL.Query().Get("service")
	var operation protocol.Operation
	switch service {
	case uploadPackService:
		operation = protocol.DOWNLOAD
	case receivePackService:
		operation = protocol.UPLOAD
	default:
		renderFailureFormat(w, req, http.StatusBadRequest, "unsupported service %q", service)
		return
	}
	r, err := s.doAuth(w, req, operation)
	if err != nil {
		return
	}

	fs := s.repoFS(r)
	db, err := gitobj.Open(s.cachedBackend(req.Context(), fs), "")
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	defer db.Close()

	engine := refengine.New(fs)
	list, err := engine.List(req.Context())
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	refs := make(map[string]string, len(list))
	for _, ref := range list {
		refs[string(ref.Name())] = ref.Hash().String()
	}

	w.Header().Set("Content-Type", fmt.Sprintf("application/x-%s-advertisement", service))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := uploadpack.AdvertiseRefs(w, service, refs, capabilities(service)); err != nil {
		logrus.Errorf("info/refs: write advertisement error: %v", err)
	}
}

func capabilities(service string) string {
	if service == receivePackService {
		return "report-status delete-refs ofs-delta"
	}
	return "ofs-delta no-thin"
}

// UploadPack serves POST .../git-upload-pack: it reads the client's
// want/have negotiation and streams back a packfile of everything the
// client is missing.
func (s *Server) UploadPack(w http.ResponseWriter, req *Request) {
	fs := s.repoFS(req)
	db, err := gitobj.Open(s.cachedBackend(req.Context(), fs), "")
	if err != nil {
		s.renderError(w, req, err)
		return
	}
	defer db.Close()

	wants, haves, err := uploadpack.ParseWantsAndHaves(req.Body)
	if err != nil {
		renderFailureFormat(w, req.Request, http.StatusBadRequest, "malformed want/have list: %v", err)
		return
	}
	if len(wants) == 0 {
		renderFailure(w, req.Request, http.StatusBadRequest, "no want lines in request")
		return
	}

	w.Header().Set("Content-Type", fmt.Sprintf(gitPackContentType, "git-upload-pack"))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := uploadpack.Pack(w, db, wants, haves); err != nil {
		logrus.Errorf("git-upload-pack: %v", err)
	}
}

// ReceivePack serves POST .../git-receive-pack: it runs the full
// receive-pack pipeline (parse commands, protection gate, unpack, apply
// ref updates) and reports back per-ref status.
func (s *Server) ReceivePack(w http.ResponseWriter, req *Request) {
	fs := s.repoFS(req)
	db, err := gitobj.Open(fs.WithContext(req.Context()), "")
	if err != nil {
		s.renderError(w, req, err)
		return
	}
	defer db.Close()

	engine := refengine.New(fs)
	results, err := receive.Process(req.Context(), req.Body, db, engine, s.branchProtectionLookup(req), false)
	if err != nil {
		renderFailureFormat(w, req.Request, http.StatusInternalServerError, "receive-pack failed: %v", err)
		return
	}
	s.objCache.InvalidateRepo(fs.Root())

	w.Header().Set("Content-Type", fmt.Sprintf(gitPackContentType, "git-receive-pack"))
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if err := receive.WriteReportStatus(w, results); err != nil {
		logrus.Errorf("git-receive-pack: write report-status error: %v", err)
	}
}

// branchProtectionLookup adapts the database's per-branch protection rules
// into a receive.ProtectionLookup scoped to the authenticated request's
// repository.
func (s *Server) branchProtectionLookup(req *Request) receive.ProtectionLookup {
	return func(_ context.Context, refName string) (receive.Protection, error) {
		name := plumbing.ReferenceName(refName)
		if !name.IsBranch() {
			return receive.Protection{}, nil
		}
		branchName := strings.TrimPrefix(refName, "refs/heads/")
		b, err := s.db.FindBranch(req.Context(), req.R.ID, branchName)
		if err != nil {
			if database.IsNotFound(err) {
				return receive.Protection{}, nil
			}
			return receive.Protection{}, err
		}
		return receive.Protection{
			PreventDeletion:   b.PreventDeletion,
			PreventDirectPush: b.PreventDirectPush,
			PreventForcePush:  b.PreventForcePush,
		}, nil
	}
}
