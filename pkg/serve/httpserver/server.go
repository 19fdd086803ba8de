// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/antgroup/vaultgit/pkg/serve"
	"github.com/antgroup/vaultgit/pkg/serve/blobstore"
	"github.com/antgroup/vaultgit/pkg/serve/cache"
	"github.com/antgroup/vaultgit/pkg/serve/database"
	"github.com/antgroup/vaultgit/pkg/serve/protocol"
	"github.com/antgroup/vaultgit/pkg/serve/repofs"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type HandlerFunc func(http.ResponseWriter, *Request)

type Server struct {
	*ServerConfig
	srv        *http.Server
	r          *mux.Router
	db         database.DB
	blobs      blobstore.Store
	objCache   *cache.ObjectCache
	serverName string
}

// GitSmartRouter registers the Git Smart HTTP v0 surface: the info/refs
// service advertisement and the git-upload-pack / git-receive-pack POST
// endpoints, each gated the same way the management API is — basic or
// bearer auth, resolved against the namespace/repo path, checked for the
// matching read/write access level.
func (s *Server) GitSmartRouter(r *mux.Router) {
	r.HandleFunc("/{namespace}/{repo}/info/refs", s.InfoRefsHandler).Methods("GET")
	r.HandleFunc("/{namespace}/{repo}/git-upload-pack", s.OnFunc(s.UploadPack, protocol.DOWNLOAD)).Methods("POST")
	r.HandleFunc("/{namespace}/{repo}/git-receive-pack", s.OnFunc(s.ReceivePack, protocol.UPLOAD)).Methods("POST")
}

func (s *Server) initialize() error {
	r := mux.NewRouter().UseEncodedPath()
	s.GitSmartRouter(r)
	s.ManagementRouter(r)
	s.r = r
	s.srv.Handler = s
	return nil
}

func NewServer(sc *ServerConfig) (*Server, error) {
	if sc.DB == nil || sc.PersistentOSS == nil {
		fmt.Fprintf(os.Stderr, "DB or OSS not configured\n")
		return nil, errors.New("missing config")
	}
	srv := &Server{
		ServerConfig: sc,
		srv: &http.Server{
			Addr:         sc.Listen,
			ReadTimeout:  sc.ReadTimeout.Duration,
			IdleTimeout:  sc.IdleTimeout.Duration,
			WriteTimeout: sc.WriteTimeout.Duration,
		},
		serverName: sc.BannerVersion,
	}
	cfg, err := sc.DB.MakeConfig()
	if err != nil {
		return nil, err
	}
	if srv.db, err = database.NewDB(cfg); err != nil {
		return nil, err
	}
	if srv.blobs, err = blobstore.NewS3StoreFromOSS(context.Background(), sc.PersistentOSS); err != nil {
		_ = srv.db.Close()
		return nil, err
	}
	if srv.objCache, err = cache.New(sc.Cache.NumCounters, sc.Cache.MaxCost, sc.Cache.BufferItems); err != nil {
		_ = srv.db.Close()
		return nil, err
	}
	if err := srv.initialize(); err != nil {
		_ = srv.db.Close()
		return nil, err
	}
	return srv, nil
}

func (s *Server) ListenAndServe() error {
	if err := serve.RegisterLanguageMatcher(); err != nil {
		logrus.Errorf("register languages matcher error: %v", err)
	}
	return s.srv.ListenAndServe()
}

func logResponse(hw *ResponseWriter, r *http.Request, tr *trackedReader, spent time.Duration) {
	message := r.Header.Get(ErrorMessageKey)
	switch statusCode := hw.StatusCode(); {
	default:
		logrus.Errorf("[%s] %s %s status: %d received: %d written: %d spent: %v message: %s", hw.F1RemoteAddr(), r.Method, r.RequestURI, hw.StatusCode(), tr.received, hw.Written(), spent, message)
		return
		// 200 --- 300
	case statusCode == http.StatusFound:
		logrus.Infof("[%s] %s %s status: %d received: %d written: %d spent: %v", hw.F1RemoteAddr(), r.Method, r.RequestURI, hw.StatusCode(), tr.received, hw.Written(), spent)
		return
	case statusCode >= http.StatusOK && statusCode <= http.StatusPermanentRedirect:
		if len(message) != 0 {
			logrus.Errorf("[%s] %s %s status: %d received: %d written: %d spent: %v message: %s", hw.F1RemoteAddr(), r.Method, r.RequestURI, hw.StatusCode(), tr.received, hw.Written(), spent, message)
			return
		}
		logrus.Infof("[%s] %s %s status: %d received: %d written: %d spent: %v", hw.F1RemoteAddr(), r.Method, r.RequestURI, hw.StatusCode(), tr.received, hw.Written(), spent)
		return
	case statusCode == http.StatusNotFound:
		logrus.Errorf("[%s] %s %s status: %d received: %d written: %d spent: %v message: %s", hw.F1RemoteAddr(), r.Method, r.RequestURI, hw.StatusCode(), tr.received, hw.Written(), spent, message)
		return
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusBadRequest || statusCode == http.StatusForbidden:
		// default behavie
	}
	logrus.Infof("[%s] %s %s status: %d received: %d written: %d spent: %v", hw.F1RemoteAddr(), r.Method, r.RequestURI, hw.StatusCode(), tr.received, hw.Written(), spent)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// remove multiple slash and ./..
	if r.URL != nil {
		r.URL.Path = path.Clean(r.URL.Path)
	}

	w.Header().Set("Server", s.serverName)
	tr := newTrackedReader(r.Body)
	r.Body = tr
	now := time.Now()
	hw := NewResponseWriter(w, r)
	s.r.ServeHTTP(hw, r)
	spent := time.Since(now)
	logResponse(hw, r, tr, spent)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		logrus.Errorf("shutdown ssh server %v", err)
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.objCache != nil {
		s.objCache.Close()
	}
	return nil
}

// repoFS returns the repofs.FS rooted at the request's resolved
// namespace/repository, the object store view every Git Smart HTTP
// handler operates through.
func (s *Server) repoFS(r *Request) *repofs.FS {
	return repofs.New(s.blobs, r.N.ID, r.R.Path)
}

// cachedBackend wraps a repository's repofs.FS backend with s.objCache's
// read-through loose-object cache, scoped to that repository's root key.
func (s *Server) cachedBackend(ctx context.Context, fs *repofs.FS) *cache.Backend {
	return cache.Wrap(fs.WithContext(ctx), s.objCache, fs.Root())
}
