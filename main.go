// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antgroup/vaultgit/pkg/kong"
	"github.com/antgroup/vaultgit/pkg/serve/httpserver"
	"github.com/antgroup/vaultgit/pkg/version"
	"github.com/sirupsen/logrus"
)

// cli is the single-purpose httpd launcher: the cmd/zeta-serve binary also
// bundles keygen/encrypt utilities, but most deployments only ever run the
// Git Smart HTTP server, so this binary skips straight to that.
var cli struct {
	Config    string `short:"c" name:"config" help:"Location of server config file" default:"~/config/zeta-serve-httpd.toml" type:"path"`
	ExpandEnv bool   `short:"E" name:"expand-env" help:"Replaces $${var} or $var in the config file according to the values of the current environment variables."`
	Version   bool   `short:"v" name:"version" help:"Show version number and quit"`
}

func main() {
	kong.Parse(&cli,
		kong.Name("vaultgit"),
		kong.Description("Git Smart HTTP server backed by an object-store repository layout"),
		kong.UsageOnError(),
	)
	if cli.Version {
		logrus.Info(version.GetVersionString())
		return
	}

	sc, err := httpserver.NewServerConfig(cli.Config, cli.ExpandEnv)
	if err != nil {
		logrus.Errorf("load server config error: %v", err)
		os.Exit(1)
	}
	srv, err := httpserver.NewServer(sc)
	if err != nil {
		logrus.Errorf("new httpd server error: %v", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		sig := <-quit
		logrus.Infof("received signal: %v, exiting ...", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Minute)
		defer cancel()
		_ = srv.Shutdown(ctx)
		close(done)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logrus.Errorf("listen server error: %v", err)
		os.Exit(1)
	}
	<-done
	logrus.Infof("httpd exited")
}
