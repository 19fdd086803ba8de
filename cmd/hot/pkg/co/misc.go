package co

import (
	"fmt"

	"github.com/antgroup/vaultgit/modules/git"
	"github.com/antgroup/vaultgit/pkg/version"
)

func NewUserAgent() (string, bool) {
	if !version.TelemetryEnabled() {
		return "", false
	}
	u, err := version.Uname()
	if err != nil {
		return "", false
	}
	v, err := git.VersionDetect()
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("git/%s (%s; %s; %s; %s)", v, u.Node, u.Name, u.Machine, u.Release), true
}
