// SPDX-License-Identifier: MPL-2.0

package container

import (
	"os"
	"os/user"
	"runtime"
)

const (
	// engineSocketPath is the host engine socket mounted into nested containers.
	engineSocketPath = "/var/run/docker.sock"
	// engineGroup owns the engine socket on Linux hosts.
	engineGroup = "docker"
	// remoteEngineHost reaches the host engine from Docker Desktop containers.
	remoteEngineHost = "tcp://host.docker.internal:2375"
)

// nestedEngine describes how a container reaches the host engine.
// The zero value grants no access.
type nestedEngine struct {
	enabled bool
	// socket mounts engineSocketPath; otherwise DOCKER_HOST points at remoteEngineHost.
	socket bool
	// gid is the numeric group owning the socket, empty when unknown.
	gid string
}

func hostEngineAccess() nestedEngine {
	return detectHostEngineAccess(runtime.GOOS, os.Stat, user.LookupGroup)
}

func detectHostEngineAccess(
	goos string,
	stat func(string) (os.FileInfo, error),
	lookupGroup func(string) (*user.Group, error),
) nestedEngine {
	n := nestedEngine{enabled: true}
	if goos != "linux" {
		return n
	}
	if _, err := stat(engineSocketPath); err != nil {
		return n
	}
	n.socket = true
	if g, err := lookupGroup(engineGroup); err == nil {
		n.gid = g.Gid
	}
	return n
}

// args returns the run flags granting engine access. env is consulted, never
// modified: an existing DOCKER_HOST entry wins over the remote default.
func (n nestedEngine) args(env map[string]string) []string {
	if !n.enabled {
		return nil
	}
	if !n.socket {
		if _, ok := env["DOCKER_HOST"]; ok {
			return nil
		}
		return []string{"-e", "DOCKER_HOST=" + remoteEngineHost}
	}

	args := []string{"--privileged"}
	if n.gid != "" {
		args = append(args, "--group-add", n.gid)
	}
	return append(args, "-v", engineSocketPath+":"+engineSocketPath)
}
