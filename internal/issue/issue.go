// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	EngineUnavailableId Id = iota + 1
	EngineNotInstalledId
	InvalidConfigurationId
	InvalidStateId
	ContainerAlreadyExistsId
	EngineOperationFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type Issue struct {
	id    Id          // ID used to lookup the issue
	slug  string      // name accepted by `dockhand explain`
	mdMsg MarkdownMsg // Markdown text that will be rendered
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Slug() string {
	return i.slug
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the guide for a terminal. An empty style selects glamour's
// automatic dark/light detection.
func (i *Issue) Render(style string) (string, error) {
	if style == "" {
		style = "auto"
	}
	return render(string(i.mdMsg), style)
}

var (
	render = glamour.Render

	engineUnavailableIssue = &Issue{
		id:   EngineUnavailableId,
		slug: "engine-unavailable",
		mdMsg: `
# The container engine is not reachable

The engine CLI answered, but reported that it cannot connect to its daemon.
Nothing was changed.

## Things you can try:
- Start the daemon (Docker Desktop, ` + "`systemctl start docker`" + `, or ` + "`podman machine start`" + `)
- Check that your user may access the engine socket:
~~~
$ docker info
~~~
- Point the CLI at a remote daemon with DOCKER_HOST or CONTAINER_HOST
- Choose the other engine:
~~~
$ dockhand --engine podman status web
~~~`,
	}

	engineNotInstalledIssue = &Issue{
		id:   EngineNotInstalledId,
		slug: "engine-not-installed",
		mdMsg: `
# No container engine found

Neither docker nor podman could be found on PATH.

## Things you can try:
- Install Docker or Podman
- Make sure the binary is on PATH:
~~~
$ which docker podman
~~~
- Set the preferred engine in your config file (` + "`container_engine`" + `)`,
	}

	invalidConfigurationIssue = &Issue{
		id:   InvalidConfigurationId,
		slug: "invalid-configuration",
		mdMsg: `
# Invalid container configuration

The request was rejected before talking to the engine.

## Rules:
- Container names must be non-empty, lowercase, and contain no whitespace
- The image reference must not be empty
- Environment keys must be non-empty and contain no '=' or whitespace
- An environment key can only be added once; use set to change its value
- Commands must be a single simple command: no pipes, redirections or ` + "`$(...)`" + `

## Example:
~~~
$ dockhand start web nginx:1.27 -e MODE=prod
~~~`,
	}

	invalidStateIssue = &Issue{
		id:   InvalidStateId,
		slug: "invalid-state",
		mdMsg: `
# The container is in the wrong state for this operation

| Operation | Requires |
|---|---|
| start, run | no container with this name |
| stop | exists and running |
| kill, exec | running |
| rm | exists; running containers need --force |
| logs | exists |

## Things you can try:
- Inspect the current state:
~~~
$ dockhand status web
~~~
- Wait for a transition before retrying:
~~~
$ dockhand wait web --for stopped
~~~`,
	}

	containerAlreadyExistsIssue = &Issue{
		id:   ContainerAlreadyExistsId,
		slug: "already-exists",
		mdMsg: `
# A container with this name already exists

Container names are unique per engine.

## Things you can try:
- Remove the old container first:
~~~
$ dockhand rm --force web
~~~
- Pick another name, or omit --name to get a generated one`,
	}

	engineOperationFailedIssue = &Issue{
		id:   EngineOperationFailedId,
		slug: "operation-failed",
		mdMsg: `
# The engine reported a failure

The engine command exited with an error or wrote to stderr.

## Common causes:
- The image reference or tag does not exist
- The command failed inside the container
- A transient registry, network, or storage problem

## Things you can try:
- Re-run with --verbose to see the exact engine command
- Retry transient failures automatically:
~~~
$ dockhand --retries 3 start web nginx:1.27
~~~
- Tolerate stderr noise from exec, logs and stop:
~~~
$ dockhand --ignore-errors exec web -- ./warmup.sh
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config",
		mdMsg: `
# Failed to load the configuration file

The config file is CUE, validated against dockhand's schema.

## Things you can try:
- Print the file location:
~~~
$ dockhand config path
~~~
- Write a fresh default file:
~~~
$ dockhand config init --force
~~~`,
	}

	issues = map[Id]*Issue{
		engineUnavailableIssue.Id():      engineUnavailableIssue,
		engineNotInstalledIssue.Id():     engineNotInstalledIssue,
		invalidConfigurationIssue.Id():   invalidConfigurationIssue,
		invalidStateIssue.Id():           invalidStateIssue,
		containerAlreadyExistsIssue.Id(): containerAlreadyExistsIssue,
		engineOperationFailedIssue.Id():  engineOperationFailedIssue,
		configLoadFailedIssue.Id():       configLoadFailedIssue,
	}
)

// Values returns all issues ordered by Id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by slug, case-insensitively.
func Lookup(slug string) *Issue {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, i := range issues {
		if i.slug == slug {
			return i
		}
	}
	return nil
}
