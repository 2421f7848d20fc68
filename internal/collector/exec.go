package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner runs an external program and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUnavailable)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, msg)
		}
		return nil, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return out, nil
}

// WithTool makes commands named name run the binary at path instead of the
// one found on $PATH. An empty path is ignored.
func (h *Host) WithTool(name, path string) *Host {
	if path == "" {
		return h
	}
	if h.tools == nil {
		h.tools = make(map[string]string)
	}
	h.tools[name] = path
	return h
}

func (h *Host) tool(name string) string {
	if path, ok := h.tools[name]; ok {
		return path
	}
	return name
}

// WithRunner replaces the command runner used for ipmitool and upsc.
func (h *Host) WithRunner(run CommandRunner) *Host {
	h.run = run
	return h
}
