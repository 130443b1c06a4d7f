// Package subprocess runs external commands and captures their output.
package subprocess

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// A Runner runs a command to completion and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Exec is a Runner that spawns real processes.
type Exec struct{}

// Run spawns the command and waits for it. A nonzero exit status, or the
// context expiring first, is an error carrying the command's stderr.
func (Exec) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}

		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, errors.Wrapf(err, "running %s: %s", name, msg)
		}
		return nil, errors.Wrapf(err, "running %s", name)
	}

	return stdout.Bytes(), nil
}
