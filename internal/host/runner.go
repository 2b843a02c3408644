// Package host talks to the machine being upgraded: systemd units, the rpm
// database, the package source and the kernel release string.
package host

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Runner executes a host command and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// Exec runs commands with os/exec and logs their output line by line.
type Exec struct {
	Log logrus.FieldLogger
}

// Run executes name with args. A non-zero exit is an error; the output is
// returned either way.
func (e Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	log := e.Log.WithField("cmd", cmd.String())
	log.Debug("executing")
	runErr := cmd.Run()

	out := buf.String()
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if runErr != nil {
			log.Error(line)
		} else {
			log.Info(line)
		}
	}
	if runErr != nil {
		return out, errors.Wrapf(runErr, "%s failed", cmd.String())
	}
	log.Debug("command completed successfully")
	return out, nil
}
