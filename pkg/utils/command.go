package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"unicode/utf8"
)

type CommandResult struct {
	Stdout []byte
	Stderr []byte
}

// RunCommand runs executable in dir and waits for it. A non-zero exit is an
// error carrying the captured stderr when it is valid UTF-8.
func RunCommand(ctx context.Context, dir, executable string, args []string, descriptor string) (*CommandResult, error) {
	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s failed: %v", descriptor, err)
		}
		if !utf8.Valid(stderr.Bytes()) {
			return nil, fmt.Errorf("%s failed and the output was not UTF-8", descriptor)
		}
		return nil, fmt.Errorf("%s failed\n\n%s", descriptor, stderr.String())
	}

	return &CommandResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}, nil
}
