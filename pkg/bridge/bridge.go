// Package bridge models an external data-collection process as a
// synchronous RPC call: one launch, one JSON document on stdout, typed
// failure modes. The remote side handles its own authentication.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrTimeout indicates the process did not finish within the deadline.
var ErrTimeout = errors.New("bridged process timed out")

// ErrNoPayload indicates the process exited cleanly but produced no
// parseable JSON document.
var ErrNoPayload = errors.New("bridged process produced no JSON payload")

// ProcessError is a non-zero exit from the bridged process. The stderr
// tail is retained as diagnostic context.
type ProcessError struct {
	ExitCode   int
	StderrTail string
}

func (e *ProcessError) Error() string {
	if e.StderrTail == "" {
		return fmt.Sprintf("bridged process exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("bridged process exited with code %d: %s", e.ExitCode, e.StderrTail)
}

// Runner launches one bridged collection process per run. Retries are the
// caller's responsibility.
type Runner struct {
	// Command and Args launch the external process, e.g.
	// pwsh -File collect-platform-data.ps1 -DataOnly.
	Command string
	Args    []string

	// Timeout bounds the whole process lifetime.
	Timeout time.Duration

	// EnvVar, when set and present in the environment, supplies the JSON
	// payload directly so callers that pre-fetched it once can feed
	// multiple logical collectors without relaunching the process.
	EnvVar string
}

// Fetch returns the single JSON document the bridged process emits.
// Contract: exit code 0 plus parseable JSON on stdout means success; any
// other combination is a typed error.
func (r *Runner) Fetch(ctx context.Context) (json.RawMessage, error) {
	if r.EnvVar != "" {
		if payload := os.Getenv(r.EnvVar); payload != "" {
			if !json.Valid([]byte(payload)) {
				return nil, fmt.Errorf("%s does not contain valid JSON: %w", r.EnvVar, ErrNoPayload)
			}
			return json.RawMessage(payload), nil
		}
	}

	timeout := r.Timeout
	if timeout == 0 {
		timeout = 10 * time.Minute
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, r.Command, r.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if cmdCtx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &ProcessError{ExitCode: exitCode, StderrTail: stderrTail(stderr.String(), 5)}
	}

	payload := extractJSON(stdout.String())
	if payload == nil {
		return nil, fmt.Errorf("%w (stderr: %s)", ErrNoPayload, stderrTail(stderr.String(), 3))
	}
	return payload, nil
}

// extractJSON finds the payload line in process output. The process may
// print banners or auth prompts before it; the document is the last line
// that starts with '{'.
func extractJSON(stdout string) json.RawMessage {
	lines := strings.Split(stdout, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "{") && json.Valid([]byte(line)) {
			return json.RawMessage(line)
		}
	}
	return nil
}

func stderrTail(stderr string, n int) string {
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, " | "))
}
