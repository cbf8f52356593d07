package tools

import (
	"strings"
	"testing"
)

func TestExecRunnerCapturesStdout(t *testing.T) {
	stdout, stderr, exitCode, err := ExecRunner{}.Run("sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if exitCode != 0 {
		t.Fatalf("unexpected exit code: %d", exitCode)
	}
	if strings.TrimSpace(string(stdout)) != "hello" {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if len(stderr) != 0 {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestExecRunnerSeparatesStreams(t *testing.T) {
	stdout, stderr, _, err := ExecRunner{}.Run("sh", "-c", "echo out; echo err >&2")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.TrimSpace(string(stdout)) != "out" {
		t.Fatalf("unexpected stdout: %q", stdout)
	}
	if strings.TrimSpace(string(stderr)) != "err" {
		t.Fatalf("unexpected stderr: %q", stderr)
	}
}

func TestExecRunnerReportsExitCode(t *testing.T) {
	_, _, exitCode, err := ExecRunner{}.Run("sh", "-c", "exit 3")
	if err == nil {
		t.Fatalf("expected error")
	}
	if exitCode != 3 {
		t.Fatalf("unexpected exit code: %d", exitCode)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	_, _, exitCode, err := ExecRunner{}.Run("definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatalf("expected error")
	}
	if exitCode != 127 {
		t.Fatalf("unexpected exit code: %d", exitCode)
	}
}

func TestCommandAvailable(t *testing.T) {
	if !CommandAvailable("sh") {
		t.Fatalf("sh should resolve on PATH")
	}
	if CommandAvailable("definitely-not-a-real-binary-xyz") {
		t.Fatalf("bogus binary should not resolve")
	}
}
