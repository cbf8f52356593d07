package deploy

import (
	"fmt"
	"strings"

	"github.com/magsasa-card/opsctl/internal/tools"
)

// gitClient wraps git invocations rooted at the deploy work dir.
type gitClient struct {
	workDir string
	runner  tools.CommandRunner
}

func (g gitClient) run(args ...string) (string, error) {
	full := append([]string{"-C", g.workDir}, args...)
	stdout, stderr, exitCode, err := g.runner.Run("git", full...)
	if err != nil {
		return "", fmt.Errorf(
			"git %s: exit=%d stderr=%q: %w",
			strings.Join(args, " "),
			exitCode,
			strings.TrimSpace(string(stderr)),
			err,
		)
	}
	return strings.TrimSpace(string(stdout)), nil
}

func (g gitClient) insideWorkTree() bool {
	out, err := g.run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

func (g gitClient) currentBranch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}

// isClean reports whether the work tree has no staged or unstaged changes.
// The porcelain output doubles as the detail for dirty trees.
func (g gitClient) isClean() (bool, string, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return false, "", err
	}
	return out == "", out, nil
}

func (g gitClient) isTracked(path string) (bool, error) {
	out, err := g.run("ls-files", "--", path)
	if err != nil {
		return false, err
	}
	return out != "", nil
}

func (g gitClient) push(remote string, branch string) error {
	_, err := g.run("push", remote, branch)
	return err
}
