package deploy

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/health"
	"github.com/magsasa-card/opsctl/internal/notion"
	"github.com/magsasa-card/opsctl/internal/slack"
)

// fakeRunner answers git invocations with scripted stdout keyed on the full
// command line. Unscripted commands fail the test.
type fakeRunner struct {
	t       *testing.T
	replies map[string]string
	fail    map[string]string
	calls   []string
}

func (f *fakeRunner) Run(name string, args ...string) ([]byte, []byte, int32, error) {
	line := name + " " + strings.Join(args, " ")
	f.calls = append(f.calls, line)
	if msg, ok := f.fail[line]; ok {
		return nil, []byte(msg), 1, errors.New("exit status 1")
	}
	out, ok := f.replies[line]
	if !ok {
		f.t.Fatalf("unscripted command: %s", line)
	}
	return []byte(out), nil, 0, nil
}

func (f *fakeRunner) called(line string) bool {
	for _, c := range f.calls {
		if c == line {
			return true
		}
	}
	return false
}

func seedWorkDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"app.py", "requirements.txt", "Procfile"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x\n"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
	return dir
}

func cleanReplies(dir string) map[string]string {
	return map[string]string{
		"git -C " + dir + " --version":                       "git version 2.43.0",
		"git -C " + dir + " rev-parse --is-inside-work-tree": "true",
		"git -C " + dir + " rev-parse --abbrev-ref HEAD":     "main",
		"git -C " + dir + " status --porcelain":              "",
		"git -C " + dir + " ls-files -- app.py":              "app.py",
		"git -C " + dir + " ls-files -- requirements.txt":    "requirements.txt",
		"git -C " + dir + " ls-files -- Procfile":            "Procfile",
		"git -C " + dir + " push origin main":                "",
	}
}

func testConfig(dir string) config.DeployConfig {
	cfg := config.DefaultDeployConfig()
	cfg.WorkDir = dir
	cfg.TargetURL = ""
	cfg.PollAttempts = 1
	cfg.PollDelay = time.Millisecond
	return cfg
}

func testDeps(runner *fakeRunner) Deps {
	return Deps{
		Runner: runner,
		Notion: notion.NewClient(notion.Config{}),
		Slack:  slack.NewNotifier(slack.Config{}),
	}
}

func TestDryRunNeverPushes(t *testing.T) {
	dir := seedWorkDir(t)
	runner := &fakeRunner{t: t, replies: cleanReplies(dir)}

	report, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{DryRun: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Pushed {
		t.Fatalf("dry run pushed")
	}
	if report.Branch != "main" {
		t.Fatalf("unexpected branch: %q", report.Branch)
	}
	if runner.called("git -C " + dir + " push origin main") {
		t.Fatalf("push executed during dry run")
	}

	skipped := 0
	for _, stage := range report.Stages {
		if stage.Skipped {
			skipped++
		}
	}
	if skipped != 3 {
		t.Fatalf("expected push, poll, and publication skipped: %+v", report.Stages)
	}
}

func TestMissingRequiredFile(t *testing.T) {
	dir := seedWorkDir(t)
	if err := os.Remove(filepath.Join(dir, "Procfile")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	runner := &fakeRunner{t: t, replies: cleanReplies(dir)}

	_, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{DryRun: true})
	if !errors.Is(err, ErrPrerequisite) {
		t.Fatalf("expected ErrPrerequisite, got %v", err)
	}
	if !strings.Contains(err.Error(), "Procfile") {
		t.Fatalf("error missing file name: %v", err)
	}
}

func TestDirtyWorkTreeBlocksWithoutForce(t *testing.T) {
	dir := seedWorkDir(t)
	replies := cleanReplies(dir)
	replies["git -C "+dir+" status --porcelain"] = " M app.py"
	runner := &fakeRunner{t: t, replies: replies}

	_, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{DryRun: true})
	if !errors.Is(err, ErrDirtyWorkTree) {
		t.Fatalf("expected ErrDirtyWorkTree, got %v", err)
	}
	if !strings.Contains(err.Error(), "M app.py") {
		t.Fatalf("porcelain missing from error: %v", err)
	}
}

func TestDirtyWorkTreeProceedsWithForce(t *testing.T) {
	dir := seedWorkDir(t)
	replies := cleanReplies(dir)
	replies["git -C "+dir+" status --porcelain"] = " M app.py"
	runner := &fakeRunner{t: t, replies: replies}

	report, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{DryRun: true, Force: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Branch != "main" {
		t.Fatalf("unexpected branch: %q", report.Branch)
	}
}

func TestUntrackedManifestBlocks(t *testing.T) {
	dir := seedWorkDir(t)
	replies := cleanReplies(dir)
	replies["git -C "+dir+" ls-files -- Procfile"] = ""
	runner := &fakeRunner{t: t, replies: replies}

	_, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{DryRun: true})
	if !errors.Is(err, ErrUntrackedManifest) {
		t.Fatalf("expected ErrUntrackedManifest, got %v", err)
	}
}

func TestPushFailure(t *testing.T) {
	dir := seedWorkDir(t)
	runner := &fakeRunner{
		t:       t,
		replies: cleanReplies(dir),
		fail: map[string]string{
			"git -C " + dir + " push origin main": "remote rejected",
		},
	}

	report, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{})
	if !errors.Is(err, ErrPushFailed) {
		t.Fatalf("expected ErrPushFailed, got %v", err)
	}
	if report.Pushed {
		t.Fatalf("report claims push succeeded")
	}
}

func TestPushAndPollHappyPath(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"healthy","version":"2.1.0"}`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewTLSServer(mux)
	defer srv.Close()

	dir := seedWorkDir(t)
	runner := &fakeRunner{t: t, replies: cleanReplies(dir)}

	cfg := testConfig(dir)
	cfg.TargetURL = srv.URL

	deps := testDeps(runner)
	deps.Checker = health.NewChecker(health.CheckerConfig{
		Timeout:    5 * time.Second,
		Attempts:   1,
		RetryDelay: time.Millisecond,
		Client:     srv.Client(),
	})

	report, err := NewPipeline(cfg, deps).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Pushed {
		t.Fatalf("push not recorded")
	}
	if report.Health == nil || report.Health.Class != health.ClassHealthy {
		t.Fatalf("unexpected health report: %+v", report.Health)
	}
	last := report.Stages[len(report.Stages)-1]
	if last.Name != StagePublish || last.Detail != "deployed" {
		t.Fatalf("unexpected final stage: %+v", last)
	}
}

func TestPostDeployUnhealthy(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	dir := seedWorkDir(t)
	runner := &fakeRunner{t: t, replies: cleanReplies(dir)}

	cfg := testConfig(dir)
	cfg.TargetURL = srv.URL

	deps := testDeps(runner)
	deps.Checker = health.NewChecker(health.CheckerConfig{
		Timeout:    5 * time.Second,
		Attempts:   1,
		RetryDelay: time.Millisecond,
		Client:     srv.Client(),
	})

	report, err := NewPipeline(cfg, deps).Run(context.Background(), Options{})
	if !errors.Is(err, ErrPostDeployUnhealthy) {
		t.Fatalf("expected ErrPostDeployUnhealthy, got %v", err)
	}
	if report.Health == nil || report.Health.Class != health.ClassUnhealthy {
		t.Fatalf("unexpected health report: %+v", report.Health)
	}
	last := report.Stages[len(report.Stages)-1]
	if last.Name != StagePublish || last.Detail != "unhealthy" {
		t.Fatalf("unexpected final stage: %+v", last)
	}
}

func TestPollSkippedWithoutTargetURL(t *testing.T) {
	dir := seedWorkDir(t)
	runner := &fakeRunner{t: t, replies: cleanReplies(dir)}

	report, err := NewPipeline(testConfig(dir), testDeps(runner)).Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	poll := StageResult{}
	for _, stage := range report.Stages {
		if stage.Name == StagePoll {
			poll = stage
		}
	}
	if !poll.Skipped {
		t.Fatalf("poll stage not skipped: %+v", report.Stages)
	}
	if report.Health != nil {
		t.Fatalf("unexpected health report")
	}
}
