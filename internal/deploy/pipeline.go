package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/magsasa-card/opsctl/internal/config"
	"github.com/magsasa-card/opsctl/internal/health"
	"github.com/magsasa-card/opsctl/internal/notion"
	"github.com/magsasa-card/opsctl/internal/observability"
	"github.com/magsasa-card/opsctl/internal/slack"
	"github.com/magsasa-card/opsctl/internal/tools"
)

var (
	ErrPrerequisite        = errors.New("deploy: prerequisite check failed")
	ErrDirtyWorkTree       = errors.New("deploy: work tree has uncommitted changes")
	ErrUntrackedManifest   = errors.New("deploy: manifest file not tracked by git")
	ErrPushFailed          = errors.New("deploy: push failed")
	ErrPostDeployUnhealthy = errors.New("deploy: target not healthy after push")
)

// Pipeline stage names, in execution order.
const (
	StagePrerequisites = "prerequisites"
	StageGitState      = "git_state"
	StageManifest      = "manifest"
	StagePush          = "push"
	StagePoll          = "post_deploy_poll"
	StagePublish       = "status_publication"
)

// Options are the per-run switches. DryRun performs every validation stage
// and skips push, poll, and publication. Force proceeds past a dirty work
// tree.
type Options struct {
	DryRun bool
	Force  bool
}

// StageResult records one pipeline stage outcome for the run report.
type StageResult struct {
	Name    string `json:"name"`
	Skipped bool   `json:"skipped,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Report summarizes one pipeline run.
type Report struct {
	Branch string         `json:"branch,omitempty"`
	DryRun bool           `json:"dry_run"`
	Pushed bool           `json:"pushed"`
	Stages []StageResult  `json:"stages"`
	Health *health.Report `json:"health,omitempty"`
}

// Deps are the pipeline collaborators. Nil fields get real defaults; tests
// inject fakes.
type Deps struct {
	Runner  tools.CommandRunner
	Checker *health.Checker
	Notion  *notion.Client
	Slack   *slack.Notifier
}

// Pipeline drives one deployment end to end.
type Pipeline struct {
	cfg     config.DeployConfig
	git     gitClient
	checker *health.Checker
	notion  *notion.Client
	slack   *slack.Notifier
}

func NewPipeline(cfg config.DeployConfig, deps Deps) *Pipeline {
	runner := deps.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	checker := deps.Checker
	if checker == nil {
		checker = health.NewChecker(health.CheckerConfig{})
	}
	n := deps.Notion
	if n == nil {
		creds := config.CredentialsFromEnv()
		n = notion.NewClient(notion.Config{
			APIKey:       creds.NotionAPIKey,
			DeploymentDB: creds.NotionDeploymentDB,
		})
	}
	s := deps.Slack
	if s == nil {
		s = slack.NewNotifier(slack.Config{WebhookURL: config.CredentialsFromEnv().SlackWebhookURL})
	}
	return &Pipeline{
		cfg:     cfg,
		git:     gitClient{workDir: cfg.WorkDir, runner: runner},
		checker: checker,
		notion:  n,
		slack:   s,
	}
}

// Run executes the pipeline stages in order, stopping at the first failed
// stage. The report always contains the stages that ran.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Report, error) {
	report := Report{DryRun: opts.DryRun}

	if err := p.checkPrerequisites(&report); err != nil {
		return report, err
	}
	if err := p.checkGitState(&report, opts); err != nil {
		return report, err
	}
	if err := p.checkManifest(&report); err != nil {
		return report, err
	}

	if opts.DryRun {
		report.Stages = append(report.Stages,
			StageResult{Name: StagePush, Skipped: true, Detail: "dry run"},
			StageResult{Name: StagePoll, Skipped: true, Detail: "dry run"},
			StageResult{Name: StagePublish, Skipped: true, Detail: "dry run"},
		)
		log.Info().Str("branch", report.Branch).Msg("dry run complete, no push performed")
		return report, nil
	}

	if err := p.push(&report); err != nil {
		p.publish(ctx, &report, "failed")
		return report, err
	}

	pollErr := p.poll(ctx, &report)
	if pollErr != nil {
		p.publish(ctx, &report, "unhealthy")
		return report, pollErr
	}

	p.publish(ctx, &report, "deployed")
	return report, nil
}

func (p *Pipeline) checkPrerequisites(report *Report) error {
	for _, name := range p.cfg.RequiredFiles {
		path := filepath.Join(p.cfg.WorkDir, name)
		if _, err := os.Stat(path); err != nil {
			observability.RecordDeployStage(StagePrerequisites, "error")
			return fmt.Errorf("%w: missing required file %s", ErrPrerequisite, name)
		}
	}
	if _, err := p.git.run("--version"); err != nil {
		observability.RecordDeployStage(StagePrerequisites, "error")
		return fmt.Errorf("%w: git unavailable: %v", ErrPrerequisite, err)
	}
	if !p.git.insideWorkTree() {
		observability.RecordDeployStage(StagePrerequisites, "error")
		return fmt.Errorf("%w: %s is not a git work tree", ErrPrerequisite, p.cfg.WorkDir)
	}
	observability.RecordDeployStage(StagePrerequisites, "ok")
	report.Stages = append(report.Stages, StageResult{
		Name:   StagePrerequisites,
		Detail: fmt.Sprintf("%d required files present", len(p.cfg.RequiredFiles)),
	})
	return nil
}

func (p *Pipeline) checkGitState(report *Report, opts Options) error {
	branch, err := p.git.currentBranch()
	if err != nil {
		observability.RecordDeployStage(StageGitState, "error")
		return fmt.Errorf("%w: %v", ErrPrerequisite, err)
	}
	report.Branch = branch

	clean, porcelain, err := p.git.isClean()
	if err != nil {
		observability.RecordDeployStage(StageGitState, "error")
		return fmt.Errorf("%w: %v", ErrPrerequisite, err)
	}
	detail := "work tree clean"
	if !clean {
		if !opts.Force {
			observability.RecordDeployStage(StageGitState, "error")
			return fmt.Errorf("%w:\n%s", ErrDirtyWorkTree, porcelain)
		}
		detail = "dirty work tree, proceeding with --force"
		log.Warn().Str("branch", branch).Msg(detail)
	}
	observability.RecordDeployStage(StageGitState, "ok")
	report.Stages = append(report.Stages, StageResult{Name: StageGitState, Detail: detail})
	return nil
}

func (p *Pipeline) checkManifest(report *Report) error {
	for _, name := range p.cfg.ManifestFiles {
		tracked, err := p.git.isTracked(name)
		if err != nil {
			observability.RecordDeployStage(StageManifest, "error")
			return fmt.Errorf("%w: %v", ErrPrerequisite, err)
		}
		if !tracked {
			observability.RecordDeployStage(StageManifest, "error")
			return fmt.Errorf("%w: %s", ErrUntrackedManifest, name)
		}
	}
	observability.RecordDeployStage(StageManifest, "ok")
	report.Stages = append(report.Stages, StageResult{
		Name:   StageManifest,
		Detail: fmt.Sprintf("%d manifest files tracked", len(p.cfg.ManifestFiles)),
	})
	return nil
}

func (p *Pipeline) push(report *Report) error {
	if err := p.git.push(p.cfg.Remote, p.cfg.Branch); err != nil {
		observability.RecordDeployStage(StagePush, "error")
		return fmt.Errorf("%w: %v", ErrPushFailed, err)
	}
	report.Pushed = true
	observability.RecordDeployStage(StagePush, "ok")
	report.Stages = append(report.Stages, StageResult{
		Name:   StagePush,
		Detail: fmt.Sprintf("pushed %s to %s", p.cfg.Branch, p.cfg.Remote),
	})
	log.Info().Str("remote", p.cfg.Remote).Str("branch", p.cfg.Branch).Msg("pushed")
	return nil
}

func (p *Pipeline) poll(ctx context.Context, report *Report) error {
	if strings.TrimSpace(p.cfg.TargetURL) == "" {
		report.Stages = append(report.Stages, StageResult{
			Name:    StagePoll,
			Skipped: true,
			Detail:  "no target url configured",
		})
		return nil
	}
	healthReport, err := p.checker.WaitHealthy(ctx, p.cfg.TargetURL, p.cfg.PollAttempts, p.cfg.PollDelay)
	report.Health = &healthReport
	if err != nil {
		observability.RecordDeployStage(StagePoll, "error")
		return fmt.Errorf("%w: %v", ErrPostDeployUnhealthy, err)
	}
	observability.RecordDeployStage(StagePoll, "ok")
	report.Stages = append(report.Stages, StageResult{
		Name:   StagePoll,
		Detail: fmt.Sprintf("target healthy, version %s", healthReport.Version),
	})
	return nil
}

// publish pushes the run outcome to Notion and Slack. Both are best-effort:
// failures are logged and never override the pipeline result.
func (p *Pipeline) publish(ctx context.Context, report *Report, outcome string) {
	healthStatus := ""
	version := ""
	if report.Health != nil {
		healthStatus = string(report.Health.Class)
		version = report.Health.Version
	}

	if err := p.notion.UpdateDeploymentStatus(ctx, notion.DeploymentStatus{
		Environment:  p.cfg.Environment,
		Status:       outcome,
		Platform:     "Render",
		Version:      version,
		URL:          p.cfg.TargetURL,
		HealthStatus: healthStatus,
		Notes:        fmt.Sprintf("deployctl push of %s", report.Branch),
	}); err != nil && !errors.Is(err, notion.ErrDisabled) {
		log.Warn().Err(err).Msg("notion deployment record update failed")
	}

	text := fmt.Sprintf("deployctl: %s deploy of branch %s %s", p.cfg.Environment, report.Branch, outcome)
	if err := p.slack.Notify(ctx, text); err != nil && !errors.Is(err, slack.ErrDisabled) {
		log.Warn().Err(err).Msg("slack notification failed")
	}

	observability.RecordDeployStage(StagePublish, outcome)
	report.Stages = append(report.Stages, StageResult{Name: StagePublish, Detail: outcome})
}
