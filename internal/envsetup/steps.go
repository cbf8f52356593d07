package envsetup

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/magsasa-card/opsctl/internal/tools"
)

var ErrStepCommandFailed = errors.New("envsetup: step command failed")

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// CleanStep removes the virtualenv and Python build artifacts so the
// following steps start from a blank slate.
type CleanStep struct {
	venvDir string
}

func NewCleanStep(venvDir string) CleanStep {
	return CleanStep{venvDir: defaultString(venvDir, "venv")}
}

func (s CleanStep) Metadata() StepMetadata {
	return StepMetadata{
		ID:          "step.clean",
		Name:        "Clean workspace",
		Description: "Remove the virtualenv and cached build artifacts",
	}
}

func (s CleanStep) Execute(env Environment) error {
	targets := []string{s.venvDir, "__pycache__", ".pytest_cache", "build", "dist"}
	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("clean %s: %w", target, err)
		}
	}
	log.Info().Str("environment", string(env)).Strs("removed", targets).Msg("workspace cleaned")
	return nil
}

// VenvStep creates the Python virtualenv when it does not already exist.
type VenvStep struct {
	venvDir string
	python  string
	runner  tools.CommandRunner
}

func NewVenvStep(venvDir string, runner tools.CommandRunner) VenvStep {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return VenvStep{
		venvDir: defaultString(venvDir, "venv"),
		python:  "python3",
		runner:  runner,
	}
}

func (s VenvStep) Metadata() StepMetadata {
	return StepMetadata{
		ID:          "step.venv",
		Name:        "Virtualenv",
		Description: "Create the Python virtual environment",
	}
}

func (s VenvStep) Execute(env Environment) error {
	if _, err := os.Stat(filepath.Join(s.venvDir, "bin", "python")); err == nil {
		log.Info().Str("venv", s.venvDir).Msg("virtualenv already present")
		return nil
	}
	if _, isExec := s.runner.(tools.ExecRunner); isExec && !tools.CommandAvailable(s.python) {
		return fmt.Errorf("%w: %s not found on PATH", ErrStepCommandFailed, s.python)
	}
	return runStep(s.runner, s.python, "-m", "venv", s.venvDir)
}

// DepsStep installs Python dependencies into the virtualenv.
type DepsStep struct {
	venvDir      string
	requirements string
	runner       tools.CommandRunner
}

func NewDepsStep(venvDir string, requirements string, runner tools.CommandRunner) DepsStep {
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return DepsStep{
		venvDir:      defaultString(venvDir, "venv"),
		requirements: defaultString(requirements, "requirements.txt"),
		runner:       runner,
	}
}

func (s DepsStep) Metadata() StepMetadata {
	return StepMetadata{
		ID:          "step.deps",
		Name:        "Dependencies",
		Description: "Install Python dependencies from the requirements file",
	}
}

func (s DepsStep) Execute(env Environment) error {
	if _, err := os.Stat(s.requirements); err != nil {
		return fmt.Errorf("requirements file %s: %w", s.requirements, err)
	}
	pip := filepath.Join(s.venvDir, "bin", "pip")
	return runStep(s.runner, pip, "install", "-r", s.requirements)
}

// DBStep creates the sqlite database file and verifies it answers a query.
type DBStep struct {
	path string
}

func NewDBStep(path string) DBStep {
	return DBStep{path: defaultString(path, filepath.Join("data", "platform.db"))}
}

func (s DBStep) Metadata() StepMetadata {
	return StepMetadata{
		ID:          "step.db",
		Name:        "Database",
		Description: "Initialize and ping the sqlite database file",
	}
}

func (s DBStep) Execute(env Environment) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := openDB("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", s.path, err)
	}
	defer db.Close()

	if _, err := db.Exec("SELECT 1"); err != nil {
		return fmt.Errorf("ping database %s: %w", s.path, err)
	}
	log.Info().Str("environment", string(env)).Str("database", s.path).Msg("database initialized")
	return nil
}

func runStep(runner tools.CommandRunner, name string, args ...string) error {
	log.Info().Str("cmd", name).Strs("args", args).Msg("envsetup exec")
	stdout, stderr, exitCode, err := runner.Run(name, args...)
	if err == nil {
		return nil
	}
	return fmt.Errorf(
		"%w: cmd=%s args=%q exit=%d stdout=%q stderr=%q: %v",
		ErrStepCommandFailed,
		name,
		strings.Join(args, " "),
		exitCode,
		strings.TrimSpace(string(stdout)),
		strings.TrimSpace(string(stderr)),
		err,
	)
}

func defaultString(v string, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
