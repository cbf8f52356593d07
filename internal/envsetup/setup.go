package envsetup

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/magsasa-card/opsctl/internal/tools"
)

// Options selects which bootstrap steps run and where they operate.
type Options struct {
	Clean    bool
	SkipVenv bool
	SkipDeps bool
	SkipDB   bool

	VenvDir          string
	RequirementsFile string
	DatabasePath     string
	Runner           tools.CommandRunner
}

// Plan registers the full step catalog and resolves the ordered subset the
// options select. Clean always runs first when requested; the remaining
// steps keep venv -> deps -> db order because each depends on the previous.
func Plan(opts Options) ([]Step, error) {
	registry := NewRegistry()
	catalog := []Step{
		NewCleanStep(opts.VenvDir),
		NewVenvStep(opts.VenvDir, opts.Runner),
		NewDepsStep(opts.VenvDir, opts.RequirementsFile, opts.Runner),
		NewDBStep(opts.DatabasePath),
	}
	for _, step := range catalog {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}

	order := make([]string, 0, len(catalog))
	if opts.Clean {
		order = append(order, "step.clean")
	}
	if !opts.SkipVenv {
		order = append(order, "step.venv")
	}
	if !opts.SkipDeps {
		order = append(order, "step.deps")
	}
	if !opts.SkipDB {
		order = append(order, "step.db")
	}

	plan := make([]Step, 0, len(order))
	for _, id := range order {
		step, ok := registry.Resolve(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrStepNotFound, id)
		}
		plan = append(plan, step)
	}
	return plan, nil
}

// Run executes the planned steps sequentially, stopping at the first
// failure.
func Run(env Environment, opts Options) error {
	plan, err := Plan(opts)
	if err != nil {
		return err
	}
	for _, step := range plan {
		meta := step.Metadata()
		log.Info().
			Str("environment", string(env)).
			Str("step", meta.ID).
			Msg(meta.Name)
		if err := step.Execute(env); err != nil {
			return fmt.Errorf("%s: %w", meta.ID, err)
		}
	}
	return nil
}
