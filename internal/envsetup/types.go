package envsetup

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownEnvironment = errors.New("envsetup: unknown environment")

// Environment is one of the three deployment targets the bootstrapper
// accepts. Anything else is rejected before any step runs.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// ParseEnvironment validates the positional environment argument.
func ParseEnvironment(raw string) (Environment, error) {
	switch Environment(strings.ToLower(strings.TrimSpace(raw))) {
	case EnvDevelopment:
		return EnvDevelopment, nil
	case EnvStaging:
		return EnvStaging, nil
	case EnvProduction:
		return EnvProduction, nil
	default:
		return "", fmt.Errorf("%w: %q (want development, staging, or production)", ErrUnknownEnvironment, raw)
	}
}

// StepMetadata is the contract for step identity and display data.
type StepMetadata struct {
	ID          string
	Name        string
	Description string
}

// Step is one unit of environment bootstrap work.
type Step interface {
	Metadata() StepMetadata
	Execute(env Environment) error
}
