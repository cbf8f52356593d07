package envsetup

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrStepExists      = errors.New("step already exists")
	ErrStepNil         = errors.New("step is nil")
	ErrStepNotFound    = errors.New("step not found")
	ErrInvalidMetadata = errors.New("invalid step metadata")
)

// Registry stores setup steps by stable identifier.
type Registry struct {
	items map[string]Step
}

// NewRegistry creates an empty step registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Step)}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta StepMetadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	desc := strings.TrimSpace(meta.Description)
	if id == "" || name == "" || desc == "" {
		return fmt.Errorf("%w: id, name, and description are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds a step to the registry.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return ErrStepNil
	}

	meta := step.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := r.items[meta.ID]; ok {
		return ErrStepExists
	}
	r.items[meta.ID] = step
	return nil
}

// Resolve returns a step by id.
func (r *Registry) Resolve(id string) (Step, bool) {
	step, ok := r.items[id]
	return step, ok
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []StepMetadata {
	list := make([]StepMetadata, 0, len(r.items))
	for _, step := range r.items {
		list = append(list, step.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
