package device

import (
	"fmt"

	"github.com/sbaerlocher/cgmetrics/internal/errors"
	"github.com/sbaerlocher/cgmetrics/internal/types"
)

// Factory builds the typed view for a record already matched to a tag.
type Factory func(tag types.TypeTag, rec Record) (Device, error)

// Registry maps device type tags to factories. Tags are scanned in
// registration order, which keeps classification deterministic; the registry
// is built once at startup and not mutated afterwards.
type Registry struct {
	order     []types.TypeTag
	factories map[types.TypeTag]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[types.TypeTag]Factory),
	}
}

// DefaultRegistry creates a registry with the stock daemon device types:
// graphics cards and FPGA boards.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.mustRegister("GPU", NewStandard)
	r.mustRegister("PGA", NewStandard)
	return r
}

// Register adds a device type under the given tag.
func (r *Registry) Register(tag string, factory Factory) error {
	t, err := types.NewTypeTag(tag)
	if err != nil {
		return fmt.Errorf("register device type: %w", err)
	}
	if factory == nil {
		return fmt.Errorf("register device type %s: nil factory", t)
	}
	if _, exists := r.factories[t]; exists {
		return fmt.Errorf("register device type %s: already registered", t)
	}

	r.order = append(r.order, t)
	r.factories[t] = factory
	return nil
}

func (r *Registry) mustRegister(tag string, factory Factory) {
	if err := r.Register(tag, factory); err != nil {
		panic(err)
	}
}

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []types.TypeTag {
	return append([]types.TypeTag(nil), r.order...)
}

// Classify resolves rec to exactly one registered device type and builds its
// typed view. A record matching no tag is unclassifiable; a record matching
// several is ambiguous. Both fail rather than pick one silently.
func (r *Registry) Classify(rec Record) (Device, error) {
	var matches []types.TypeTag
	for _, tag := range r.order {
		if _, ok := rec[tag.String()]; ok {
			matches = append(matches, tag)
		}
	}

	switch len(matches) {
	case 1:
		return r.factories[matches[0]](matches[0], rec)
	case 0:
		return Device{}, errors.UnknownDeviceError{Keys: rec.sortedKeys()}
	default:
		names := make([]string, len(matches))
		for i, tag := range matches {
			names[i] = tag.String()
		}
		return Device{}, errors.UnknownDeviceError{Keys: rec.sortedKeys(), Matches: names}
	}
}
