package aspects

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// MaxOrbLimit caps any configured orb.
const MaxOrbLimit = 15.0

// DefaultProfile is used when callers do not name one.
const DefaultProfile = "modern"

// Definition is one aspect with its allowed orb.
type Definition struct {
	Kind      Kind      `json:"kind"`
	AngleDeg  float64   `json:"angleDeg"`
	MaxOrbDeg float64   `json:"maxOrbDeg"`
	Influence Influence `json:"influence"`
}

// NewDefinition builds a definition with the canonical angle and influence of kind.
func NewDefinition(kind Kind, maxOrb float64) Definition {
	return Definition{Kind: kind, AngleDeg: kind.Angle(), MaxOrbDeg: maxOrb, Influence: kind.Influence()}
}

// Validate rejects definitions that disagree with their kind.
func (d Definition) Validate() error {
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: unknown aspect %q", ErrInvalidArgument, d.Kind)
	}
	if math.Abs(d.AngleDeg-d.Kind.Angle()) > 1e-9 {
		return fmt.Errorf("%w: %s must be %.0f degrees, got %g", ErrInvalidArgument, d.Kind, d.Kind.Angle(), d.AngleDeg)
	}
	if err := validateOrb(d.Kind, d.MaxOrbDeg); err != nil {
		return err
	}
	if d.Influence == "" {
		return fmt.Errorf("%w: %s has no influence", ErrInvalidArgument, d.Kind)
	}
	return nil
}

func validateOrb(kind Kind, orb float64) error {
	if math.IsNaN(orb) || orb <= 0 || orb > MaxOrbLimit {
		return fmt.Errorf("%w: %s orb %g must be in (0, %g]", ErrInvalidArgument, kind, orb, MaxOrbLimit)
	}
	return nil
}

// Profile is a named, ordered set of definitions.
type Profile struct {
	Name        string       `json:"name"`
	Definitions []Definition `json:"definitions"`
}

// Catalog holds named profiles. Treat a Catalog as immutable once shared.
type Catalog map[string]Profile

// DefaultCatalog returns the built-in legacy, modern and strict profiles.
func DefaultCatalog() Catalog {
	build := func(name string, orbs ...float64) Profile {
		defs := make([]Definition, 0, len(Kinds))
		for i, kind := range Kinds {
			defs = append(defs, NewDefinition(kind, orbs[i]))
		}
		return Profile{Name: name, Definitions: defs}
	}
	return Catalog{
		"legacy": build("legacy", 6, 6, 5, 5, 4),
		"modern": build("modern", 5, 5, 5, 5, 5),
		"strict": build("strict", 3, 3, 2.5, 2.5, 2),
	}
}

// Validate checks every profile.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: catalog is empty", ErrInvalidArgument)
	}
	for name, profile := range c {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: profile name cannot be empty", ErrInvalidArgument)
		}
		seen := make(map[Kind]struct{}, len(profile.Definitions))
		for _, def := range profile.Definitions {
			if err := def.Validate(); err != nil {
				return fmt.Errorf("profile %s: %w", name, err)
			}
			if _, dup := seen[def.Kind]; dup {
				return fmt.Errorf("%w: profile %s defines %s twice", ErrInvalidArgument, name, def.Kind)
			}
			seen[def.Kind] = struct{}{}
		}
	}
	return nil
}

// Names lists profile names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve narrows profile name to the enabled aspects and applies orb overrides.
// Unknown names in enabled or overrides are ignored; an enabled list with no
// known names leaves the profile unfiltered. When an aspect is overridden under
// several names the canonical name wins, then the alias sorting first.
func (c Catalog) Resolve(name string, enabled []string, overrides map[string]float64) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	base, ok := c[key]
	if !ok {
		return Profile{}, fmt.Errorf("%w: unknown orb profile %q", ErrInvalidArgument, name)
	}

	var allow map[Kind]struct{}
	if len(enabled) > 0 {
		allow = make(map[Kind]struct{}, len(enabled))
		for _, raw := range enabled {
			if kind, err := ParseKind(raw); err == nil {
				allow[kind] = struct{}{}
			}
		}
		if len(allow) == 0 {
			allow = nil
		}
	}

	names := make([]string, 0, len(overrides))
	for raw := range overrides {
		names = append(names, raw)
	}
	sort.Strings(names)

	orbs := make(map[Kind]float64, len(overrides))
	fromCanonical := make(map[Kind]bool, len(overrides))
	for _, raw := range names {
		kind, err := ParseKind(raw)
		if err != nil {
			continue
		}
		orb := overrides[raw]
		if err := validateOrb(kind, orb); err != nil {
			return Profile{}, err
		}
		canonical := strings.ToLower(strings.TrimSpace(raw)) == string(kind)
		if _, seen := orbs[kind]; seen && (fromCanonical[kind] || !canonical) {
			continue
		}
		orbs[kind] = orb
		fromCanonical[kind] = canonical
	}

	out := Profile{Name: base.Name, Definitions: make([]Definition, 0, len(base.Definitions))}
	for _, def := range base.Definitions {
		if allow != nil {
			if _, ok := allow[def.Kind]; !ok {
				continue
			}
		}
		if orb, ok := orbs[def.Kind]; ok {
			def.MaxOrbDeg = orb
		}
		out.Definitions = append(out.Definitions, def)
	}
	return out, nil
}

// Registry is a concurrency-safe, swappable Catalog.
type Registry struct {
	mu          sync.RWMutex
	catalog     Catalog
	defaultName string
}

// NewRegistry validates catalog and ensures defaultName exists.
func NewRegistry(catalog Catalog, defaultName string) (*Registry, error) {
	r := &Registry{}
	if err := r.replace(catalog, defaultName); err != nil {
		return nil, err
	}
	return r, nil
}

// Resolve looks the profile up in the current catalog. Empty name selects the default.
func (r *Registry) Resolve(name string, enabled []string, overrides map[string]float64) (Profile, error) {
	r.mu.RLock()
	catalog, def := r.catalog, r.defaultName
	r.mu.RUnlock()
	if strings.TrimSpace(name) == "" {
		name = def
	}
	return catalog.Resolve(name, enabled, overrides)
}

// Replace swaps in a new catalog after validating it.
func (r *Registry) Replace(catalog Catalog) error {
	r.mu.RLock()
	def := r.defaultName
	r.mu.RUnlock()
	return r.replace(catalog, def)
}

// Names lists the profiles currently loaded.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Names()
}

func (r *Registry) replace(catalog Catalog, defaultName string) error {
	if err := catalog.Validate(); err != nil {
		return err
	}
	defaultName = strings.ToLower(strings.TrimSpace(defaultName))
	if _, ok := catalog[defaultName]; !ok {
		return fmt.Errorf("%w: default profile %q not in catalog", ErrInvalidArgument, defaultName)
	}
	r.mu.Lock()
	r.catalog = catalog
	r.defaultName = defaultName
	r.mu.Unlock()
	return nil
}
