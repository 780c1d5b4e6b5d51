// Package orbprofiles loads orb profiles from YAML and keeps a registry in sync with the file.
package orbprofiles

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/astro-api/internal/domain/aspects"
)

type fileFormat struct {
	Default  string                        `yaml:"default"`
	Profiles map[string]map[string]float64 `yaml:"profiles"`
}

// Load reads a profile file and returns its catalog and default profile name.
func Load(path string) (aspects.Catalog, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read orb profiles: %w", err)
	}
	return Parse(data)
}

// Parse decodes profile YAML. Aspect keys accept the same aliases as requests.
func Parse(data []byte) (aspects.Catalog, string, error) {
	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, "", fmt.Errorf("decode orb profiles: %w", err)
	}
	catalog := make(aspects.Catalog, len(raw.Profiles))
	for name, orbs := range raw.Profiles {
		key := strings.ToLower(strings.TrimSpace(name))
		byKind := make(map[aspects.Kind]float64, len(orbs))
		for rawKind, orb := range orbs {
			kind, err := aspects.ParseKind(rawKind)
			if err != nil {
				return nil, "", fmt.Errorf("profile %s: %w", key, err)
			}
			if _, dup := byKind[kind]; dup {
				return nil, "", fmt.Errorf("profile %s: %s listed twice", key, kind)
			}
			byKind[kind] = orb
		}
		defs := make([]aspects.Definition, 0, len(byKind))
		for _, kind := range aspects.Kinds {
			if orb, ok := byKind[kind]; ok {
				defs = append(defs, aspects.NewDefinition(kind, orb))
			}
		}
		catalog[key] = aspects.Profile{Name: key, Definitions: defs}
	}
	if err := catalog.Validate(); err != nil {
		return nil, "", err
	}
	def := strings.ToLower(strings.TrimSpace(raw.Default))
	if def == "" {
		def = aspects.DefaultProfile
	}
	if _, ok := catalog[def]; !ok {
		return nil, "", fmt.Errorf("default profile %q not defined", def)
	}
	return catalog, def, nil
}
