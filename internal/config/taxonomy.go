package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Taxonomy maps canonical service names to lowercase synonym lists. The
// contents are data, not logic: deployments supply their own YAML file per
// vertical and the built-in table only covers common home-service trades.
type Taxonomy map[string][]string

type taxonomyFile struct {
	Services []struct {
		Canonical string   `yaml:"canonical"`
		Synonyms  []string `yaml:"synonyms"`
	} `yaml:"services"`
}

// LoadTaxonomy reads a services YAML file. An empty path returns the
// built-in default table.
func LoadTaxonomy(path string) (Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "config: read taxonomy %s", path)
	}

	var f taxonomyFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrapf(err, "config: parse taxonomy %s", path)
	}

	t := make(Taxonomy, len(f.Services))
	for _, s := range f.Services {
		if s.Canonical == "" {
			continue
		}
		syns := make([]string, 0, len(s.Synonyms))
		for _, syn := range s.Synonyms {
			syn = strings.ToLower(strings.TrimSpace(syn))
			if syn != "" {
				syns = append(syns, syn)
			}
		}
		t[s.Canonical] = syns
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in service synonym table.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		"Pressure Washing":  {"pressure washing", "power washing", "pressure wash", "power wash"},
		"Soft Washing":      {"soft washing", "soft wash", "low pressure washing"},
		"Window Cleaning":   {"window cleaning", "window washing", "windows"},
		"Gutter Cleaning":   {"gutter cleaning", "gutters", "gutter clearing"},
		"Driveway Cleaning": {"driveway cleaning", "concrete cleaning", "driveway wash"},
		"Roof Cleaning":     {"roof cleaning", "roof washing", "roof moss removal"},
		"Lawn Care":         {"lawn care", "lawn mowing", "mowing", "lawn maintenance"},
		"Landscaping":       {"landscaping", "landscape design", "hardscaping"},
		"Tree Service":      {"tree service", "tree trimming", "tree removal", "arborist"},
		"Plumbing":          {"plumbing", "plumber", "drain cleaning", "pipe repair"},
		"HVAC":              {"hvac", "heating and cooling", "air conditioning", "ac repair", "furnace repair"},
		"Electrical":        {"electrical", "electrician", "wiring", "panel upgrade"},
		"House Cleaning":    {"house cleaning", "maid service", "home cleaning", "deep cleaning"},
		"Pest Control":      {"pest control", "exterminator", "termite treatment"},
		"Roofing":           {"roofing", "roof repair", "roof replacement", "shingle repair"},
		"Painting":          {"painting", "interior painting", "exterior painting", "house painting"},
	}
}
