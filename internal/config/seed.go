package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/leasewatch/leasewatch/internal/common"
	"github.com/leasewatch/leasewatch/internal/model"
)

// SeedFile is the yaml document describing the jurisdictions the
// pipeline watches and the template catalog it publishes into.
type SeedFile struct {
	Jurisdictions []SeedJurisdiction `yaml:"jurisdictions"`
	Templates     []SeedTemplate     `yaml:"templates"`
}

// SeedJurisdiction is one watched jurisdiction.
type SeedJurisdiction struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Active bool   `yaml:"active"`
}

// SeedTemplate is one catalog template.
type SeedTemplate struct {
	ID           string `yaml:"id"`
	Jurisdiction string `yaml:"jurisdiction"`
	Title        string `yaml:"title"`
	Category     string `yaml:"category"`
	Active       bool   `yaml:"active"`
}

// LoadSeedFile reads and validates a seed yaml file.
func LoadSeedFile(path string) (*SeedFile, error) {
	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("%w: failed to parse seed file: %v", common.ErrInvalidConfig, err)
	}

	if err := seed.validate(); err != nil {
		return nil, err
	}

	return &seed, nil
}

func (s *SeedFile) validate() error {
	jurisdictions := make(map[string]bool, len(s.Jurisdictions))
	for i, j := range s.Jurisdictions {
		if j.ID == "" {
			return fmt.Errorf("%w: jurisdiction %d has no id", common.ErrInvalidConfig, i)
		}
		if jurisdictions[j.ID] {
			return fmt.Errorf("%w: duplicate jurisdiction %s", common.ErrInvalidConfig, j.ID)
		}
		jurisdictions[j.ID] = true
	}

	templates := make(map[string]bool, len(s.Templates))
	for i, t := range s.Templates {
		if t.ID == "" {
			return fmt.Errorf("%w: template %d has no id", common.ErrInvalidConfig, i)
		}
		if templates[t.ID] {
			return fmt.Errorf("%w: duplicate template %s", common.ErrInvalidConfig, t.ID)
		}
		templates[t.ID] = true
		if !jurisdictions[t.Jurisdiction] {
			return fmt.Errorf("%w: template %s references unknown jurisdiction %q", common.ErrInvalidConfig, t.ID, t.Jurisdiction)
		}
	}

	return nil
}

// ModelJurisdictions converts the seed entries to model values.
func (s *SeedFile) ModelJurisdictions() []model.Jurisdiction {
	jurisdictions := make([]model.Jurisdiction, len(s.Jurisdictions))
	for i, j := range s.Jurisdictions {
		jurisdictions[i] = model.Jurisdiction{ID: j.ID, Name: j.Name, Active: j.Active}
	}
	return jurisdictions
}

// ModelTemplates converts the seed entries to model values.
func (s *SeedFile) ModelTemplates() []model.Template {
	templates := make([]model.Template, len(s.Templates))
	for i, t := range s.Templates {
		templates[i] = model.Template{
			ID:             t.ID,
			JurisdictionID: t.Jurisdiction,
			Title:          t.Title,
			Category:       t.Category,
			Active:         t.Active,
		}
	}
	return templates
}
