// Package npc provides hostile NPC template definitions and live instance
// management, including corpse decay scheduling.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KentRRhodes/fafo/internal/game/entity"
)

// WeaponSpec describes an item placed in a spawned NPC's hand.
type WeaponSpec struct {
	Name        string `yaml:"name"`
	Speed       int    `yaml:"speed"`
	ShieldBonus int    `yaml:"shield_bonus"`
}

// EffectSpec declares a stat effect applied to every instance spawned from
// a template. Condition, when set, is a Lua boolean expression over the
// instance's base stats; the effect only applies while it evaluates true.
type EffectSpec struct {
	Name      string  `yaml:"name"`
	Stat      string  `yaml:"stat"`
	Flat      float64 `yaml:"flat"`
	Percent   float64 `yaml:"percent"`
	Condition string  `yaml:"condition"`
}

// Template defines a reusable hostile NPC archetype loaded from YAML.
// Attributes and skills not listed default to 1.
type Template struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	MaxHealth   int            `yaml:"max_health"`
	Experience  int            `yaml:"experience"`
	Attributes  map[string]int `yaml:"attributes"`
	Skills      map[string]int `yaml:"skills"`
	Weapon      *WeaponSpec    `yaml:"weapon"`
	Shield      *WeaponSpec    `yaml:"shield"`
	Effects     []EffectSpec   `yaml:"effects"`
	// CorpseDecay is the duration string (e.g. "90s", "2m") before this
	// NPC's corpse is removed. Empty means the server default applies.
	CorpseDecay string `yaml:"corpse_decay"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHealth >= 1,
// Experience >= 0, every attribute and skill key is a known name, and
// CorpseDecay (if set) parses as a duration; returns an error on the first
// violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	if t.MaxHealth < 1 {
		return fmt.Errorf("npc template %q: max_health must be >= 1", t.ID)
	}
	if t.Experience < 0 {
		return fmt.Errorf("npc template %q: experience must be >= 0", t.ID)
	}
	var attrs entity.Attributes
	for name := range t.Attributes {
		if !attrs.Set(name, 0) {
			return fmt.Errorf("npc template %q: unknown attribute %q", t.ID, name)
		}
	}
	var skills entity.Skills
	for name := range t.Skills {
		if !skills.Set(name, 0) {
			return fmt.Errorf("npc template %q: unknown skill %q", t.ID, name)
		}
	}
	for i, eff := range t.Effects {
		if eff.Name == "" {
			return fmt.Errorf("npc template %q: effect %d: name must not be empty", t.ID, i)
		}
		if !attrs.Set(eff.Stat, 0) && !skills.Set(eff.Stat, 0) {
			return fmt.Errorf("npc template %q: effect %q: unknown stat %q", t.ID, eff.Name, eff.Stat)
		}
		if eff.Flat == 0 && eff.Percent == 0 {
			return fmt.Errorf("npc template %q: effect %q: flat or percent must be non-zero", t.ID, eff.Name)
		}
		if eff.Flat != 0 && eff.Percent != 0 {
			return fmt.Errorf("npc template %q: effect %q: flat and percent are mutually exclusive", t.ID, eff.Name)
		}
	}
	if t.CorpseDecay != "" {
		if _, err := time.ParseDuration(t.CorpseDecay); err != nil {
			return fmt.Errorf("npc template %q: corpse_decay %q is not a valid duration: %w", t.ID, t.CorpseDecay, err)
		}
	}
	return nil
}

// BuildAttributes resolves the template's attribute overrides on top of the
// defaults.
func (t *Template) BuildAttributes() entity.Attributes {
	attrs := entity.DefaultAttributes()
	for name, value := range t.Attributes {
		attrs.Set(name, value)
	}
	return attrs
}

// BuildSkills resolves the template's skill overrides on top of the defaults.
func (t *Template) BuildSkills() entity.Skills {
	skills := entity.DefaultSkills()
	for name, value := range t.Skills {
		skills.Set(name, value)
	}
	return skills
}

// LoadTemplateFromBytes parses a single NPC template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error. CorpseDecay, if
// non-empty, is guaranteed to be a valid Go duration string.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
