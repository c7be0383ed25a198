package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/realmcore/internal/realm"
)

// RealmYAML is a realm in YAML format
type RealmYAML struct {
	ID               string      `yaml:"id"`
	Type             string      `yaml:"realm_type"`
	Difficulty       string      `yaml:"difficulty"`
	LevelIndex       int         `yaml:"level_index"`
	GeneratedSeed    int64       `yaml:"generated_seed"`
	RewardMultiplier float64     `yaml:"reward_multiplier"`
	Floors           []FloorYAML `yaml:"floors"`
}

// FloorYAML is one floor in YAML format
type FloorYAML struct {
	Floor       int      `yaml:"floor"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	TemplateID  string   `yaml:"template_id,omitempty"`
	Gold        int      `yaml:"gold,omitempty"`
	Choices     []string `yaml:"choices,omitempty"`
	Offerings   []string `yaml:"offerings,omitempty"`
}

func toRealmYAML(inst *realm.Instance, seed int64) *RealmYAML {
	out := &RealmYAML{
		ID:               inst.ID,
		Type:             inst.Type,
		Difficulty:       inst.Difficulty,
		LevelIndex:       inst.LevelIndex,
		GeneratedSeed:    seed,
		RewardMultiplier: inst.RewardMultiplier,
	}
	for i, ev := range inst.Floors {
		f := FloorYAML{
			Floor:       i + 1,
			Type:        string(ev.Type),
			Description: ev.Description,
			TemplateID:  ev.Data.TemplateID,
			Gold:        ev.Data.Gold,
		}
		for _, c := range ev.Choices {
			f.Choices = append(f.Choices, c.Text)
		}
		for _, o := range ev.Data.Offerings {
			f.Offerings = append(f.Offerings, fmt.Sprintf("%s @%d", o.Name, o.Cost))
		}
		out.Floors = append(out.Floors, f)
	}
	return out
}

// writeRealmYAML writes a generated realm to a YAML file
func writeRealmYAML(inst *realm.Instance, seed int64, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Realm %s - %s\n", inst.Type, inst.Difficulty)
	fmt.Fprintf(f, "# Generated with seed: %d\n", seed)
	fmt.Fprintf(f, "# Floor count: %d\n\n", inst.TotalFloors)

	encoder := yaml.NewEncoder(f)
	encoder.SetIndent(2)
	if err := encoder.Encode(toRealmYAML(inst, seed)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
