// Package bestiary turns monster and boss templates into level-scaled
// combat instances with rolled loot.
package bestiary

import (
	"math/rand"

	"github.com/lawnchairsociety/realmcore/internal/combat"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
)

// DefaultBossCooldownMinutes applies to boss templates without a cooldown.
const DefaultBossCooldownMinutes = 1440

// Templates is the read-only template source instances are built from.
type Templates interface {
	Monster(id string) (gamedata.MonsterTemplate, bool)
	Boss(id string) (gamedata.BossTemplate, bool)
	Tag(name string) (gamedata.TagEffect, bool)
}

// Rewards are granted when the instance is defeated.
type Rewards struct {
	Gold       int
	Experience int
	Items      map[string]int
}

// Monster is a level-scaled monster ready for combat.
type Monster struct {
	TemplateID string
	Name       string
	HP         int
	MaxHP      int
	Attack     int
	Defense    int
	Rewards    Rewards
}

// Combatant returns the monster's combat stats.
func (m Monster) Combatant() combat.Combatant {
	return combat.Combatant{
		Name:    m.Name,
		HP:      m.HP,
		MaxHP:   m.MaxHP,
		Attack:  m.Attack,
		Defense: m.Defense,
	}
}

// Boss is a level-scaled boss. CooldownMinutes is how long a world boss
// stays away after it is defeated.
type Boss struct {
	Monster
	CooldownMinutes int
}

// NewMonster instantiates a monster template at the given level index.
func NewMonster(t Templates, templateID string, level int, rng *rand.Rand) (Monster, error) {
	tmpl, ok := t.Monster(templateID)
	if !ok {
		return Monster{}, gameerr.Newf(gameerr.CodeNotFound, "找不到妖兽图录：%s", templateID).
			WithMetadata("template_id", templateID)
	}

	name, stats, loot := fold(t, tmpl.Name, tmpl.Tags, MonsterBase(level))
	return build(templateID, name, stats, loot, rng), nil
}

// NewBoss instantiates a boss template at the given level index. The
// difficulty multiplier scales hp, attack and defense after the tag fold;
// values <= 0 are treated as 1.
func NewBoss(t Templates, templateID string, level int, difficulty float64, rng *rand.Rand) (Boss, error) {
	tmpl, ok := t.Boss(templateID)
	if !ok {
		return Boss{}, gameerr.Newf(gameerr.CodeNotFound, "找不到首领图录：%s", templateID).
			WithMetadata("template_id", templateID)
	}
	if difficulty <= 0 {
		difficulty = 1.0
	}

	name, stats, loot := fold(t, tmpl.Name, tmpl.Tags, BossBase(level))
	stats.HP *= difficulty
	stats.Attack *= difficulty
	stats.Defense *= difficulty

	cooldown := tmpl.CooldownMinutes
	if cooldown <= 0 {
		cooldown = DefaultBossCooldownMinutes
	}
	return Boss{
		Monster:         build(templateID, name, stats, loot, rng),
		CooldownMinutes: cooldown,
	}, nil
}

// fold applies tags in template order. Unknown tags are skipped.
func fold(t Templates, name string, tags []string, s BaseStats) (string, BaseStats, []gamedata.LootEntry) {
	var loot []gamedata.LootEntry
	for _, tag := range tags {
		eff, ok := t.Tag(tag)
		if !ok {
			continue
		}
		if eff.NamePrefix != "" {
			name = "【" + eff.NamePrefix + "】" + name
		}
		s.HP *= multiplier(eff.HPMultiplier)
		s.Attack *= multiplier(eff.AttackMultiplier)
		s.Defense *= multiplier(eff.DefenseMultiplier)
		s.Gold *= multiplier(eff.GoldMultiplier)
		s.Exp *= multiplier(eff.ExpMultiplier)
		loot = append(loot, eff.AddToLoot...)
	}
	return name, s, loot
}

func multiplier(m float64) float64 {
	if m == 0 {
		return 1.0
	}
	return m
}

func build(id, name string, s BaseStats, loot []gamedata.LootEntry, rng *rand.Rand) Monster {
	hp := int(s.HP)
	return Monster{
		TemplateID: id,
		Name:       name,
		HP:         hp,
		MaxHP:      hp,
		Attack:     int(s.Attack),
		Defense:    int(s.Defense),
		Rewards: Rewards{
			Gold:       int(s.Gold),
			Experience: int(s.Exp),
			Items:      RollLoot(loot, rng),
		},
	}
}

// RollLoot runs one independent trial per entry. Quantities of the same item
// are summed. The result is never nil.
func RollLoot(table []gamedata.LootEntry, rng *rand.Rand) map[string]int {
	items := make(map[string]int)
	for _, entry := range table {
		if rng.Float64() >= entry.Chance {
			continue
		}
		lo, hi := entry.QuantityRange()
		qty := lo
		if hi > lo {
			qty += rng.Intn(hi - lo + 1)
		}
		if qty > 0 {
			items[entry.ItemID] += qty
		}
	}
	return items
}
