package realm

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/lawnchairsociety/realmcore/internal/bestiary"
	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
)

// Templates is the template source realms are generated and played from.
// *gamedata.Store satisfies it.
type Templates interface {
	bestiary.Templates
	Item(id string) (gamedata.Item, bool)
	ItemName(id string) string
	Items() []gamedata.Item
	MonsterIDs() []string
	BossIDs() []string
	LevelName(index int) string
}

// Generator builds realm instances.
type Generator struct {
	templates Templates
	rules     config.RealmConfig
}

// NewGenerator creates a generator over the given templates and rules.
func NewGenerator(templates Templates, rules config.RealmConfig) *Generator {
	return &Generator{templates: templates, rules: rules}
}

// TotalFloors returns the floor count for a player at the given level index.
func (g *Generator) TotalFloors(level int) int {
	base := max(g.rules.BaseFloors, 1)
	divisor := max(g.rules.FloorsPerLevelDivisor, 1)
	return base + max(level, 0)/divisor
}

func (g *Generator) eliteMultiplier() float64 {
	if g.rules.EliteRewardMultiplier > 0 {
		return g.rules.EliteRewardMultiplier
	}
	return defaultEliteMultiplier
}

// Generate rolls every floor of a new realm. Floors 1..n-1 come from the
// realm type's weighted event table; floor n is always a boss.
func (g *Generator) Generate(rt Type, d Difficulty, level int, rng *rand.Rand) (*Instance, error) {
	monsters := g.templates.MonsterIDs()
	bosses := g.templates.BossIDs()
	if len(monsters) == 0 || len(bosses) == 0 {
		return nil, gameerr.New(gameerr.CodeGenerationFailure, "天机混乱，秘境生成失败，请稍后再试。").
			WithMetadata("monsters", fmt.Sprint(len(monsters))).
			WithMetadata("bosses", fmt.Sprint(len(bosses)))
	}

	total := g.TotalFloors(level)
	floors := make([]FloorEvent, 0, total)
	for floor := 1; floor < total; floor++ {
		floors = append(floors, g.event(rt, floor, total, level, monsters, rng))
	}
	floors = append(floors, bossEvent(bosses, rng))

	return &Instance{
		ID:               fmt.Sprintf("%s_%s_%s", rt.Key, d.Key, uuid.NewString()),
		Type:             rt.Key,
		Difficulty:       d.Key,
		LevelIndex:       level,
		TotalFloors:      total,
		Floors:           floors,
		RewardMultiplier: d.RewardMultiplier,
	}, nil
}
