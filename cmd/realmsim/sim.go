package main

import (
	"fmt"

	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/player"
	"github.com/lawnchairsociety/realmcore/internal/realm"
)

// Stats are the synthetic player's combat numbers.
type Stats struct {
	MaxHP   int
	Attack  int
	Defense int
}

// SyntheticStats approximates a player who has kept pace with level.
func SyntheticStats(level int) Stats {
	return Stats{
		MaxHP:   player.DefaultHP + 40*level,
		Attack:  player.DefaultAttack + 8*level,
		Defense: player.DefaultDefense + 4*level,
	}
}

// Result aggregates simulated runs.
type Result struct {
	Runs       int
	Completed  int
	Errors     int
	TotalGold  int
	TotalExp   int
	TotalFloor int
}

func (r Result) CompletionRate() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.Completed) * 100 / float64(r.Runs)
}

func (r Result) AvgGold() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.TotalGold) / float64(r.Runs)
}

func (r Result) AvgExperience() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.TotalExp) / float64(r.Runs)
}

func (r Result) AvgFloors() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.TotalFloor) / float64(r.Runs)
}

const startingGold = 1_000_000

// Simulate plays runs full realms. Prompts are always answered with the
// first option and hit points carry over between floors.
func Simulate(engine *realm.Engine, realmType, difficulty string, level int, stats Stats, runs int) Result {
	res := Result{Runs: runs}
	limit := 2*engine.Generator().TotalFloors(level) + 2

	for i := 0; i < runs; i++ {
		p := player.New(fmt.Sprintf("sim-%04d", i), "")
		p.LevelIndex = level
		p.Gold = startingGold
		p.MaxHP, p.HP = stats.MaxHP, stats.MaxHP
		p.Attack = stats.Attack
		p.Defense = stats.Defense

		out, err := engine.Start(p, realmType, difficulty)
		if err != nil {
			res.Errors++
			continue
		}
		p = out.Player

	run:
		for step := 0; step < limit; step++ {
			if p.HasPendingChoice() {
				out, err = engine.Choose(p, 1)
			} else {
				out, err = engine.Advance(p)
				if err == nil {
					res.TotalFloor++
				}
			}
			if err != nil {
				res.Errors++
				break
			}
			p = out.Player
			switch out.Status {
			case realm.StatusCompleted:
				res.Completed++
				break run
			case realm.StatusFailed:
				break run
			}
		}

		res.TotalGold += p.Gold - startingGold
		res.TotalExp += p.Experience
	}
	return res
}

// describeFloor renders one floor for the preview listing.
func describeFloor(templates *gamedata.Store, ev realm.FloorEvent) string {
	line := fmt.Sprintf("[%s] %s", ev.Type, ev.Description)
	d := ev.Data
	switch {
	case d.TemplateID != "":
		name := d.TemplateID
		if m, ok := templates.Monster(d.TemplateID); ok {
			name = m.Name
		} else if b, ok := templates.Boss(d.TemplateID); ok {
			name = b.Name
		}
		line += fmt.Sprintf(" (%s", name)
		if d.RewardMultiplier > 0 {
			line += fmt.Sprintf(" x%.2f", d.RewardMultiplier)
		}
		line += ")"
	case d.Gold > 0:
		line += fmt.Sprintf(" (%d gold)", d.Gold)
	case d.DamagePercent > 0:
		line += fmt.Sprintf(" (%.0f%% hp, -%d gold)", d.DamagePercent*100, d.GoldLoss)
	case d.Effect != nil:
		line += fmt.Sprintf(" (%s %d for %d fights)", d.Effect.Kind, d.Effect.Value, d.Effect.Duration)
	case len(d.Offerings) > 0:
		line += fmt.Sprintf(" (%d offerings)", len(d.Offerings))
	}
	if len(ev.Choices) > 0 {
		line += fmt.Sprintf(" [%d choices]", len(ev.Choices))
	}
	return line
}
