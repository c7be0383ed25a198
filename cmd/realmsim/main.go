// realmsim previews generated realms and simulates runs for balance tuning.
//
// Usage:
//
//	realmsim [command] [options]
//
// Commands:
//
//	preview   - Print a generated realm floor by floor
//	simulate  - Play N full runs with a synthetic player and report results
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/logger"
	"github.com/lawnchairsociety/realmcore/internal/realm"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Realm engines log every floor; keep the report readable.
	logger.InitializeWriter(os.Stderr, "text", "ERROR")

	switch os.Args[1] {
	case "preview":
		runPreview()
	case "simulate":
		runSimulate()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Realm Simulator

Usage: realmsim <command> [options]

Commands:
  preview   Print a generated realm floor by floor
  simulate  Play full runs with a synthetic player and report results

Examples:
  realmsim preview -type=ghost -difficulty=hell -level=6 -seed=42
  realmsim preview -type=ruin -yaml=ruin.yaml
  realmsim simulate -type=beast -difficulty=hard -level=4 -runs=1000

Use "realmsim <command> -h" for more information about a command.`)
}

// commonFlags registers the options shared by every command.
type commonFlags struct {
	configFile *string
	realmType  *string
	difficulty *string
	level      *int
	seed       *int64
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		configFile: fs.String("config", "data/game.yaml", "Path to game config YAML file"),
		realmType:  fs.String("type", realm.DefaultType, "Realm type key or name"),
		difficulty: fs.String("difficulty", realm.DefaultDifficulty, "Difficulty key or name"),
		level:      fs.Int("level", 0, "Player level index"),
		seed:       fs.Int64("seed", 42, "Generation seed"),
	}
}

func (c commonFlags) load() (*config.GameConfig, *gamedata.Store, realm.Type, realm.Difficulty) {
	cfg, err := config.LoadConfig(*c.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: using default config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	templates, err := gamedata.Load(cfg.DataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load game data: %v\n", err)
		os.Exit(1)
	}
	rt, ok := realm.LookupType(*c.realmType)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown realm type %q\n", *c.realmType)
		os.Exit(1)
	}
	d, ok := realm.LookupDifficulty(*c.difficulty)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown difficulty %q\n", *c.difficulty)
		os.Exit(1)
	}
	return cfg, templates, rt, d
}

func runPreview() {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	common := addCommonFlags(fs)
	yamlOut := fs.String("yaml", "", "Also write the realm to this YAML file")
	fs.Parse(os.Args[2:])

	cfg, templates, rt, d := common.load()
	gen := realm.NewGenerator(templates, cfg.Realm)

	inst, err := gen.Generate(rt, d, *common.level, rand.New(rand.NewSource(*common.seed)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: generation failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("=== %s · %s (level %d, seed %d) ===\n", rt.Name, d.Name, *common.level, *common.seed)
	fmt.Printf("Entry cost: %d  Completion bonus: %d  Floors: %d\n\n",
		realm.EntryCost(*common.level, d), realm.CompletionBonus(*common.level, inst.RewardMultiplier), inst.TotalFloors)
	for i, ev := range inst.Floors {
		fmt.Printf("%3d. %s\n", i+1, describeFloor(templates, ev))
	}

	if *yamlOut != "" {
		if err := writeRealmYAML(inst, *common.seed, *yamlOut); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote %s\n", *yamlOut)
	}
}

func runSimulate() {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	common := addCommonFlags(fs)
	runs := fs.Int("runs", 500, "Number of full runs")
	attack := fs.Int("attack", 0, "Player attack (default: scaled from level)")
	defense := fs.Int("defense", 0, "Player defense (default: scaled from level)")
	hp := fs.Int("hp", 0, "Player max HP (default: scaled from level)")
	fs.Parse(os.Args[2:])

	cfg, templates, rt, d := common.load()
	engine := realm.NewEngine(templates, cfg.Realm, rand.New(rand.NewSource(*common.seed)))

	stats := SyntheticStats(*common.level)
	if *attack > 0 {
		stats.Attack = *attack
	}
	if *defense > 0 {
		stats.Defense = *defense
	}
	if *hp > 0 {
		stats.MaxHP = *hp
	}

	fmt.Println("=== Realm Simulation ===")
	fmt.Println()
	fmt.Printf("Realm:  %s · %s\n", rt.Name, d.Name)
	fmt.Printf("Player: Level %d, %d HP, %d Attack, %d Defense\n", *common.level, stats.MaxHP, stats.Attack, stats.Defense)
	fmt.Printf("Runs:   %d\n\n", *runs)

	r := Simulate(engine, rt.Key, d.Key, *common.level, stats, *runs)

	fmt.Printf("Completion rate: %6.1f%%\n", r.CompletionRate())
	fmt.Printf("Avg gold:        %8.1f (net of entry cost)\n", r.AvgGold())
	fmt.Printf("Avg experience:  %8.1f\n", r.AvgExperience())
	fmt.Printf("Avg floors:      %8.1f\n", r.AvgFloors())
	if r.Errors > 0 {
		fmt.Printf("Errors:          %d\n", r.Errors)
	}
}
