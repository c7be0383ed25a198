package gamedata

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lawnchairsociety/realmcore/internal/logger"
	"gopkg.in/yaml.v3"
)

// File names inside the data directory.
const (
	MonstersFile = "monsters.yaml"
	BossesFile   = "bosses.yaml"
	TagsFile     = "tags.yaml"
	ItemsFile    = "items.yaml"
	LevelsFile   = "levels.yaml"
)

type monstersYAML struct {
	Monsters map[string]MonsterTemplate `yaml:"monsters"`
}

type bossesYAML struct {
	Bosses map[string]BossTemplate `yaml:"bosses"`
}

type tagsYAML struct {
	Tags map[string]TagEffect `yaml:"tags"`
}

type itemsYAML struct {
	Items map[string]Item `yaml:"items"`
}

type levelsYAML struct {
	Levels []Level `yaml:"levels"`
}

// Load reads every template file from dir. A missing file is logged and
// treated as an empty table; a file that exists but cannot be parsed is an
// error.
func Load(dir string) (*Store, error) {
	var (
		monsters monstersYAML
		bosses   bossesYAML
		tags     tagsYAML
		items    itemsYAML
		levels   levelsYAML
	)

	files := []struct {
		name string
		dst  any
	}{
		{MonstersFile, &monsters},
		{BossesFile, &bosses},
		{TagsFile, &tags},
		{ItemsFile, &items},
		{LevelsFile, &levels},
	}

	for _, f := range files {
		if err := loadYAML(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, err
		}
	}

	for id, b := range bosses.Bosses {
		if b.Name == "" {
			return nil, fmt.Errorf("boss %s has no name", id)
		}
	}
	for id, m := range monsters.Monsters {
		if m.Name == "" {
			return nil, fmt.Errorf("monster %s has no name", id)
		}
	}

	store := NewStore(Data{
		Monsters: monsters.Monsters,
		Bosses:   bosses.Bosses,
		Tags:     tags.Tags,
		Items:    items.Items,
		Levels:   levels.Levels,
	})

	logger.Info("Game data loaded",
		"dir", dir,
		"monsters", len(store.monsterIDs),
		"bosses", len(store.bossIDs),
		"tags", len(store.tags),
		"items", len(store.itemIDs),
		"levels", len(store.levels))

	return store, nil
}

func loadYAML(path string, dst any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warning("Data file missing, using empty table", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
