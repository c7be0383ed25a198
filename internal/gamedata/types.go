package gamedata

// LootEntry is one independently rolled line of a loot table.
type LootEntry struct {
	ItemID   string  `yaml:"item_id"`
	Chance   float64 `yaml:"chance"`   // 0.0 - 1.0
	Quantity []int   `yaml:"quantity"` // [min, max] inclusive; [n] means exactly n
}

// QuantityRange returns the inclusive quantity bounds of the entry.
func (e LootEntry) QuantityRange() (int, int) {
	switch len(e.Quantity) {
	case 0:
		return 1, 1
	case 1:
		return e.Quantity[0], e.Quantity[0]
	default:
		lo, hi := e.Quantity[0], e.Quantity[1]
		if hi < lo {
			hi = lo
		}
		return lo, hi
	}
}

// TagEffect is a modifier record folded over a template's base stats.
// Multipliers left at zero in the data file are treated as 1.
type TagEffect struct {
	NamePrefix        string      `yaml:"name_prefix"`
	HPMultiplier      float64     `yaml:"hp_multiplier"`
	AttackMultiplier  float64     `yaml:"attack_multiplier"`
	DefenseMultiplier float64     `yaml:"defense_multiplier"`
	GoldMultiplier    float64     `yaml:"gold_multiplier"`
	ExpMultiplier     float64     `yaml:"exp_multiplier"`
	AddToLoot         []LootEntry `yaml:"add_to_loot"`
}

func (t *TagEffect) normalize() {
	for _, m := range []*float64{
		&t.HPMultiplier, &t.AttackMultiplier, &t.DefenseMultiplier,
		&t.GoldMultiplier, &t.ExpMultiplier,
	} {
		if *m == 0 {
			*m = 1.0
		}
	}
}

// MonsterTemplate describes a realm monster before level scaling.
type MonsterTemplate struct {
	ID   string   `yaml:"-"`
	Name string   `yaml:"name"`
	Tags []string `yaml:"tags"`
}

// BossTemplate describes a world or realm boss before level scaling.
type BossTemplate struct {
	ID              string   `yaml:"-"`
	Name            string   `yaml:"name"`
	Tags            []string `yaml:"tags"`
	CooldownMinutes int      `yaml:"cooldown_minutes"`
}

// Item ranks and types referenced by game rules.
const (
	RankCommon = "凡品"
	RankRare   = "珍品"
	TypeManual = "功法"
)

// Item is an inventory item definition.
type Item struct {
	ID           string         `yaml:"-"`
	Name         string         `yaml:"name"`
	Type         string         `yaml:"type"`
	Rank         string         `yaml:"rank"`
	Description  string         `yaml:"description"`
	Price        int            `yaml:"price"`
	EquipEffects map[string]int `yaml:"equip_effects"`
	SkillEffects map[string]int `yaml:"skill_effects"`
}

// Level is one cultivation tier; its position in the table is the level index.
type Level struct {
	Name        string  `yaml:"level_name"`
	ExpNeeded   int     `yaml:"exp_needed"`
	SuccessRate float64 `yaml:"success_rate"`
}
