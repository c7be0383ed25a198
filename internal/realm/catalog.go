package realm

// WeightedEvent is one entry of an event-type weight table.
type WeightedEvent struct {
	Type   EventType
	Weight float64
}

// Weights is an ordered weight table. Order matters: draws walk the slice,
// so a seeded rng always picks the same event.
type Weights []WeightedEvent

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	var total float64
	for _, e := range w {
		total += e.Weight
	}
	return total
}

func (w Weights) clone() Weights {
	return append(Weights(nil), w...)
}

func (w Weights) scale(t EventType, factor float64) {
	for i := range w {
		if w[i].Type == t {
			w[i].Weight *= factor
		}
	}
}

// Type describes a kind of realm.
type Type struct {
	Key         string
	Name        string
	Description string
	Weights     Weights
}

// Difficulty scales entry cost and rewards.
type Difficulty struct {
	Key              string
	Name             string
	CostMultiplier   float64
	RewardMultiplier float64
}

var realmTypes = []Type{
	{
		Key:         "trial",
		Name:        "试炼之地",
		Description: "平衡型秘境，适合稳定探索",
		Weights: Weights{
			{EventMonster, 0.35}, {EventTreasure, 0.20}, {EventTrap, 0.10}, {EventChoice, 0.15},
			{EventBlessing, 0.08}, {EventMerchant, 0.05}, {EventElite, 0.05}, {EventMystery, 0.02},
		},
	},
	{
		Key:         "treasure",
		Name:        "宝藏密室",
		Description: "宝箱丰富，但陷阱众多",
		Weights: Weights{
			{EventMonster, 0.15}, {EventTreasure, 0.40}, {EventTrap, 0.20}, {EventChoice, 0.10},
			{EventBlessing, 0.05}, {EventMerchant, 0.05}, {EventElite, 0.03}, {EventMystery, 0.02},
		},
	},
	{
		Key:         "beast",
		Name:        "妖兽巢穴",
		Description: "战斗密集，经验丰富",
		Weights: Weights{
			{EventMonster, 0.50}, {EventTreasure, 0.10}, {EventTrap, 0.05}, {EventChoice, 0.10},
			{EventBlessing, 0.05}, {EventMerchant, 0.03}, {EventElite, 0.15}, {EventMystery, 0.02},
		},
	},
	{
		Key:         "ruin",
		Name:        "古老遗迹",
		Description: "神秘事件多，可能获得珍稀奖励",
		Weights: Weights{
			{EventMonster, 0.20}, {EventTreasure, 0.25}, {EventTrap, 0.10}, {EventChoice, 0.15},
			{EventBlessing, 0.10}, {EventMerchant, 0.05}, {EventElite, 0.05}, {EventMystery, 0.10},
		},
	},
	{
		Key:         "ghost",
		Name:        "幽冥鬼域",
		Description: "极度危险，奖励丰厚",
		Weights: Weights{
			{EventMonster, 0.35}, {EventTreasure, 0.15}, {EventTrap, 0.15}, {EventChoice, 0.10},
			{EventBlessing, 0.10}, {EventMerchant, 0.03}, {EventElite, 0.10}, {EventMystery, 0.02},
		},
	},
}

var difficulties = []Difficulty{
	{Key: "normal", Name: "普通", CostMultiplier: 1.0, RewardMultiplier: 1.0},
	{Key: "hard", Name: "困难", CostMultiplier: 1.5, RewardMultiplier: 2.0},
	{Key: "hell", Name: "地狱", CostMultiplier: 2.0, RewardMultiplier: 3.0},
}

// Defaults used when the caller names no realm type or difficulty.
const (
	DefaultType       = "trial"
	DefaultDifficulty = "normal"
)

// Types returns every realm type in display order.
func Types() []Type {
	out := make([]Type, len(realmTypes))
	for i, t := range realmTypes {
		t.Weights = t.Weights.clone()
		out[i] = t
	}
	return out
}

// Difficulties returns every difficulty in display order.
func Difficulties() []Difficulty {
	return append([]Difficulty(nil), difficulties...)
}

// LookupType finds a realm type by key or display name.
func LookupType(key string) (Type, bool) {
	if key == "" {
		key = DefaultType
	}
	for _, t := range realmTypes {
		if t.Key == key || t.Name == key {
			t.Weights = t.Weights.clone()
			return t, true
		}
	}
	return Type{}, false
}

// LookupDifficulty finds a difficulty by key or display name.
func LookupDifficulty(key string) (Difficulty, bool) {
	if key == "" {
		key = DefaultDifficulty
	}
	for _, d := range difficulties {
		if d.Key == key || d.Name == key {
			return d, true
		}
	}
	return Difficulty{}, false
}

// AdjustedWeights applies progress adjustments for floor out of total and
// renormalizes the result to sum to 1. Early floors (progress < 0.3) halve
// trap and elite and boost treasure; late floors (progress > 0.7) boost
// elite and monster.
func AdjustedWeights(base Weights, floor, total int) Weights {
	w := base.clone()
	if total <= 0 {
		total = 1
	}
	progress := float64(floor) / float64(total)

	switch {
	case progress < 0.3:
		w.scale(EventTrap, 0.5)
		w.scale(EventElite, 0.5)
		w.scale(EventTreasure, 1.2)
	case progress > 0.7:
		w.scale(EventElite, 1.5)
		w.scale(EventMonster, 1.2)
	}

	sum := w.Sum()
	if sum <= 0 {
		return w
	}
	for i := range w {
		w[i].Weight /= sum
	}
	return w
}
