package bestiary

// Base stat formulas by player level index. Tags and difficulty multiply on
// top of these.

// BaseStats is an untruncated stat block used while folding tags.
type BaseStats struct {
	HP      float64
	Attack  float64
	Defense float64
	Gold    float64
	Exp     float64
}

// MonsterBase returns base stats for a monster at the given level index.
// Formula: hp 15L+60, attack 2L+8, defense L+4, gold 3L+10, exp 5L+20
func MonsterBase(level int) BaseStats {
	l := float64(max(level, 0))
	return BaseStats{
		HP:      15*l + 60,
		Attack:  2*l + 8,
		Defense: l + 4,
		Gold:    3*l + 10,
		Exp:     5*l + 20,
	}
}

// BossBase returns base stats for a boss at the given level index.
// Formula: hp 200L+1000, attack 15L+60, defense 8L+30, gold 80L+1500, exp 150L+3000
func BossBase(level int) BaseStats {
	l := float64(max(level, 0))
	return BaseStats{
		HP:      200*l + 1000,
		Attack:  15*l + 60,
		Defense: 8*l + 30,
		Gold:    80*l + 1500,
		Exp:     150*l + 3000,
	}
}
