package player

import "github.com/lawnchairsociety/realmcore/internal/gamedata"

// ItemLookup resolves item definitions for equipment and skill bonuses.
type ItemLookup interface {
	Item(id string) (gamedata.Item, bool)
}

// CombatStats are the effective stats a player fights with.
type CombatStats struct {
	HP      int
	MaxHP   int
	Attack  int
	Defense int
}

// CombatStats computes base stats plus equipment, learned-skill and buff
// modifiers. items may be nil, in which case only buffs apply.
func (p *Player) CombatStats(items ItemLookup) CombatStats {
	s := CombatStats{HP: p.HP, MaxHP: p.MaxHP, Attack: p.Attack, Defense: p.Defense}

	if items != nil {
		for _, id := range []string{p.EquippedWeapon, p.EquippedArmor, p.EquippedAccessory} {
			if id == "" {
				continue
			}
			if it, ok := items.Item(id); ok {
				s.apply(it.EquipEffects)
			}
		}
		for _, id := range p.LearnedSkills {
			if it, ok := items.Item(id); ok {
				s.apply(it.SkillEffects)
			}
		}
	}

	for _, b := range p.Buffs {
		switch b.Type {
		case BuffAttack:
			s.Attack += b.Value
		case BuffDefense:
			s.Defense += b.Value
		case BuffHP:
			s.MaxHP += b.Value
		case DebuffAttack:
			s.Attack -= b.Value
		case DebuffDefense:
			s.Defense -= b.Value
		}
	}

	s.Attack = max(s.Attack, 0)
	s.Defense = max(s.Defense, 0)
	if s.MaxHP < 1 {
		s.MaxHP = 1
	}
	return s
}

func (s *CombatStats) apply(effects map[string]int) {
	for key, v := range effects {
		switch key {
		case "attack":
			s.Attack += v
		case "defense":
			s.Defense += v
		case "max_hp":
			s.MaxHP += v
		}
	}
}
