package player

// BuffType identifies a timed combat modifier.
type BuffType string

const (
	BuffAttack    BuffType = "attack_buff"
	BuffDefense   BuffType = "defense_buff"
	BuffHP        BuffType = "hp_buff"
	DebuffAttack  BuffType = "attack_debuff"
	DebuffDefense BuffType = "defense_debuff"
)

// IsDebuff reports whether the modifier lowers stats.
func (t BuffType) IsDebuff() bool {
	return t == DebuffAttack || t == DebuffDefense
}

// Buff is a modifier that lasts for a number of fights. Value is always a
// magnitude; debuffs subtract it.
type Buff struct {
	Type     BuffType `json:"type"`
	Value    int      `json:"value"`
	Duration int      `json:"duration"`
}

// AddBuff applies a modifier. An existing modifier of the same type is
// refreshed to the larger value and the longer duration.
func (p *Player) AddBuff(t BuffType, value, duration int) {
	if value < 0 {
		value = -value
	}
	if duration <= 0 {
		return
	}
	for i := range p.Buffs {
		if p.Buffs[i].Type == t {
			p.Buffs[i].Value = max(p.Buffs[i].Value, value)
			p.Buffs[i].Duration = max(p.Buffs[i].Duration, duration)
			return
		}
	}
	p.Buffs = append(p.Buffs, Buff{Type: t, Value: value, Duration: duration})
}

// ConsumeBuffDuration ticks every modifier down by one fight and drops the
// expired ones.
func (p *Player) ConsumeBuffDuration() {
	kept := p.Buffs[:0]
	for _, b := range p.Buffs {
		b.Duration--
		if b.Duration > 0 {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		p.Buffs = nil
		return
	}
	p.Buffs = kept
}

// BuffLabel returns the display name of a modifier type.
func BuffLabel(t BuffType) string {
	switch t {
	case BuffAttack:
		return "攻击提升"
	case BuffDefense:
		return "防御提升"
	case BuffHP:
		return "气血提升"
	case DebuffAttack:
		return "攻击削弱"
	case DebuffDefense:
		return "防御削弱"
	default:
		return string(t)
	}
}
