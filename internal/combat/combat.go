// Package combat resolves fights between players, monsters and bosses.
//
// Every fight is a deterministic exchange of blows: the challenger strikes
// first, each hit deals max(1, attack-defense), and the side that drops to 1
// hp or less loses. Results never carry a combatant below 1 hp. The package
// has no side effects; callers persist whatever the outcome implies.
package combat

import "github.com/lawnchairsociety/realmcore/internal/narrative"

// Turn caps keep every fight finite.
const (
	MaxPvETurns = 50
	MaxPvPTurns = 30
)

// Combatant is a fighter's effective stats at the start of a fight.
type Combatant struct {
	Name    string
	HP      int
	MaxHP   int
	Attack  int
	Defense int
}

// Result is the challenger's view of how a fight ended.
type Result int

const (
	Defeat Result = iota
	Victory
	Draw
)

func (r Result) String() string {
	switch r {
	case Victory:
		return "victory"
	case Draw:
		return "draw"
	default:
		return "defeat"
	}
}

// Outcome describes a finished fight from the challenger's side.
type Outcome struct {
	Result      Result
	Turns       int
	DamageDealt int
	DamageTaken int

	// Post-combat snapshots, pinned to at least 1 hp.
	Challenger Combatant
	Opponent   Combatant

	// OpponentRemainingHP is the opponent's true hp after the fight, which
	// may be 0. World bosses use it to detect the killing blow.
	OpponentRemainingHP int

	Lines []string
}

// Won reports whether the challenger won.
func (o Outcome) Won() bool {
	return o.Result == Victory
}

// Narrative joins the fight report into a single block of text.
func (o Outcome) Narrative() string {
	var b narrative.Builder
	b.Append(o.Lines...)
	return b.String()
}

// Damage returns the damage one blow deals.
func Damage(attack, defense int) int {
	return max(1, attack-defense)
}

func pin(hp int) int {
	if hp < 1 {
		return 1
	}
	return hp
}

// ResolvePvE fights a player against a monster until one side falls or the
// turn cap is reached. Reaching the cap counts as a defeat.
func ResolvePvE(player, enemy Combatant) Outcome {
	p, e := player, enemy
	out := Outcome{}

	for p.HP > 1 && e.HP > 0 && out.Turns < MaxPvETurns {
		out.Turns++
		dmg := Damage(p.Attack, e.Defense)
		e.HP -= dmg
		out.DamageDealt += dmg
		if e.HP <= 0 {
			break
		}

		dmg = Damage(e.Attack, p.Defense)
		p.HP -= dmg
		out.DamageTaken += dmg
	}

	if e.HP <= 0 {
		out.Result = Victory
	}
	out.OpponentRemainingHP = max(e.HP, 0)
	p.HP = pin(p.HP)
	e.HP = pin(e.HP)
	out.Challenger, out.Opponent = p, e

	var b narrative.Builder
	b.Line("你遭遇了【%s】！", enemy.Name)
	b.Append("……激战过后……")
	if out.Won() {
		b.Append("✓ 你获得了胜利！")
	} else {
		b.Append("✗ 你不敌对手，力竭倒下！")
	}
	appendTotals(&b, out)
	out.Lines = b.Lines()
	return out
}

// ResolveBoss fights a player against a boss's live hp. Each blow is capped
// at the boss's remaining hp, so DamageDealt is exactly the hp the boss lost.
func ResolveBoss(player, boss Combatant) Outcome {
	p, e := player, boss
	out := Outcome{}

	for p.HP > 1 && e.HP > 0 && out.Turns < MaxPvETurns {
		out.Turns++
		dmg := min(Damage(p.Attack, e.Defense), e.HP)
		e.HP -= dmg
		out.DamageDealt += dmg
		if e.HP <= 0 {
			break
		}

		dmg = Damage(e.Attack, p.Defense)
		p.HP -= dmg
		out.DamageTaken += dmg
	}

	if e.HP <= 0 {
		out.Result = Victory
	}
	out.OpponentRemainingHP = max(e.HP, 0)
	fell := p.HP <= 1 && e.HP > 0
	p.HP = pin(p.HP)
	e.HP = pin(e.HP)
	out.Challenger, out.Opponent = p, e

	var b narrative.Builder
	b.Line("你向【%s】发起了挑战！", boss.Name)
	b.Append("……激战过后……")
	if fell {
		b.Append("✗ 你不敌妖兽，力竭倒下！")
	} else {
		b.Append("✓ 你坚持到了最后！")
	}
	appendTotals(&b, out)
	out.Lines = b.Lines()
	return out
}

// ResolvePvP fights two players. A side that drops to 1 hp loses at once;
// surviving the turn cap on both sides is a draw.
func ResolvePvP(challenger, defender Combatant) Outcome {
	p1, p2 := challenger, defender
	out := Outcome{Result: Draw}

	for p1.HP > 1 && p2.HP > 1 && out.Turns < MaxPvPTurns {
		out.Turns++
		dmg := Damage(p1.Attack, p2.Defense)
		p2.HP -= dmg
		out.DamageDealt += dmg
		if p2.HP <= 1 {
			p2.HP = 1
			break
		}

		dmg = Damage(p2.Attack, p1.Defense)
		p1.HP -= dmg
		out.DamageTaken += dmg
		if p1.HP <= 1 {
			p1.HP = 1
			break
		}
	}

	switch {
	case p1.HP <= 1:
		out.Result = Defeat
	case p2.HP <= 1:
		out.Result = Victory
	}
	p1.HP = pin(p1.HP)
	p2.HP = pin(p2.HP)
	out.Challenger, out.Opponent = p1, p2
	out.OpponentRemainingHP = p2.HP

	var b narrative.Builder
	b.Line("⚔️【切磋】%s vs %s", challenger.Name, defender.Name)
	b.Append("……一番激斗……")
	switch out.Result {
	case Victory:
		b.Line("🏆 %s 技高一筹，获得了胜利！", challenger.Name)
	case Defeat:
		b.Line("🏆 %s 技高一筹，获得了胜利！", defender.Name)
	default:
		b.Append("【平局】双方大战三十回合，未分胜负！")
	}
	appendSide(&b, p1, out.DamageDealt, out.DamageTaken)
	appendSide(&b, p2, out.DamageTaken, out.DamageDealt)
	out.Lines = b.Lines()
	return out
}

func appendTotals(b *narrative.Builder, out Outcome) {
	b.Line("- 战斗历时: %d回合", out.Turns)
	b.Line("- 总计伤害: %d点", out.DamageDealt)
	b.Line("- 承受伤害: %d点", out.DamageTaken)
}

func appendSide(b *narrative.Builder, c Combatant, dealt, taken int) {
	b.Blank()
	b.Line("--- %s 战报 ---", c.Name)
	b.Line("- 总计伤害: %d点", dealt)
	b.Line("- 承受伤害: %d点", taken)
	b.Line("- 剩余生命: %d/%d", c.HP, c.MaxHP)
}
