// Package arena implements player-versus-player sparring and gold duels.
package arena

import (
	"time"

	"github.com/lawnchairsociety/realmcore/internal/combat"
	"github.com/lawnchairsociety/realmcore/internal/config"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/narrative"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

// Default rules used when the config leaves a value unset.
const (
	DefaultCooldown    = 300 * time.Second
	DefaultMinDuelBet  = 10
	DefaultExpBase     = 50
	DefaultExpPerLevel = 10
)

// Result is the outcome of a spar or duel. Attacker and Defender are
// updated clones for the caller to persist together.
type Result struct {
	Narrative string
	Attacker  *player.Player
	Defender  *player.Player
	WinnerID  string // empty on a draw
	Fight     combat.Outcome
}

// Arena applies PvP rules.
type Arena struct {
	items player.ItemLookup
	rules config.PvPConfig
	now   func() time.Time
}

// New creates an Arena. items resolves equipment for combat stats and may
// be nil.
func New(items player.ItemLookup, rules config.PvPConfig) *Arena {
	return &Arena{items: items, rules: rules, now: time.Now}
}

// SetClock overrides time.Now.
func (a *Arena) SetClock(now func() time.Time) {
	a.now = now
}

func (a *Arena) cooldown() time.Duration {
	if a.rules.CooldownSeconds <= 0 {
		return DefaultCooldown
	}
	return time.Duration(a.rules.CooldownSeconds) * time.Second
}

func (a *Arena) minBet() int {
	if a.rules.MinDuelBet <= 0 {
		return DefaultMinDuelBet
	}
	return a.rules.MinDuelBet
}

func (a *Arena) winExp(winner *player.Player) int {
	base, per := a.rules.ExpBase, a.rules.ExpPerLevel
	if base <= 0 {
		base = DefaultExpBase
	}
	if per <= 0 {
		per = DefaultExpPerLevel
	}
	return base + per*winner.LevelIndex
}

func displayName(p *player.Player, name string) string {
	if name != "" {
		return name
	}
	return p.DisplayName()
}

func (a *Arena) combatant(p *player.Player, name string) combat.Combatant {
	s := p.CombatStats(a.items)
	return combat.Combatant{
		Name:    name,
		HP:      s.HP,
		MaxHP:   s.MaxHP,
		Attack:  s.Attack,
		Defense: s.Defense,
	}
}

// ResolvePvP fights attacker against defender without touching either.
// winner and loser are nil on a draw.
func (a *Arena) ResolvePvP(attacker, defender *player.Player, attackerName, defenderName string) (winner, loser *player.Player, fight combat.Outcome) {
	fight = combat.ResolvePvP(
		a.combatant(attacker, displayName(attacker, attackerName)),
		a.combatant(defender, displayName(defender, defenderName)),
	)
	switch fight.Result {
	case combat.Victory:
		return attacker, defender, fight
	case combat.Defeat:
		return defender, attacker, fight
	}
	return nil, nil, fight
}

// check applies the refusals shared by spars and duels.
func (a *Arena) check(attacker, defender *player.Player, activity string, now time.Time) error {
	if attacker.UserID == defender.UserID {
		return gameerr.New(gameerr.CodeInvalidInput, "道友，不可与自己为敌。")
	}
	if !attacker.State.IsIdle() {
		return gameerr.Newf(gameerr.CodeInvalidState, "你当前正处于「%s」状态，无法与人%s。", attacker.State, activity)
	}
	if !defender.State.IsIdle() {
		return gameerr.Newf(gameerr.CodeInvalidState, "对方正处于「%s」状态，无法应战。", defender.State)
	}
	if !attacker.LastPvPAt.IsZero() {
		if wait := a.cooldown() - now.Sub(attacker.LastPvPAt); wait > 0 {
			return gameerr.Newf(gameerr.CodeInvalidState, "%s需要休息！冷却中，还需等待 %d 秒。", activity, int(wait.Seconds()))
		}
	}
	if attacker.HP < attacker.MaxHP {
		return gameerr.Newf(gameerr.CodeInvalidState, "你当前气血不满，无法参与%s，请先恢复。", activity)
	}
	if defender.HP < defender.MaxHP {
		return gameerr.New(gameerr.CodeInvalidState, "对方气血不满，此时挑战非君子所为。")
	}
	return nil
}

// fight runs the exchange and applies the result common to both modes:
// tallies, cooldown stamps and buff ticks. Hit points are not carried over.
func (a *Arena) fight(attacker, defender *player.Player, attackerName, defenderName string, now time.Time) (Result, *player.Player, *player.Player) {
	winner, _, fight := a.ResolvePvP(attacker, defender, attackerName, defenderName)

	res := Result{
		Attacker: attacker.Clone(),
		Defender: defender.Clone(),
		Fight:    fight,
	}
	res.Attacker.LastPvPAt = now
	res.Defender.LastPvPAt = now

	var w, l *player.Player
	if winner != nil {
		res.WinnerID = winner.UserID
		w, l = res.Attacker, res.Defender
		if winner == defender {
			w, l = res.Defender, res.Attacker
		}
		w.PvPWins++
		l.PvPLosses++
	}

	res.Attacker.ConsumeBuffDuration()
	res.Defender.ConsumeBuffDuration()
	return res, w, l
}

// Spar is a friendly fight. The winner gains experience.
func (a *Arena) Spar(attacker, defender *player.Player, attackerName, defenderName string) (Result, error) {
	now := a.now()
	if err := a.check(attacker, defender, "切磋", now); err != nil {
		return Result{}, err
	}

	res, w, _ := a.fight(attacker, defender, attackerName, defenderName, now)

	var b narrative.Builder
	b.Append(res.Fight.Lines...)
	if w != nil {
		exp := a.winExp(w)
		w.Experience += exp
		b.Blank()
		b.Line("🎉 胜者获得 %d 修为奖励！", exp)
	}
	res.Narrative = b.String()
	return res, nil
}

// Duel is a fight with a gold bet; the winner takes the bet from the loser.
func (a *Arena) Duel(attacker, defender *player.Player, attackerName, defenderName string, bet int) (Result, error) {
	if bet < a.minBet() {
		return Result{}, gameerr.Newf(gameerr.CodeInvalidInput, "赌注最低%d灵石！", a.minBet())
	}
	now := a.now()
	if err := a.check(attacker, defender, "奇斗", now); err != nil {
		return Result{}, err
	}
	if attacker.Gold < bet {
		return Result{}, gameerr.Newf(gameerr.CodeInsufficientResource, "灵石不足！你只有 %d 灵石，无法押注 %d。", attacker.Gold, bet)
	}
	if defender.Gold < bet {
		return Result{}, gameerr.Newf(gameerr.CodeInsufficientResource, "对方灵石不足 %d，无法接受挑战。", bet)
	}

	res, w, l := a.fight(attacker, defender, attackerName, defenderName, now)

	var b narrative.Builder
	b.Append(res.Fight.Lines...)
	if w != nil {
		w.Gold += bet
		l.Gold -= bet
		name := displayName(w, attackerName)
		if w == res.Defender {
			name = displayName(w, defenderName)
		}
		b.Blank()
		b.Line("💰 %s 赢得 %d 灵石！", name, bet)
	}
	res.Narrative = b.String()
	return res, nil
}
