package worldboss

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/realmcore/internal/combat"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/logger"
	"github.com/lawnchairsociety/realmcore/internal/narrative"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

// AttackOutcome is the result of one attack.
type AttackOutcome struct {
	Narrative   string
	Player      *player.Player // clone with buff durations ticked
	Damage      int
	RemainingHP int
	Defeated    bool
	Settlement  *Settlement // set only for the request that settled the boss
}

func goneRefusal(bossID string) error {
	return gameerr.Newf(gameerr.CodeNotFound, "来晚了一步，ID为【%s】的Boss已被击败或已消失！", bossID).
		WithMetadata("boss_id", bossID)
}

func (m *Manager) cooldownRefusal(ctx context.Context, bossID, userID string, now time.Time) error {
	remaining := m.playerCooldown()
	if last, ok, err := m.store.LastAttack(ctx, bossID, userID); err == nil && ok {
		remaining -= now.Sub(last)
	}
	if remaining < time.Second {
		remaining = time.Second
	}
	secs := int(remaining / time.Second)
	return gameerr.Newf(gameerr.CodeInvalidState, "你太过疲惫，需要休息后才能再次讨伐此Boss！剩余冷却时间：%d分%d秒", secs/60, secs%60).
		WithMetadata("boss_id", bossID)
}

// Attack fights bossID once on behalf of p. The returned player carries the
// ticked buffs; its hp is untouched because boss fights start from full
// health every time. If this attack lands the killing blow the boss is
// settled before returning.
func (m *Manager) Attack(ctx context.Context, p *player.Player, bossID, displayName string) (AttackOutcome, error) {
	if !p.State.IsIdle() {
		return AttackOutcome{}, gameerr.Newf(gameerr.CodeInvalidState, "你当前正处于「%s」状态，无法讨伐妖兽。", p.State)
	}
	if displayName == "" {
		displayName = p.DisplayName()
	}

	if err := m.EnsureSpawned(ctx); err != nil {
		return AttackOutcome{}, err
	}

	inst, err := m.store.ActiveBoss(ctx, bossID)
	if errors.Is(err, ErrNotActive) {
		return AttackOutcome{}, goneRefusal(bossID)
	}
	if err != nil {
		return AttackOutcome{}, fmt.Errorf("load boss %s: %w", bossID, err)
	}
	if inst.CurrentHP <= 0 {
		return AttackOutcome{}, goneRefusal(bossID)
	}

	now := m.now()
	cooldown := m.playerCooldown()
	if last, ok, err := m.store.LastAttack(ctx, bossID, p.UserID); err != nil {
		return AttackOutcome{}, fmt.Errorf("load last attack: %w", err)
	} else if ok && now.Sub(last) < cooldown {
		return AttackOutcome{}, m.cooldownRefusal(ctx, bossID, p.UserID, now)
	}

	boss, err := m.newBoss(bossID, inst.LevelIndex)
	if err != nil {
		return AttackOutcome{}, gameerr.Wrap(gameerr.CodeGenerationFailure, "天机混乱，未能载入此Boss的战斗数据。", err).
			WithMetadata("boss_id", bossID)
	}

	stats := p.CombatStats(m.templates)
	challenger := combat.Combatant{
		Name:    displayName,
		HP:      stats.MaxHP,
		MaxHP:   stats.MaxHP,
		Attack:  stats.Attack,
		Defense: stats.Defense,
	}
	opponent := boss.Combatant()
	opponent.HP = inst.CurrentHP
	opponent.MaxHP = inst.MaxHP

	fight := combat.ResolveBoss(challenger, opponent)

	hit, err := m.store.ApplyHit(ctx, bossID, p.UserID, displayName, fight.DamageDealt, now, cooldown)
	switch {
	case errors.Is(err, ErrOnCooldown):
		return AttackOutcome{}, m.cooldownRefusal(ctx, bossID, p.UserID, now)
	case errors.Is(err, ErrNotActive):
		return AttackOutcome{}, goneRefusal(bossID)
	case err != nil:
		return AttackOutcome{}, fmt.Errorf("apply hit on %s: %w", bossID, err)
	}

	logger.Info("World boss attacked",
		"boss_id", bossID,
		"user_id", p.UserID,
		"damage", hit.Applied,
		"remaining_hp", hit.RemainingHP)

	updated := p.Clone()
	updated.ConsumeBuffDuration()

	out := AttackOutcome{
		Player:      updated,
		Damage:      hit.Applied,
		RemainingHP: hit.RemainingHP,
	}

	var b narrative.Builder
	b.Append(fight.Lines...)
	if hit.Applied > 0 {
		b.Blank()
		b.Line("你本次共对Boss贡献了 %d 点伤害！", hit.Applied)
	}

	if hit.RemainingHP == 0 && hit.Applied > 0 {
		out.Defeated = true
		b.Blank()
		b.Line("**惊天动地！【%s】在众位道友的合力之下倒下了！**", boss.Name)

		inst.CurrentHP = 0
		inst.DefeatedAt = now
		s, err := m.settle(ctx, inst)
		switch {
		case errors.Is(err, ErrAlreadySettled):
			logger.Warning("World boss settled by another request", "boss_id", bossID)
		case err != nil:
			// The hit is committed; the next spawn check retries settlement.
			logger.Error("World boss settlement failed", "boss_id", bossID, "error", err)
		default:
			out.Settlement = s
			b.Append(m.settlementReport(s)...)
		}
	}

	out.Narrative = b.String()
	return out, nil
}
