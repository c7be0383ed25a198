package realm

import (
	"sort"
	"strconv"
	"strings"

	"github.com/lawnchairsociety/realmcore/internal/bestiary"
	"github.com/lawnchairsociety/realmcore/internal/combat"
	"github.com/lawnchairsociety/realmcore/internal/gameerr"
	"github.com/lawnchairsociety/realmcore/internal/narrative"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

// Elite enemies are inflated before the fight.
const (
	eliteHPMultiplier   = 1.3
	eliteStatMultiplier = 1.2
)

type floorResult struct {
	survived bool
	items    map[string]int
}

// resolveFloor applies ev to p. Callers hold e.mu.
func (e *Engine) resolveFloor(p *player.Player, inst *Instance, ev FloorEvent, b *narrative.Builder) (floorResult, error) {
	mult := inst.RewardMultiplier
	switch ev.Type {
	case EventMonster, EventElite, EventBoss:
		return e.fight(p, ev, mult, b)

	case EventTreasure:
		gold := int(float64(ev.Data.Gold) * mult)
		p.Gold += gold
		b.Line("获得了 %d 灵石！", gold)

	case EventTrap:
		dmg := p.Hurt(int(float64(p.MaxHP) * ev.Data.DamagePercent))
		b.Line("受到了 %d 点伤害！（当前生命：%d/%d）", dmg, p.HP, p.MaxHP)
		if lost := p.TakeGold(ev.Data.GoldLoss); lost > 0 {
			b.Line("损失了 %d 灵石！", lost)
		}

	case EventBlessing:
		if ev.Data.Effect != nil {
			applyEffect(p, ev.Data.Name, *ev.Data.Effect, b)
		}

	case EventChoice:
		if len(ev.Choices) == 0 {
			b.Append("事件异常，自动跳过。")
			break
		}
		if err := setPending(p, &PendingChoice{Kind: KindChoice, Choices: ev.Choices}); err != nil {
			return floorResult{}, err
		}
		b.Blank()
		b.Append("请选择你的行动：")
		for _, c := range ev.Choices {
			b.Line("  %d. %s", c.ID, c.Text)
		}

	case EventMerchant:
		if len(ev.Data.Offerings) == 0 {
			b.Append("商人没有商品出售，继续前进...")
			break
		}
		if err := setPending(p, &PendingChoice{Kind: KindMerchant, Offerings: ev.Data.Offerings}); err != nil {
			return floorResult{}, err
		}
		b.Blank()
		b.Line("当前灵石：%d", p.Gold)
		b.Append("商人的商品：")
		for i, o := range ev.Data.Offerings {
			b.Line("  %d. 【%s】- %s - %d 灵石", i+1, o.Name, o.Description, o.Cost)
		}
		b.Line("  %d. 不购买，继续前进", len(ev.Data.Offerings)+1)

	case EventMystery:
		if ev.Data.Mystery != nil {
			e.mystery(p, *ev.Data.Mystery, mult, b)
		}

	default:
		b.Append("此地异常安静，你谨慎地探索着，未发生任何事。")
	}
	return floorResult{survived: true}, nil
}

func setPending(p *player.Player, pc *PendingChoice) error {
	data, err := pc.Encode()
	if err != nil {
		return err
	}
	p.RealmPendingChoice = data
	return nil
}

func (e *Engine) fight(p *player.Player, ev FloorEvent, mult float64, b *narrative.Builder) (floorResult, error) {
	var (
		enemy bestiary.Monster
		err   error
	)
	if ev.Type == EventBoss {
		var boss bestiary.Boss
		boss, err = bestiary.NewBoss(e.templates, ev.Data.TemplateID, p.LevelIndex, e.rules.BossScalingFactor, e.rng)
		enemy = boss.Monster
	} else {
		enemy, err = bestiary.NewMonster(e.templates, ev.Data.TemplateID, p.LevelIndex, e.rng)
	}
	if err != nil {
		return floorResult{}, gameerr.Wrap(gameerr.CodeGenerationFailure, "天机混乱，此层的妖兽未能现身。", err).
			WithMetadata("template_id", ev.Data.TemplateID)
	}

	if ev.Type == EventElite {
		enemy.HP = int(float64(enemy.HP) * eliteHPMultiplier)
		enemy.MaxHP = int(float64(enemy.MaxHP) * eliteHPMultiplier)
		enemy.Attack = int(float64(enemy.Attack) * eliteStatMultiplier)
		enemy.Defense = int(float64(enemy.Defense) * eliteStatMultiplier)
		mult *= ev.Data.RewardMultiplier
	}

	stats := p.CombatStats(e.templates)
	res := combat.ResolvePvE(combat.Combatant{
		Name:    p.DisplayName(),
		HP:      stats.HP,
		MaxHP:   stats.MaxHP,
		Attack:  stats.Attack,
		Defense: stats.Defense,
	}, enemy.Combatant())

	p.HP = res.Challenger.HP
	p.ConsumeBuffDuration()
	b.Append(res.Lines...)

	if !res.Won() {
		return floorResult{survived: false}, nil
	}

	gold := int(float64(enemy.Rewards.Gold) * mult)
	exp := int(float64(enemy.Rewards.Experience) * mult)
	p.Gold += gold
	p.Experience += exp
	b.Line("获得灵石 %d，修为 %d", gold, exp)
	appendItems(b, e.templates, enemy.Rewards.Items)

	switch ev.Type {
	case EventBoss:
		b.Append("成功击败最终头目！")
	case EventElite:
		b.Append("击败精英妖兽，获得额外奖励！")
	}
	return floorResult{survived: true, items: enemy.Rewards.Items}, nil
}

// appendItems lists item rewards in id order.
func appendItems(b *narrative.Builder, t Templates, items map[string]int) {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		b.Line("获得物品：【%s】x%d", t.ItemName(id), items[id])
	}
}

func applyEffect(p *player.Player, name string, eff Effect, b *narrative.Builder) {
	switch eff.Kind {
	case EffectHeal:
		healed := p.Heal(int(float64(p.MaxHP) * eff.Percent))
		b.Line("生命值恢复了 %d 点！（当前：%d/%d）", healed, p.HP, p.MaxHP)
	case EffectBuff:
		p.AddBuff(eff.Buff, eff.Value, eff.Duration)
		verb, sign := "获得", "+"
		if eff.Buff.IsDebuff() {
			verb, sign = "受到", "-"
		}
		b.Line("%s【%s】：%s%s%d，持续%d场战斗", verb, name, statLabel(eff.Buff), sign, eff.Value, eff.Duration)
	}
}

func statLabel(t player.BuffType) string {
	switch t {
	case player.BuffDefense, player.DebuffDefense:
		return "防御力"
	case player.BuffHP:
		return "生命上限"
	default:
		return "攻击力"
	}
}

func (e *Engine) mystery(p *player.Player, m Mystery, mult float64, b *narrative.Builder) {
	switch m.Outcome {
	case MysteryHealAndBuff:
		healed := p.Heal(int(float64(p.MaxHP) * m.Percent))
		b.Line("沐浴在灵泉中，生命值恢复了 %d 点！", healed)
		if m.Effect != nil {
			p.AddBuff(m.Effect.Buff, m.Effect.Value, m.Effect.Duration)
			b.Append("并且获得了力量提升！")
		}
	case MysteryGoldBonus:
		gold := int(float64(m.Gold) * mult)
		p.Gold += gold
		b.Line("获得了 %d 灵石！", gold)
	case MysteryDamage:
		dmg := p.Hurt(int(float64(p.MaxHP) * m.Percent))
		b.Line("受到了 %d 点伤害！（当前：%d/%d）", dmg, p.HP, p.MaxHP)
	case MysteryDebuff:
		if m.Effect != nil {
			p.AddBuff(m.Effect.Buff, m.Effect.Value, m.Effect.Duration)
		}
		b.Append("你被困住了，属性暂时降低！")
	}
}

// buy resolves a merchant prompt. Ids 1..n buy, n+1 declines.
func (e *Engine) buy(p *player.Player, offerings []Offering, id int, items map[string]int, b *narrative.Builder) error {
	n := len(offerings)
	if id == n+1 {
		b.Append("你决定不购买任何东西，继续前进。")
		return nil
	}
	if id < 1 || id > n {
		return gameerr.Newf(gameerr.CodeInvalidInput, "无效的选择，请选择 1-%d。", n+1)
	}

	o := offerings[id-1]
	if p.Gold < o.Cost {
		return gameerr.New(gameerr.CodeInsufficientResource,
			narrative.Sprintf("你的灵石不足，需要 %d 灵石。", o.Cost))
	}
	p.Gold -= o.Cost
	b.Line("你花费 %d 灵石购买了【%s】。", o.Cost, o.Name)

	switch o.Effect.Kind {
	case EffectHeal:
		healed := p.Heal(int(float64(p.MaxHP) * o.Effect.Percent))
		b.Line("生命值恢复了 %d 点！", healed)
	case EffectBuff:
		p.AddBuff(o.Effect.Buff, o.Effect.Value, o.Effect.Duration)
		b.Line("%s提升 %d 点，持续 %d 场战斗！", statLabel(o.Effect.Buff), o.Effect.Value, o.Effect.Duration)
	case EffectItem:
		items[o.Effect.ItemID]++
		b.Append("物品已添加到背包！")
	}
	return nil
}

// choose resolves a branching prompt by option id.
func (e *Engine) choose(p *player.Player, choices []Choice, id int, b *narrative.Builder) error {
	var picked *Choice
	ids := make([]string, 0, len(choices))
	for i := range choices {
		ids = append(ids, strconv.Itoa(choices[i].ID))
		if choices[i].ID == id {
			picked = &choices[i]
		}
	}
	if picked == nil {
		return gameerr.Newf(gameerr.CodeInvalidInput, "无效的选择，请选择 %s 中的一个。", strings.Join(ids, ", "))
	}

	scale := float64(1 + max(p.LevelIndex, 0))
	switch picked.Option {
	case OptionCombatIntense:
		b.Append("你选择了危险的道路，前方将面临激烈战斗！")
	case OptionBalanced:
		b.Append("你选择了平衡的道路，稳步前进。")
	case OptionSafe:
		gold := randInt(e.rng, 50, 100) * int(scale)
		p.Gold += gold
		b.Append("你选择了安全的道路，虽然奖励较少但很稳妥。")
		b.Line("你在路上捡到了 %d 灵石。", gold)
	case OptionRiskyChest, OptionSafeChest:
		if picked.Option == OptionRiskyChest && e.rng.Float64() < picked.TrapChance {
			dmg := p.Hurt(int(float64(p.MaxHP) * 0.25))
			b.Line("💀 宝箱是个陷阱！你受到了 %d 点伤害。", dmg)
			break
		}
		lo, hi := 150, 300
		if picked.Option == OptionSafeChest {
			lo, hi = 100, 200
		}
		gold := int(float64(randInt(e.rng, lo, hi)) * scale * picked.RewardMultiplier)
		p.Gold += gold
		if picked.Option == OptionRiskyChest {
			b.Line("🎉 宝箱中装满了财宝！你获得了 %d 灵石！", gold)
		} else {
			b.Line("你小心翼翼地打开宝箱，获得了 %d 灵石。", gold)
		}
	default:
		b.Append("你决定不冒险，继续前进。")
	}
	return nil
}
