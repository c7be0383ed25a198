package realm

import (
	"math/rand"

	"github.com/lawnchairsociety/realmcore/internal/gamedata"
	"github.com/lawnchairsociety/realmcore/internal/player"
)

// Default elite bonus when the rules leave it unset.
const defaultEliteMultiplier = 1.5

func randInt(rng *rand.Rand, lo, hi int) int {
	return lo + rng.Intn(hi-lo+1)
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func pickString(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

// pickEvent walks the ordered weight table with a single draw.
func pickEvent(w Weights, rng *rand.Rand) EventType {
	r := rng.Float64() * w.Sum()
	for _, e := range w {
		r -= e.Weight
		if r < 0 {
			return e.Type
		}
	}
	return w[len(w)-1].Type
}

func (g *Generator) event(rt Type, floor, total, level int, monsters []string, rng *rand.Rand) FloorEvent {
	switch pickEvent(AdjustedWeights(rt.Weights, floor, total), rng) {
	case EventMonster:
		return monsterEvent(monsters, rng)
	case EventTrap:
		return trapEvent(level, rng)
	case EventChoice:
		return choiceEvent(rng)
	case EventBlessing:
		return blessingEvent(rt.Key, rng)
	case EventMerchant:
		return merchantEvent(level, g.templates.Items(), rng)
	case EventElite:
		return eliteEvent(monsters, g.eliteMultiplier(), rng)
	case EventMystery:
		return mysteryEvent(level, rng)
	default:
		return treasureEvent(level, rng)
	}
}

func monsterEvent(monsters []string, rng *rand.Rand) FloorEvent {
	return FloorEvent{
		Type:        EventMonster,
		Description: "前方传来妖兽的咆哮声...",
		Data:        EventData{TemplateID: pickString(rng, monsters)},
	}
}

func eliteEvent(monsters []string, mult float64, rng *rand.Rand) FloorEvent {
	return FloorEvent{
		Type:        EventElite,
		Description: "⚠️ 你感受到强大的气息，这里有一只精英妖兽！",
		Data:        EventData{TemplateID: pickString(rng, monsters), RewardMultiplier: mult},
	}
}

func bossEvent(bosses []string, rng *rand.Rand) FloorEvent {
	return FloorEvent{
		Type:        EventBoss,
		Description: "⚔️ 前方传来强大的威压，最终Boss就在眼前！",
		Data:        EventData{TemplateID: pickString(rng, bosses)},
	}
}

var treasureDescriptions = []string{
	"你发现了一个散发着灵光的宝箱！",
	"墙角处有一个古旧的木箱...",
	"地面上遗落着一个储物袋。",
}

func treasureEvent(level int, rng *rand.Rand) FloorEvent {
	gold := int(float64(randInt(rng, 80, 200)) * (1 + float64(level)*0.5))
	return FloorEvent{
		Type:        EventTreasure,
		Description: pickString(rng, treasureDescriptions),
		Data:        EventData{Gold: gold},
	}
}

func trapEvent(level int, rng *rand.Rand) FloorEvent {
	var (
		name, desc string
		pct        float64
		loss       int
	)
	switch rng.Intn(3) {
	case 0:
		name, desc = "毒雾陷阱", "💀 你触发了一个毒雾陷阱！"
		pct = uniform(rng, 0.15, 0.30)
		loss = randInt(rng, 50, 150) * (1 + level)
	case 1:
		name, desc = "落石陷阱", "💀 天花板突然坍塌，巨石砸落！"
		pct = uniform(rng, 0.20, 0.35)
	default:
		name, desc = "灵力吸收阵", "💀 你踏入了一个灵力吸收法阵！"
		pct = uniform(rng, 0.10, 0.20)
		loss = randInt(rng, 100, 300) * (1 + level)
	}
	return FloorEvent{
		Type:        EventTrap,
		Description: desc,
		Data:        EventData{Name: name, DamagePercent: pct, GoldLoss: loss},
	}
}

var choiceTemplates = []struct {
	desc    string
	choices []Choice
}{
	{
		desc: "🔱 前方出现了三条岔路，你该如何选择？",
		choices: []Choice{
			{ID: 1, Text: "左路 - 隐约听到战斗声（高风险高回报）", Option: OptionCombatIntense, RewardMultiplier: 1.8},
			{ID: 2, Text: "中路 - 平坦宽阔的大道（平衡）", Option: OptionBalanced, RewardMultiplier: 1.0},
			{ID: 3, Text: "右路 - 幽静的小径（低风险低回报）", Option: OptionSafe, RewardMultiplier: 0.6},
		},
	},
	{
		desc: "🎁 你发现一个闪光的华丽宝箱，但周围有可疑的符文...",
		choices: []Choice{
			{ID: 1, Text: "直接打开（可能有陷阱或大奖）", Option: OptionRiskyChest, TrapChance: 0.4, RewardMultiplier: 2.0},
			{ID: 2, Text: "小心检查后再开（安全但可能减少奖励）", Option: OptionSafeChest, TrapChance: 0.1, RewardMultiplier: 1.2},
			{ID: 3, Text: "放弃这个宝箱，继续前进", Option: OptionSkip},
		},
	},
}

func choiceEvent(rng *rand.Rand) FloorEvent {
	t := choiceTemplates[rng.Intn(len(choiceTemplates))]
	return FloorEvent{
		Type:           EventChoice,
		Description:    t.desc,
		Choices:        append([]Choice(nil), t.choices...),
		RequiresChoice: true,
	}
}

type blessingTemplate struct {
	name   string
	desc   string
	effect Effect
}

var curses = []blessingTemplate{
	{"虚弱诅咒", "😈 你触碰了邪恶的雕像，感到力量被削弱...",
		Effect{Kind: EffectBuff, Buff: player.DebuffAttack, Value: 5, Duration: 3}},
	{"破甲诅咒", "😈 黑暗能量侵蚀了你的防御...",
		Effect{Kind: EffectBuff, Buff: player.DebuffDefense, Value: 3, Duration: 3}},
}

var blessings = []blessingTemplate{
	{"力量祝福", "✨ 你在古老的祭坛前祈祷，获得了力量的祝福！",
		Effect{Kind: EffectBuff, Buff: player.BuffAttack, Value: 8, Duration: 5}},
	{"守护祝福", "✨ 神圣的光芒笼罩着你，防御力大幅提升！",
		Effect{Kind: EffectBuff, Buff: player.BuffDefense, Value: 5, Duration: 5}},
	{"生命祝福", "✨ 温暖的能量流淌全身，生命值恢复了！",
		Effect{Kind: EffectHeal, Percent: 0.3}},
}

func blessingEvent(realmType string, rng *rand.Rand) FloorEvent {
	curseChance := 0.2
	if realmType == "ghost" {
		curseChance = 0.3
	}

	pool, curse := blessings, false
	if rng.Float64() < curseChance {
		pool, curse = curses, true
	}
	b := pool[rng.Intn(len(pool))]
	effect := b.effect
	return FloorEvent{
		Type:        EventBlessing,
		Description: b.desc,
		Data:        EventData{Name: b.name, Curse: curse, Effect: &effect},
	}
}

func merchantEvent(level int, items []gamedata.Item, rng *rand.Rand) FloorEvent {
	offerings := []Offering{
		{
			ID:          "heal_potion",
			Name:        "疗伤丹药",
			Description: "恢复30%生命值",
			Cost:        100 + level*30,
			Effect:      Effect{Kind: EffectHeal, Percent: 0.3},
		},
		{
			ID:          "power_potion",
			Name:        "爆发丹药",
			Description: "攻击力+10，持续3场战斗",
			Cost:        150 + level*40,
			Effect:      Effect{Kind: EffectBuff, Buff: player.BuffAttack, Value: 10, Duration: 3},
		},
	}

	var stock []gamedata.Item
	for _, it := range items {
		if (it.Rank == gamedata.RankCommon || it.Rank == gamedata.RankRare) && it.Type != gamedata.TypeManual {
			stock = append(stock, it)
		}
	}
	if len(stock) > 0 {
		it := stock[rng.Intn(len(stock))]
		offerings = append(offerings, Offering{
			ID:          "item_" + it.ID,
			Name:        it.Name,
			Description: it.Description,
			Cost:        int(float64(it.Price) * 0.8),
			Effect:      Effect{Kind: EffectItem, ItemID: it.ID},
		})
	}

	return FloorEvent{
		Type:           EventMerchant,
		Description:    "🧙 你遇到了一位神秘的商人...",
		Data:           EventData{Offerings: offerings},
		RequiresChoice: true,
	}
}

func mysteryEvent(level int, rng *rand.Rand) FloorEvent {
	var (
		desc string
		m    Mystery
	)
	switch rng.Intn(4) {
	case 0:
		desc = "🌟 你发现了一处灵泉，泉水散发着浓郁的灵气..."
		m = Mystery{
			Outcome: MysteryHealAndBuff,
			Percent: 0.5,
			Effect:  &Effect{Kind: EffectBuff, Buff: player.BuffAttack, Value: 5, Duration: 3},
		}
	case 1:
		desc = "💎 墙壁上镶嵌着一颗发光的宝石..."
		m = Mystery{Outcome: MysteryGoldBonus, Gold: randInt(rng, 200, 500) * (1 + level)}
	case 2:
		desc = "⚡ 你不小心触发了一个传送阵，被传送到了未知区域..."
		m = Mystery{Outcome: MysteryDamage, Percent: 0.15}
	default:
		desc = "🕸️ 你走进了一片蛛网密布的区域..."
		m = Mystery{
			Outcome: MysteryDebuff,
			Effect:  &Effect{Kind: EffectBuff, Buff: player.DebuffDefense, Value: 3, Duration: 2},
		}
	}
	return FloorEvent{
		Type:        EventMystery,
		Description: desc,
		Data:        EventData{Mystery: &m},
	}
}
