package worldboss

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lawnchairsociety/realmcore/internal/logger"
	"github.com/lawnchairsociety/realmcore/internal/narrative"
)

var rankTitles = []string{"🥇第一", "🥈第二", "🥉第三"}

const topContributorCount = 5

func bonus(table []int, rank int) int {
	if rank < len(table) {
		return table[rank]
	}
	return 0
}

// Split divides a boss's gold and experience among participants in
// proportion to damage, then adds the rank bonuses. Participants must be
// ordered by damage, highest first.
func Split(ps []Participant, gold, exp int, bonusGold, bonusExp []int) []Reward {
	total := 0
	for _, p := range ps {
		total += p.TotalDamage
	}
	total = max(1, total)

	rewards := make([]Reward, 0, len(ps))
	for rank, p := range ps {
		rewards = append(rewards, Reward{
			Rank:        rank,
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Damage:      p.TotalDamage,
			Gold:        gold*p.TotalDamage/total + bonus(bonusGold, rank),
			Experience:  exp*p.TotalDamage/total + bonus(bonusExp, rank),
		})
	}
	return rewards
}

// settle pays out a defeated instance. It returns ErrAlreadySettled if
// another request got there first.
func (m *Manager) settle(ctx context.Context, inst Instance) (*Settlement, error) {
	tmpl, ok := m.templates.Boss(inst.BossID)
	if !ok {
		return nil, fmt.Errorf("no template for boss %s", inst.BossID)
	}
	boss, err := m.newBoss(inst.BossID, inst.LevelIndex)
	if err != nil {
		return nil, err
	}

	ps, err := m.store.Participants(ctx, inst.BossID)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	killedAt := inst.DefeatedAt
	if killedAt.IsZero() {
		killedAt = m.now()
	}

	s := &Settlement{
		BossID:        inst.BossID,
		BossName:      boss.Name,
		KilledAt:      killedAt,
		CooldownHours: int(m.respawnCooldown(tmpl).Hours()),
	}
	if len(ps) > 0 {
		s.Rewards = Split(ps, boss.Rewards.Gold, boss.Rewards.Experience, m.rules.RankBonusGold, m.rules.RankBonusExp)
		s.TopUserID = ps[0].UserID
		s.Items = boss.Rewards.Items
		s.TopContributors = ps[:min(len(ps), topContributorCount)]
	}

	if err := m.store.CommitSettlement(ctx, *s); err != nil {
		return nil, err
	}

	if len(ps) == 0 {
		logger.Info("World boss cleared with no participants", "boss_id", inst.BossID)
		return s, nil
	}

	logger.Always("World boss settled",
		"boss_id", s.BossID,
		"name", s.BossName,
		"participants", len(s.Rewards),
		"top_user_id", s.TopUserID,
		"items", len(s.Items))

	if m.notifier != nil {
		if err := m.notifier.Notify(ctx, BroadcastMessage(s)); err != nil {
			logger.Warning("Failed to broadcast boss kill", "boss_id", s.BossID, "error", err)
		}
	}
	return s, nil
}

// settlementReport renders the payout shown to the player who landed the
// killing blow.
func (m *Manager) settlementReport(s *Settlement) []string {
	if len(s.Rewards) == 0 {
		return []string{"但似乎无人对此Boss造成伤害，奖励无人获得。"}
	}

	var b narrative.Builder
	b.Blank()
	b.Append("--- 战利品结算 ---")
	for _, r := range s.Rewards {
		line := narrative.Sprintf("道友 %s 获得灵石 %d，修为 %d", r.DisplayName, r.Gold, r.Experience)
		if r.Rank < len(rankTitles) {
			line = fmt.Sprintf("%s %s（含排名奖励）", rankTitles[r.Rank], line)
		}
		b.Append(line)

		if r.Rank == 0 && len(s.Items) > 0 {
			b.Append("  🎁 首功奖励: " + m.itemList(s.Items))
		}
	}
	b.Blank()
	b.Line("⏰ 此Boss将在 %d 小时后重新刷新", s.CooldownHours)
	return b.Lines()
}

func (m *Manager) itemList(items map[string]int) string {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, fmt.Sprintf("%sx%d", m.templates.ItemName(id), items[id]))
	}
	return strings.Join(names, ", ")
}

// BroadcastMessage renders the server-wide kill announcement.
func BroadcastMessage(s *Settlement) string {
	icons := []string{"🥇", "🥈", "🥉", "4.", "5."}

	var b narrative.Builder
	b.Line("📢 世界Boss【%s】已被击杀！", s.BossName)
	b.Blank()
	b.Append("🏆 功勋榜：")
	for i, c := range s.TopContributors {
		icon := fmt.Sprintf("%d.", i+1)
		if i < len(icons) {
			icon = icons[i]
		}
		b.Line("  %s %s - %d伤害", icon, c.DisplayName, c.TotalDamage)
	}
	b.Blank()
	b.Line("⏰ Boss将在 %d 小时后重新刷新", s.CooldownHours)
	return b.String()
}
